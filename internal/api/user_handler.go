package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"fitlog/fitness-tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler holds the user profile service dependency.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type UpdateProfileRequest struct {
	FirstName      *string    `json:"firstName" binding:"omitempty,min=1,max=50"`
	LastName       *string    `json:"lastName" binding:"omitempty,min=1,max=50"`
	Email          *string    `json:"email" binding:"omitempty,email"`
	ProfilePicture *string    `json:"profilePicture"`
	Height         *float64   `json:"height" binding:"omitempty,gt=0"`
	Weight         *float64   `json:"weight" binding:"omitempty,gt=0"`
	DateOfBirth    *time.Time `json:"dateOfBirth"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// GetProfile godoc
// @Summary Get the authenticated user's profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Router /users/me [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		h.mapUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(profile))
}

// UpdateProfile godoc
// @Summary Update the authenticated user's profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body UpdateProfileRequest true "Partial profile"
// @Success 200 {object} UserResponse
// @Failure 409 {object} gin.H "Email already in use"
// @Router /users/me [patch]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), user.ID, service.UpdateProfileInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		ProfilePicture: req.ProfilePicture,
		Height:         req.Height,
		Weight:         req.Weight,
		DateOfBirth:    req.DateOfBirth,
	})
	if err != nil {
		h.mapUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(profile))
}

// ChangePassword godoc
// @Summary Change the authenticated user's password
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param passwords body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} gin.H
// @Failure 400 {object} gin.H "Current password is incorrect"
// @Router /users/me/password [patch]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.mapUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Password changed successfully"})
}

// GeneratePictureUploadURL godoc
// @Summary Get a presigned S3 upload URL for the user's profile picture
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param upload body MediaUploadRequest true "Content type of the image"
// @Success 200 {object} MediaUploadResponse
// @Router /users/me/picture-upload [post]
func (h *UserHandler) GeneratePictureUploadURL(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req MediaUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	upload, err := h.userService.GenerateProfilePictureUploadURL(c.Request.Context(), user.ID, req.ContentType)
	if err != nil {
		h.mapUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, MediaUploadResponse{
		UploadURL: upload.UploadURL,
		ObjectKey: upload.ObjectKey,
		ExpiresAt: upload.ExpiresAt,
	})
}

func (h *UserHandler) mapUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrWrongPassword), errors.Is(err, service.ErrUnsupportedMedia):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
