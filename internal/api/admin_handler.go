package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"fitlog/fitness-tracker/internal/domain"
	"fitlog/fitness-tracker/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminHandler holds the admin service dependency.
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

type AdminUpdateUserRequest struct {
	FirstName      *string    `json:"firstName" binding:"omitempty,min=1,max=50"`
	LastName       *string    `json:"lastName" binding:"omitempty,min=1,max=50"`
	Email          *string    `json:"email" binding:"omitempty,email"`
	Role           *string    `json:"role" binding:"omitempty,oneof=user trainer admin"`
	IsActive       *bool      `json:"isActive"`
	ProfilePicture *string    `json:"profilePicture"`
	Height         *float64   `json:"height" binding:"omitempty,gt=0"`
	Weight         *float64   `json:"weight" binding:"omitempty,gt=0"`
	DateOfBirth    *time.Time `json:"dateOfBirth"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}

// ListUsers godoc
// @Summary List all users (admin only)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserListResponse
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context())
	if err != nil {
		h.mapAdminError(c, err)
		return
	}

	resp := UserListResponse{Users: make([]UserResponse, 0, len(users)), Total: len(users)}
	for i := range users {
		resp.Users = append(resp.Users, MapUserToResponse(&users[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetUser godoc
// @Summary Get any user by id (admin only)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} UserResponse
// @Router /admin/users/{id} [get]
func (h *AdminHandler) GetUser(c *gin.Context) {
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}

	user, err := h.adminService.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.mapAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// UpdateUser godoc
// @Summary Update any user, including role and activation (admin only)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param user body AdminUpdateUserRequest true "Partial user"
// @Success 200 {object} UserResponse
// @Router /admin/users/{id} [patch]
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}

	var req AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	input := service.AdminUpdateUserInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		IsActive:       req.IsActive,
		ProfilePicture: req.ProfilePicture,
		Height:         req.Height,
		Weight:         req.Weight,
		DateOfBirth:    req.DateOfBirth,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		input.Role = &role
	}

	user, err := h.adminService.UpdateUser(c.Request.Context(), userID, input)
	if err != nil {
		h.mapAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// DeleteUser godoc
// @Summary Delete any user account (admin only, not your own)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} gin.H
// @Failure 400 {object} gin.H "Attempted self-deletion"
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), actor.ID, userID); err != nil {
		h.mapAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "User deleted successfully"})
}

// GetDashboardStats godoc
// @Summary Aggregate user statistics for the admin dashboard
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.DashboardStats
// @Router /admin/stats [get]
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats(c.Request.Context())
	if err != nil {
		h.mapAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) userIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format")
		return primitive.NilObjectID, false
	}
	return userID, true
}

func (h *AdminHandler) mapAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSelfDeletion):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
