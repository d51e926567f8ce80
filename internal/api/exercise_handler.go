package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"fitlog/fitness-tracker/internal/domain"
	"fitlog/fitness-tracker/internal/repository"
	"fitlog/fitness-tracker/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseHandler holds the exercise catalog service dependency.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

type CreateExerciseRequest struct {
	Name               string `json:"name" binding:"required,min=2,max=100"`
	Description        string `json:"description"`
	PrimaryMuscleGroup string `json:"primaryMuscleGroup" binding:"required"`
	Type               string `json:"type" binding:"required"`
	ImageURL           string `json:"imageUrl" binding:"omitempty,url"`
	VideoURL           string `json:"videoUrl" binding:"omitempty,url"`
	Instructions       string `json:"instructions"`
}

type UpdateExerciseRequest struct {
	Name               *string `json:"name" binding:"omitempty,min=2,max=100"`
	Description        *string `json:"description"`
	PrimaryMuscleGroup *string `json:"primaryMuscleGroup"`
	Type               *string `json:"type"`
	ImageURL           *string `json:"imageUrl" binding:"omitempty,url"`
	VideoURL           *string `json:"videoUrl" binding:"omitempty,url"`
	Instructions       *string `json:"instructions"`
	IsActive           *bool   `json:"isActive"`
}

type MediaUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ExerciseResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	PrimaryMuscleGroup string    `json:"primaryMuscleGroup"`
	Type               string    `json:"type"`
	ImageURL           string    `json:"imageUrl,omitempty"`
	VideoURL           string    `json:"videoUrl,omitempty"`
	Instructions       string    `json:"instructions,omitempty"`
	IsActive           bool      `json:"isActive"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type ExerciseListResponse struct {
	Exercises []ExerciseResponse `json:"exercises"`
	Total     int64              `json:"total"`
}

type MediaUploadResponse struct {
	UploadURL string    `json:"uploadUrl"`
	ObjectKey string    `json:"objectKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CreateExercise godoc
// @Summary Create a catalog exercise (admin only)
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exercise body CreateExerciseRequest true "Exercise"
// @Success 201 {object} ExerciseResponse
// @Failure 409 {object} gin.H "Exercise name already taken"
// @Router /exercises [post]
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercise, err := h.exerciseService.CreateExercise(c.Request.Context(), service.CreateExerciseInput{
		Name:               req.Name,
		Description:        req.Description,
		PrimaryMuscleGroup: domain.MuscleGroup(req.PrimaryMuscleGroup),
		Type:               domain.ExerciseType(req.Type),
		ImageURL:           req.ImageURL,
		VideoURL:           req.VideoURL,
		Instructions:       req.Instructions,
	})
	if err != nil {
		h.mapExerciseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapExerciseToResponse(exercise))
}

// GetExercise godoc
// @Summary Get a catalog exercise by id
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Success 200 {object} ExerciseResponse
// @Router /exercises/{id} [get]
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	exerciseID, ok := h.exerciseIDParam(c)
	if !ok {
		return
	}

	exercise, err := h.exerciseService.GetExerciseByID(c.Request.Context(), exerciseID)
	if err != nil {
		h.mapExerciseError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// ListExercises godoc
// @Summary List active catalog exercises
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Param muscleGroup query string false "Filter by primary muscle group"
// @Param type query string false "Filter by exercise type"
// @Param search query string false "Substring match on name/description"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} ExerciseListResponse
// @Router /exercises [get]
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	filter := repository.ExerciseFilter{
		MuscleGroup: c.Query("muscleGroup"),
		Type:        c.Query("type"),
		Search:      c.Query("search"),
		Page:        parseIntQuery(c, "page", 1),
		Limit:       parseIntQuery(c, "limit", 20),
	}

	exercises, total, err := h.exerciseService.ListExercises(c.Request.Context(), filter)
	if err != nil {
		h.mapExerciseError(c, err)
		return
	}

	resp := ExerciseListResponse{Exercises: make([]ExerciseResponse, 0, len(exercises)), Total: total}
	for i := range exercises {
		resp.Exercises = append(resp.Exercises, MapExerciseToResponse(&exercises[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateExercise godoc
// @Summary Update a catalog exercise (admin only)
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Param exercise body UpdateExerciseRequest true "Partial exercise"
// @Success 200 {object} ExerciseResponse
// @Router /exercises/{id} [patch]
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	exerciseID, ok := h.exerciseIDParam(c)
	if !ok {
		return
	}

	var req UpdateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	input := service.UpdateExerciseInput{
		Name:         req.Name,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		VideoURL:     req.VideoURL,
		Instructions: req.Instructions,
		IsActive:     req.IsActive,
	}
	if req.PrimaryMuscleGroup != nil {
		mg := domain.MuscleGroup(*req.PrimaryMuscleGroup)
		input.PrimaryMuscleGroup = &mg
	}
	if req.Type != nil {
		et := domain.ExerciseType(*req.Type)
		input.Type = &et
	}

	exercise, err := h.exerciseService.UpdateExercise(c.Request.Context(), exerciseID, input)
	if err != nil {
		h.mapExerciseError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// DeleteExercise godoc
// @Summary Soft-delete a catalog exercise (admin only)
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Success 200 {object} gin.H
// @Router /exercises/{id} [delete]
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	exerciseID, ok := h.exerciseIDParam(c)
	if !ok {
		return
	}

	if err := h.exerciseService.DeleteExercise(c.Request.Context(), exerciseID); err != nil {
		h.mapExerciseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Exercise deleted successfully"})
}

// GenerateMediaUploadURL godoc
// @Summary Get a presigned S3 upload URL for exercise media (admin only)
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise ID"
// @Param upload body MediaUploadRequest true "Content type of the media file"
// @Success 200 {object} MediaUploadResponse
// @Router /exercises/{id}/media-upload [post]
func (h *ExerciseHandler) GenerateMediaUploadURL(c *gin.Context) {
	exerciseID, ok := h.exerciseIDParam(c)
	if !ok {
		return
	}

	var req MediaUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	upload, err := h.exerciseService.GenerateMediaUploadURL(c.Request.Context(), exerciseID, req.ContentType)
	if err != nil {
		h.mapExerciseError(c, err)
		return
	}
	c.JSON(http.StatusOK, MediaUploadResponse{
		UploadURL: upload.UploadURL,
		ObjectKey: upload.ObjectKey,
		ExpiresAt: upload.ExpiresAt,
	})
}

func (h *ExerciseHandler) exerciseIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format")
		return primitive.NilObjectID, false
	}
	return exerciseID, true
}

func (h *ExerciseHandler) mapExerciseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExerciseNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrExerciseNameTaken):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrValidationFailed), errors.Is(err, service.ErrUnsupportedMedia):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// MapExerciseToResponse converts a catalog exercise to its response DTO.
func MapExerciseToResponse(exercise *domain.Exercise) ExerciseResponse {
	return ExerciseResponse{
		ID:                 exercise.ID.Hex(),
		Name:               exercise.Name,
		Description:        exercise.Description,
		PrimaryMuscleGroup: string(exercise.PrimaryMuscleGroup),
		Type:               string(exercise.Type),
		ImageURL:           exercise.ImageURL,
		VideoURL:           exercise.VideoURL,
		Instructions:       exercise.Instructions,
		IsActive:           exercise.IsActive,
		CreatedAt:          exercise.CreatedAt,
		UpdatedAt:          exercise.UpdatedAt,
	}
}
