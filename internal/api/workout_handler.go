package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fitlog/fitness-tracker/internal/domain"
	"fitlog/fitness-tracker/internal/repository"
	"fitlog/fitness-tracker/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutHandler holds the workout service dependency.
type WorkoutHandler struct {
	workoutService service.WorkoutService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- Request DTOs ---

type ExerciseSetRequest struct {
	ID        *string  `json:"id"`
	SetNumber int      `json:"setNumber" binding:"required,min=1"`
	Weight    *float64 `json:"weight" binding:"omitempty,gte=0"`
	Reps      *int     `json:"reps" binding:"omitempty,gte=0"`
	Duration  *int     `json:"duration" binding:"omitempty,gte=0"`
	Distance  *float64 `json:"distance" binding:"omitempty,gte=0"`
	Notes     *string  `json:"notes"`
}

type WorkoutExerciseRequest struct {
	ID         *string              `json:"id"`
	ExerciseID string               `json:"exerciseId" binding:"required"`
	Order      int                  `json:"order" binding:"min=0"`
	Notes      *string              `json:"notes"`
	Sets       []ExerciseSetRequest `json:"sets" binding:"omitempty,dive"`
}

type CreateWorkoutRequest struct {
	Name             string                   `json:"name" binding:"required,min=2,max=100"`
	Description      string                   `json:"description"`
	ScheduledDate    time.Time                `json:"scheduledDate" binding:"required"`
	Duration         int                      `json:"duration" binding:"omitempty,min=0"`
	WorkoutExercises []WorkoutExerciseRequest `json:"workoutExercises" binding:"omitempty,dive"`
}

// UpdateWorkoutRequest is a partial update. Omitting workoutExercises leaves
// the exercise tree untouched, while sending an empty array deletes every
// exercise and its sets.
type UpdateWorkoutRequest struct {
	Name             *string                  `json:"name" binding:"omitempty,min=2,max=100"`
	Description      *string                  `json:"description"`
	ScheduledDate    *time.Time               `json:"scheduledDate"`
	CompletedDate    *time.Time               `json:"completedDate"`
	IsCompleted      *bool                    `json:"isCompleted"`
	Duration         *int                     `json:"duration" binding:"omitempty,min=0"`
	WorkoutExercises []WorkoutExerciseRequest `json:"workoutExercises" binding:"omitempty,dive"`
}

// --- Response DTOs ---

type ExerciseSetResponse struct {
	ID          string   `json:"id"`
	SetNumber   int      `json:"setNumber"`
	Weight      *float64 `json:"weight,omitempty"`
	Reps        *int     `json:"reps,omitempty"`
	Duration    *int     `json:"duration,omitempty"`
	Distance    *float64 `json:"distance,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	IsCompleted bool     `json:"isCompleted"`
}

type WorkoutExerciseResponse struct {
	ID          string                `json:"id"`
	ExerciseID  string                `json:"exerciseId"`
	Order       int                   `json:"order"`
	Notes       string                `json:"notes,omitempty"`
	IsCompleted bool                  `json:"isCompleted"`
	Exercise    *ExerciseResponse     `json:"exercise,omitempty"`
	Sets        []ExerciseSetResponse `json:"sets"`
}

type WorkoutResponse struct {
	ID               string                    `json:"id"`
	UserID           string                    `json:"userId"`
	Name             string                    `json:"name"`
	Description      string                    `json:"description,omitempty"`
	ScheduledDate    time.Time                 `json:"scheduledDate"`
	CompletedDate    *time.Time                `json:"completedDate,omitempty"`
	IsCompleted      bool                      `json:"isCompleted"`
	Duration         int                       `json:"duration"`
	WorkoutExercises []WorkoutExerciseResponse `json:"workoutExercises"`
	CreatedAt        time.Time                 `json:"createdAt"`
	UpdatedAt        time.Time                 `json:"updatedAt"`
}

type WorkoutListResponse struct {
	Workouts []WorkoutResponse `json:"workouts"`
	Total    int64             `json:"total"`
}

// --- Handler Methods ---

// CreateWorkout godoc
// @Summary Create a workout with its full exercise/set tree
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workout body CreateWorkoutRequest true "Workout"
// @Success 201 {object} WorkoutResponse
// @Failure 400 {object} gin.H "Validation error"
// @Failure 404 {object} gin.H "Referenced catalog exercise not found"
// @Router /workouts [post]
func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercises, err := mapWorkoutExerciseRequests(req.WorkoutExercises)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.workoutService.CreateWorkout(c.Request.Context(), user.ID, service.CreateWorkoutInput{
		Name:             req.Name,
		Description:      req.Description,
		ScheduledDate:    req.ScheduledDate,
		Duration:         req.Duration,
		WorkoutExercises: exercises,
	})
	if err != nil {
		h.mapWorkoutError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutToResponse(detail))
}

// GetWorkout godoc
// @Summary Get a workout by id with ordered nested relations
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workout ID"
// @Success 200 {object} WorkoutResponse
// @Failure 403 {object} gin.H "Not the workout's owner"
// @Failure 404 {object} gin.H "Workout not found"
// @Router /workouts/{id} [get]
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	user, workoutID, ok := h.userAndWorkoutID(c)
	if !ok {
		return
	}

	detail, err := h.workoutService.GetWorkoutByID(c.Request.Context(), user.ID, workoutID)
	if err != nil {
		h.mapWorkoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(detail))
}

// ListWorkouts godoc
// @Summary List the current user's workouts
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Param isCompleted query bool false "Filter by completion flag"
// @Param startDate query string false "scheduledDate lower bound (RFC 3339 or YYYY-MM-DD)"
// @Param endDate query string false "scheduledDate upper bound"
// @Success 200 {object} WorkoutListResponse
// @Router /workouts [get]
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	filter := repository.WorkoutFilter{
		Page:  parseIntQuery(c, "page", 1),
		Limit: parseIntQuery(c, "limit", 10),
	}
	if v := c.Query("isCompleted"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "isCompleted must be a boolean")
			return
		}
		filter.IsCompleted = &completed
	}
	if v := c.Query("startDate"); v != "" {
		t, err := parseDateQuery(v)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "startDate is not a valid date")
			return
		}
		filter.StartDate = &t
	}
	if v := c.Query("endDate"); v != "" {
		t, err := parseDateQuery(v)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "endDate is not a valid date")
			return
		}
		filter.EndDate = &t
	}

	details, total, err := h.workoutService.ListWorkouts(c.Request.Context(), user.ID, filter)
	if err != nil {
		h.mapWorkoutError(c, err)
		return
	}

	resp := WorkoutListResponse{Workouts: make([]WorkoutResponse, 0, len(details)), Total: total}
	for i := range details {
		resp.Workouts = append(resp.Workouts, MapWorkoutToResponse(&details[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateWorkout godoc
// @Summary Update a workout, reconciling the submitted exercise tree
// @Description Scalar fields are patched; the workoutExercises list is
// @Description diffed against the persisted tree in one transaction.
// @Description Omitting workoutExercises leaves exercises untouched; an
// @Description empty array deletes all of them.
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workout ID"
// @Param workout body UpdateWorkoutRequest true "Partial workout"
// @Success 200 {object} WorkoutResponse
// @Failure 403 {object} gin.H "Not the workout's owner"
// @Failure 404 {object} gin.H "Workout or referenced exercise not found"
// @Router /workouts/{id} [patch]
func (h *WorkoutHandler) UpdateWorkout(c *gin.Context) {
	user, workoutID, ok := h.userAndWorkoutID(c)
	if !ok {
		return
	}

	var req UpdateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	input := service.UpdateWorkoutInput{
		Name:          req.Name,
		Description:   req.Description,
		ScheduledDate: req.ScheduledDate,
		CompletedDate: req.CompletedDate,
		IsCompleted:   req.IsCompleted,
		Duration:      req.Duration,
	}
	// Preserve the absent-vs-empty distinction when mapping the tree.
	if req.WorkoutExercises != nil {
		exercises, err := mapWorkoutExerciseRequests(req.WorkoutExercises)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		input.WorkoutExercises = exercises
	}

	detail, err := h.workoutService.UpdateWorkout(c.Request.Context(), user.ID, workoutID, input)
	if err != nil {
		h.mapWorkoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(detail))
}

// DeleteWorkout godoc
// @Summary Delete a workout (cascades to exercises and sets)
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workout ID"
// @Success 200 {object} gin.H
// @Router /workouts/{id} [delete]
func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	user, workoutID, ok := h.userAndWorkoutID(c)
	if !ok {
		return
	}

	if err := h.workoutService.DeleteWorkout(c.Request.Context(), user.ID, workoutID); err != nil {
		h.mapWorkoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Workout deleted successfully"})
}

// CompleteWorkout godoc
// @Summary Mark a workout completed, cascading to exercises and sets
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workout ID"
// @Success 200 {object} WorkoutResponse
// @Router /workouts/{id}/complete [patch]
func (h *WorkoutHandler) CompleteWorkout(c *gin.Context) {
	user, workoutID, ok := h.userAndWorkoutID(c)
	if !ok {
		return
	}

	detail, err := h.workoutService.CompleteWorkout(c.Request.Context(), user.ID, workoutID)
	if err != nil {
		h.mapWorkoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(detail))
}

// ReopenWorkout godoc
// @Summary Reopen a completed workout, clearing completion on all children
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workout ID"
// @Success 200 {object} WorkoutResponse
// @Router /workouts/{id}/reopen [patch]
func (h *WorkoutHandler) ReopenWorkout(c *gin.Context) {
	user, workoutID, ok := h.userAndWorkoutID(c)
	if !ok {
		return
	}

	detail, err := h.workoutService.ReopenWorkout(c.Request.Context(), user.ID, workoutID)
	if err != nil {
		h.mapWorkoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(detail))
}

// --- helpers ---

func (h *WorkoutHandler) userAndWorkoutID(c *gin.Context) (*domain.User, primitive.ObjectID, bool) {
	user, err := currentUser(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Authentication required")
		return nil, primitive.NilObjectID, false
	}
	workoutID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return nil, primitive.NilObjectID, false
	}
	return user, workoutID, true
}

func (h *WorkoutHandler) mapWorkoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWorkoutNotFound), errors.Is(err, service.ErrCatalogExerciseNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrWorkoutAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

func mapWorkoutExerciseRequests(reqs []WorkoutExerciseRequest) ([]service.WorkoutExerciseInput, error) {
	if reqs == nil {
		return nil, nil
	}
	inputs := make([]service.WorkoutExerciseInput, 0, len(reqs))
	for _, r := range reqs {
		exerciseID, err := primitive.ObjectIDFromHex(r.ExerciseID)
		if err != nil {
			return nil, fmt.Errorf("invalid exerciseId format: %s", r.ExerciseID)
		}
		in := service.WorkoutExerciseInput{
			ExerciseID: exerciseID,
			Order:      r.Order,
			Notes:      derefString(r.Notes),
		}
		if in.ID, err = parseOptionalObjectID(r.ID); err != nil {
			return nil, err
		}
		for _, sr := range r.Sets {
			setIn := service.ExerciseSetInput{
				SetNumber: sr.SetNumber,
				Weight:    sr.Weight,
				Reps:      sr.Reps,
				Duration:  sr.Duration,
				Distance:  sr.Distance,
				Notes:     derefString(sr.Notes),
			}
			if setIn.ID, err = parseOptionalObjectID(sr.ID); err != nil {
				return nil, err
			}
			in.Sets = append(in.Sets, setIn)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func parseOptionalObjectID(s *string) (*primitive.ObjectID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(*s)
	if err != nil {
		return nil, fmt.Errorf("invalid id format: %s", *s)
	}
	return &id, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func parseDateQuery(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

// MapWorkoutToResponse converts a workout detail tree to its response DTO.
func MapWorkoutToResponse(detail *domain.WorkoutDetail) WorkoutResponse {
	resp := WorkoutResponse{
		ID:               detail.ID.Hex(),
		UserID:           detail.UserID.Hex(),
		Name:             detail.Name,
		Description:      detail.Description,
		ScheduledDate:    detail.ScheduledDate,
		CompletedDate:    detail.CompletedDate,
		IsCompleted:      detail.IsCompleted,
		Duration:         detail.Duration,
		WorkoutExercises: make([]WorkoutExerciseResponse, 0, len(detail.WorkoutExercises)),
		CreatedAt:        detail.CreatedAt,
		UpdatedAt:        detail.UpdatedAt,
	}
	for _, we := range detail.WorkoutExercises {
		weResp := WorkoutExerciseResponse{
			ID:          we.ID.Hex(),
			ExerciseID:  we.ExerciseID.Hex(),
			Order:       we.Order,
			Notes:       we.Notes,
			IsCompleted: we.IsCompleted,
			Sets:        make([]ExerciseSetResponse, 0, len(we.Sets)),
		}
		if we.Exercise != nil {
			ex := MapExerciseToResponse(we.Exercise)
			weResp.Exercise = &ex
		}
		for _, set := range we.Sets {
			weResp.Sets = append(weResp.Sets, ExerciseSetResponse{
				ID:          set.ID.Hex(),
				SetNumber:   set.SetNumber,
				Weight:      set.Weight,
				Reps:        set.Reps,
				Duration:    set.Duration,
				Distance:    set.Distance,
				Notes:       set.Notes,
				IsCompleted: set.IsCompleted,
			})
		}
		resp.WorkoutExercises = append(resp.WorkoutExercises, weResp)
	}
	return resp
}
