package service

import (
	"context"
	"errors"
	"time"

	"fitlog/fitness-tracker/internal/domain"
	"fitlog/fitness-tracker/internal/observability"
	"fitlog/fitness-tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrWorkoutNotFound         = errors.New("workout not found")
	ErrWorkoutAccessDenied     = errors.New("you do not have permission to access this workout")
	ErrCatalogExerciseNotFound = errors.New("referenced exercise not found")
)

// ExerciseSetInput is one desired set entry. A non-nil ID targets an
// existing row; a nil ID creates a new one.
type ExerciseSetInput struct {
	ID        *primitive.ObjectID
	SetNumber int
	Weight    *float64
	Reps      *int
	Duration  *int
	Distance  *float64
	Notes     string
}

// WorkoutExerciseInput is one desired exercise entry. A non-nil ID targets
// an existing row; a nil ID creates a new one. ExerciseID must reference a
// catalog exercise at write time.
type WorkoutExerciseInput struct {
	ID         *primitive.ObjectID
	ExerciseID primitive.ObjectID
	Order      int
	Notes      string
	Sets       []ExerciseSetInput
}

// CreateWorkoutInput carries a full workout tree for creation.
type CreateWorkoutInput struct {
	Name             string
	Description      string
	ScheduledDate    time.Time
	Duration         int
	WorkoutExercises []WorkoutExerciseInput
}

// UpdateWorkoutInput carries a partial workout update. Nil scalar pointers
// leave the corresponding field untouched.
//
// WorkoutExercises distinguishes three cases, and clients must mind the
// difference between omitting the field and sending an empty list:
//   - nil: the exercise tree is not reconciled at all, existing exercises
//     and sets stay as they are;
//   - empty non-nil slice: every persisted exercise (and its sets) is
//     deleted;
//   - non-empty: the desired list is reconciled against the persisted tree.
type UpdateWorkoutInput struct {
	Name             *string
	Description      *string
	ScheduledDate    *time.Time
	CompletedDate    *time.Time
	IsCompleted      *bool
	Duration         *int
	WorkoutExercises []WorkoutExerciseInput
}

// WorkoutService owns the workout lifecycle: full-tree creation, reads with
// ordered relations, the reconciling update, cascade deletion and the
// complete/reopen state machine. Every operation is scoped to the owning
// user; callers pass the authenticated user id and never anything else.
type WorkoutService interface {
	CreateWorkout(ctx context.Context, userID primitive.ObjectID, input CreateWorkoutInput) (*domain.WorkoutDetail, error)
	GetWorkoutByID(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.WorkoutDetail, error)
	// ListWorkouts returns the user's workouts with exercises expanded but
	// sets omitted, plus the total count before pagination.
	ListWorkouts(ctx context.Context, userID primitive.ObjectID, filter repository.WorkoutFilter) ([]domain.WorkoutDetail, int64, error)
	UpdateWorkout(ctx context.Context, userID, workoutID primitive.ObjectID, input UpdateWorkoutInput) (*domain.WorkoutDetail, error)
	DeleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error
	CompleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.WorkoutDetail, error)
	ReopenWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.WorkoutDetail, error)
}

// workoutService implements the WorkoutService interface.
type workoutService struct {
	workoutRepo         repository.WorkoutRepository
	workoutExerciseRepo repository.WorkoutExerciseRepository
	exerciseSetRepo     repository.ExerciseSetRepository
	exerciseRepo        repository.ExerciseRepository
	txManager           repository.TxManager
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(
	workoutRepo repository.WorkoutRepository,
	workoutExerciseRepo repository.WorkoutExerciseRepository,
	exerciseSetRepo repository.ExerciseSetRepository,
	exerciseRepo repository.ExerciseRepository,
	txManager repository.TxManager,
) WorkoutService {
	return &workoutService{
		workoutRepo:         workoutRepo,
		workoutExerciseRepo: workoutExerciseRepo,
		exerciseSetRepo:     exerciseSetRepo,
		exerciseRepo:        exerciseRepo,
		txManager:           txManager,
	}
}

// CreateWorkout inserts a full workout tree in one transaction. Unlike
// UpdateWorkout there is nothing to diff against: every entry is an insert.
func (s *workoutService) CreateWorkout(ctx context.Context, userID primitive.ObjectID, input CreateWorkoutInput) (*domain.WorkoutDetail, error) {
	if input.Name == "" {
		return nil, ErrValidationFailed
	}

	workout := &domain.Workout{
		UserID:        userID,
		Name:          input.Name,
		Description:   input.Description,
		ScheduledDate: input.ScheduledDate,
		IsCompleted:   false,
		Duration:      input.Duration,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		workoutID, err := s.workoutRepo.Create(txCtx, workout)
		if err != nil {
			return err
		}
		for _, weIn := range input.WorkoutExercises {
			if err := s.resolveCatalogExercise(txCtx, weIn.ExerciseID); err != nil {
				return err
			}
			we := &domain.WorkoutExercise{
				WorkoutID:  workoutID,
				ExerciseID: weIn.ExerciseID,
				Order:      weIn.Order,
				Notes:      weIn.Notes,
			}
			weID, err := s.workoutExerciseRepo.Create(txCtx, we)
			if err != nil {
				return err
			}
			for _, setIn := range weIn.Sets {
				set := newExerciseSet(weID, setIn)
				if _, err := s.exerciseSetRepo.Create(txCtx, set); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadWorkoutDetail(ctx, workout)
}

// GetWorkoutByID returns the full tree: exercises by order ascending, sets
// by setNumber ascending, each exercise expanded with its catalog record.
func (s *workoutService) GetWorkoutByID(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.WorkoutDetail, error) {
	workout, err := s.getOwnedWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	return s.loadWorkoutDetail(ctx, workout)
}

func (s *workoutService) ListWorkouts(ctx context.Context, userID primitive.ObjectID, filter repository.WorkoutFilter) ([]domain.WorkoutDetail, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	workouts, total, err := s.workoutRepo.ListByUserID(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}

	details := make([]domain.WorkoutDetail, 0, len(workouts))
	for i := range workouts {
		detail, err := s.assembleDetail(ctx, &workouts[i], false)
		if err != nil {
			return nil, 0, err
		}
		details = append(details, *detail)
	}
	return details, total, nil
}

// UpdateWorkout patches the workout's scalar fields and reconciles the
// submitted exercise tree against the persisted one, all inside a single
// transaction. Any failure rolls back every change.
func (s *workoutService) UpdateWorkout(ctx context.Context, userID, workoutID primitive.ObjectID, input UpdateWorkoutInput) (*domain.WorkoutDetail, error) {
	// Ownership is checked before the transaction opens; a Forbidden result
	// never touches the data.
	workout, err := s.getOwnedWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}

	reconciled := false
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if input.Name != nil {
			workout.Name = *input.Name
		}
		if input.Description != nil {
			workout.Description = *input.Description
		}
		if input.ScheduledDate != nil {
			workout.ScheduledDate = *input.ScheduledDate
		}
		if input.CompletedDate != nil {
			workout.CompletedDate = input.CompletedDate
		}
		if input.IsCompleted != nil {
			workout.IsCompleted = *input.IsCompleted
		}
		if input.Duration != nil {
			workout.Duration = *input.Duration
		}
		if err := s.workoutRepo.Update(txCtx, workout); err != nil {
			return err
		}

		// A nil slice means the field was absent from the request: the
		// exercise tree is left entirely untouched.
		if input.WorkoutExercises == nil {
			return nil
		}
		reconciled = true
		return s.reconcileExercises(txCtx, workoutID, input.WorkoutExercises)
	})
	// Recorded outside the closure so transaction retries count one
	// reconciliation, not one per attempt.
	if reconciled {
		observability.RecordReconciliation(err)
	}
	if err != nil {
		return nil, err
	}

	return s.loadWorkoutDetail(ctx, workout)
}

// DeleteWorkout removes the workout and cascades to its exercises and sets.
func (s *workoutService) DeleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error {
	if _, err := s.getOwnedWorkout(ctx, userID, workoutID); err != nil {
		return err
	}

	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		exercises, err := s.workoutExerciseRepo.GetByWorkoutID(txCtx, workoutID)
		if err != nil {
			return err
		}
		if err := s.exerciseSetRepo.DeleteByWorkoutExerciseIDs(txCtx, exerciseIDs(exercises)); err != nil {
			return err
		}
		if err := s.workoutExerciseRepo.DeleteByWorkoutID(txCtx, workoutID); err != nil {
			return err
		}
		return s.workoutRepo.Delete(txCtx, workoutID)
	})
}

// CompleteWorkout marks the workout completed and cascades the completion
// flag and timestamp to every exercise and set. This is a plain cascading
// field write, not a tree diff.
func (s *workoutService) CompleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.WorkoutDetail, error) {
	now := time.Now().UTC()
	return s.setCompletion(ctx, userID, workoutID, true, &now)
}

// ReopenWorkout clears the completion flag and timestamp on the workout and
// cascades flag-false to all children.
func (s *workoutService) ReopenWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.WorkoutDetail, error) {
	return s.setCompletion(ctx, userID, workoutID, false, nil)
}

func (s *workoutService) setCompletion(ctx context.Context, userID, workoutID primitive.ObjectID, completed bool, completedDate *time.Time) (*domain.WorkoutDetail, error) {
	workout, err := s.getOwnedWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		workout.IsCompleted = completed
		workout.CompletedDate = completedDate
		if err := s.workoutRepo.Update(txCtx, workout); err != nil {
			return err
		}
		exercises, err := s.workoutExerciseRepo.GetByWorkoutID(txCtx, workoutID)
		if err != nil {
			return err
		}
		if err := s.workoutExerciseRepo.SetCompletionByWorkoutID(txCtx, workoutID, completed); err != nil {
			return err
		}
		return s.exerciseSetRepo.SetCompletionByWorkoutExerciseIDs(txCtx, exerciseIDs(exercises), completed)
	})
	if err != nil {
		return nil, err
	}

	return s.loadWorkoutDetail(ctx, workout)
}

// --- helpers ---

// getOwnedWorkout loads a workout and enforces owner-or-403.
func (s *workoutService) getOwnedWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	if workout.UserID != userID {
		return nil, ErrWorkoutAccessDenied
	}
	return workout, nil
}

// loadWorkoutDetail re-reads the workout and assembles the full tree for
// the response.
func (s *workoutService) loadWorkoutDetail(ctx context.Context, workout *domain.Workout) (*domain.WorkoutDetail, error) {
	fresh, err := s.workoutRepo.GetByID(ctx, workout.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return s.assembleDetail(ctx, fresh, true)
}

func (s *workoutService) assembleDetail(ctx context.Context, workout *domain.Workout, withSets bool) (*domain.WorkoutDetail, error) {
	exercises, err := s.workoutExerciseRepo.GetByWorkoutID(ctx, workout.ID)
	if err != nil {
		return nil, err
	}

	detail := &domain.WorkoutDetail{
		Workout:          *workout,
		WorkoutExercises: make([]domain.WorkoutExerciseDetail, 0, len(exercises)),
	}
	for i := range exercises {
		we := exercises[i]
		entry := domain.WorkoutExerciseDetail{
			WorkoutExercise: we,
			Sets:            []domain.ExerciseSet{},
		}
		// Inactive catalog entries still resolve so historical workouts
		// keep rendering.
		catalog, err := s.exerciseRepo.GetByID(ctx, we.ExerciseID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		entry.Exercise = catalog

		if withSets {
			sets, err := s.exerciseSetRepo.GetByWorkoutExerciseID(ctx, we.ID)
			if err != nil {
				return nil, err
			}
			if sets != nil {
				entry.Sets = sets
			}
		}
		detail.WorkoutExercises = append(detail.WorkoutExercises, entry)
	}
	return detail, nil
}

func exerciseIDs(exercises []domain.WorkoutExercise) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, len(exercises))
	for i, we := range exercises {
		ids[i] = we.ID
	}
	return ids
}

func newExerciseSet(workoutExerciseID primitive.ObjectID, in ExerciseSetInput) *domain.ExerciseSet {
	return &domain.ExerciseSet{
		WorkoutExerciseID: workoutExerciseID,
		SetNumber:         in.SetNumber,
		Weight:            in.Weight,
		Reps:              in.Reps,
		Duration:          in.Duration,
		Distance:          in.Distance,
		Notes:             in.Notes,
		IsCompleted:       false,
	}
}
