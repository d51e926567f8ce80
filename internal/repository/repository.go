package repository

import (
	"context"
	"time"

	"fitlog/fitness-tracker/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicateKey = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// TxManager runs a function inside a single database transaction. Every
// repository call made with the context passed to fn joins that
// transaction; if fn returns an error the whole transaction is rolled
// back and nothing is visible to other requests.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context) ([]domain.User, error) // newest first
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context) (map[domain.Role]int64, error)
	CountActive(ctx context.Context, active bool) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

// ExerciseFilter narrows catalog listings. Zero values mean "no filter".
type ExerciseFilter struct {
	MuscleGroup string
	Type        string
	Search      string // substring match on name/description
	Page        int    // 1-based
	Limit       int
}

// ExerciseRepository defines the interface for the exercise catalog.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByName(ctx context.Context, name string) (*domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	// List returns active exercises matching the filter, sorted by name,
	// along with the total count before pagination.
	List(ctx context.Context, filter ExerciseFilter) ([]domain.Exercise, int64, error)
}

// WorkoutFilter narrows workout listings. Nil pointers mean "no filter".
type WorkoutFilter struct {
	IsCompleted *bool
	StartDate   *time.Time // scheduledDate >= StartDate
	EndDate     *time.Time // scheduledDate <= EndDate
	Page        int        // 1-based
	Limit       int
}

// WorkoutRepository defines the interface for interacting with workout data.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	Update(ctx context.Context, workout *domain.Workout) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// ListByUserID returns the user's workouts matching the filter, sorted by
	// scheduledDate descending, along with the total count before pagination.
	ListByUserID(ctx context.Context, userID primitive.ObjectID, filter WorkoutFilter) ([]domain.Workout, int64, error)
}

// WorkoutExerciseRepository manages the exercise rows owned by a workout.
type WorkoutExerciseRepository interface {
	Create(ctx context.Context, we *domain.WorkoutExercise) (primitive.ObjectID, error)
	Update(ctx context.Context, we *domain.WorkoutExercise) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// GetByWorkoutID returns all exercises of a workout, order ascending.
	GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutExercise, error)
	DeleteByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) error
	SetCompletionByWorkoutID(ctx context.Context, workoutID primitive.ObjectID, completed bool) error
}

// ExerciseSetRepository manages the set rows owned by a workout exercise.
type ExerciseSetRepository interface {
	Create(ctx context.Context, set *domain.ExerciseSet) (primitive.ObjectID, error)
	Update(ctx context.Context, set *domain.ExerciseSet) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// GetByWorkoutExerciseID returns all sets of an exercise, setNumber ascending.
	GetByWorkoutExerciseID(ctx context.Context, workoutExerciseID primitive.ObjectID) ([]domain.ExerciseSet, error)
	DeleteByWorkoutExerciseID(ctx context.Context, workoutExerciseID primitive.ObjectID) error
	DeleteByWorkoutExerciseIDs(ctx context.Context, workoutExerciseIDs []primitive.ObjectID) error
	SetCompletionByWorkoutExerciseIDs(ctx context.Context, workoutExerciseIDs []primitive.ObjectID, completed bool) error
}
