package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workout is a scheduled or completed training session owned by exactly one user.
type Workout struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	ScheduledDate time.Time          `bson:"scheduledDate" json:"scheduledDate"`
	CompletedDate *time.Time         `bson:"completedDate,omitempty" json:"completedDate,omitempty"`
	IsCompleted   bool               `bson:"isCompleted" json:"isCompleted"`
	Duration      int                `bson:"duration" json:"duration"` // minutes
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutExercise is one catalog exercise's occurrence inside a workout.
// Order defines the display/processing sequence within the workout.
// The workout exclusively owns its exercises: deleting the workout removes them.
type WorkoutExercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutID   primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	ExerciseID  primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Order       int                `bson:"order" json:"order"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	IsCompleted bool               `bson:"isCompleted" json:"isCompleted"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ExerciseSet is one repetition unit within a workout exercise, numbered
// sequentially via SetNumber. All measurement fields are optional; which
// ones apply depends on the exercise type (weight/reps for strength,
// duration/distance for cardio).
type ExerciseSet struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutExerciseID primitive.ObjectID `bson:"workoutExerciseId" json:"workoutExerciseId"`
	SetNumber         int                `bson:"setNumber" json:"setNumber"`
	Weight            *float64           `bson:"weight,omitempty" json:"weight,omitempty"` // kg
	Reps              *int               `bson:"reps,omitempty" json:"reps,omitempty"`
	Duration          *int               `bson:"duration,omitempty" json:"duration,omitempty"` // seconds
	Distance          *float64           `bson:"distance,omitempty" json:"distance,omitempty"` // kilometers
	Notes             string             `bson:"notes,omitempty" json:"notes,omitempty"`
	IsCompleted       bool               `bson:"isCompleted" json:"isCompleted"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutExerciseDetail is a workout exercise expanded with its catalog
// exercise and its sets, ordered by set number ascending.
type WorkoutExerciseDetail struct {
	WorkoutExercise `bson:",inline"`
	Exercise        *Exercise     `json:"exercise,omitempty"`
	Sets            []ExerciseSet `json:"sets"`
}

// WorkoutDetail is a workout expanded with its exercises, ordered by the
// Order field ascending. This is the shape returned by all workout reads.
type WorkoutDetail struct {
	Workout          `bson:",inline"`
	WorkoutExercises []WorkoutExerciseDetail `json:"workoutExercises"`
}
