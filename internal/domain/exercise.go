package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MuscleGroup classifies a catalog exercise by the primary muscles it works.
type MuscleGroup string

const (
	MuscleGroupChest     MuscleGroup = "chest"
	MuscleGroupBack      MuscleGroup = "back"
	MuscleGroupShoulders MuscleGroup = "shoulders"
	MuscleGroupArms      MuscleGroup = "arms"
	MuscleGroupLegs      MuscleGroup = "legs"
	MuscleGroupCore      MuscleGroup = "core"
	MuscleGroupFullBody  MuscleGroup = "full_body"
	MuscleGroupCardio    MuscleGroup = "cardio"
)

// ExerciseType classifies how an exercise is performed/measured.
type ExerciseType string

const (
	ExerciseTypeStrength    ExerciseType = "strength"
	ExerciseTypeCardio      ExerciseType = "cardio"
	ExerciseTypeFlexibility ExerciseType = "flexibility"
	ExerciseTypeBalance     ExerciseType = "balance"
)

// Exercise is a shared catalog entry referenced by workout exercises.
// It is never owned by a workout; deleting is a soft delete (IsActive=false)
// so historical workouts keep resolving their references.
type Exercise struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name               string             `bson:"name" json:"name"` // Should be unique
	Description        string             `bson:"description,omitempty" json:"description,omitempty"`
	PrimaryMuscleGroup MuscleGroup        `bson:"primaryMuscleGroup" json:"primaryMuscleGroup"`
	Type               ExerciseType       `bson:"type" json:"type"`
	ImageURL           string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	VideoURL           string             `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	Instructions       string             `bson:"instructions,omitempty" json:"instructions,omitempty"`
	IsActive           bool               `bson:"isActive" json:"isActive"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}
