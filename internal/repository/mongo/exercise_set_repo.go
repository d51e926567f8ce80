package mongo

import (
	"context"
	"errors"
	"time"

	"fitlog/fitness-tracker/internal/domain"
	"fitlog/fitness-tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const exerciseSetCollectionName = "exercise_sets"

// mongoExerciseSetRepository implements repository.ExerciseSetRepository
type mongoExerciseSetRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseSetRepository creates a new ExerciseSet repository.
func NewMongoExerciseSetRepository(db *mongo.Database) repository.ExerciseSetRepository {
	return &mongoExerciseSetRepository{
		collection: db.Collection(exerciseSetCollectionName),
	}
}

// Create inserts a new set row.
func (r *mongoExerciseSetRepository) Create(ctx context.Context, set *domain.ExerciseSet) (primitive.ObjectID, error) {
	if set.WorkoutExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("exercise set requires workoutExerciseId")
	}
	set.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	set.CreatedAt = now
	set.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, set)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return set.ID, nil
}

// Update writes all value fields of an existing set row.
func (r *mongoExerciseSetRepository) Update(ctx context.Context, set *domain.ExerciseSet) error {
	if set.ID == primitive.NilObjectID {
		return errors.New("exercise set ID is required for update")
	}
	update := bson.M{
		"$set": bson.M{
			"setNumber":   set.SetNumber,
			"weight":      set.Weight,
			"reps":        set.Reps,
			"duration":    set.Duration,
			"distance":    set.Distance,
			"notes":       set.Notes,
			"isCompleted": set.IsCompleted,
			"updatedAt":   time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": set.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoExerciseSetRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetByWorkoutExerciseID returns all sets of an exercise, setNumber ascending.
func (r *mongoExerciseSetRepository) GetByWorkoutExerciseID(ctx context.Context, workoutExerciseID primitive.ObjectID) ([]domain.ExerciseSet, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "setNumber", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"workoutExerciseId": workoutExerciseID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sets []domain.ExerciseSet
	if err = cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (r *mongoExerciseSetRepository) DeleteByWorkoutExerciseID(ctx context.Context, workoutExerciseID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"workoutExerciseId": workoutExerciseID})
	return err
}

func (r *mongoExerciseSetRepository) DeleteByWorkoutExerciseIDs(ctx context.Context, workoutExerciseIDs []primitive.ObjectID) error {
	if len(workoutExerciseIDs) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"workoutExerciseId": bson.M{"$in": workoutExerciseIDs}})
	return err
}

func (r *mongoExerciseSetRepository) SetCompletionByWorkoutExerciseIDs(ctx context.Context, workoutExerciseIDs []primitive.ObjectID, completed bool) error {
	if len(workoutExerciseIDs) == 0 {
		return nil
	}
	update := bson.M{"$set": bson.M{"isCompleted": completed, "updatedAt": time.Now().UTC()}}
	_, err := r.collection.UpdateMany(ctx, bson.M{"workoutExerciseId": bson.M{"$in": workoutExerciseIDs}}, update)
	return err
}

// EnsureExerciseSetIndexes creates necessary indexes. Call during startup.
func EnsureExerciseSetIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workoutExerciseId", Value: 1}, {Key: "setNumber", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
