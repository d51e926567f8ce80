package service

import (
	"context"
	"errors"
	"fmt"

	"fitlog/fitness-tracker/internal/domain"
	"fitlog/fitness-tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workout tree reconciliation.
//
// The persisted children are loaded into a map keyed by identifier (the
// arena), the desired list is walked in submitted order claiming entries
// out of the map, and whatever remains unclaimed afterwards is swept away.
// The same mark-then-sweep shape runs at the exercise level and, within
// each retained or created exercise, at the set level. Rows submitted with
// an id keep that id across the edit; rows without one are inserted. Every
// row is persisted before its children so set rows always reference a valid
// parent. The caller wraps the whole walk in one transaction, so a failure
// anywhere (most commonly an unknown catalog exercise id) leaves the
// workout exactly as it was.

// reconcileExercises applies the desired exercise list to the persisted
// rows of a workout. An empty desired list deletes everything; the caller
// handles the absent-list case and never invokes reconciliation for it.
func (s *workoutService) reconcileExercises(ctx context.Context, workoutID primitive.ObjectID, desired []WorkoutExerciseInput) error {
	existing, err := s.workoutExerciseRepo.GetByWorkoutID(ctx, workoutID)
	if err != nil {
		return err
	}

	if len(desired) == 0 {
		if err := s.exerciseSetRepo.DeleteByWorkoutExerciseIDs(ctx, exerciseIDs(existing)); err != nil {
			return err
		}
		return s.workoutExerciseRepo.DeleteByWorkoutID(ctx, workoutID)
	}

	unclaimed := make(map[primitive.ObjectID]*domain.WorkoutExercise, len(existing))
	for i := range existing {
		unclaimed[existing[i].ID] = &existing[i]
	}

	for _, in := range desired {
		if err := s.resolveCatalogExercise(ctx, in.ExerciseID); err != nil {
			return err
		}

		var we *domain.WorkoutExercise
		if in.ID != nil {
			we = unclaimed[*in.ID]
		}
		if we != nil {
			// Claimed: mutate the persisted row in place, keeping its id.
			we.ExerciseID = in.ExerciseID
			we.Order = in.Order
			we.Notes = in.Notes
			if err := s.workoutExerciseRepo.Update(ctx, we); err != nil {
				return err
			}
			delete(unclaimed, we.ID)
		} else {
			// Entries without an id (or with an id that matches nothing)
			// become new rows.
			we = &domain.WorkoutExercise{
				WorkoutID:  workoutID,
				ExerciseID: in.ExerciseID,
				Order:      in.Order,
				Notes:      in.Notes,
			}
			weID, err := s.workoutExerciseRepo.Create(ctx, we)
			if err != nil {
				return err
			}
			we.ID = weID
		}

		if err := s.reconcileSets(ctx, we.ID, in.Sets); err != nil {
			return err
		}
	}

	// Sweep: every persisted row the desired list did not claim is removed,
	// together with its sets.
	for id := range unclaimed {
		if err := s.exerciseSetRepo.DeleteByWorkoutExerciseID(ctx, id); err != nil {
			return err
		}
		if err := s.workoutExerciseRepo.Delete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// reconcileSets applies the desired set list to the persisted rows of one
// workout exercise. Sets are only reconciled when a non-empty list is
// submitted; an absent or empty list leaves the existing sets untouched.
func (s *workoutService) reconcileSets(ctx context.Context, workoutExerciseID primitive.ObjectID, desired []ExerciseSetInput) error {
	if len(desired) == 0 {
		return nil
	}

	existing, err := s.exerciseSetRepo.GetByWorkoutExerciseID(ctx, workoutExerciseID)
	if err != nil {
		return err
	}

	unclaimed := make(map[primitive.ObjectID]*domain.ExerciseSet, len(existing))
	for i := range existing {
		unclaimed[existing[i].ID] = &existing[i]
	}

	for _, in := range desired {
		var set *domain.ExerciseSet
		if in.ID != nil {
			set = unclaimed[*in.ID]
		}
		if set != nil {
			set.SetNumber = in.SetNumber
			set.Weight = in.Weight
			set.Reps = in.Reps
			set.Duration = in.Duration
			set.Distance = in.Distance
			set.Notes = in.Notes
			if err := s.exerciseSetRepo.Update(ctx, set); err != nil {
				return err
			}
			delete(unclaimed, set.ID)
		} else {
			if _, err := s.exerciseSetRepo.Create(ctx, newExerciseSet(workoutExerciseID, in)); err != nil {
				return err
			}
		}
	}

	for id := range unclaimed {
		if err := s.exerciseSetRepo.Delete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// resolveCatalogExercise verifies the referenced catalog exercise exists,
// failing with an error naming the missing id.
func (s *workoutService) resolveCatalogExercise(ctx context.Context, exerciseID primitive.ObjectID) error {
	if exerciseID == primitive.NilObjectID {
		return ErrValidationFailed
	}
	if _, err := s.exerciseRepo.GetByID(ctx, exerciseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrCatalogExerciseNotFound, exerciseID.Hex())
		}
		return err
	}
	return nil
}
