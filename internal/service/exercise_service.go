package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitlog/fitness-tracker/internal/domain"
	"fitlog/fitness-tracker/internal/repository"
	"fitlog/fitness-tracker/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound  = errors.New("exercise not found")
	ErrExerciseNameTaken = errors.New("exercise with this name already exists")
	ErrValidationFailed  = errors.New("validation failed")
	ErrUnsupportedMedia  = errors.New("unsupported media content type")
)

// CreateExerciseInput carries the fields for a new catalog exercise.
type CreateExerciseInput struct {
	Name               string
	Description        string
	PrimaryMuscleGroup domain.MuscleGroup
	Type               domain.ExerciseType
	ImageURL           string
	VideoURL           string
	Instructions       string
}

// UpdateExerciseInput carries a partial catalog update. Nil pointers leave
// the corresponding field untouched.
type UpdateExerciseInput struct {
	Name               *string
	Description        *string
	PrimaryMuscleGroup *domain.MuscleGroup
	Type               *domain.ExerciseType
	ImageURL           *string
	VideoURL           *string
	Instructions       *string
	IsActive           *bool
}

// MediaUpload is a presigned upload slot for exercise or profile media.
type MediaUpload struct {
	UploadURL string
	ObjectKey string
	ExpiresAt time.Time
}

// ExerciseService manages the shared exercise catalog.
type ExerciseService interface {
	CreateExercise(ctx context.Context, input CreateExerciseInput) (*domain.Exercise, error)
	GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	ListExercises(ctx context.Context, filter repository.ExerciseFilter) ([]domain.Exercise, int64, error)
	UpdateExercise(ctx context.Context, exerciseID primitive.ObjectID, input UpdateExerciseInput) (*domain.Exercise, error)
	// DeleteExercise is a soft delete: the exercise stays resolvable for
	// workouts that already reference it, but disappears from listings.
	DeleteExercise(ctx context.Context, exerciseID primitive.ObjectID) error
	GenerateMediaUploadURL(ctx context.Context, exerciseID primitive.ObjectID, contentType string) (*MediaUpload, error)
}

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
	fileStorage  storage.FileStorage
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(exerciseRepo repository.ExerciseRepository, fileStorage storage.FileStorage) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		fileStorage:  fileStorage,
	}
}

func (s *exerciseService) CreateExercise(ctx context.Context, input CreateExerciseInput) (*domain.Exercise, error) {
	if input.Name == "" {
		return nil, ErrValidationFailed
	}

	if _, err := s.exerciseRepo.GetByName(ctx, input.Name); err == nil {
		return nil, ErrExerciseNameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	exercise := &domain.Exercise{
		Name:               input.Name,
		Description:        input.Description,
		PrimaryMuscleGroup: input.PrimaryMuscleGroup,
		Type:               input.Type,
		ImageURL:           input.ImageURL,
		VideoURL:           input.VideoURL,
		Instructions:       input.Instructions,
		IsActive:           true,
	}

	exerciseID, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrExerciseNameTaken
		}
		return nil, err
	}
	return s.exerciseRepo.GetByID(ctx, exerciseID)
}

func (s *exerciseService) GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

func (s *exerciseService) ListExercises(ctx context.Context, filter repository.ExerciseFilter) ([]domain.Exercise, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	return s.exerciseRepo.List(ctx, filter)
}

func (s *exerciseService) UpdateExercise(ctx context.Context, exerciseID primitive.ObjectID, input UpdateExerciseInput) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	if input.Name != nil && *input.Name != exercise.Name {
		if _, err := s.exerciseRepo.GetByName(ctx, *input.Name); err == nil {
			return nil, ErrExerciseNameTaken
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		exercise.Name = *input.Name
	}
	if input.Description != nil {
		exercise.Description = *input.Description
	}
	if input.PrimaryMuscleGroup != nil {
		exercise.PrimaryMuscleGroup = *input.PrimaryMuscleGroup
	}
	if input.Type != nil {
		exercise.Type = *input.Type
	}
	if input.ImageURL != nil {
		exercise.ImageURL = *input.ImageURL
	}
	if input.VideoURL != nil {
		exercise.VideoURL = *input.VideoURL
	}
	if input.Instructions != nil {
		exercise.Instructions = *input.Instructions
	}
	if input.IsActive != nil {
		exercise.IsActive = *input.IsActive
	}

	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrExerciseNameTaken
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

func (s *exerciseService) DeleteExercise(ctx context.Context, exerciseID primitive.ObjectID) error {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}
	exercise.IsActive = false
	return s.exerciseRepo.Update(ctx, exercise)
}

// GenerateMediaUploadURL creates a presigned PUT slot under the exercise's
// media prefix. The caller uploads directly to object storage and then
// PATCHes the resulting URL onto the exercise.
func (s *exerciseService) GenerateMediaUploadURL(ctx context.Context, exerciseID primitive.ObjectID, contentType string) (*MediaUpload, error) {
	if _, err := s.GetExerciseByID(ctx, exerciseID); err != nil {
		return nil, err
	}
	ext, ok := mediaExtension(contentType)
	if !ok {
		return nil, ErrUnsupportedMedia
	}

	objectKey := fmt.Sprintf("exercises/%s/%s%s", exerciseID.Hex(), uuid.NewString(), ext)
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}
	return &MediaUpload{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
		ExpiresAt: time.Now().Add(storage.DefaultPresignedURLExpiry),
	}, nil
}

func mediaExtension(contentType string) (string, bool) {
	switch contentType {
	case "image/jpeg":
		return ".jpg", true
	case "image/png":
		return ".png", true
	case "image/webp":
		return ".webp", true
	case "video/mp4":
		return ".mp4", true
	case "video/webm":
		return ".webm", true
	}
	return "", false
}
