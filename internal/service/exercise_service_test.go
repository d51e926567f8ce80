package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"fitlog/fitness-tracker/internal/domain"
	"fitlog/fitness-tracker/internal/repository"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeFileStorage struct {
	uploads []string
	deleted []string
}

func (f *fakeFileStorage) GeneratePresignedUploadURL(_ context.Context, objectKey string, _ string, _ time.Duration) (string, error) {
	f.uploads = append(f.uploads, objectKey)
	return "https://storage.example.com/upload/" + objectKey, nil
}

func (f *fakeFileStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.example.com/download/" + objectKey, nil
}

func (f *fakeFileStorage) DeleteObject(_ context.Context, objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func newExerciseServiceForTest() (ExerciseService, *fakeCatalogRepo, *fakeFileStorage) {
	store := newFakeStore()
	repo := &fakeCatalogRepo{store: store}
	files := &fakeFileStorage{}
	return NewExerciseService(repo, files), repo, files
}

func TestCreateExerciseSetsActive(t *testing.T) {
	svc, _, _ := newExerciseServiceForTest()

	exercise, err := svc.CreateExercise(context.Background(), CreateExerciseInput{
		Name:               "Deadlift",
		PrimaryMuscleGroup: domain.MuscleGroupBack,
		Type:               domain.ExerciseTypeStrength,
	})
	require.NoError(t, err)
	require.True(t, exercise.IsActive)
	require.NotEqual(t, primitive.NilObjectID, exercise.ID)
}

func TestCreateExerciseRejectsEmptyName(t *testing.T) {
	svc, _, _ := newExerciseServiceForTest()

	_, err := svc.CreateExercise(context.Background(), CreateExerciseInput{})
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestCreateExerciseRejectsDuplicateName(t *testing.T) {
	svc, _, _ := newExerciseServiceForTest()

	_, err := svc.CreateExercise(context.Background(), CreateExerciseInput{Name: "Deadlift"})
	require.NoError(t, err)

	_, err = svc.CreateExercise(context.Background(), CreateExerciseInput{Name: "Deadlift"})
	require.ErrorIs(t, err, ErrExerciseNameTaken)
}

func TestUpdateExerciseRejectsTakenName(t *testing.T) {
	svc, _, _ := newExerciseServiceForTest()

	_, err := svc.CreateExercise(context.Background(), CreateExerciseInput{Name: "Deadlift"})
	require.NoError(t, err)
	other, err := svc.CreateExercise(context.Background(), CreateExerciseInput{Name: "Squat"})
	require.NoError(t, err)

	name := "Deadlift"
	_, err = svc.UpdateExercise(context.Background(), other.ID, UpdateExerciseInput{Name: &name})
	require.ErrorIs(t, err, ErrExerciseNameTaken)
}

func TestDeleteExerciseIsSoft(t *testing.T) {
	svc, repo, _ := newExerciseServiceForTest()

	exercise, err := svc.CreateExercise(context.Background(), CreateExerciseInput{Name: "Deadlift"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteExercise(context.Background(), exercise.ID))

	// Still resolvable by id for historical workout references.
	got, err := svc.GetExerciseByID(context.Background(), exercise.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)

	// Gone from listings.
	listed, total, err := repo.List(context.Background(), repository.ExerciseFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 0, total)
	require.Empty(t, listed)
}

func TestGenerateMediaUploadURLUsesExercisePrefix(t *testing.T) {
	svc, _, files := newExerciseServiceForTest()

	exercise, err := svc.CreateExercise(context.Background(), CreateExerciseInput{Name: "Deadlift"})
	require.NoError(t, err)

	upload, err := svc.GenerateMediaUploadURL(context.Background(), exercise.ID, "image/png")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(upload.ObjectKey, "exercises/"+exercise.ID.Hex()+"/"))
	require.True(t, strings.HasSuffix(upload.ObjectKey, ".png"))
	require.Contains(t, upload.UploadURL, upload.ObjectKey)
	require.Len(t, files.uploads, 1)
}

func TestGenerateMediaUploadURLRejectsUnknownContentType(t *testing.T) {
	svc, _, _ := newExerciseServiceForTest()

	exercise, err := svc.CreateExercise(context.Background(), CreateExerciseInput{Name: "Deadlift"})
	require.NoError(t, err)

	_, err = svc.GenerateMediaUploadURL(context.Background(), exercise.ID, "application/pdf")
	require.ErrorIs(t, err, ErrUnsupportedMedia)
}

func TestGenerateMediaUploadURLUnknownExercise(t *testing.T) {
	svc, _, _ := newExerciseServiceForTest()

	_, err := svc.GenerateMediaUploadURL(context.Background(), primitive.NewObjectID(), "image/png")
	require.ErrorIs(t, err, ErrExerciseNotFound)
}
