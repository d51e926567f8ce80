package service

import (
	"context"
	"strings"
	"testing"

	"fitlog/fitness-tracker/internal/domain"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string, role domain.Role) primitive.ObjectID {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	id, err := repo.Create(context.Background(), &domain.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	})
	require.NoError(t, err)
	return id
}

func TestUpdateProfilePatchesOnlyProvidedFields(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, &fakeFileStorage{})
	id := seedUser(t, repo, "ada@example.com", "s3cretpass", domain.RoleUser)

	height := 172.0
	first := "Ada"
	updated, err := svc.UpdateProfile(context.Background(), id, UpdateProfileInput{
		FirstName: &first,
		Height:    &height,
	})
	require.NoError(t, err)
	require.Equal(t, "Ada", updated.FirstName)
	require.Equal(t, "User", updated.LastName)
	require.Equal(t, 172.0, *updated.Height)
	require.Nil(t, updated.Weight)
	require.Empty(t, updated.PasswordHash)
}

func TestUpdateProfileRejectsTakenEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, &fakeFileStorage{})
	id := seedUser(t, repo, "ada@example.com", "s3cretpass", domain.RoleUser)
	seedUser(t, repo, "grace@example.com", "otherpass", domain.RoleUser)

	email := "grace@example.com"
	_, err := svc.UpdateProfile(context.Background(), id, UpdateProfileInput{Email: &email})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, &fakeFileStorage{})
	id := seedUser(t, repo, "ada@example.com", "s3cretpass", domain.RoleUser)

	err := svc.ChangePassword(context.Background(), id, "wrong", "newpassword")
	require.ErrorIs(t, err, ErrWrongPassword)

	err = svc.ChangePassword(context.Background(), id, "s3cretpass", "newpassword")
	require.NoError(t, err)
	stored := repo.users[id]
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("newpassword")))
}

func TestGenerateProfilePictureUploadURLUsesProfilePrefix(t *testing.T) {
	repo := newFakeUserRepo()
	files := &fakeFileStorage{}
	svc := NewUserService(repo, files)
	id := seedUser(t, repo, "ada@example.com", "s3cretpass", domain.RoleUser)

	upload, err := svc.GenerateProfilePictureUploadURL(context.Background(), id, "image/jpeg")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(upload.ObjectKey, "profiles/"+id.Hex()+"/"))
	require.True(t, strings.HasSuffix(upload.ObjectKey, ".jpg"))
	require.Len(t, files.uploads, 1)
}
