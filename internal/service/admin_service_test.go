package service

import (
	"context"
	"testing"

	"fitlog/fitness-tracker/internal/domain"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAdminListUsersStripsCredentials(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAdminService(repo)
	id := seedUser(t, repo, "ada@example.com", "s3cretpass", domain.RoleUser)

	stored := repo.users[id]
	stored.RefreshToken = "some-refresh-token"
	repo.users[id] = stored

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Empty(t, users[0].PasswordHash)
	require.Empty(t, users[0].RefreshToken)
}

func TestAdminUpdateUserChangesRoleAndActivation(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAdminService(repo)
	id := seedUser(t, repo, "ada@example.com", "s3cretpass", domain.RoleUser)

	role := domain.RoleTrainer
	inactive := false
	updated, err := svc.UpdateUser(context.Background(), id, AdminUpdateUserInput{
		Role:     &role,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	require.Equal(t, domain.RoleTrainer, updated.Role)
	require.False(t, updated.IsActive)
}

func TestAdminUpdateUserIgnoresInvalidRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAdminService(repo)
	id := seedUser(t, repo, "ada@example.com", "s3cretpass", domain.RoleUser)

	bogus := domain.Role("superuser")
	updated, err := svc.UpdateUser(context.Background(), id, AdminUpdateUserInput{Role: &bogus})
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, updated.Role)
}

func TestAdminCannotDeleteOwnAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAdminService(repo)
	adminID := seedUser(t, repo, "admin@example.com", "s3cretpass", domain.RoleAdmin)

	err := svc.DeleteUser(context.Background(), adminID, adminID)
	require.ErrorIs(t, err, ErrSelfDeletion)
	require.Len(t, repo.users, 1)
}

func TestAdminDeleteUserUnknownID(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAdminService(repo)
	adminID := seedUser(t, repo, "admin@example.com", "s3cretpass", domain.RoleAdmin)

	err := svc.DeleteUser(context.Background(), adminID, primitive.NewObjectID())
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestDashboardStatsCounts(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAdminService(repo)
	seedUser(t, repo, "admin@example.com", "pass", domain.RoleAdmin)
	seedUser(t, repo, "a@example.com", "pass", domain.RoleUser)
	id := seedUser(t, repo, "b@example.com", "pass", domain.RoleUser)

	stored := repo.users[id]
	stored.IsActive = false
	repo.users[id] = stored

	stats, err := svc.GetDashboardStats(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, stats.TotalUsers)
	require.EqualValues(t, 2, stats.UsersByRole[domain.RoleUser])
	require.EqualValues(t, 1, stats.UsersByRole[domain.RoleAdmin])
	require.EqualValues(t, 2, stats.ActiveUsers)
	require.EqualValues(t, 1, stats.InactiveUsers)
	require.EqualValues(t, 3, stats.NewUsers)
}
