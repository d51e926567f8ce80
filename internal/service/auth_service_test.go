package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"fitlog/fitness-tracker/internal/domain"
	"fitlog/fitness-tracker/internal/repository"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users map[primitive.ObjectID]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByRefreshToken(_ context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, repository.ErrNotFound
	}
	for _, u := range r.users {
		if u.RefreshToken == token {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, u := range r.users {
		if id != user.ID && u.Email == user.Email {
			return repository.ErrDuplicateKey
		}
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) CountByRole(_ context.Context) (map[domain.Role]int64, error) {
	out := make(map[domain.Role]int64)
	for _, u := range r.users {
		out[u.Role]++
	}
	return out, nil
}

func (r *fakeUserRepo) CountActive(_ context.Context, active bool) (int64, error) {
	var n int64
	for _, u := range r.users {
		if u.IsActive == active {
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) CountCreatedSince(_ context.Context, since time.Time) (int64, error) {
	var n int64
	for _, u := range r.users {
		if u.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func newAuthServiceForTest(repo repository.UserRepository) AuthService {
	return NewAuthService(repo, "test-access-secret", 15*time.Minute, "test-refresh-secret", 7*24*time.Hour)
}

func TestRegisterDefaultsToUserRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthServiceForTest(repo)

	user, err := svc.Register(context.Background(), "Ada", "Lovelace", "ada@example.com", "s3cretpass", "")
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, user.Role)
	require.True(t, user.IsActive)
	require.Empty(t, user.PasswordHash)

	// The stored hash must verify against the original password.
	stored := repo.users[user.ID]
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cretpass")))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthServiceForTest(repo)

	_, err := svc.Register(context.Background(), "Ada", "Lovelace", "ada@example.com", "s3cretpass", domain.RoleUser)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Eva", "Clone", "ada@example.com", "otherpass", domain.RoleUser)
	require.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthServiceForTest(repo)

	_, err := svc.Register(context.Background(), "Ada", "Lovelace", "ada@example.com", "s3cretpass", "superuser")
	require.Error(t, err)
}

func TestLoginIssuesWorkingTokenPair(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthServiceForTest(repo)

	registered, err := svc.Register(context.Background(), "Ada", "Lovelace", "ada@example.com", "s3cretpass", domain.RoleUser)
	require.NoError(t, err)

	pair, user, err := svc.Login(context.Background(), "ada@example.com", "s3cretpass")
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Empty(t, user.PasswordHash)

	// The access token must resolve back to the same user.
	resolved, err := svc.ValidateAccessToken(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, registered.ID, resolved.ID)

	// The refresh token is persisted for later rotation.
	require.Equal(t, pair.RefreshToken, repo.users[user.ID].RefreshToken)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthServiceForTest(repo)

	_, err := svc.Register(context.Background(), "Ada", "Lovelace", "ada@example.com", "s3cretpass", domain.RoleUser)
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "ada@example.com", "wrong")
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc := newAuthServiceForTest(newFakeUserRepo())

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestLoginRejectsDeactivatedAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthServiceForTest(repo)

	user, err := svc.Register(context.Background(), "Ada", "Lovelace", "ada@example.com", "s3cretpass", domain.RoleUser)
	require.NoError(t, err)

	stored := repo.users[user.ID]
	stored.IsActive = false
	repo.users[user.ID] = stored

	_, _, err = svc.Login(context.Background(), "ada@example.com", "s3cretpass")
	require.ErrorIs(t, err, ErrAccountDeactivated)
}

func TestRefreshIssuesNewPairForStoredToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthServiceForTest(repo)

	user, err := svc.Register(context.Background(), "Ada", "Lovelace", "ada@example.com", "s3cretpass", domain.RoleUser)
	require.NoError(t, err)
	pair, _, err := svc.Login(context.Background(), "ada@example.com", "s3cretpass")
	require.NoError(t, err)

	rotated, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.Equal(t, rotated.RefreshToken, repo.users[user.ID].RefreshToken)

	resolved, err := svc.ValidateAccessToken(context.Background(), rotated.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, resolved.ID)
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	svc := newAuthServiceForTest(newFakeUserRepo())

	_, err := svc.Refresh(context.Background(), "not-a-stored-token")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthServiceForTest(repo)

	user, err := svc.Register(context.Background(), "Ada", "Lovelace", "ada@example.com", "s3cretpass", domain.RoleUser)
	require.NoError(t, err)
	pair, _, err := svc.Login(context.Background(), "ada@example.com", "s3cretpass")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), user.ID))
	require.Empty(t, repo.users[user.ID].RefreshToken)

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestValidateAccessTokenRejectsRefreshToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthServiceForTest(repo)

	_, err := svc.Register(context.Background(), "Ada", "Lovelace", "ada@example.com", "s3cretpass", domain.RoleUser)
	require.NoError(t, err)
	pair, _, err := svc.Login(context.Background(), "ada@example.com", "s3cretpass")
	require.NoError(t, err)

	// Tokens are signed with separate secrets; a refresh token must never
	// pass as an access token.
	_, err = svc.ValidateAccessToken(context.Background(), pair.RefreshToken)
	require.Error(t, err)
}

func TestValidateAccessTokenRejectsGarbage(t *testing.T) {
	svc := newAuthServiceForTest(newFakeUserRepo())

	_, err := svc.ValidateAccessToken(context.Background(), "garbage.token.value")
	require.Error(t, err)
}
