package service

import (
	"context"
	"errors"
	"time"

	"fitlog/fitness-tracker/internal/domain"
	"fitlog/fitness-tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrSelfDeletion = errors.New("you cannot delete your own account")

// AdminUpdateUserInput extends profile updates with role and activation
// control. Nil pointers leave the corresponding field untouched.
type AdminUpdateUserInput struct {
	FirstName      *string
	LastName       *string
	Email          *string
	Role           *domain.Role
	IsActive       *bool
	ProfilePicture *string
	Height         *float64
	Weight         *float64
	DateOfBirth    *time.Time
}

// DashboardStats aggregates user counts for the admin dashboard.
type DashboardStats struct {
	TotalUsers    int64                 `json:"totalUsers"`
	UsersByRole   map[domain.Role]int64 `json:"usersByRole"`
	ActiveUsers   int64                 `json:"activeUsers"`
	InactiveUsers int64                 `json:"inactiveUsers"`
	NewUsers      int64                 `json:"newUsers"` // registered within the last 30 days
}

// AdminService manages users on behalf of administrators.
type AdminService interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	UpdateUser(ctx context.Context, userID primitive.ObjectID, input AdminUpdateUserInput) (*domain.User, error)
	// DeleteUser removes an account. Admins cannot delete themselves.
	DeleteUser(ctx context.Context, actorID, userID primitive.ObjectID) error
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

type adminService struct {
	userRepo repository.UserRepository
}

// NewAdminService creates a new instance of adminService.
func NewAdminService(userRepo repository.UserRepository) AdminService {
	return &adminService{userRepo: userRepo}
}

func (s *adminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
		users[i].RefreshToken = ""
	}
	return users, nil
}

func (s *adminService) GetUser(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	user.RefreshToken = ""
	return user, nil
}

func (s *adminService) UpdateUser(ctx context.Context, userID primitive.ObjectID, input AdminUpdateUserInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		if _, err := s.userRepo.GetByEmail(ctx, *input.Email); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		user.Email = *input.Email
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Role != nil && domain.ValidRole(*input.Role) {
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.ProfilePicture != nil {
		user.ProfilePicture = *input.ProfilePicture
	}
	if input.Height != nil {
		user.Height = input.Height
	}
	if input.Weight != nil {
		user.Weight = input.Weight
	}
	if input.DateOfBirth != nil {
		user.DateOfBirth = input.DateOfBirth
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	user.PasswordHash = ""
	user.RefreshToken = ""
	return user, nil
}

func (s *adminService) DeleteUser(ctx context.Context, actorID, userID primitive.ObjectID) error {
	if actorID == userID {
		return ErrSelfDeletion
	}
	err := s.userRepo.Delete(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (s *adminService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	total, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	byRole, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.userRepo.CountActive(ctx, true)
	if err != nil {
		return nil, err
	}
	inactive, err := s.userRepo.CountActive(ctx, false)
	if err != nil {
		return nil, err
	}
	newUsers, err := s.userRepo.CountCreatedSince(ctx, time.Now().AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		TotalUsers:    total,
		UsersByRole:   byRole,
		ActiveUsers:   active,
		InactiveUsers: inactive,
		NewUsers:      newUsers,
	}, nil
}
