package service

import (
	"context"
	"errors"
	"time"

	"fitlog/fitness-tracker/internal/domain"
	"fitlog/fitness-tracker/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrAccountDeactivated   = errors.New("user account is deactivated")
	ErrInvalidRefreshToken  = errors.New("invalid or expired refresh token")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

// TokenPair bundles the short-lived access token with the long-lived
// refresh token issued alongside it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService issues and validates credentials and tokens. Every other
// component receives the resolved user identity from here and never
// re-derives it.
type AuthService interface {
	Register(ctx context.Context, firstName, lastName, email, password string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, *domain.User, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, userID primitive.ObjectID) error
	// ValidateAccessToken parses a bearer token, loads the user it names and
	// checks the account is still active.
	ValidateAccessToken(ctx context.Context, tokenString string) (*domain.User, error)
}

// authService implements the AuthService interface.
type authService struct {
	userRepo          repository.UserRepository
	jwtSecret         string
	jwtExpiration     time.Duration
	refreshSecret     string
	refreshExpiration time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiration time.Duration, refreshSecret string, refreshExpiration time.Duration) AuthService {
	if jwtSecret == "" || refreshSecret == "" {
		panic("JWT secrets cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = 15 * time.Minute
	}
	if refreshExpiration <= 0 {
		refreshExpiration = 7 * 24 * time.Hour
	}
	return &authService{
		userRepo:          userRepo,
		jwtSecret:         jwtSecret,
		jwtExpiration:     jwtExpiration,
		refreshSecret:     refreshSecret,
		refreshExpiration: refreshExpiration,
	}
}

// Register handles new user registration.
func (s *authService) Register(ctx context.Context, firstName, lastName, email, password string, role domain.Role) (*domain.User, error) {
	if firstName == "" || lastName == "" || email == "" || password == "" {
		return nil, errors.New("first name, last name, email and password cannot be empty")
	}
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidRole(role) {
		return nil, errors.New("unknown role")
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		IsActive:     true,
	}

	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// The unique index catches a register race between the GetByEmail
		// check and the insert.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID
	user.PasswordHash = ""
	return user, nil
}

// Login handles user authentication and token issuance.
func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, *domain.User, error) {
	if email == "" || password == "" {
		return nil, nil, ErrAuthenticationFailed
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrAuthenticationFailed
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrAuthenticationFailed
	}

	if !user.IsActive {
		return nil, nil, ErrAccountDeactivated
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	user.PasswordHash = ""
	return pair, user, nil
}

// Refresh rotates the refresh token and issues a fresh access token.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if _, err := s.parseToken(refreshToken, s.refreshSecret); err != nil {
		// Stored token failed verification (expired or tampered); drop it so
		// it cannot be retried.
		user.RefreshToken = ""
		_ = s.userRepo.Update(ctx, user)
		return nil, ErrInvalidRefreshToken
	}

	return s.issueTokens(ctx, user)
}

// Logout clears the user's stored refresh token.
func (s *authService) Logout(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.RefreshToken = ""
	return s.userRepo.Update(ctx, user)
}

// ValidateAccessToken resolves a bearer token to an active user.
func (s *authService) ValidateAccessToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.parseToken(tokenString, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, errors.New("invalid user ID in token")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	user.PasswordHash = ""
	return user, nil
}

// --- JWT helpers ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) issueTokens(ctx context.Context, user *domain.User) (*TokenPair, error) {
	accessToken, err := s.signToken(user, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		return nil, ErrTokenGeneration
	}
	refreshToken, err := s.signToken(user, s.refreshSecret, s.refreshExpiration)
	if err != nil {
		return nil, ErrTokenGeneration
	}

	user.RefreshToken = refreshToken
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *authService) signToken(user *domain.User, secret string, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "fitness-tracker",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func (s *authService) parseToken(tokenString, secret string) (*jwtClaims, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token or missing claims")
	}
	return claims, nil
}
