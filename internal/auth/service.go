package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/Aadiprofessional/matrixtwin-assistant/internal/models"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserInactive is returned when a user is inactive
	ErrUserInactive = errors.New("user account is inactive")
	// ErrEmailAlreadyExists is returned when email is already registered
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrUsernameAlreadyExists is returned when username is already taken
	ErrUsernameAlreadyExists = errors.New("username already exists")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
}

// Service handles authentication operations
type Service struct {
	userRepo UserRepository
	jwt      *JWTService
}

// NewService creates a new auth service
func NewService(userRepo UserRepository, jwtSecret string) *Service {
	return &Service{
		userRepo: userRepo,
		jwt:      NewJWTService(jwtSecret, "matrixtwin"),
	}
}

// SignUp registers a new user
func (s *Service) SignUp(ctx context.Context, email, username, password, fullName string) (*models.User, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	existing, err = s.userRepo.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameAlreadyExists
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		FullName:     fullName,
		IsActive:     true,
		Role:         models.RoleUser,
		Settings:     make(models.JSONB),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates a user and returns a token pair
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", err
	}

	if !user.IsActive {
		return nil, "", "", ErrUserInactive
	}
	if !CheckPassword(password, user.PasswordHash) {
		return nil, "", "", ErrInvalidCredentials
	}

	access, refresh, err := s.jwt.GenerateTokenPair(user.ID.String(), user.Email, user.Username, user.Role)
	if err != nil {
		return nil, "", "", err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		// Non-fatal; the login itself succeeded.
		return user, access, refresh, nil
	}

	return user, access, refresh, nil
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.User, string, string, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, "", "", err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, "", "", ErrInvalidClaims
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, "", "", err
	}
	if !user.IsActive {
		return nil, "", "", ErrUserInactive
	}

	access, refresh, err := s.jwt.GenerateTokenPair(user.ID.String(), user.Email, user.Username, user.Role)
	if err != nil {
		return nil, "", "", err
	}

	return user, access, refresh, nil
}

// ValidateAccessToken resolves an access token to its user
func (s *Service) ValidateAccessToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidClaims
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	return user, nil
}
