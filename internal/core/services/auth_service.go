package services

import (
	"context"
	"errors"

	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
	apperrors "github.com/opsdesk/opsdesk-backend/internal/core/errors"
	"github.com/opsdesk/opsdesk-backend/internal/core/ports"
)

// AuthService implements authentication business logic
type AuthService struct {
	userRepo ports.UserRepository
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService creates a new authentication service
func NewAuthService(userRepo ports.UserRepository) ports.AuthService {
	return &AuthService{
		userRepo: userRepo,
	}
}

// Register creates a new user account with validated credentials
func (s *AuthService) Register(ctx context.Context, params domain.UserRegistrationParams) (*domain.User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	// Check if user already exists
	_, err := s.userRepo.GetByUsername(ctx, params.Username)
	if err == nil {
		return nil, apperrors.ErrUserExists
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err // An actual DB error occurred
	}

	user, err := domain.NewUser(params)
	if err != nil {
		return nil, err
	}

	return s.userRepo.Create(ctx, user)
}

// Login authenticates a user with username and password
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" {
		return nil, apperrors.ErrUsernameRequired
	}
	if password == "" {
		return nil, apperrors.ErrPasswordRequired
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Don't reveal whether the username exists
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.CheckPassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return user, nil
}
