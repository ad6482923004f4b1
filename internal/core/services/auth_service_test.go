package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
	apperrors "github.com/opsdesk/opsdesk-backend/internal/core/errors"
	"github.com/opsdesk/opsdesk-backend/internal/core/mocks"
	"github.com/opsdesk/opsdesk-backend/internal/core/services"
)

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mockRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockRepo)

		mockRepo.On("GetByUsername", ctx, "alice").Return(nil, apperrors.ErrUserNotFound)
		mockRepo.On("Create", ctx, mock.MatchedBy(func(user *domain.User) bool {
			return user.Username == "alice" && user.Role == domain.RoleCustomer && user.HashedPassword != ""
		})).Return(&domain.User{Username: "alice", Role: domain.RoleCustomer}, nil)

		user, err := svc.Register(ctx, domain.UserRegistrationParams{
			Username: "alice",
			Password: "Sup3rSecret",
		})

		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, domain.RoleCustomer, user.Role)
		mockRepo.AssertExpectations(t)
	})

	t.Run("duplicate username", func(t *testing.T) {
		mockRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockRepo)

		mockRepo.On("GetByUsername", ctx, "alice").
			Return(&domain.User{Username: "alice"}, nil)

		user, err := svc.Register(ctx, domain.UserRegistrationParams{
			Username: "alice",
			Password: "Sup3rSecret",
		})

		assert.Nil(t, user)
		assert.ErrorIs(t, err, apperrors.ErrUserExists)
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("weak password fails validation", func(t *testing.T) {
		mockRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockRepo)

		user, err := svc.Register(ctx, domain.UserRegistrationParams{
			Username: "bob",
			Password: "short",
		})

		assert.Nil(t, user)
		require.Error(t, err)

		var validationErrs *apperrors.ValidationErrors
		require.ErrorAs(t, err, &validationErrs)
		assert.Contains(t, validationErrs.Errors, "password")
		mockRepo.AssertNotCalled(t, "GetByUsername")
	})

	t.Run("explicit agent role is kept", func(t *testing.T) {
		mockRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockRepo)

		mockRepo.On("GetByUsername", ctx, "carol").Return(nil, apperrors.ErrUserNotFound)
		mockRepo.On("Create", ctx, mock.MatchedBy(func(user *domain.User) bool {
			return user.Role == domain.RoleAgent
		})).Return(&domain.User{Username: "carol", Role: domain.RoleAgent}, nil)

		user, err := svc.Register(ctx, domain.UserRegistrationParams{
			Username: "carol",
			Password: "Sup3rSecret",
			Role:     domain.RoleAgent,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.RoleAgent, user.Role)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	hashed, err := domain.HashPassword("Sup3rSecret")
	require.NoError(t, err)

	storedUser := &domain.User{
		Username:       "alice",
		HashedPassword: hashed,
		Role:           domain.RoleCustomer,
	}

	t.Run("success", func(t *testing.T) {
		mockRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockRepo)

		mockRepo.On("GetByUsername", ctx, "alice").Return(storedUser, nil)

		user, err := svc.Login(ctx, "alice", "Sup3rSecret")

		require.NoError(t, err)
		assert.Equal(t, storedUser, user)
	})

	t.Run("wrong password", func(t *testing.T) {
		mockRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockRepo)

		mockRepo.On("GetByUsername", ctx, "alice").Return(storedUser, nil)

		user, err := svc.Login(ctx, "alice", "WrongPassword1")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("unknown username does not leak existence", func(t *testing.T) {
		mockRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockRepo)

		mockRepo.On("GetByUsername", ctx, "mallory").Return(nil, apperrors.ErrUserNotFound)

		user, err := svc.Login(ctx, "mallory", "Sup3rSecret")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("empty credentials", func(t *testing.T) {
		svc := services.NewAuthService(mocks.NewMockUserRepository())

		_, err := svc.Login(ctx, "", "Sup3rSecret")
		assert.ErrorIs(t, err, apperrors.ErrUsernameRequired)

		_, err = svc.Login(ctx, "alice", "")
		assert.ErrorIs(t, err, apperrors.ErrPasswordRequired)
	})
}
