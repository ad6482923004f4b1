package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
	apperrors "github.com/opsdesk/opsdesk-backend/internal/core/errors"
	"github.com/opsdesk/opsdesk-backend/internal/core/ports"
)

func newTestRepos(t *testing.T) (ports.TicketRepository, ports.UserRepository) {
	require.NotNil(t, testPool, "testPool is nil. TestMain may not have run.")

	userRepo := NewUserRepository(testPool)
	ticketRepo := NewTicketRepository(testPool)

	return ticketRepo, userRepo
}

func TestUserRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	_, userRepo := newTestRepos(t)

	// 1. Create a new user
	newUser := &domain.User{
		ID:             uuid.New(),
		Username:       "agent-" + uuid.NewString(),
		HashedPassword: "$2a$10$notarealhashnotarealhashnotare",
		Role:           domain.RoleAgent,
		CreatedAt:      time.Now().UTC(),
	}

	createdUser, err := userRepo.Create(ctx, newUser)
	require.NoError(t, err, "Failed to create user")
	assert.Equal(t, newUser.ID, createdUser.ID)

	// 2. Get the user by username
	foundUser, err := userRepo.GetByUsername(ctx, newUser.Username)
	require.NoError(t, err, "Failed to get user by username")

	assert.Equal(t, newUser.ID, foundUser.ID)
	assert.Equal(t, newUser.Username, foundUser.Username)
	assert.Equal(t, newUser.HashedPassword, foundUser.HashedPassword)
	assert.Equal(t, domain.RoleAgent, foundUser.Role)
	assert.WithinDuration(t, newUser.CreatedAt, foundUser.CreatedAt, time.Second)

	// 3. Get the user by ID
	foundByID, err := userRepo.GetByID(ctx, newUser.ID)
	require.NoError(t, err, "Failed to get user by ID")
	assert.Equal(t, newUser.Username, foundByID.Username)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	_, userRepo := newTestRepos(t)

	username := "dup-" + uuid.NewString()
	first := &domain.User{
		ID:             uuid.New(),
		Username:       username,
		HashedPassword: "hash-one",
		Role:           domain.RoleCustomer,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := userRepo.Create(ctx, first)
	require.NoError(t, err)

	second := &domain.User{
		ID:             uuid.New(),
		Username:       username,
		HashedPassword: "hash-two",
		Role:           domain.RoleCustomer,
		CreatedAt:      time.Now().UTC(),
	}
	_, err = userRepo.Create(ctx, second)
	assert.ErrorIs(t, err, apperrors.ErrUserExists)
}

func TestUserRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	_, userRepo := newTestRepos(t)

	_, err := userRepo.GetByUsername(ctx, "no-such-user-"+uuid.NewString())
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = userRepo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
