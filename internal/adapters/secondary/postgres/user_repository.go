package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
	apperrors "github.com/opsdesk/opsdesk-backend/internal/core/errors"
	"github.com/opsdesk/opsdesk-backend/internal/core/ports"
)

const userColumns = `id, username, hashed_password, role, created_at`

// uniqueViolation is the postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

// UserRepository is the secondary adapter for user persistence.
type UserRepository struct {
	pool *pgxpool.Pool
}

var _ ports.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new user repository.
func NewUserRepository(pool *pgxpool.Pool) ports.UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user domain.User
		id   pgtype.UUID
	)

	err := row.Scan(
		&id,
		&user.Username,
		&user.HashedPassword,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if id.Valid {
		user.ID = id.Bytes
	}

	return &user, nil
}

// Create persists a new user. A duplicate username surfaces as ErrUserExists
// so racing registrations do not leak a raw constraint error.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	const query = `
INSERT INTO users (id, username, hashed_password, role, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns

	created, err := scanUser(r.pool.QueryRow(ctx, query,
		pgtype.UUID{Bytes: user.ID, Valid: true},
		user.Username,
		user.HashedPassword,
		string(user.Role),
		user.CreatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, apperrors.ErrUserExists
		}
		return nil, err
	}

	return created, nil
}

// GetByUsername retrieves a user by their unique username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, pgtype.UUID{Bytes: id, Valid: true}))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
