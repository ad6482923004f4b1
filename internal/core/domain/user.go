package domain

import (
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/opsdesk/opsdesk-backend/internal/core/errors"
)

// Password validation constants
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxUsernameLength = 64
)

// Role is the coarse authorization category attached to an identity.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleAgent    Role = "AGENT"
	RoleCustomer Role = "CUSTOMER"
)

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleCustomer:
		return true
	}
	return false
}

type User struct {
	ID             uuid.UUID
	Username       string
	HashedPassword string
	Role           Role
	CreatedAt      time.Time
}

// UserRegistrationParams holds parameters for user registration
type UserRegistrationParams struct {
	Username string
	Password string
	Role     Role
}

// Validate validates user registration parameters
func (p *UserRegistrationParams) Validate() error {
	errs := apperrors.NewValidationErrors()

	if p.Username == "" {
		errs.Add("username", "Username is required")
	} else if len(p.Username) > MaxUsernameLength {
		errs.Add("username", "Username must be 64 characters or less")
	}

	if passwordErrs := ValidatePassword(p.Password); len(passwordErrs) > 0 {
		for _, err := range passwordErrs {
			errs.Add("password", err)
		}
	}

	if p.Role != "" && !p.Role.IsValid() {
		errs.Add("role", "Role must be one of ADMIN, AGENT, CUSTOMER")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ValidatePassword checks if a password meets security requirements.
// Returns a slice of error messages (empty if valid).
func ValidatePassword(password string) []string {
	var errors []string

	if len(password) < MinPasswordLength {
		errors = append(errors, "Password must be at least 8 characters long")
	}
	if len(password) > MaxPasswordLength {
		errors = append(errors, "Password must be 128 characters or less")
	}

	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		errors = append(errors, "Password must contain at least one uppercase letter")
	}
	if !hasLower {
		errors = append(errors, "Password must contain at least one lowercase letter")
	}
	if !hasNumber {
		errors = append(errors, "Password must contain at least one number")
	}

	return errors
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password))
	return err == nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	if errs := ValidatePassword(password); len(errs) > 0 {
		return "", apperrors.ErrPasswordTooWeak
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// NewUser creates a new user with validated parameters
func NewUser(params UserRegistrationParams) (*User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	hashedPassword, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	role := params.Role
	if role == "" {
		role = RoleCustomer
	}

	return &User{
		ID:             uuid.New(),
		Username:       params.Username,
		HashedPassword: hashedPassword,
		Role:           role,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
