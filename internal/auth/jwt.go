package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
	apperrors "github.com/opsdesk/opsdesk-backend/internal/core/errors"
)

// Claims defines the structured data we store in the JWT
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the verified identity attached to a request after a
// successful token check. It lives only for the request's lifetime.
type Identity struct {
	SubjectID uuid.UUID
	Role      domain.Role
}

// TokenManager issues and verifies signed identity tokens. Verification is
// stateless: any replica holding the same secret can verify a token without
// shared session state.
type TokenManager struct {
	secretKey []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secretKey: []byte(secret),
		tokenTTL:  ttl,
		now:       time.Now,
	}
}

// Issue creates a new signed token embedding the subject's identity and role.
func (tm *TokenManager) Issue(subjectID uuid.UUID, role domain.Role) (string, error) {
	issuedAt := tm.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(tm.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secretKey)
}

// Verify parses and validates the token string. Every failure mode - bad
// signature, malformed payload, expiry - maps to ErrInvalidCredential so the
// caller sees a single terminal outcome.
func (tm *TokenManager) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secretKey, nil
	}, jwt.WithTimeFunc(tm.now))

	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidCredential, err)
	}

	if !token.Valid {
		return nil, apperrors.ErrInvalidCredential
	}

	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject", apperrors.ErrInvalidCredential)
	}

	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", apperrors.ErrInvalidCredential, claims.Role)
	}

	return &Identity{
		SubjectID: subjectID,
		Role:      claims.Role,
	}, nil
}
