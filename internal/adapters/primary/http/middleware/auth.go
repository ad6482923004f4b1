package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/opsdesk/opsdesk-backend/internal/auth"
	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
	apperrors "github.com/opsdesk/opsdesk-backend/internal/core/errors"
	"github.com/opsdesk/opsdesk-backend/internal/infrastructure/logging"
	"github.com/opsdesk/opsdesk-backend/internal/infrastructure/metrics"
)

// IdentityKey is the key used to store the verified identity in the request
// context.
const IdentityKey contextKey = "identity"

const bearerPrefix = "Bearer "

// AuthenticateHeader extracts and verifies the token from an Authorization
// header value. A missing or malformed header fails with
// ErrMissingCredential; a present but unverifiable token fails with
// ErrInvalidCredential. The two are distinct, externally observable
// outcomes (401 vs 403). Stateless, safe for concurrent use.
func AuthenticateHeader(tm *auth.TokenManager, headerValue string) (*auth.Identity, error) {
	if headerValue == "" {
		return nil, apperrors.ErrMissingCredential
	}

	if !strings.HasPrefix(headerValue, bearerPrefix) {
		return nil, apperrors.ErrMissingCredential
	}

	tokenString := strings.TrimSpace(headerValue[len(bearerPrefix):])
	if tokenString == "" {
		return nil, apperrors.ErrMissingCredential
	}

	return tm.Verify(tokenString)
}

// Authenticate gates protected routes behind token verification. On success
// the identity is attached to the request context for downstream handlers.
func Authenticate(tm *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := AuthenticateHeader(tm, r.Header.Get("Authorization"))
			if err != nil {
				writeAuthError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			ctx = logging.WithSubjectID(ctx, identity.SubjectID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole restricts a route to the given allowed-role set. It must run
// after Authenticate.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeAuthError(w, apperrors.ErrMissingCredential)
				return
			}

			if _, member := allowed[identity.Role]; !member {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"You do not have permission to perform this action","code":"FORBIDDEN"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext retrieves the verified identity from the context.
func IdentityFromContext(ctx context.Context) (*auth.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*auth.Identity)
	return identity, ok
}

func writeAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case errors.Is(err, apperrors.ErrMissingCredential):
		metrics.AuthFailures.WithLabelValues("missing").Inc()
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Authentication credential missing","code":"MISSING_CREDENTIAL"}`))
	default:
		metrics.AuthFailures.WithLabelValues("invalid").Inc()
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"Invalid or expired credential","code":"INVALID_CREDENTIAL"}`))
	}
}
