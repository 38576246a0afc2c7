package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/infrastructure/auth"
	"github.com/finovo/bankcore/internal/infrastructure/metrics"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware creates an authentication middleware
func AuthMiddleware(verifier TokenVerifier, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				observeAuth(m, "missing")
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				observeAuth(m, "malformed")
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := verifier.Verify(parts[1])
			if err != nil {
				observeAuth(m, "invalid")
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			observeAuth(m, "success")
			user := &domain.User{
				ID:     claims.UserID,
				Email:  claims.Email,
				Role:   claims.Role,
				Active: true,
			}
			next.ServeHTTP(w, r.WithContext(domain.WithUser(r.Context(), user)))
		})
	}
}

// Header names read by DevIdentity.
const (
	DevUserHeader = "X-User-ID"
	DevRoleHeader = "X-User-Role"
)

// DevIdentity trusts the caller's X-User-ID and X-User-Role headers. It
// replaces AuthMiddleware when authentication is disabled.
func DevIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(DevUserHeader)
		if id == "" {
			writeError(w, http.StatusUnauthorized, "missing "+DevUserHeader+" header")
			return
		}
		role := domain.Role(r.Header.Get(DevRoleHeader))
		if !role.IsValid() {
			role = domain.RoleCustomer
		}
		user := &domain.User{ID: id, Role: role, Active: true}
		next.ServeHTTP(w, r.WithContext(domain.WithUser(r.Context(), user)))
	})
}

// RequireRole creates a middleware that admits only the listed roles
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := domain.UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !allowed[user.Role] {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func observeAuth(m *metrics.Metrics, result string) {
	if m != nil {
		m.AuthAttempts.WithLabelValues(result).Inc()
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
