package http

import (
	"context"
	"net/http"
	"strings"

	"ict-access-backend/internal/logger"
	"ict-access-backend/internal/security"
)

type contextKey string

const claimsKey contextKey = "user_claims"

// AuthMiddleware validates the bearer token and stores the claims on the
// request context. The SMS gateway webhook and auth endpoints are mounted
// outside this middleware.
func AuthMiddleware(tokens security.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token", Code: "UNAUTHENTICATED"})
				return
			}
			claims, err := tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeError(w, err)
				return
			}
			if claims.Type != security.TokenTypeAccess {
				writeError(w, security.ErrWrongTokenType)
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// claimsFrom returns the authenticated claims, or nil outside the middleware.
func claimsFrom(r *http.Request) *security.UserClaims {
	claims, _ := r.Context().Value(claimsKey).(*security.UserClaims)
	return claims
}

func userID(r *http.Request) int32 {
	if c := claimsFrom(r); c != nil {
		return c.UserID
	}
	return 0
}

func hasTokenRole(r *http.Request, role string) bool {
	c := claimsFrom(r)
	if c == nil {
		return false
	}
	for _, got := range c.Roles {
		if got == role {
			return true
		}
	}
	return false
}

// RequireRole guards admin-only surfaces. Workflow endpoints do not use it;
// their authorization is resolved per aggregate in the service layer.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, role := range roles {
				if hasTokenRole(r, role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "insufficient role", Code: "FORBIDDEN"})
		})
	}
}

// LoggingMiddleware emits one line per request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("HTTP request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
