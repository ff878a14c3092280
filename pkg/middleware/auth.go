package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/psantana5/timekeeper/pkg/auth"
	"github.com/psantana5/timekeeper/pkg/logging"
)

type contextKey string

const AuthenticatedContextKey contextKey = "authenticated"

// APIKeyAuth rejects requests whose bearer token does not validate with a.
// Requests for the given public paths pass through unchecked.
func APIKeyAuth(a *auth.Authenticator, logger *logging.Logger, publicPaths ...string) func(http.Handler) http.Handler {
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := public[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			if err := a.ValidateAPIKey(BearerToken(r)); err != nil {
				logger.Warn("Rejected request", map[string]interface{}{
					"path":        r.URL.Path,
					"remote_addr": r.RemoteAddr,
				})
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), AuthenticatedContextKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// IsAuthenticated reports whether the request passed APIKeyAuth
func IsAuthenticated(r *http.Request) bool {
	ok, _ := r.Context().Value(AuthenticatedContextKey).(bool)
	return ok
}
