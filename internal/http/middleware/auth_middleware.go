package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Netlighter/messenger/internal/domain"
	"github.com/Netlighter/messenger/internal/http/response"
	"github.com/Netlighter/messenger/internal/service"
)

type contextKey string

const userContextKey contextKey = "user"

// BearerToken extracts the opaque token from the Authorization header,
// or "" when absent.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// AuthMiddleware authenticates the bearer token and stores the user's
// public view in the request context. Authentication slides the session
// forward, so every protected request counts as activity.
func AuthMiddleware(sessions *service.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := sessions.Authenticate(BearerToken(r))
			if err != nil {
				// A failing session store is not an auth failure. Only
				// missing, unknown or expired tokens earn a 401.
				if errors.Is(err, service.ErrUnauthenticated) {
					response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
				} else {
					response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "session lookup failed")
				}
				return
			}
			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserFromContext(ctx context.Context) (*domain.UserView, bool) {
	u, ok := ctx.Value(userContextKey).(*domain.UserView)
	return u, ok
}
