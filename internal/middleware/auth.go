package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prowe12/plantswap/internal/auth"
	"github.com/prowe12/plantswap/internal/httpx"
	"github.com/prowe12/plantswap/internal/models"
)

// Authenticator resolves an Authorization header to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*models.User, error)
}

// RequireAuth is middleware that validates the bearer token and injects the
// principal into the request context.
func RequireAuth(a Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.Authenticate(r.Context(), r.Header.Get("Authorization"))
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), user)))
			case errors.Is(err, auth.ErrForbidden):
				httpx.Error(w, http.StatusForbidden, auth.ErrForbidden.Error())
			case errors.Is(err, auth.ErrUnauthenticated):
				log.DebugContext(r.Context(), "request not authenticated", "path", r.URL.Path, "reason", err)
				httpx.Unauthorized(w, auth.ErrUnauthenticated.Error())
			default:
				log.ErrorContext(r.Context(), "authentication failed", "path", r.URL.Path, "error", err)
				httpx.Error(w, http.StatusInternalServerError, "internal error")
			}
		})
	}
}
