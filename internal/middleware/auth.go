package middleware

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/BerylCAtieno/lexdoc-api/internal/auth"
	"github.com/BerylCAtieno/lexdoc-api/internal/services"
	"github.com/BerylCAtieno/lexdoc-api/internal/utils"
)

// Auth verifies the bearer token, makes sure the user has a profile and puts
// the principal on the request context.
func Auth(verifier auth.TokenVerifier, users services.UserService, logger *utils.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := auth.BearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}

			principal, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if !errors.Is(err, auth.ErrInvalidToken) {
					logger.Error("Token verification failed", "error", err)
					writeError(w, http.StatusServiceUnavailable, "Authentication is temporarily unavailable")
					return
				}
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			if _, err := users.EnsureUser(r.Context(), principal); err != nil {
				logger.Error("Failed to ensure user", "error", err, "uid", principal.UID)
				message := "Internal server error"
				var appErr *utils.AppError
				if errors.As(err, &appErr) {
					message = appErr.Message
				}
				writeError(w, utils.StatusOf(err), message)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}
