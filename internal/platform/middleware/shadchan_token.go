package middleware

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"kesher/pkg/requestcontext"
)

// RequireShadchanToken guards the moderator surface with an operator token on
// top of the admin identity check. The configured value is a bcrypt hash so a
// leaked config file does not leak the token itself.
//
// An empty hash disables the check (dev environments).
func RequireShadchanToken(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get("X-Shadchan-Token")
			if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)); err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "shadchan token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"user_id", requestcontext.UserID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"shadchan token required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
