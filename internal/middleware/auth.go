package middleware

import (
	"log/slog"
	"net/http"

	"notebin/internal/auth"
	"notebin/internal/domain"
	"notebin/internal/httputil"
)

// RequireWrite guards write routes with the configured authenticator and
// stores the caller identity in the request context
func RequireWrite(authenticator auth.Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authenticator.Verify(r)
			if err != nil {
				logger.Warn("write rejected",
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
				httputil.RespondErrorWithExtras(w, http.StatusUnauthorized, "write access denied", map[string]interface{}{
					"reason": domain.ReasonUnauthorized,
				})
				return
			}

			next.ServeHTTP(w, httputil.WithUserID(r, userID))
		})
	}
}
