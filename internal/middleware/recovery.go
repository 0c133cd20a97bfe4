package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/felixge/httpsnoop"

	"notebin/internal/domain"
	"notebin/internal/httputil"
)

// Recovery turns a handler panic into a 500 problem response. The log line
// carries the matched route so panics group by endpoint rather than raw path.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headerSent := false
			tracked := httpsnoop.Wrap(w, httpsnoop.Hooks{
				WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
					return func(code int) {
						headerSent = true
						next(code)
					}
				},
				Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
					return func(b []byte) (int, error) {
						headerSent = true
						return next(b)
					}
				},
			})

			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}

				// ServeMux fills in Pattern on the request it was handed
				logger.Error("panic recovered",
					"error", v,
					"route", r.Pattern,
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"response_started", headerSent,
					"stack", string(debug.Stack()),
				)

				if headerSent {
					return
				}
				httputil.RespondErrorWithExtras(w, http.StatusInternalServerError, "internal server error", map[string]interface{}{
					"reason": domain.ReasonInternal,
				})
			}()

			next.ServeHTTP(tracked, r)
		})
	}
}
