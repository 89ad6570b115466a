// Package middleware holds the HTTP middleware shared by every route.
//
// WHAT IS MIDDLEWARE?
// A function that takes the next http.Handler and returns a handler that
// wraps it. Code before next.ServeHTTP runs on the way in, code after it on
// the way out. That "after" half is where request logging lives, since only
// then are the status and duration known.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// responseWriter records the status code and body size of a response.
//
// WHY WRAP http.ResponseWriter?
// The standard interface has no getter for the status a handler wrote. By
// embedding the real writer and overriding WriteHeader and Write we see
// every call, and everything else (Header, and so on) passes straight
// through thanks to embedding.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

// WriteHeader captures the status. Handlers that never call it get the
// implicit 200, which is why Logger initialises statusCode to 200.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logger logs one line per request with method, path, status, duration,
// bytes written and the request id set by chi's RequestID middleware.
// Server errors are logged at Error, static assets and health checks at Debug.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			// Everything downstream (sessions, handlers) runs here.
			next.ServeHTTP(wrapped, r)

			// LEVEL BY OUTCOME:
			// 5xx responses are our bugs and go out at Error. Health probes
			// and static assets would drown the log at Info, so they drop
			// to Debug. Everything else is a normal Info line.
			level := slog.LevelInfo
			switch {
			case wrapped.statusCode >= http.StatusInternalServerError:
				level = slog.LevelError
			case quiet(r.URL.Path):
				level = slog.LevelDebug
			}

			// LogAttrs with typed slog.Attr values skips the reflection
			// that key/value pairs need. It runs on every request.
			logger.LogAttrs(r.Context(), level, "request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
				slog.String("requestID", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}

// quiet reports whether a successful request to path is noise.
func quiet(path string) bool {
	return path == "/healthz" || strings.HasPrefix(path, "/static/")
}
