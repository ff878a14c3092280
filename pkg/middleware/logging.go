package middleware

import (
	"net/http"
	"time"

	"github.com/psantana5/timekeeper/pkg/logging"
)

// RequestLogger logs method, path, status and duration of every request
// at debug level, and at warn level for server errors
func RequestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			fields := map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rw.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if rw.statusCode >= http.StatusInternalServerError {
				logger.Warn("Request failed", fields)
				return
			}
			logger.Debug("Request served", fields)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
