package middleware

import (
	"net/http"
	"time"

	"infinite-experiment/hangar/internal/common"
	"infinite-experiment/hangar/internal/logging"
)

// Logging is the development access log. Headers are not logged since they
// carry credentials.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(lw, r)

		logging.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", lw.statusCode,
			"status_text", http.StatusText(lw.statusCode),
			"duration", common.GetResponseTime(start),
		)
	})
}
