package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pjecz/hercules-api/pkg/contextkeys"
	"github.com/pjecz/hercules-api/pkg/observability"
)

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// RequestLogging assigns each request a UUID, stores a request-scoped
// logger in the context, and logs one line per request on completion
func RequestLogging(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}

			requestLogger := logger.WithFields(map[string]interface{}{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
			})

			ctx := contextkeys.WithRequestID(r.Context(), requestID)
			ctx = contextkeys.WithLogger(ctx, requestLogger)

			w.Header().Set("X-Request-ID", requestID)
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r.WithContext(ctx))

			requestLogger.WithFields(map[string]interface{}{
				"status":      recorder.status,
				"duration_ms": time.Since(start).Milliseconds(),
			}).Info("Request handled")
		})
	}
}

// GetRequestLogger returns the request-scoped logger, falling back to the
// given default
func GetRequestLogger(r *http.Request, fallback *observability.Logger) *observability.Logger {
	if logger, ok := r.Context().Value(contextkeys.LoggerKey).(*observability.Logger); ok {
		return logger
	}
	return fallback
}
