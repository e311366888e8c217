package httpx

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// statusRecorder remembers the status and body size a handler produced.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int64
	wrote  bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.wrote {
		return
	}
	sr.status, sr.wrote = code, true
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	sr.WriteHeader(http.StatusOK)
	n, err := sr.ResponseWriter.Write(b)
	sr.size += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// AccessLogMiddleware logs one line per request once the handler returns.
// Client errors are logged at warn, server errors at error.
func AccessLogMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			level := zap.InfoLevel
			switch {
			case rec.status >= http.StatusInternalServerError:
				level = zap.ErrorLevel
			case rec.status >= http.StatusBadRequest:
				level = zap.WarnLevel
			}

			logger.Log(level, "access",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.Int64("bytes", rec.size),
				zap.String("request_id", RequestIDFrom(r)),
			)
		})
	}
}
