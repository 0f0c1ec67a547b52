package middleware

import (
	"net/http"
	"time"

	"github.com/dealer-transfers-api/internal/pkg/logger"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// RequestLogger attaches the chi request id to the context logger and logs one
// line per request once the handler returns. It must run after chi's RequestID.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
				ctx = log.WithRequestID(ctx, reqID)
				w.Header().Set(chimiddleware.RequestIDHeader, reqID)
			}
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			ctx = log.WithFields(ctx, map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.status,
				"bytes":       rec.bytes,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_ip":   realIP(r),
			})
			switch {
			case rec.status >= http.StatusInternalServerError:
				log.Error(ctx, "request failed", nil)
			case rec.status >= http.StatusBadRequest:
				log.Warn(ctx, "request rejected")
			default:
				log.Info(ctx, "request completed")
			}
		})
	}
}
