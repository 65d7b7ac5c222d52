package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/adswap/idgen"
	"github.com/hazyhaar/adswap/kit"
)

// RequestIDHeader echoes the request ID on every response.
const RequestIDHeader = "X-Request-ID"

// RequestID returns middleware that tags each request with a UUIDv7, marks
// the transport as http, and stores a per-request logger under LoggerKey.
func RequestID(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := idgen.New()
			ctx := kit.WithTransport(r.Context(), "http")
			ctx = kit.WithRequestID(ctx, id)
			w.Header().Set(RequestIDHeader, id)

			reqLogger := logger.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			ctx = context.WithValue(ctx, LoggerKey, reqLogger)
			reqLogger.Debug("shield: request")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
