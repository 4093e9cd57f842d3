package chi

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/logger"
)

// requestIDHeader echoes the assigned request ID back to the caller.
const requestIDHeader = "X-Request-Id"

// RequestIDMiddleware assigns each request a UUID and stores a
// request-scoped logger in the context.
func RequestIDMiddleware(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}

			reqLogger := base.With(zap.String("request_id", id))
			ctx := logger.ContextWithLogger(r.Context(), reqLogger)

			w.Header().Set(requestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
