package middleware

import (
	"log/slog"
	"net/http"

	"github.com/codenexus/storefront/pkg/logger"
)

// RequestLogger stores a logger carrying correlation_id, visitor_id,
// trace_id and span_id in the request context, where handlers retrieve it
// with logger.FromContext.
//
// Mount it after RequestLogging and Tracing.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			visitorID := VisitorIDFromContext(ctx)
			if visitorID == "" {
				visitorID = r.Header.Get(VisitorHeader)
			}
			if visitorID != "" && validVisitorID(visitorID) {
				ctx = logger.WithVisitorID(ctx, visitorID)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
