package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"zonecheck/pkg/requestcontext"
)

// RequestID assigns each request a fresh ID, captures a request-scoped "now",
// and propagates the caller's X-Correlation-ID when present. All downstream
// age arithmetic within one request sees the same timestamp.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := uuid.NewString()
		ctx = requestcontext.WithRequestID(ctx, requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())
		if correlationID := r.Header.Get("X-Correlation-ID"); correlationID != "" {
			ctx = requestcontext.WithCorrelationID(ctx, correlationID)
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
