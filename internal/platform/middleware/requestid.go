package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"graminsetu/pkg/requestcontext"
)

// RequestID assigns a correlation id to every request and echoes it back in
// the X-Request-Id header. An inbound id is trusted if present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
