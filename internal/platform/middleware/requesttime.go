package middleware

import (
	"net/http"
	"time"

	"graminsetu/pkg/requestcontext"
)

// RequestTime pins the request arrival time into the context. Everything
// downstream reads time through requestcontext.Now so expiry checks are
// consistent within a request and injectable in tests.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
