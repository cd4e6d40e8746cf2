package middleware

import (
	"context"
	"net/http"
	"time"
)

// RequestTimeout bounds the request context. A sync that overruns sees its
// context cancelled, which aborts the outbound call and pending queries.
// The server WriteTimeout must stay above d for the response to get out.
func RequestTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
