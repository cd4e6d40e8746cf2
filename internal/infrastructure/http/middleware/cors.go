package middleware

import "net/http"

// CORS allows browser callers from any origin to reach the sync endpoints.
// Preflight requests are answered with 200 and an empty body without
// reaching the next handler. Authorization is only advertised when bearer
// auth is enabled.
func CORS(authEnabled bool) func(http.Handler) http.Handler {
	allowHeaders := "Content-Type"
	if authEnabled {
		allowHeaders = "Content-Type, Authorization"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
