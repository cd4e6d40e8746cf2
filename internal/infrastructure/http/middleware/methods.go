package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	httperrors "tho/simplercv/internal/infrastructure/http"
)

// AllowMethods answers 405 with an Allow header for any other method. It
// sits ahead of authentication so a wrong method is reported as such even
// without a token.
func AllowMethods(log *slog.Logger, methods ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		allowed[m] = struct{}{}
	}
	allow := strings.Join(methods, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[r.Method]; !ok {
				w.Header().Set("Allow", allow)
				httperrors.WriteError(w, http.StatusMethodNotAllowed, "Método no permitido", log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
