package middleware

import (
	"net/http"
)

// ReadOnlyMiddleware blocks mutating requests when the server runs in demo
// mode. The OAuth callback stays open because the aggregator redirects the
// browser there and it must complete the flow.
func ReadOnlyMiddleware(readOnly bool) func(http.Handler) http.Handler {
	allowedPaths := map[string]bool{
		"/api/bank/callback": true,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if readOnly && r.Method != http.MethodGet && !allowedPaths[r.URL.Path] {
				http.Error(w, "Demo mode: only GET requests are allowed", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
