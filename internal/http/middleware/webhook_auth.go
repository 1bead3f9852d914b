package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// WebhookAuth enforces the shared bearer key Retell sends with every webhook
// call. The comparison is constant-time. An empty configured key disables
// the surface entirely rather than leaving it open.
func WebhookAuth(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				http.Error(w, "webhook auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			scheme, token, found := strings.Cut(auth, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
