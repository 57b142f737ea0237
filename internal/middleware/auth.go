package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyHeader carries the shared key on API requests.
const APIKeyHeader = "X-API-Key"

// AuthMiddleware sprawdza klucz API (nagłówek X-API-Key albo parametr api_key).
// Pusty klucz wyłącza autoryzację.
func AuthMiddleware(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Health check bez uwierzytelnienia
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			// Przeglądarkowe websockety nie mogą ustawić nagłówka
			key = r.URL.Query().Get("api_key")
		}
		if key == "" {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
