package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// AllowedHeaders are the request headers browsers may send to the procedures.
var AllowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// CORS decorates actual (non-preflight) responses with the allow-origin header.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   AllowedHeaders,
		AllowCredentials: false,
		MaxAge:           300,
	})
}

// Preflight answers every OPTIONS request with 200, an empty body and the
// fixed allow headers, whether or not Access-Control-Request-Method is set.
// It must run before CORS and before authentication.
func Preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", strings.Join(AllowedHeaders, ", "))
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Max-Age", "300")
		w.WriteHeader(http.StatusOK)
	})
}
