package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS returns preflight options for the browser client. With "*" in the
// origin list credentials are disabled, since browsers reject the pair.
func CORS(allowedOrigins []string) cors.Options {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	allowCreds := true
	for _, o := range allowedOrigins {
		if o == "*" {
			allowCreds = false
			break
		}
	}

	return cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: allowCreds,
		MaxAge:           300,
	}
}

// RouteCORS pins the Access-Control headers a route advertises on its
// actual responses, independent of the request's Origin.
func RouteCORS(method string) func(http.Handler) http.Handler {
	return StaticHeaders(map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": method,
		"Access-Control-Allow-Headers": "Content-Type",
	})
}
