package middleware

import (
	"net/http"

	"github.com/gorilla/handlers"
)

// CORS sets "Access-Control-Allowed" style headers on a response,
// allowing credentials to be sent along.
//
// When allowAll is true, CORS echoes back whatever origin a request comes from.
// Otherwise, only the listed origins are allowed.
// If allowAll is false and no origins are listed, NoopAdapter returns and this middleware does nothing.
//
// The handler including this middleware must also handle the http.MethodOptions method
// and not just the HTTP method it's designed for.
func CORS(allowAll bool, origins []string) Adapter {
	if !allowAll && len(origins) == 0 {
		return NoopAdapter
	}

	opts := []handlers.CORSOption{
		handlers.AllowCredentials(),
		handlers.AllowedHeaders([]string{
			"Accept",
			"Authorization",
			"Content-Type",
			IdempotencyHeader,
			RequestIDHeader,
		}),
		handlers.AllowedMethods([]string{
			http.MethodDelete,
			http.MethodGet,
			http.MethodHead,
			http.MethodOptions,
			http.MethodPatch,
			http.MethodPost,
			http.MethodPut,
		}),
		handlers.ExposedHeaders([]string{"Location", RequestIDHeader}),
	}

	if allowAll {
		opts = append(opts, handlers.AllowedOriginValidator(func(string) bool { return true }))
	} else {
		opts = append(opts, handlers.AllowedOrigins(origins))
	}

	return handlers.CORS(opts...)
}
