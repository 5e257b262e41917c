package middleware

import (
	"net/http"
	"time"

	"github.com/rs/cors"
)

// CORS returns rs/cors middleware for the dashboard front end. With no
// origins configured every origin is reflected, which keeps local
// development working. Login exposes Authorization so the browser can read
// the issued token from the response header.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
			http.MethodHead,
		},
		AllowedHeaders: []string{
			"Content-Type",
			"Authorization",
			"Accept",
			"Origin",
			"X-Requested-With",
			"X-Correlation-Id",
			"traceparent",
			"tracestate",
			"baggage",
		},
		ExposedHeaders:   []string{"Authorization", "X-Correlation-Id"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}
	if len(allowedOrigins) > 0 {
		opts.AllowedOrigins = allowedOrigins
	} else {
		opts.AllowOriginFunc = func(string) bool { return true }
	}

	return cors.New(opts).Handler
}
