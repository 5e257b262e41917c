package http

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/telemetry"
	"github.com/IgorGrieder/encurtador-qr/internal/transport/http/middleware"
)

var spanNames = map[string]string{
	"GET /health":               "health",
	"GET /metrics":              "metrics",
	"POST /auth/signup":         "auth.signup",
	"POST /auth/login":          "auth.login",
	"POST /auth/logout":         "auth.logout",
	"GET /user":                 "user.profile",
	"POST /url":                 "links.create",
	"GET /url":                  "links.list",
	"GET /url/{id}/details":     "links.details",
	"GET /url/{id}/stats":       "links.stats",
	"GET /url/{id}":             "links.redirect",
	"PUT /url/{id}":             "links.update",
	"DELETE /url/{id}":          "links.delete",
	"GET /qr-code":              "qr.list",
	"GET /qr-code/{id}/details": "qr.details",
	"GET /{id}":                 "links.redirect",
}

type RouterOptions struct {
	ServiceName   string
	EnableCORS    bool
	CORSOrigins   []string
	EnableLogging bool
	EnableMetrics bool

	Links        LinksHandlerOptions
	HealthChecks map[string]HealthCheck
}

func DefaultRouterOptions() RouterOptions {
	return RouterOptions{
		ServiceName:   "encurtador-qr",
		EnableCORS:    true,
		EnableLogging: true,
		EnableMetrics: true,
		Links: LinksHandlerOptions{
			RedirectStatus: http.StatusMovedPermanently,
			AsyncVisit:     true,
		},
	}
}

type Services struct {
	Links       LinkService
	Auth        AuthService
	CreateLimit middleware.WindowCounter
	CreateRate  int
}

func NewRouter(svcs Services, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	healthHandler := NewHealthHandler(opts.HealthChecks)
	authHandler := NewAuthHandler(svcs.Auth)
	linksHandler := NewLinksHandler(svcs.Links, opts.Links)
	qrHandler := NewQRHandler(svcs.Links)

	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, middleware.Route(pattern, spanNames[pattern], h))
	}

	handle("GET /health", http.HandlerFunc(healthHandler.Health))
	handle("GET /metrics", healthHandler.Metrics())

	authenticated := middleware.AuthMiddleware(svcs.Auth)
	protect := func(h http.HandlerFunc, extra ...func(http.Handler) http.Handler) http.Handler {
		return middleware.Chain(h, append([]func(http.Handler) http.Handler{authenticated}, extra...)...)
	}

	handle("POST /auth/signup", http.HandlerFunc(authHandler.Signup))
	handle("POST /auth/login", http.HandlerFunc(authHandler.Login))
	handle("POST /auth/logout", protect(authHandler.Logout))
	handle("GET /user", protect(authHandler.Profile))

	var createMiddlewares []func(http.Handler) http.Handler
	if svcs.CreateLimit != nil {
		createMiddlewares = append(createMiddlewares,
			middleware.RateLimitMiddleware(middleware.NewRateLimiter(svcs.CreateLimit, svcs.CreateRate)))
	}
	handle("POST /url", protect(linksHandler.Create, createMiddlewares...))
	handle("GET /url", protect(linksHandler.List))
	handle("GET /url/{id}/details", protect(linksHandler.Details))
	handle("GET /url/{id}/stats", protect(linksHandler.Stats))
	handle("PUT /url/{id}", protect(linksHandler.Update))
	handle("DELETE /url/{id}", protect(linksHandler.Delete))
	handle("GET /url/{id}", http.HandlerFunc(linksHandler.Redirect))

	handle("GET /qr-code", protect(qrHandler.List))
	handle("GET /qr-code/{id}/details", protect(qrHandler.Details))

	handle("GET /{id}", http.HandlerFunc(linksHandler.Redirect))

	var innerHandler http.Handler = mux
	if opts.EnableCORS {
		innerHandler = middleware.CORS(opts.CORSOrigins)(innerHandler)
	}
	if opts.EnableLogging {
		innerHandler = middleware.LoggingMiddleware(innerHandler)
	}
	if opts.EnableMetrics {
		innerHandler = middleware.MetricsMiddleware(innerHandler)
	}

	// Matched routes rename their span in middleware.Route.
	otelOptions := []otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return r.Method + " unmatched"
		}),
	}

	if telemetry.TracerProvider != nil {
		otelOptions = append(otelOptions, otelhttp.WithTracerProvider(telemetry.TracerProvider))
	}

	return otelhttp.NewHandler(innerHandler, opts.ServiceName, otelOptions...)
}
