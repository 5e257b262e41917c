package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

type routeSlotKey struct{}

func withRouteSlot(ctx context.Context) (context.Context, *string) {
	if slot, ok := ctx.Value(routeSlotKey{}).(*string); ok {
		return ctx, slot
	}
	slot := new(string)
	return context.WithValue(ctx, routeSlotKey{}, slot), slot
}

// RouteFrom returns the path pattern the mux matched, or "" when the request
// did not reach a registered route.
func RouteFrom(ctx context.Context) string {
	if slot, ok := ctx.Value(routeSlotKey{}).(*string); ok {
		return *slot
	}
	return ""
}

// Route tags a registered handler with its pattern so the outer logging and
// metrics middlewares can label by route. The active span is renamed to
// spanName when one is given.
func Route(pattern, spanName string, next http.Handler) http.Handler {
	path := pattern
	if _, p, ok := strings.Cut(pattern, " "); ok {
		path = p
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slot, ok := r.Context().Value(routeSlotKey{}).(*string); ok {
			*slot = path
		}
		if spanName != "" {
			trace.SpanFromContext(r.Context()).SetName(spanName)
		}
		next.ServeHTTP(w, r)
	})
}
