package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"qr id", "/qr-code/550e8400-e29b-41d4-a716-446655440000/details", "/qr-code/{id}/details"},
		{"upper case qr id", "/qr-code/550E8400-E29B-41D4-A716-446655440000", "/qr-code/{id}"},
		{"numeric id", "/user/12345", "/user/{id}"},
		{"short code untouched", "/url/aB3xZ9", "/url/aB3xZ9"},
		{"root", "/", "/"},
		{"health", "/health", "/health"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestRoute_TagsMatchedPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("GET /url/{id}", Route("GET /url/{id}", "links.redirect", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := RouteFrom(r.Context()); got != "/url/{id}" {
			t.Errorf("RouteFrom inside handler = %q", got)
		}
	})))

	var seen string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, slot := withRouteSlot(r.Context())
		mux.ServeHTTP(w, r.WithContext(ctx))
		seen = *slot
	})

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/url/aB3xZ9", nil))
	if seen != "/url/{id}" {
		t.Errorf("matched route = %q, want /url/{id}", seen)
	}

	seen = "stale"
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/qr-code/x", nil))
	if seen != "" {
		t.Errorf("unmatched route = %q, want empty", seen)
	}
}

func TestRouteFrom_NoSlot(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := RouteFrom(r.Context()); got != "" {
		t.Errorf("RouteFrom = %q, want empty", got)
	}
}

func TestMetricsMiddleware_PassesStatusThrough(t *testing.T) {
	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMovedPermanently)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/abc", nil))
	if rec.Code != http.StatusMovedPermanently {
		t.Errorf("status = %d, want 301", rec.Code)
	}
}
