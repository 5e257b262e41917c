package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-qr/internal/constants"
	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/logger"
	"github.com/IgorGrieder/encurtador-qr/pkg/httputils"
)

// WindowCounter counts hits for a key in the current window.
type WindowCounter interface {
	Incr(ctx context.Context, key string) (int64, error)
}

// RateLimiter enforces a simple counter per caller per fixed time window.
type RateLimiter struct {
	store WindowCounter
	limit int64
}

func NewRateLimiter(store WindowCounter, limitPerWindow int) *RateLimiter {
	if limitPerWindow <= 0 {
		limitPerWindow = 60
	}
	return &RateLimiter{
		store: store,
		limit: int64(limitPerWindow),
	}
}

// RateLimitMiddleware fails open when the counter store is unavailable.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(r)
			ctx, cancel := context.WithTimeout(r.Context(), 200*time.Millisecond)
			defer cancel()

			count, err := limiter.store.Incr(ctx, key)
			if err != nil {
				logger.Warn("rate limiter unavailable", zap.Error(err), zap.String("key", key))
				next.ServeHTTP(w, r)
				return
			}
			if count > limiter.limit {
				httputils.WriteAPIError(w, r, constants.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) string {
	if id, ok := IdentityFrom(r.Context()); ok {
		return "user:" + strconv.FormatInt(id.UserID, 10)
	}
	if ip := httputils.ClientIP(r); ip != "" {
		return "ip:" + ip
	}
	return "ip:unknown"
}
