package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/logger"
	"github.com/IgorGrieder/encurtador-qr/pkg/httputils"
)

// LoggingMiddleware writes one access log line per request. Redirects are
// logged at debug so hot short links do not flood the log.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx, slot := withRouteSlot(r.Context())
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", *slot),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", httputils.ClientIP(r)),
		}

		if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
			fields = append(fields,
				zap.String("trace_id", sc.TraceID().String()),
				zap.String("span_id", sc.SpanID().String()),
			)
		}

		switch {
		case rec.status >= http.StatusInternalServerError:
			logger.Warn("request failed", fields...)
		case rec.status == http.StatusMovedPermanently || rec.status == http.StatusFound:
			logger.Debug("redirect served", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	})
}
