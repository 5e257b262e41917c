package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-qr/internal/constants"
	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/logger"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/auth"
	"github.com/IgorGrieder/encurtador-qr/pkg/httputils"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

type identityKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the caller set by AuthMiddleware.
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(auth.Identity)
	return id, ok
}

// AuthMiddleware rejects requests without a valid, non-revoked bearer token.
func AuthMiddleware(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := httputils.BearerToken(r)
			if !ok {
				httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
				return
			}

			id, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, auth.ErrUnauthorized) {
					logger.Error("failed to authenticate request", zap.Error(err))
					httputils.WriteAPIError(w, r, constants.ErrInternalError)
					return
				}
				httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *id)))
		})
	}
}
