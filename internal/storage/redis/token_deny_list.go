package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// TokenDenyList stores revoked tokens as keys that expire with the token.
type TokenDenyList struct {
	client goredis.Cmdable
	prefix string
}

func NewTokenDenyList(client goredis.Cmdable, prefix string) *TokenDenyList {
	if prefix == "" {
		prefix = "denylist"
	}
	return &TokenDenyList{client: client, prefix: prefix}
}

func (d *TokenDenyList) Deny(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, d.key(token), 1, ttl).Err()
}

func (d *TokenDenyList) IsDenied(ctx context.Context, token string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// key hashes the token to keep keys short and off the wire.
func (d *TokenDenyList) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return d.prefix + ":" + hex.EncodeToString(sum[:])
}
