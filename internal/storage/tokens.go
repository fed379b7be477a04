package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenDenylist revokes bearer tokens by their jti claim. Entries expire
// together with the token itself, so the set never grows past the live
// token population.
type TokenDenylist struct {
	client *redis.Client
}

func NewTokenDenylist(client *redis.Client) *TokenDenylist {
	return &TokenDenylist{client: client}
}

func denylistKey(jti string) string {
	return "token:revoked:" + jti
}

func (d *TokenDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := d.client.Set(ctx, denylistKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked fails closed: an unreachable denylist rejects the token rather
// than letting a revoked one through.
func (d *TokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := d.client.Get(ctx, denylistKey(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return true, fmt.Errorf("check token revocation: %w", err)
	}
	return true, nil
}
