package auth

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const revokedKeyPrefix = "gymrpg-revoked-token||"

// Revocations remembers logged out tokens until they would have expired anyway.
type Revocations struct {
	redisClient *redis.Client
}

func NewRevocations(redisClient *redis.Client) *Revocations {
	return &Revocations{
		redisClient: redisClient,
	}
}

func (r *Revocations) Revoke(ctx context.Context, claims *Claims, now time.Time) error {
	ttl := claims.ExpiresAt.Sub(now)
	if ttl <= 0 || claims.TokenID == "" {
		return nil
	}
	return r.redisClient.Set(ctx, revokedKeyPrefix+claims.TokenID, now.Unix(), ttl).Err()
}

func (r *Revocations) IsRevoked(ctx context.Context, claims *Claims) (bool, error) {
	if claims.TokenID == "" {
		return false, nil
	}
	n, err := r.redisClient.Exists(ctx, revokedKeyPrefix+claims.TokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
