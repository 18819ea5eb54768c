package sessions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// package-level Redis client used for the access-token revocation list
// (optional). Refresh sessions die with DeleteByUser, but already-issued
// access tokens stay valid until exp unless they are revoked here.
var revocationClient *redis.Client

// SetRevocationClient configures the Redis client used for access-token
// revocation. Safe to call with nil to disable revocation checks.
func SetRevocationClient(c *redis.Client) {
	revocationClient = c
}

// RevokeAccessToken stores the token in the revocation list until its own
// expiry. If no Redis client is configured this is a no-op and returns nil.
func RevokeAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	if revocationClient == nil {
		return nil
	}
	return revocationClient.Set(ctx, "revoked:access:"+token, "1", ttl).Err()
}

// IsAccessTokenRevoked returns true when the token is on the revocation list.
// If no Redis client is configured, returns (false, nil).
func IsAccessTokenRevoked(ctx context.Context, token string) (bool, error) {
	if revocationClient == nil {
		return false, nil
	}
	n, err := revocationClient.Exists(ctx, "revoked:access:"+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
