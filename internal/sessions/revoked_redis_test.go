package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRevokeAccessToken_IsAccessTokenRevoked(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	SetRevocationClient(client)
	defer SetRevocationClient(nil)

	ctx := context.Background()
	token := "access-token-1"
	require.NoError(t, RevokeAccessToken(ctx, token, 2*time.Second))

	ok, err := IsAccessTokenRevoked(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)

	// past the token's own expiry the list entry lapses too
	m.FastForward(3 * time.Second)

	ok2, err := IsAccessTokenRevoked(ctx, token)
	require.NoError(t, err)
	require.False(t, ok2)
}

// Revocation functions are no-ops when no Redis client is configured
func TestRevocation_NoClient_Noop(t *testing.T) {
	SetRevocationClient(nil)
	ctx := context.Background()
	require.NoError(t, RevokeAccessToken(ctx, "no-client-token", time.Second))
	ok, err := IsAccessTokenRevoked(ctx, "no-client-token")
	require.NoError(t, err)
	require.False(t, ok)
}
