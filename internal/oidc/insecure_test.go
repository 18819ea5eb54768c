package oidc

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsecureVerifierParsesClaims(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"u-1","email":"a@co.com"}`))
	raw := header + "." + payload + "."

	tok, err := NewInsecureVerifier().Verify(context.Background(), raw)
	require.NoError(t, err)

	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "u-1", claims["sub"])
	require.Equal(t, "a@co.com", claims["email"])
}

func TestInsecureVerifierRejectsMalformed(t *testing.T) {
	_, err := NewInsecureVerifier().Verify(context.Background(), "no-dots-here")
	require.Error(t, err)

	_, err = NewInsecureVerifier().Verify(context.Background(), "a.!!!not-base64!!!.c")
	require.Error(t, err)
}
