package oidc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/pulsetrack/pulsetrack/backend/go-services/pkg/middleware"
)

// unverifiedToken carries claims parsed straight from a JWT payload segment,
// without any signature check.
type unverifiedToken struct {
	claims map[string]interface{}
}

func (t *unverifiedToken) Claims(v interface{}) error {
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// InsecureVerifier accepts any well-formed JWT without validating its
// signature. It exists so local development and the handler tests can sign
// in without a reachable identity provider; main only wires it when
// ALLOW_INSECURE_TOKEN is set.
type InsecureVerifier struct{}

func NewInsecureVerifier() *InsecureVerifier { return &InsecureVerifier{} }

// Verify decodes the payload segment and returns its claims.
func (v *InsecureVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	parts := strings.Split(raw, ".")
	if len(parts) < 2 {
		return nil, errors.New("invalid token format")
	}
	payload := parts[1]
	if m := len(payload) % 4; m != 0 {
		payload += strings.Repeat("=", 4-m)
	}
	data, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	var claims map[string]interface{}
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, err
	}
	return &unverifiedToken{claims: claims}, nil
}
