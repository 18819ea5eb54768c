// Package oidc verifies the ID tokens the external identity provider issues
// at sign-in. The verified claims carry the subject, email and the sign-up
// metadata the identity resolver reads its role hint from.
package oidc

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/config"
	"github.com/pulsetrack/pulsetrack/backend/go-services/pkg/middleware"
)

// IDToken exposes the claims of a verified token. Satisfied by *oidc.IDToken
// and by test fakes.
type IDToken interface {
	Claims(v interface{}) error
}

// Verifier validates ID tokens against the provider's published keys. The
// provider is discovered once, at startup.
type Verifier struct {
	ctx      context.Context
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the provider behind issuer and builds a verifier
// that accepts tokens issued to clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover provider %s: %w", issuer, err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	return &Verifier{ctx: ctx, provider: provider, verifier: verifier}, nil
}

// NewVerifierFromConfig builds a Verifier from the service's auth settings.
func NewVerifierFromConfig(ctx context.Context, cfg config.AuthConfig) (*Verifier, error) {
	return NewVerifier(ctx, cfg.IssuerURL, cfg.ClientID)
}

// Verify checks the raw ID token's signature, issuer, audience and expiry,
// and returns its claims as a middleware.Token.
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}
