// Package resolver owns the mapping from an auth-provider session to an
// application profile: cache consult, row fetch, lazy profile creation,
// fallback synthesis on backend failure, and custom session-expiry
// enforcement the auth provider does not perform on its own.
package resolver

import "errors"

// Sentinel errors for resolver operations. Wrap with fmt.Errorf("...: %w")
// and check with errors.Is.
var (
	// ErrProfileLookup indicates the backend read failed (not a not-found).
	// The resolver still returns a synthesized, non-persisted fallback
	// profile alongside this error so callers are never stuck loading.
	ErrProfileLookup = errors.New("profile lookup failed")

	// ErrProfileCreation indicates the lazy insert for a first-time user
	// failed. No profile is returned: fabricating one that was never
	// persisted would make every later session check hit the same branch
	// silently.
	ErrProfileCreation = errors.New("profile creation failed")

	// ErrSessionExpired indicates expiry enforcement closed the session.
	// The caller must require a brand-new sign-in.
	ErrSessionExpired = errors.New("session expired")

	// ErrSuperseded indicates a newer session change landed while this
	// resolution was in flight; its result was discarded.
	ErrSuperseded = errors.New("resolution superseded")
)
