package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/models"
	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/profiles"
	"github.com/pulsetrack/pulsetrack/backend/go-services/pkg/logger"
	"github.com/pulsetrack/pulsetrack/backend/go-services/pkg/metrics"
)

// Session is the subset of the auth provider's session the resolver reads:
// subject id, email, and the sign-up metadata that may carry a role hint.
type Session struct {
	UserID   string
	Email    string
	Metadata map[string]interface{}
}

// EventKind distinguishes session-change notifications from the auth provider.
type EventKind string

const (
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
)

// Status is the resolver's lifecycle state. Unauthenticated never jumps
// straight to Authenticated: Resolving is always interposed so callers can
// render a loading state.
type Status int

const (
	StatusUnauthenticated Status = iota
	StatusResolving
	StatusAuthenticated
	StatusDegraded
)

func (s Status) String() string {
	switch s {
	case StatusResolving:
		return "resolving"
	case StatusAuthenticated:
		return "authenticated"
	case StatusDegraded:
		return "degraded"
	default:
		return "unauthenticated"
	}
}

// State is the {status, profile, error} triple the rest of the application
// consumes. Err is recorded, never propagated as a panic or left to callers
// to re-derive.
type State struct {
	Status  Status
	Profile *models.Profile
	Err     error
}

// Options tune a single resolution.
type Options struct {
	// ForceFresh bypasses the cache and overwrites the entry on success.
	ForceFresh bool
	// ExpectedRole, when set, makes a cache hit conditional on the cached
	// role matching; a mismatch falls through to a backend read.
	ExpectedRole models.Role
}

// SignOutFunc revokes the user's sessions everywhere (all devices/tabs).
// Injected so the resolver stays independent of the session store.
type SignOutFunc func(ctx context.Context, userID string) error

// Resolver maps auth sessions to application profiles. One instance serves
// the whole process; its cache is mutated only through resolver operations.
type Resolver struct {
	repo    profiles.Repository
	cache   Cache
	signOut SignOutFunc

	mu    sync.Mutex
	state State
	// gens guards asynchronous continuations, keyed by user id: a resolution
	// captures its user's generation at start and may only commit while it
	// still matches, so a slow backend response cannot overwrite state after
	// that user's sign-out superseded it. Generations are per user so one
	// user's sign-in or sign-out never invalidates another user's in-flight
	// resolution.
	gens map[string]uint64

	sideEffects sync.WaitGroup
}

// New creates a Resolver. signOut may be nil when no session store is wired
// (expiry enforcement then only clears local state).
func New(repo profiles.Repository, cache Cache, signOut SignOutFunc) *Resolver {
	return &Resolver{repo: repo, cache: cache, signOut: signOut, gens: make(map[string]uint64)}
}

// HandleAuthEvent dispatches a session-change notification. Signed-out (or a
// nil session) clears state; signed-in resolves with the last-login side
// effect; refresh events resolve without it.
func (r *Resolver) HandleAuthEvent(ctx context.Context, kind EventKind, s *Session) (*models.Profile, error) {
	if kind == EventSignedOut || s == nil {
		userID := ""
		if s != nil {
			userID = s.UserID
		}
		r.OnSessionCleared(userID)
		return nil, nil
	}
	return r.resolve(ctx, *s, Options{}, kind == EventSignedIn)
}

// OnSessionEstablished resolves the profile for a freshly established
// session: cache consult, backend fetch, lazy creation, expiry enforcement,
// and the fire-and-forget last-login update.
func (r *Resolver) OnSessionEstablished(ctx context.Context, s Session, opts Options) (*models.Profile, error) {
	return r.resolve(ctx, s, opts, true)
}

func (r *Resolver) resolve(ctx context.Context, s Session, opts Options, withLastLogin bool) (*models.Profile, error) {
	r.mu.Lock()
	r.gens[s.UserID]++
	gen := r.gens[s.UserID]
	r.state = State{Status: StatusResolving, Profile: r.state.Profile}
	r.mu.Unlock()

	// Expiry enforcement always precedes trusting any profile, cached or not.
	if err := r.CheckAndEnforceExpiry(ctx, s.UserID); err != nil {
		return nil, err
	}

	if !opts.ForceFresh {
		if e := r.cache.Get(s.UserID); e != nil && (opts.ExpectedRole == "" || e.Profile.Role == opts.ExpectedRole) {
			metrics.ProfileCacheHits.Inc()
			metrics.ProfileResolutions.WithLabelValues("cached").Inc()
			if !r.commit(s.UserID, gen, State{Status: StatusAuthenticated, Profile: e.Profile}) {
				return nil, ErrSuperseded
			}
			return e.Profile, nil
		}
	}
	metrics.ProfileCacheMisses.Inc()

	p, err := r.repo.GetByID(ctx, s.UserID)
	if err != nil {
		// Hard read failure: synthesize a non-persisted fallback so the
		// caller is never stuck loading. The fallback must not be trusted
		// for role-gated decisions beyond default employee access.
		fb := Synthesize(s)
		fb.Role = models.RoleEmployee
		fb.Department = models.DefaultDepartment(fb.Role)
		werr := fmt.Errorf("fetch profile %s: %w", s.UserID, ErrProfileLookup)
		logger.Errorf("profile lookup failed for %s: %v", s.UserID, err)
		metrics.ProfileResolutions.WithLabelValues("degraded").Inc()
		if !r.commit(s.UserID, gen, State{Status: StatusDegraded, Profile: fb, Err: werr}) {
			return nil, ErrSuperseded
		}
		return fb, werr
	}

	outcome := "fetched"
	if p == nil {
		created, cerr := r.repo.Create(ctx, Synthesize(s))
		if cerr != nil {
			werr := fmt.Errorf("create profile %s: %w: %v", s.UserID, ErrProfileCreation, cerr)
			logger.Errorf("profile creation failed for %s: %v", s.UserID, cerr)
			metrics.ProfileResolutions.WithLabelValues("creation_failed").Inc()
			if !r.commit(s.UserID, gen, State{Status: StatusDegraded, Err: werr}) {
				return nil, ErrSuperseded
			}
			return nil, werr
		}
		p = created
		outcome = "created"
	} else {
		p.Role = models.NormalizeRole(string(p.Role))
	}
	metrics.ProfileResolutions.WithLabelValues(outcome).Inc()

	if !r.commit(s.UserID, gen, State{Status: StatusAuthenticated, Profile: p}) {
		// A newer session change landed while the read was in flight; the
		// late result is discarded, never cached.
		return nil, ErrSuperseded
	}
	r.cache.Set(s.UserID, p)

	if withLastLogin {
		// Fire-and-forget: must not block or fail the resolution. The cache
		// entry is invalidated afterwards so the next read picks up the
		// fresh last_login value.
		r.sideEffects.Add(1)
		go func() {
			defer r.sideEffects.Done()
			if err := r.repo.UpdateLastLogin(context.Background(), s.UserID); err != nil {
				logger.Warnf("last-login update failed for %s: %v", s.UserID, err)
				return
			}
			r.cache.Delete(s.UserID)
		}()
	}

	return p, nil
}

// OnSessionCleared resets profile, loading and error state immediately, with
// no backend call. Idempotent; also invalidates any in-flight resolution for
// userID, and only for userID, so clearing one user's session never discards
// a concurrent resolution for another user.
func (r *Resolver) OnSessionCleared(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gens[userID]++
	r.state = State{Status: StatusUnauthenticated}
}

// CheckAndEnforceExpiry consults the backend's advisory expiry markers and,
// when expired, clears them, revokes the user's sessions globally and resets
// local state. A failing check fails open: transient backend errors must not
// log users out.
func (r *Resolver) CheckAndEnforceExpiry(ctx context.Context, userID string) error {
	expired, err := r.repo.SessionExpired(ctx, userID)
	if err != nil {
		logger.Warnf("expiry check failed for %s (treating as not expired): %v", userID, err)
		return nil
	}
	if !expired {
		return nil
	}

	metrics.SessionsExpired.Inc()
	if err := r.repo.ClearSessionExpiry(ctx, userID); err != nil {
		logger.Warnf("expiry clear failed for %s: %v", userID, err)
	}
	if r.signOut != nil {
		if err := r.signOut(ctx, userID); err != nil {
			logger.Warnf("global sign-out failed for %s: %v", userID, err)
		}
	}
	r.cache.Delete(userID)
	r.OnSessionCleared(userID)
	return fmt.Errorf("enforce expiry for %s: %w", userID, ErrSessionExpired)
}

// BustCache removes the cached profile for userID so the next read hits the
// backend. Called by admin flows that mutate profiles out-of-band.
func (r *Resolver) BustCache(userID string) {
	r.cache.Delete(userID)
}

// Snapshot returns the current {status, profile, error} triple.
func (r *Resolver) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// commit installs the new state only when the user's generation still
// matches, i.e. no newer session change for that user superseded this
// resolution.
func (r *Resolver) commit(userID string, gen uint64, st State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gens[userID] {
		return false
	}
	r.state = st
	return true
}

// Synthesize builds a profile from session data alone: name from the email
// local-part, role from the metadata hint (normalized, defaulting to
// employee), department from the role.
func Synthesize(s Session) *models.Profile {
	role := models.NormalizeRole(roleHint(s.Metadata))
	return &models.Profile{
		ID:         s.UserID,
		Name:       localPart(s.Email),
		Email:      s.Email,
		Role:       role,
		Department: models.DefaultDepartment(role),
	}
}

func roleHint(md map[string]interface{}) string {
	if md == nil {
		return ""
	}
	if v, ok := md["role"].(string); ok {
		return v
	}
	return ""
}

func localPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
