package resolver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pulsetrack/pulsetrack/backend/go-services/pkg/logger"
)

// Enforcer re-runs expiry enforcement on a fixed interval while a session is
// active. Each signed-in user gets their own timer: starting a timer for one
// user never disturbs another user's, and a user's timer is torn down when
// their session clears and recreated on their next sign-in, so timers never
// leak across sessions.
type Enforcer struct {
	resolver *Resolver
	interval time.Duration

	mu    sync.Mutex
	stops map[string]chan struct{}
}

func NewEnforcer(r *Resolver, interval time.Duration) *Enforcer {
	return &Enforcer{resolver: r, interval: interval, stops: make(map[string]chan struct{})}
}

// Start begins periodic expiry checks for userID, replacing any earlier timer
// for the same user. Timers of other users are untouched.
func (e *Enforcer) Start(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if prev, ok := e.stops[userID]; ok {
		close(prev)
	}
	stop := make(chan struct{})
	e.stops[userID] = stop

	go func() {
		t := time.NewTicker(e.interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				err := e.resolver.CheckAndEnforceExpiry(context.Background(), userID)
				if errors.Is(err, ErrSessionExpired) {
					logger.Infof("session for %s force-closed by expiry enforcer", userID)
					return
				}
			}
		}
	}()
}

// Stop tears down the timer for userID. Safe to call repeatedly, and a no-op
// for users without a running timer.
func (e *Enforcer) Stop(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if stop, ok := e.stops[userID]; ok {
		close(stop)
		delete(e.stops, userID)
	}
}

// StopAll tears down every running timer. Used on shutdown.
func (e *Enforcer) StopAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, stop := range e.stops {
		close(stop)
		delete(e.stops, id)
	}
}
