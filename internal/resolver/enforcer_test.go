package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/models"
)

func TestEnforcerClosesExpiredSession(t *testing.T) {
	repo := newFakeRepo()
	repo.rows["U1"] = &models.Profile{ID: "U1", Name: "alice", Email: "alice@co.com", Role: models.RoleEmployee, Department: "General"}

	revoked := make(chan string, 1)
	r := New(repo, NewMemoryCache(5*time.Minute, newClock().Now), func(ctx context.Context, id string) error {
		revoked <- id
		return nil
	})

	_, err := r.OnSessionEstablished(context.Background(), Session{UserID: "U1", Email: "alice@co.com"}, Options{})
	require.NoError(t, err)

	e := NewEnforcer(r, 10*time.Millisecond)
	e.Start("U1")
	defer e.StopAll()

	// session expires while active; the next tick must force it closed
	repo.mu.Lock()
	repo.expired["U1"] = true
	repo.mu.Unlock()

	select {
	case id := <-revoked:
		require.Equal(t, "U1", id)
	case <-time.After(time.Second):
		t.Fatal("enforcer did not revoke the expired session")
	}
	require.Eventually(t, func() bool {
		return r.Snapshot().Status == StatusUnauthenticated
	}, time.Second, 5*time.Millisecond)
}

func TestEnforcerStopPreventsFurtherChecks(t *testing.T) {
	repo := newFakeRepo()
	r := newResolver(repo, newClock())

	e := NewEnforcer(r, 5*time.Millisecond)
	e.Start("U1")
	time.Sleep(20 * time.Millisecond)
	e.Stop("U1")

	repo.mu.Lock()
	before := repo.checks
	repo.mu.Unlock()

	time.Sleep(30 * time.Millisecond)
	repo.mu.Lock()
	after := repo.checks
	repo.mu.Unlock()
	require.Equal(t, before, after, "stopped enforcer must not keep checking")

	// Stop is idempotent, and unknown users are a no-op
	e.Stop("U1")
	e.Stop("never-started")
}

func TestEnforcerRestartReplacesOwnTimer(t *testing.T) {
	repo := newFakeRepo()
	r := newResolver(repo, newClock())

	e := NewEnforcer(r, 5*time.Millisecond)
	e.Start("U1")
	e.Start("U1") // signing in again replaces the user's previous timer
	defer e.StopAll()

	time.Sleep(25 * time.Millisecond)
	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Greater(t, repo.checks, 0)
}

func TestEnforcerTracksUsersIndependently(t *testing.T) {
	repo := newFakeRepo()
	repo.rows["U1"] = &models.Profile{ID: "U1", Name: "alice", Email: "alice@co.com", Role: models.RoleEmployee, Department: "General"}
	repo.rows["U2"] = &models.Profile{ID: "U2", Name: "bob", Email: "bob@co.com", Role: models.RoleEmployee, Department: "General"}

	revoked := make(chan string, 2)
	r := New(repo, NewMemoryCache(5*time.Minute, newClock().Now), func(ctx context.Context, id string) error {
		revoked <- id
		return nil
	})

	e := NewEnforcer(r, 10*time.Millisecond)
	e.Start("U1")
	e.Start("U2")
	defer e.StopAll()

	// stopping one user's timer leaves the other's running
	e.Stop("U2")

	repo.mu.Lock()
	repo.expired["U1"] = true
	repo.mu.Unlock()

	select {
	case id := <-revoked:
		require.Equal(t, "U1", id, "only the expired user is revoked")
	case <-time.After(time.Second):
		t.Fatal("the surviving timer did not enforce expiry")
	}
}
