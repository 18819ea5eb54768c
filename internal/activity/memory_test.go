package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_CopyOnReadWrite(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &Activity{UserID: "u1", Kind: "coding", Minutes: 10})
	require.NoError(t, err)

	// mutating the returned copy must not leak into the store
	created.Minutes = 999
	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, 10, got.Minutes)
}

func TestMemoryRepository_GetMissingIsNilNil(t *testing.T) {
	repo := NewMemoryRepository()
	a, err := repo.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, a)
}

func TestMemoryRepository_ClockInjection(t *testing.T) {
	repo := NewMemoryRepository()
	fixed := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	repo.SetClock(func() time.Time { return fixed })

	a, err := repo.Create(context.Background(), &Activity{UserID: "u1", Kind: "coding"})
	require.NoError(t, err)
	require.Equal(t, fixed, a.CreatedAt)
	require.Equal(t, fixed, a.OccurredAt)
}

func TestMemoryRepository_DeleteMissing(t *testing.T) {
	repo := NewMemoryRepository()
	require.ErrorIs(t, repo.Delete(context.Background(), "missing"), ErrNotFound)
}
