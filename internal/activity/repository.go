package activity

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("activity not found")

// Repository is the persistence contract for the activity log.
// Lookup methods return (nil, nil) when no row matches.
type Repository interface {
	Create(ctx context.Context, a *Activity) (*Activity, error)
	Get(ctx context.Context, id string) (*Activity, error)
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]*Activity, error)
	Update(ctx context.Context, id string, description *string, minutes *int) (*Activity, error)
	Delete(ctx context.Context, id string) error
	Summary(ctx context.Context, from, to time.Time) ([]*SummaryRow, error)
}
