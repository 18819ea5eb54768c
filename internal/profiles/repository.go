package profiles

import (
	"context"
	"time"

	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/models"
)

// Repository defines the data-access contract for profile rows.
// The resolver and handlers depend on this interface only, never on SQL directly.
type Repository interface {
	// GetByID returns the profile with the given subject id.
	// Returns (nil, nil) when no profile is found.
	GetByID(ctx context.Context, id string) (*models.Profile, error)

	// Create inserts a new profile and returns the stored row.
	Create(ctx context.Context, p *models.Profile) (*models.Profile, error)

	// List returns all profiles ordered by name.
	List(ctx context.Context) ([]*models.Profile, error)

	// UpdateRole changes the role (and recomputes nothing else) for the given id.
	UpdateRole(ctx context.Context, id string, role models.Role) error

	// UpdateLastLogin sets last_login to now for the given id.
	UpdateLastLogin(ctx context.Context, id string) error

	// SetSessionWindow records the advisory session_created_at/session_expires_at
	// markers on the profile row.
	SetSessionWindow(ctx context.Context, id string, createdAt, expiresAt time.Time) error

	// SessionExpired reports whether the row's session_expires_at marker has
	// passed. A row without markers (or no row at all) is not expired.
	SessionExpired(ctx context.Context, id string) (bool, error)

	// ClearSessionExpiry removes the session markers for the given id.
	ClearSessionExpiry(ctx context.Context, id string) error
}
