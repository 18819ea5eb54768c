package profiles

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsetrack/pulsetrack/backend/go-services/internal/models"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const profileColumns = `id, name, email, role, department, last_login, session_created_at, session_expires_at, created_at, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	var role string
	err := row.Scan(
		&p.ID, &p.Name, &p.Email, &role, &p.Department,
		&p.LastLogin, &p.SessionCreatedAt, &p.SessionExpiresAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	// Rows written by older admin tooling may carry arbitrary role strings.
	p.Role = models.NormalizeRole(role)
	return &p, nil
}

// GetByID returns the profile for the given subject id.
// Returns (nil, nil) when no profile is found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	p, err := scanProfile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// Create inserts a new profile and returns the stored row.
func (r *PostgresRepository) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	query := `
		INSERT INTO profiles (id, name, email, role, department)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + profileColumns

	return scanProfile(r.pool.QueryRow(ctx, query, p.ID, p.Name, p.Email, string(p.Role), p.Department))
}

// List returns all profiles ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateRole changes the role for the given id.
func (r *PostgresRepository) UpdateRole(ctx context.Context, id string, role models.Role) error {
	query := `UPDATE profiles SET role = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, string(role))
	return err
}

// UpdateLastLogin sets the last_login timestamp to now for the given id.
func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE profiles SET last_login = CURRENT_TIMESTAMP WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// SetSessionWindow records the advisory session markers on the profile row.
func (r *PostgresRepository) SetSessionWindow(ctx context.Context, id string, createdAt, expiresAt time.Time) error {
	query := `UPDATE profiles SET session_created_at = $2, session_expires_at = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, createdAt, expiresAt)
	return err
}

// SessionExpired reports whether the row's session_expires_at marker has passed.
func (r *PostgresRepository) SessionExpired(ctx context.Context, id string) (bool, error) {
	query := `
		SELECT session_expires_at IS NOT NULL AND session_expires_at < CURRENT_TIMESTAMP
		FROM profiles WHERE id = $1
	`

	var expired bool
	err := r.pool.QueryRow(ctx, query, id).Scan(&expired)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return expired, nil
}

// ClearSessionExpiry removes the session markers for the given id.
func (r *PostgresRepository) ClearSessionExpiry(ctx context.Context, id string) error {
	query := `UPDATE profiles SET session_created_at = NULL, session_expires_at = NULL WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
