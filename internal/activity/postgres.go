package activity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const activityColumns = `id, user_id, department, kind, description, minutes, occurred_at, created_at, updated_at`

func scanActivity(row pgx.Row) (*Activity, error) {
	var a Activity
	err := row.Scan(
		&a.ID, &a.UserID, &a.Department, &a.Kind, &a.Description,
		&a.Minutes, &a.OccurredAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new activity and returns the stored row.
func (r *PostgresRepository) Create(ctx context.Context, a *Activity) (*Activity, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	occurred := a.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	query := `
		INSERT INTO activities (id, user_id, department, kind, description, minutes, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + activityColumns

	return scanActivity(r.pool.QueryRow(ctx, query,
		a.ID, a.UserID, a.Department, a.Kind, a.Description, a.Minutes, occurred))
}

// Get returns the activity with the given id, or (nil, nil) when absent.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1`

	a, err := scanActivity(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// ListByUser returns the user's activities inside [from, to], oldest first.
// Zero bounds are open.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]*Activity, error) {
	query := `
		SELECT ` + activityColumns + ` FROM activities
		WHERE user_id = $1
		  AND ($2::timestamptz IS NULL OR occurred_at >= $2)
		  AND ($3::timestamptz IS NULL OR occurred_at <= $3)
		ORDER BY occurred_at
	`

	rows, err := r.pool.Query(ctx, query, userID, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update patches description and minutes. Returns (nil, nil) when no row matches.
func (r *PostgresRepository) Update(ctx context.Context, id string, description *string, minutes *int) (*Activity, error) {
	query := `
		UPDATE activities
		SET description = COALESCE($2, description),
		    minutes = COALESCE($3, minutes),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING ` + activityColumns

	a, err := scanActivity(r.pool.QueryRow(ctx, query, id, description, minutes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// Delete removes the activity. Returns ErrNotFound when no row matched.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Summary aggregates count and minutes per department per UTC day.
func (r *PostgresRepository) Summary(ctx context.Context, from, to time.Time) ([]*SummaryRow, error) {
	query := `
		SELECT department, date_trunc('day', occurred_at AT TIME ZONE 'UTC') AS day,
		       COUNT(*), COALESCE(SUM(minutes), 0)
		FROM activities
		WHERE ($1::timestamptz IS NULL OR occurred_at >= $1)
		  AND ($2::timestamptz IS NULL OR occurred_at <= $2)
		GROUP BY department, day
		ORDER BY day, department
	`

	rows, err := r.pool.Query(ctx, query, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*SummaryRow
	for rows.Next() {
		var row SummaryRow
		if err := rows.Scan(&row.Department, &row.Day, &row.Count, &row.Minutes); err != nil {
			return nil, err
		}
		out = append(out, &row)
	}
	return out, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
