package activity

import "time"

// Activity is a single logged work item attributed to a profile.
type Activity struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Department  string    `json:"department"`
	Kind        string    `json:"kind"`
	Description string    `json:"description,omitempty"`
	Minutes     int       `json:"minutes"`
	OccurredAt  time.Time `json:"occurredAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SummaryRow is one bucket of the per-department daily aggregation.
type SummaryRow struct {
	Department string    `json:"department"`
	Day        time.Time `json:"day"`
	Count      int       `json:"count"`
	Minutes    int       `json:"minutes"`
}
