package activity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrInvalid = errors.New("invalid activity")

// Service encapsulates activity-log business logic on top of a Repository.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// Log validates and records a new activity for the given user.
func (s *Service) Log(ctx context.Context, a *Activity) (*Activity, error) {
	if a.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalid)
	}
	if a.Kind == "" {
		return nil, fmt.Errorf("%w: missing kind", ErrInvalid)
	}
	if a.Minutes < 0 {
		return nil, fmt.Errorf("%w: negative minutes", ErrInvalid)
	}
	if a.Department == "" {
		a.Department = "General"
	}
	return s.repo.Create(ctx, a)
}

// Get returns one activity. Only the owner may read it unless owner checks
// are disabled by passing an empty requesterID.
func (s *Service) Get(ctx context.Context, id, requesterID string) (*Activity, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	if requesterID != "" && a.UserID != requesterID {
		return nil, ErrNotFound
	}
	return a, nil
}

// List returns the user's activities inside the given window.
func (s *Service) List(ctx context.Context, userID string, from, to time.Time) ([]*Activity, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalid)
	}
	return s.repo.ListByUser(ctx, userID, from, to)
}

// Update patches the owner's activity. Non-owners get ErrNotFound rather
// than a distinguishable forbidden error.
func (s *Service) Update(ctx context.Context, id, requesterID string, description *string, minutes *int) (*Activity, error) {
	if minutes != nil && *minutes < 0 {
		return nil, fmt.Errorf("%w: negative minutes", ErrInvalid)
	}
	if _, err := s.Get(ctx, id, requesterID); err != nil {
		return nil, err
	}
	a, err := s.repo.Update(ctx, id, description, minutes)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// Delete removes the owner's activity.
func (s *Service) Delete(ctx context.Context, id, requesterID string) error {
	if _, err := s.Get(ctx, id, requesterID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Summary aggregates activity counts and minutes per department per day.
func (s *Service) Summary(ctx context.Context, from, to time.Time) ([]*SummaryRow, error) {
	return s.repo.Summary(ctx, from, to)
}
