package sessions

import "context"

// Repository provides session persistence operations.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	// GetByToken returns (nil, nil) when the token matches no session.
	GetByToken(ctx context.Context, token string) (*Session, error)
	DeleteByToken(ctx context.Context, token string) error
	// DeleteByUser removes every session belonging to the user; it backs
	// the global sign-out used by expiry enforcement.
	DeleteByUser(ctx context.Context, userID string) error
}
