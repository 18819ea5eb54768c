package sessions

import "time"

// Session is a persistent refresh session. Token is the opaque refresh
// credential handed to the client; UserID links back to the profile row.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
