package sessions

import (
	"time"

	"github.com/google/uuid"
)

// Session is the authenticated identity issued by the registration service.
// Data keeps the service payload verbatim; the other fields are lifted from it
// for convenience.
type Session struct {
	ID        uuid.UUID              `json:"id"`
	UserID    string                 `json:"user_id"`
	Name      string                 `json:"name,omitempty"`
	Email     string                 `json:"email,omitempty"`
	Token     string                 `json:"token,omitempty"`
	IsAdmin   bool                   `json:"is_admin,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	ExpiresAt time.Time              `json:"expires_at"`
}

// IsExpired reports whether the session has passed its expiry at the given time.
// A zero ExpiresAt never expires.
func (s Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionSummary is the public view of a session returned by JSON endpoints
type SessionSummary struct {
	UserID  string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// Summary returns the public view of the session
func (s Session) Summary() SessionSummary {
	return SessionSummary{
		UserID:  s.UserID,
		Name:    s.Name,
		Email:   s.Email,
		IsAdmin: s.IsAdmin,
	}
}
