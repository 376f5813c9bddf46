package sessions

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Repository defines the interface for session data access
type Repository interface {
	// Create stores a new session. The session ID must already be set.
	Create(ctx context.Context, session Session) (*Session, error)

	// GetByID returns ErrSessionNotFound when no session has the given ID
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)

	// Delete removes a session; deleting a missing session is not an error
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteExpired removes sessions past their expiry (for maintenance)
	DeleteExpired(ctx context.Context) error
}
