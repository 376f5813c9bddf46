package sessions

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long a stored session stays valid
const DefaultSessionTTL = 24 * time.Hour

// Service provides session management business logic
type Service struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithTTL sets the session lifetime. Zero or negative keeps the default.
func WithTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source, mainly for tests
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new session service
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo: repo,
		ttl:  DefaultSessionTTL,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession stores the session returned by the registration service.
// A fresh ID and timestamps are assigned; the payload is kept as is, so a
// payload without a user id is stored as well.
func (s *Service) CreateSession(ctx context.Context, session Session) (*Session, error) {
	now := s.now().UTC()
	session.ID = uuid.New()
	session.CreatedAt = now
	if session.ExpiresAt.IsZero() || session.ExpiresAt.After(now.Add(s.ttl)) {
		session.ExpiresAt = now.Add(s.ttl)
	}

	created, err := s.repo.Create(ctx, session)
	if err != nil {
		return nil, err
	}
	slog.Debug("session created", "session_id", created.ID, "user_id", created.UserID)
	return created, nil
}

// GetSession retrieves a session by ID, rejecting expired ones
func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(s.now()) {
		return nil, ErrSessionExpired
	}
	return session, nil
}

// DeleteSession removes a session
func (s *Service) DeleteSession(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// CleanupExpiredSessions removes expired sessions (maintenance task)
func (s *Service) CleanupExpiredSessions(ctx context.Context) error {
	return s.repo.DeleteExpired(ctx)
}

// RunCleanup calls CleanupExpiredSessions every interval until ctx is done.
// A non-positive interval disables the loop.
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		slog.Warn("session cleanup disabled", "interval", interval)
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.CleanupExpiredSessions(ctx); err != nil {
				slog.Error("Failed to clean up expired sessions", "err", err)
			}
		}
	}
}
