package sessions

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
)

// RequestStore is the session store seen by a single HTTP request.
// It reads the session loaded by CookieManager.LoadSession and, on write,
// persists the new session and points the cookie at it.
type RequestStore struct {
	service *Service
	cookies *CookieManager
	w       http.ResponseWriter

	mu      sync.Mutex
	current *Session
}

// NewRequestStore creates a store bound to one request/response pair
func NewRequestStore(service *Service, cookies *CookieManager, w http.ResponseWriter, r *http.Request) *RequestStore {
	current, _ := FromContext(r.Context())
	return &RequestStore{
		service: service,
		cookies: cookies,
		w:       w,
		current: current,
	}
}

// GetSession returns the session active for this request
func (s *RequestStore) GetSession(ctx context.Context) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != nil
}

// SetSession replaces the active session
func (s *RequestStore) SetSession(ctx context.Context, session Session) error {
	created, err := s.service.CreateSession(ctx, session)
	if err != nil {
		return err
	}
	if err := s.cookies.SetCookie(s.w, *created); err != nil {
		return err
	}

	s.mu.Lock()
	prior := s.current
	s.current = created
	s.mu.Unlock()

	if prior != nil && prior.ID != created.ID {
		if err := s.service.DeleteSession(ctx, prior.ID); err != nil {
			slog.Warn("Failed to delete replaced session", "session_id", prior.ID, "err", err)
		}
	}
	return nil
}
