package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActiveStore holds the one active session of a process, like a browser's
// credential store. It can optionally persist the session to a JSON file.
type ActiveStore struct {
	mu       sync.RWMutex
	current  *Session
	path     string
	watchers map[chan struct{}]struct{}
}

// NewActiveStore creates an in-memory active session store
func NewActiveStore() *ActiveStore {
	return &ActiveStore{
		watchers: make(map[chan struct{}]struct{}),
	}
}

// NewFileActiveStore creates an active session store persisted at path.
// An existing, unexpired session in the file becomes the active one.
func NewFileActiveStore(path string) (*ActiveStore, error) {
	s := NewActiveStore()
	s.path = path

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session file: %w", err)
	}
	if !session.IsExpired(time.Now()) {
		s.current = &session
	}
	return s, nil
}

// GetSession returns the active session, if any
func (s *ActiveStore) GetSession(ctx context.Context) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, false
	}
	session := *s.current
	return &session, true
}

// SetSession replaces the active session and notifies watchers
func (s *ActiveStore) SetSession(ctx context.Context, session Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	if err := s.persist(&session); err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = &session
	s.mu.Unlock()

	s.notify()
	return nil
}

// Clear removes the active session and notifies watchers
func (s *ActiveStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	if err := s.persist(nil); err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = nil
	s.mu.Unlock()

	s.notify()
	return nil
}

// WatchSessions returns a channel signalled whenever the active session changes.
// The channel is closed once ctx is done.
func (s *ActiveStore) WatchSessions(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, ch)
		s.mu.Unlock()
		close(ch)
	}()

	return ch
}

func (s *ActiveStore) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for ch := range s.watchers {
		// coalesce: one pending signal is enough
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// persist must be called with mu held
func (s *ActiveStore) persist(session *Session) error {
	if s.path == "" {
		return nil
	}
	if session == nil {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}
