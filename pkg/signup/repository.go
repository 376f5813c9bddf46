package signup

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var ErrUserAlreadyExists = errors.New("user already exists")

type UserRepository interface {
	Create(ctx context.Context, user User) (User, error)
	FindByEmail(ctx context.Context, email string) (User, bool, error)
}

// InMemoryRepository keeps users in a map keyed by lower-cased email.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]User
	byID    map[uuid.UUID]string
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byEmail: make(map[string]User),
		byID:    make(map[uuid.UUID]string),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, user User) (User, error) {
	key := strings.ToLower(strings.TrimSpace(user.Email))

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[key]; exists {
		return User{}, ErrUserAlreadyExists
	}
	r.byEmail[key] = user
	r.byID[user.ID] = key
	return user, nil
}

func (r *InMemoryRepository) FindByEmail(ctx context.Context, email string) (User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	return user, ok, nil
}

// Count returns the number of stored users.
func (r *InMemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
