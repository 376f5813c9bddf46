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

const sessionsFileName = "sessions.json"

// fileSessionData represents all session data stored in the file
type fileSessionData struct {
	Sessions map[uuid.UUID]Session `json:"sessions"`
}

// FileRepository implements Repository using file-based storage
type FileRepository struct {
	dataDir string
	data    *fileSessionData
	mutex   sync.RWMutex
}

// NewFileRepository creates a new file-based session repository
func NewFileRepository(dataDir string) (*FileRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileRepository{
		dataDir: dataDir,
		data: &fileSessionData{
			Sessions: make(map[uuid.UUID]Session),
		},
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

func (r *FileRepository) Create(ctx context.Context, session Session) (*Session, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.data.Sessions[session.ID] = session
	if err := r.save(); err != nil {
		return nil, fmt.Errorf("failed to save: %w", err)
	}
	return &session, nil
}

func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	session, exists := r.data.Sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (r *FileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.data.Sessions[id]; !exists {
		return nil
	}
	delete(r.data.Sessions, id)
	return r.save()
}

func (r *FileRepository) DeleteExpired(ctx context.Context) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now()
	removed := 0
	for id, session := range r.data.Sessions {
		if session.IsExpired(now) {
			delete(r.data.Sessions, id)
			removed++
		}
	}
	if removed == 0 {
		return nil
	}
	return r.save()
}

func (r *FileRepository) load() error {
	filePath := filepath.Join(r.dataDir, sessionsFileName)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, r.data); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	if r.data.Sessions == nil {
		r.data.Sessions = make(map[uuid.UUID]Session)
	}
	return nil
}

func (r *FileRepository) save() error {
	filePath := filepath.Join(r.dataDir, sessionsFileName)

	data, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempFile := filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	// Atomic rename
	if err := os.Rename(tempFile, filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
