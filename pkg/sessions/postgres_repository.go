package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the table used by PostgresRepository
const Schema = `
CREATE TABLE IF NOT EXISTS storefront_sessions (
	id         UUID PRIMARY KEY,
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	email      TEXT NOT NULL DEFAULT '',
	token      TEXT NOT NULL DEFAULT '',
	is_admin   BOOLEAN NOT NULL DEFAULT FALSE,
	data       JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS storefront_sessions_expires_at_idx ON storefront_sessions (expires_at);
`

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL session repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
	}
}

// Migrate creates the sessions table if it does not exist
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}
	return nil
}

// Create creates a new session
func (r *PostgresRepository) Create(ctx context.Context, session Session) (*Session, error) {
	query := `
		INSERT INTO storefront_sessions (
			id, user_id, name, email, token, is_admin, data, created_at, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	data, err := json.Marshal(session.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session data: %w", err)
	}

	var expiresAt *time.Time
	if !session.ExpiresAt.IsZero() {
		expiresAt = &session.ExpiresAt
	}

	_, err = r.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Name,
		session.Email,
		session.Token,
		session.IsAdmin,
		data,
		session.CreatedAt,
		expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &session, nil
}

// GetByID retrieves a session by its ID
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	query := `
		SELECT
			id, user_id, name, email, token, is_admin, data, created_at, expires_at
		FROM storefront_sessions
		WHERE id = $1
	`

	session := &Session{}
	var data []byte
	var expiresAt *time.Time

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.Name,
		&session.Email,
		&session.Token,
		&session.IsAdmin,
		&data,
		&session.CreatedAt,
		&expiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &session.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
		}
	}
	if expiresAt != nil {
		session.ExpiresAt = *expiresAt
	}

	return session, nil
}

// Delete removes a session by ID
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM storefront_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes expired sessions
func (r *PostgresRepository) DeleteExpired(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM storefront_sessions WHERE expires_at IS NOT NULL AND expires_at <= NOW()`)
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}
