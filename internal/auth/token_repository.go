package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TokenRepository persists refresh tokens, one per user. Saving replaces
// any previous token for the same user, so a login from a new device
// silently retires the token held by the old one.
type TokenRepository interface {
	// Save stores the token for the user, replacing an existing one.
	Save(ctx context.Context, userID, token string) error

	// GetByUserID returns the stored token or ErrTokenNotFound.
	GetByUserID(ctx context.Context, userID string) (*RefreshToken, error)
}

// SQLiteTokenRepository implements TokenRepository on SQLite.
type SQLiteTokenRepository struct {
	db *sql.DB
}

// NewSQLiteTokenRepository creates a token repository backed by db.
func NewSQLiteTokenRepository(db *sql.DB) *SQLiteTokenRepository {
	return &SQLiteTokenRepository{db: db}
}

// Save upserts the user's refresh token.
func (r *SQLiteTokenRepository) Save(ctx context.Context, userID, token string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (user_id, token, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET token = excluded.token, created_at = excluded.created_at`,
		userID, token, now,
	)
	if err != nil {
		return fmt.Errorf("saving refresh token: %w", err)
	}
	return nil
}

// GetByUserID retrieves the user's stored refresh token.
func (r *SQLiteTokenRepository) GetByUserID(ctx context.Context, userID string) (*RefreshToken, error) {
	var (
		rt        RefreshToken
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, token, created_at FROM refresh_tokens WHERE user_id = ?`, userID).
		Scan(&rt.UserID, &rt.Token, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying refresh token: %w", err)
	}
	rt.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rt, nil
}
