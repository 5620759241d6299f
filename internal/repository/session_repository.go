package repository

import (
	"context"
	"database/sql"
)

// SessionRepo persists login sessions (single 'token_hash' column).
// Sessions have no expiry; a session is live until it is revoked at
// logout.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row for a fresh login.
func (r *SessionRepo) Create(ctx context.Context, username, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (username, token_hash) VALUES (?,?)",
		username, tokenHash)
	return err
}

// Validate returns the session's username if a non-revoked session
// exists for the hash. Revoked or unknown sessions yield
// sql.ErrNoRows.
func (r *SessionRepo) Validate(ctx context.Context, tokenHash string) (string, error) {
	var (
		username  string
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT username, revoked_at FROM sessions WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&username, &revokedAt)
	if err != nil {
		return "", err
	}
	if revokedAt.Valid {
		return "", sql.ErrNoRows
	}
	return username, nil
}

// Revoke marks a session as logged out. Idempotent: revoking an
// already-revoked session is a no-op.
func (r *SessionRepo) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes every active session of a user.
func (r *SessionRepo) RevokeAllForUser(ctx context.Context, username string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=NOW() WHERE username=? AND revoked_at IS NULL",
		username)
	return err
}
