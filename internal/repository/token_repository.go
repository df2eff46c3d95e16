package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TokenRepo stores refresh tokens by their SHA-256 hash.  A token is live
// while it is neither revoked nor past expires_at; anything else is
// reported as ErrNotFound so callers cannot tell the cases apart.
type TokenRepo struct{ db *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// Issue records a new refresh token for userID.
func (r *TokenRepo) Issue(ctx context.Context, userID uint64, hash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		userID, hash, exp.UTC())
	return err
}

// Owner returns the user of a live token.
func (r *TokenRepo) Owner(ctx context.Context, hash string) (uint64, error) {
	var uid uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM refresh_tokens
		 WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > ? LIMIT 1`,
		hash, time.Now().UTC()).Scan(&uid)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return uid, err
}

// Rotate revokes the live token oldHash and records newHash for the same
// user in one transaction.  Two concurrent rotations of one token cannot
// both succeed: the loser sees ErrNotFound.
func (r *TokenRepo) Rotate(ctx context.Context, oldHash, newHash string, exp time.Time) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var uid uint64
	err = tx.QueryRowContext(ctx,
		`SELECT user_id FROM refresh_tokens
		 WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > ?
		 FOR UPDATE`, oldHash, time.Now().UTC()).Scan(&uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("lock token: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE token_hash = ?`, oldHash); err != nil {
		return 0, fmt.Errorf("revoke token: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		uid, newHash, exp.UTC()); err != nil {
		return 0, fmt.Errorf("insert token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	committed = true
	return uid, nil
}

// Revoke revokes one live token.  ErrNotFound if there was none.
func (r *TokenRepo) Revoke(ctx context.Context, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP()
		 WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > ?`, hash, time.Now().UTC())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeAll revokes every live token of a user (sign out everywhere).
func (r *TokenRepo) RevokeAll(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE user_id = ? AND revoked_at IS NULL`,
		userID)
	return err
}
