package repository

import (
	"context"
	"database/sql"
	"errors"
)

// AdminRepo reads and writes the admin_users membership table consulted for
// authorization.
type AdminRepo struct {
	db *sql.DB
}

// NewAdminRepo returns an AdminRepo bound to db.
func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{db: db} }

// RoleOf returns the membership role of a user or ErrNotFound when the user
// holds none.
func (r *AdminRepo) RoleOf(ctx context.Context, userID uint64) (string, error) {
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT role FROM admin_users WHERE user_id = ? LIMIT 1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return role, nil
}

// Grant gives a user a role, replacing any previous one.
func (r *AdminRepo) Grant(ctx context.Context, userID uint64, role string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admin_users (user_id, role) VALUES (?, ?) ON DUPLICATE KEY UPDATE role = VALUES(role)`,
		userID, role)
	return err
}
