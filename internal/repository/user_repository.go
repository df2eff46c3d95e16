package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/library-seat-booking/internal/model"
)

// ErrEmailExists is returned by Register when the email is taken.
var ErrEmailExists = errors.New("email already exists")

// UserRepo reads and writes accounts.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Register creates an account and its profile in one transaction.  The
// password must already be hashed.  On success p.ID and p.UserID are set
// and the new user id is returned.
func (r *UserRepo) Register(ctx context.Context, email, passwordHash string, p *model.Profile) (uint64, error) {
	email = normalizeEmail(email)
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

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, passwordHash)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	uid, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}

	p.UserID = uint64(uid)
	p.Email = email
	res, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (user_id, full_name, email, phone) VALUES (?, ?, ?, ?)`,
		p.UserID, p.FullName, p.Email, p.Phone)
	if err != nil {
		return 0, fmt.Errorf("insert profile: %w", err)
	}
	pid, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert profile: %w", err)
	}
	p.ID = uint64(pid)

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	committed = true
	return p.UserID, nil
}

const userColumns = `id, email, password_hash, is_active, created_at, updated_at`

// GetByEmail fetches a user by email, compared case-insensitively.  A
// missing account yields ErrNotFound.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, normalizeEmail(email))
}

// GetByID fetches a user by id.  A missing account yields ErrNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id)
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx, q, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
