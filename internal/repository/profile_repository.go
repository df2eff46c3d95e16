package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/library-seat-booking/internal/model"
)

// ProfileRepo provides access to the profiles table.  A profile row is keyed
// by the identity provider's user id; exactly one exists per user.
type ProfileRepo struct {
	db *sql.DB
}

// NewProfileRepo returns a ProfileRepo bound to db.
func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{db: db} }

const profileColumns = `id, user_id, full_name, email, phone, avatar_url, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (model.Profile, error) {
	var (
		p      model.Profile
		avatar sql.NullString
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.FullName, &p.Email, &p.Phone, &avatar, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return model.Profile{}, err
	}
	if avatar.Valid {
		s := avatar.String
		p.AvatarURL = &s
	}
	return p, nil
}

// GetByUserID returns the profile of a user or ErrNotFound.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID uint64) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ? LIMIT 1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a profile and fills in its id.  A second profile for the
// same user yields ErrConflict.
func (r *ProfileRepo) Create(ctx context.Context, p *model.Profile) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, full_name, email, phone) VALUES (?, ?, ?, ?)`,
		p.UserID, p.FullName, p.Email, p.Phone)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// Update changes the editable profile fields of a user and returns the
// stored row.
func (r *ProfileRepo) Update(ctx context.Context, userID uint64, fullName, phone string) (*model.Profile, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET full_name = ?, phone = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?`,
		fullName, phone, userID)
	if err != nil {
		return nil, err
	}
	return r.GetByUserID(ctx, userID)
}

// ListByUserIDs loads the profiles of the given users keyed by user id.
// Users without a profile are simply absent from the map.
func (r *ProfileRepo) ListByUserIDs(ctx context.Context, userIDs []uint64) (map[uint64]model.Profile, error) {
	out := make(map[uint64]model.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id IN (` + placeholders(len(userIDs)) + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out[p.UserID] = p
	}
	return out, rows.Err()
}

// placeholders returns "?, ?, ?" with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
