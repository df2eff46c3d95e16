package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-seat-booking/internal/model"
)

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("sara@example.com", "hash").
		WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO profiles`)).
		WithArgs(uint64(100), "Sara", "sara@example.com", "0912").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	p := &model.Profile{FullName: "Sara", Phone: "0912"}
	uid, err := NewUserRepo(db).Register(context.Background(), " Sara@Example.com ", "hash", p)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), uid)
	assert.Equal(t, uint64(7), p.ID)
	assert.Equal(t, "sara@example.com", p.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, err = NewUserRepo(db).Register(context.Background(), "sara@example.com", "hash", &model.Profile{})
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmailMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = ?`)).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewUserRepo(db).GetByEmail(context.Background(), "Nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRotateRefreshToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	exp := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM refresh_tokens`)).
		WithArgs("old", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(42))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE refresh_tokens SET revoked_at`)).
		WithArgs("old").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO refresh_tokens`)).
		WithArgs(uint64(42), "new", exp).WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	uid, err := NewTokenRepo(db).Rotate(context.Background(), "old", "new", exp)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateDeadToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM refresh_tokens`)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	mock.ExpectRollback()

	_, err = NewTokenRepo(db).Rotate(context.Background(), "old", "new", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeUnknownToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE refresh_tokens SET revoked_at`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, NewTokenRepo(db).Revoke(context.Background(), "gone"), ErrNotFound)
}
