package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-seat-booking/internal/model"
)

// A booking that ended earlier today must free the seat on the board and
// for a new upload alike, so both queries bind the same clause to the same
// instant.
func TestBoardAndUploadShareLiveBookingRule(t *testing.T) {
	at := time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC)
	live := regexp.QuoteMeta(liveBookingClause)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM bookings\s+WHERE bookings.seat_id = s.id\s+AND ` + live).
		WithArgs(at).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seat_number", "is_available", "live"}).
			AddRow(7, "A1", true, false).
			AddRow(8, "A2", true, true))

	rows, err := NewSeatRepo(db).Board(context.Background(), at)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.SeatAvailable, rows[0].Status)
	assert.Equal(t, model.SeatOccupied, rows[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())

	repo, bmock := newMockRepo(t)
	b, p := pendingPair()
	b.StartDate = at
	bmock.ExpectBegin()
	bmock.ExpectQuery(lockSeatSQL).WillReturnRows(sqlmock.NewRows([]string{"is_available"}).AddRow(true))
	bmock.ExpectQuery(`FROM bookings WHERE seat_id = \? AND ` + live).
		WithArgs(uint64(7), at).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	bmock.ExpectExec(insBookingSQL).WillReturnResult(sqlmock.NewResult(11, 1))
	bmock.ExpectExec(insPaymentSQL).WillReturnResult(sqlmock.NewResult(21, 1))
	bmock.ExpectCommit()

	require.NoError(t, repo.CreateWithPayment(context.Background(), b, p))
	assert.NoError(t, bmock.ExpectationsWereMet())
}

func TestOccupancyBindsInstant(t *testing.T) {
	at := time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`b.status = 'active' AND b.end_date > ?`)).
		WithArgs(at).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seat_number", "is_available", "b_id", "full_name"}).
			AddRow(7, "A1", true, 11, "Sara").
			AddRow(8, "A2", false, nil, nil))

	rows, err := NewSeatRepo(db).Occupancy(context.Background(), at)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].Occupant)
	assert.Equal(t, "Sara", *rows[0].Occupant)
	assert.Nil(t, rows[1].BookingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
