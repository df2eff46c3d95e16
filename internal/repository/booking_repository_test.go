package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-seat-booking/internal/model"
)

var (
	lockSeatSQL    = regexp.QuoteMeta(`SELECT is_available FROM seats WHERE id = ? FOR UPDATE`)
	liveCountSQL   = regexp.QuoteMeta(`SELECT COUNT(*) FROM bookings`)
	insBookingSQL  = regexp.QuoteMeta(`INSERT INTO bookings`)
	insPaymentSQL  = regexp.QuoteMeta(`INSERT INTO payments`)
	lockPaymentSQL = regexp.QuoteMeta(`SELECT p.booking_id, p.status, b.seat_id`)
	updPaymentSQL  = regexp.QuoteMeta(`UPDATE payments SET status = ?`)
	updBookingSQL  = regexp.QuoteMeta(`UPDATE bookings SET status = ?`)
	updSeatSQL     = regexp.QuoteMeta(`UPDATE seats SET is_available = 0`)
)

func newMockRepo(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewBookingRepo(db), mock
}

func pendingPair() (*model.Booking, *model.Payment) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	b := &model.Booking{UserID: 100, SeatID: 7, StartDate: start, EndDate: start.AddDate(0, 0, 30), Status: model.BookingPending, Amount: 1000}
	p := &model.Payment{UserID: 100, Amount: 1000, PaymentType: model.PaymentTypeRegistration,
		ScreenshotURL: "/uploads/100/x.png", ScreenshotKey: "100/x.png", Status: model.PaymentPending}
	return b, p
}

func TestCreateWithPayment(t *testing.T) {
	repo, mock := newMockRepo(t)
	b, p := pendingPair()

	mock.ExpectBegin()
	mock.ExpectQuery(lockSeatSQL).WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"is_available"}).AddRow(true))
	mock.ExpectQuery(liveCountSQL).WithArgs(uint64(7), b.StartDate).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(insBookingSQL).WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(insPaymentSQL).
		WithArgs(uint64(11), uint64(100), uint32(1000), "registration", "/uploads/100/x.png", "100/x.png", model.PaymentPending).
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateWithPayment(context.Background(), b, p))
	assert.Equal(t, uint64(11), b.ID)
	assert.Equal(t, uint64(11), p.BookingID)
	assert.Equal(t, uint64(21), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithPaymentRollsBack(t *testing.T) {
	t.Run("unknown seat", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		b, p := pendingPair()
		mock.ExpectBegin()
		mock.ExpectQuery(lockSeatSQL).WillReturnRows(sqlmock.NewRows([]string{"is_available"}))
		mock.ExpectRollback()

		err := repo.CreateWithPayment(context.Background(), b, p)
		assert.ErrorIs(t, err, ErrSeatNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("seat out of service", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		b, p := pendingPair()
		mock.ExpectBegin()
		mock.ExpectQuery(lockSeatSQL).WillReturnRows(sqlmock.NewRows([]string{"is_available"}).AddRow(false))
		mock.ExpectRollback()

		err := repo.CreateWithPayment(context.Background(), b, p)
		assert.ErrorIs(t, err, ErrSeatUnavailable)
		assert.ErrorIs(t, err, ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("live booking on seat", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		b, p := pendingPair()
		mock.ExpectBegin()
		mock.ExpectQuery(lockSeatSQL).WillReturnRows(sqlmock.NewRows([]string{"is_available"}).AddRow(true))
		mock.ExpectQuery(liveCountSQL).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
		mock.ExpectRollback()

		err := repo.CreateWithPayment(context.Background(), b, p)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Zero(t, b.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("payment insert fails", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		b, p := pendingPair()
		mock.ExpectBegin()
		mock.ExpectQuery(lockSeatSQL).WillReturnRows(sqlmock.NewRows([]string{"is_available"}).AddRow(true))
		mock.ExpectQuery(liveCountSQL).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
		mock.ExpectExec(insBookingSQL).WillReturnResult(sqlmock.NewResult(11, 1))
		mock.ExpectExec(insPaymentSQL).WillReturnError(errors.New("lost connection"))
		mock.ExpectRollback()

		err := repo.CreateWithPayment(context.Background(), b, p)
		assert.ErrorIs(t, err, ErrPaymentInsert)
		assert.NotErrorIs(t, err, ErrBookingInsert)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDecidePaymentApprove(t *testing.T) {
	repo, mock := newMockRepo(t)
	seat := uint64(9)
	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(lockPaymentSQL).WithArgs(uint64(21)).
		WillReturnRows(sqlmock.NewRows([]string{"booking_id", "status", "seat_id"}).AddRow(11, "pending", 9))
	mock.ExpectExec(updPaymentSQL).WithArgs(model.PaymentApproved, uint64(1), at, uint64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updBookingSQL).WithArgs(model.BookingActive, uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updSeatSQL).WithArgs(uint64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	prior, err := repo.DecidePayment(context.Background(), Decision{
		PaymentID: 21, BookingID: 11, SeatID: &seat, Outcome: model.PaymentApproved, VerifiedBy: 1, At: at,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, prior)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecidePaymentRejectLeavesSeat(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockPaymentSQL).
		WillReturnRows(sqlmock.NewRows([]string{"booking_id", "status", "seat_id"}).AddRow(11, "pending", 9))
	mock.ExpectExec(updPaymentSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updBookingSQL).WithArgs(model.BookingCancelled, uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	prior, err := repo.DecidePayment(context.Background(), Decision{
		PaymentID: 21, BookingID: 11, Outcome: model.PaymentRejected, VerifiedBy: 1, At: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, prior)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecidePaymentAlreadyDecided(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockPaymentSQL).
		WillReturnRows(sqlmock.NewRows([]string{"booking_id", "status", "seat_id"}).AddRow(11, "approved", 9))
	mock.ExpectRollback()

	prior, err := repo.DecidePayment(context.Background(), Decision{
		PaymentID: 21, BookingID: 11, Outcome: model.PaymentApproved, VerifiedBy: 1, At: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentApproved, prior)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecidePaymentMismatch(t *testing.T) {
	otherSeat := uint64(3)
	cases := map[string]Decision{
		"booking": {PaymentID: 21, BookingID: 12, Outcome: model.PaymentRejected},
		"seat":    {PaymentID: 21, BookingID: 11, SeatID: &otherSeat, Outcome: model.PaymentApproved},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectBegin()
			mock.ExpectQuery(lockPaymentSQL).
				WillReturnRows(sqlmock.NewRows([]string{"booking_id", "status", "seat_id"}).AddRow(11, "pending", 9))
			mock.ExpectRollback()

			_, err := repo.DecidePayment(context.Background(), d)
			assert.ErrorIs(t, err, ErrBookingMismatch)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDecidePaymentUnknownPayment(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(lockPaymentSQL).
		WillReturnRows(sqlmock.NewRows([]string{"booking_id", "status", "seat_id"}))
	mock.ExpectRollback()

	_, err := repo.DecidePayment(context.Background(), Decision{PaymentID: 99, BookingID: 1, Outcome: model.PaymentApproved})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
