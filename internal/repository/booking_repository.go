package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/library-seat-booking/internal/model"
)

// BookingRepo owns the bookings and payments tables.  Every multi-row write
// of the booking workflow runs inside a single transaction here: creating a
// booking together with its payment, and applying an admin decision to the
// payment, its booking and (on approval) the seat.  All timestamps are UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle for callers composing their own queries.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// Decision is an admin verdict on a pending payment.
type Decision struct {
	PaymentID  uint64
	BookingID  uint64
	SeatID     *uint64             // approval only: seat to mark occupied
	Outcome    model.PaymentStatus // PaymentApproved or PaymentRejected
	VerifiedBy uint64              // deciding admin's profile id
	At         time.Time
}

// CreateWithPayment inserts a pending booking and its pending payment in one
// transaction.  The seat row is locked first so two members racing for the
// same seat serialize here; the loser gets ErrConflict.
//
// Errors: ErrSeatNotFound, ErrSeatUnavailable (flag is false), ErrConflict
// (live booking on the seat), or a driver error joined with ErrBookingInsert
// or ErrPaymentInsert.  On any error nothing is persisted.  On success the
// IDs of b and p are populated and p.BookingID is set.
func (r *BookingRepo) CreateWithPayment(ctx context.Context, b *model.Booking, p *model.Payment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var available bool
	err = tx.QueryRowContext(ctx,
		`SELECT is_available FROM seats WHERE id = ? FOR UPDATE`, b.SeatID).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSeatNotFound
		}
		return fmt.Errorf("lock seat: %w", err)
	}
	if !available {
		return ErrSeatUnavailable
	}

	var live int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE seat_id = ? AND `+liveBookingClause,
		b.SeatID, b.StartDate).Scan(&live)
	if err != nil {
		return fmt.Errorf("check seat bookings: %w", err)
	}
	if live > 0 {
		return ErrConflict
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (user_id, seat_id, start_date, end_date, status, amount, registration_fee_paid)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.SeatID, b.StartDate, b.EndDate, b.Status, b.Amount, b.RegistrationFeePaid)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return errors.Join(ErrBookingInsert, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Join(ErrBookingInsert, err)
	}
	b.ID = uint64(id)
	p.BookingID = b.ID

	res, err = tx.ExecContext(ctx,
		`INSERT INTO payments (booking_id, user_id, amount, payment_type, screenshot_url, screenshot_key, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.BookingID, p.UserID, p.Amount, p.PaymentType, p.ScreenshotURL, p.ScreenshotKey, p.Status)
	if err != nil {
		return errors.Join(ErrPaymentInsert, err)
	}
	if id, err = res.LastInsertId(); err != nil {
		return errors.Join(ErrPaymentInsert, err)
	}
	p.ID = uint64(id)

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// DecidePayment applies an admin decision in one transaction and returns the
// status the payment had before the call.  Only a pending payment is
// written to; for an already decided payment nothing changes and its
// current status is returned so the caller can tell a repeated decision
// from a contradicting one.
//
// Approval marks the payment approved, the booking active with the
// registration fee paid, and the supplied seat unavailable.  Rejection marks
// the payment rejected and the booking cancelled; the seat is not touched.
//
// Errors: ErrNotFound (payment), ErrBookingMismatch (booking or seat does
// not belong to the payment), or a driver error.
func (r *BookingRepo) DecidePayment(ctx context.Context, d Decision) (model.PaymentStatus, error) {
	if d.Outcome != model.PaymentApproved && d.Outcome != model.PaymentRejected {
		return "", fmt.Errorf("invalid outcome %q", d.Outcome)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var (
		bookingID uint64
		seatID    uint64
		prior     model.PaymentStatus
	)
	err = tx.QueryRowContext(ctx,
		`SELECT p.booking_id, p.status, b.seat_id
		 FROM payments p
		 JOIN bookings b ON b.id = p.booking_id
		 WHERE p.id = ?
		 FOR UPDATE`, d.PaymentID).Scan(&bookingID, &prior, &seatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("lock payment: %w", err)
	}
	if bookingID != d.BookingID {
		return "", ErrBookingMismatch
	}
	if d.Outcome == model.PaymentApproved && d.SeatID != nil && *d.SeatID != seatID {
		return "", ErrBookingMismatch
	}
	if prior != model.PaymentPending {
		return prior, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = ?, verified_by = ?, verified_at = ? WHERE id = ?`,
		d.Outcome, d.VerifiedBy, d.At, d.PaymentID); err != nil {
		return "", fmt.Errorf("update payment: %w", err)
	}

	if d.Outcome == model.PaymentApproved {
		if _, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = ?, registration_fee_paid = 1 WHERE id = ?`,
			model.BookingActive, d.BookingID); err != nil {
			return "", fmt.Errorf("update booking: %w", err)
		}
		if d.SeatID != nil {
			if _, err := tx.ExecContext(ctx,
				`UPDATE seats SET is_available = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
				*d.SeatID); err != nil {
				return "", fmt.Errorf("update seat: %w", err)
			}
		}
	} else {
		if _, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = ? WHERE id = ?`,
			model.BookingCancelled, d.BookingID); err != nil {
			return "", fmt.Errorf("update booking: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	committed = true
	return prior, nil
}
