package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/library-seat-booking/internal/model"
)

// PendingPaymentRow is a pending payment joined with its booking and seat.
type PendingPaymentRow struct {
	Payment    model.Payment
	SeatID     uint64
	SeatNumber string
}

// MyBooking is a member's booking as shown on their dashboard.
type MyBooking struct {
	ID                  uint64              `json:"id"`
	SeatID              uint64              `json:"seat_id"`
	SeatNumber          string              `json:"seat_number"`
	StartDate           time.Time           `json:"start_date"`
	EndDate             time.Time           `json:"end_date"`
	Status              model.BookingStatus `json:"status"`
	Amount              uint32              `json:"amount"`
	RegistrationFeePaid bool                `json:"registration_fee_paid"`
	CreatedAt           time.Time           `json:"created_at"`
	Payment             *MyPayment          `json:"payment,omitempty"`
}

// MyPayment is the payment attached to a MyBooking.
type MyPayment struct {
	ID            uint64              `json:"id"`
	Amount        uint32              `json:"amount"`
	Status        model.PaymentStatus `json:"status"`
	ScreenshotURL string              `json:"screenshot_url"`
	VerifiedAt    *time.Time          `json:"verified_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// AdminBooking is a booking with seat and member details for the admin list.
type AdminBooking struct {
	ID                  uint64              `json:"id"`
	UserID              uint64              `json:"user_id"`
	SeatID              uint64              `json:"seat_id"`
	SeatNumber          string              `json:"seat_number"`
	FullName            string              `json:"full_name"`
	Email               string              `json:"email"`
	Phone               string              `json:"phone"`
	StartDate           time.Time           `json:"start_date"`
	EndDate             time.Time           `json:"end_date"`
	Status              model.BookingStatus `json:"status"`
	Amount              uint32              `json:"amount"`
	RegistrationFeePaid bool                `json:"registration_fee_paid"`
	CreatedAt           time.Time           `json:"created_at"`
}

// PaymentExportRow is one line of the payments CSV export.
type PaymentExportRow struct {
	ID         uint64
	FullName   string
	Email      string
	Phone      string
	Amount     uint32
	SeatNumber string
	Status     model.PaymentStatus
	CreatedAt  time.Time
}

// DashboardStats are the headline numbers of the admin dashboard.
type DashboardStats struct {
	ActiveBookings  int64  `json:"active_bookings"`
	PendingPayments int64  `json:"pending_payments"`
	Revenue         uint64 `json:"revenue"`
}

// ListPendingPayments returns every pending payment, newest first, with the
// seat of its booking.
func (r *BookingRepo) ListPendingPayments(ctx context.Context) ([]PendingPaymentRow, error) {
	const q = `SELECT p.id, p.booking_id, p.user_id, p.amount, p.payment_type, p.screenshot_url,
	                  p.screenshot_key, p.status, p.created_at, s.id, s.seat_number
	           FROM payments p
	           JOIN bookings b ON b.id = p.booking_id
	           JOIN seats s ON s.id = b.seat_id
	           WHERE p.status = 'pending'
	           ORDER BY p.created_at DESC, p.id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PendingPaymentRow{}
	for rows.Next() {
		var row PendingPaymentRow
		p := &row.Payment
		if err := rows.Scan(&p.ID, &p.BookingID, &p.UserID, &p.Amount, &p.PaymentType, &p.ScreenshotURL,
			&p.ScreenshotKey, &p.Status, &p.CreatedAt, &row.SeatID, &row.SeatNumber); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListByUser returns a member's bookings, newest first, each with its payment.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]MyBooking, error) {
	const q = `SELECT b.id, b.seat_id, s.seat_number, b.start_date, b.end_date, b.status, b.amount,
	                  b.registration_fee_paid, b.created_at,
	                  p.id, p.amount, p.status, p.screenshot_url, p.verified_at, p.created_at
	           FROM bookings b
	           JOIN seats s ON s.id = b.seat_id
	           LEFT JOIN payments p ON p.booking_id = b.id
	           WHERE b.user_id = ?
	           ORDER BY b.created_at DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []MyBooking{}
	for rows.Next() {
		var (
			b          MyBooking
			payID      sql.NullInt64
			payAmount  sql.NullInt64
			payStatus  sql.NullString
			payURL     sql.NullString
			verifiedAt sql.NullTime
			payCreated sql.NullTime
		)
		if err := rows.Scan(&b.ID, &b.SeatID, &b.SeatNumber, &b.StartDate, &b.EndDate, &b.Status, &b.Amount,
			&b.RegistrationFeePaid, &b.CreatedAt,
			&payID, &payAmount, &payStatus, &payURL, &verifiedAt, &payCreated); err != nil {
			return nil, err
		}
		if payID.Valid {
			mp := &MyPayment{
				ID:            uint64(payID.Int64),
				Amount:        uint32(payAmount.Int64),
				Status:        model.PaymentStatus(payStatus.String),
				ScreenshotURL: payURL.String,
				CreatedAt:     payCreated.Time,
			}
			if verifiedAt.Valid {
				t := verifiedAt.Time
				mp.VerifiedAt = &t
			}
			b.Payment = mp
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListAll returns every booking, newest first, with seat and member details.
func (r *BookingRepo) ListAll(ctx context.Context) ([]AdminBooking, error) {
	const q = `SELECT b.id, b.user_id, b.seat_id, s.seat_number,
	                  COALESCE(pr.full_name, ''), COALESCE(pr.email, ''), COALESCE(pr.phone, ''),
	                  b.start_date, b.end_date, b.status, b.amount, b.registration_fee_paid, b.created_at
	           FROM bookings b
	           JOIN seats s ON s.id = b.seat_id
	           LEFT JOIN profiles pr ON pr.user_id = b.user_id
	           ORDER BY b.created_at DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AdminBooking{}
	for rows.Next() {
		var b AdminBooking
		if err := rows.Scan(&b.ID, &b.UserID, &b.SeatID, &b.SeatNumber,
			&b.FullName, &b.Email, &b.Phone,
			&b.StartDate, &b.EndDate, &b.Status, &b.Amount, &b.RegistrationFeePaid, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListPaymentsForExport returns every payment, newest first, flattened for CSV.
func (r *BookingRepo) ListPaymentsForExport(ctx context.Context) ([]PaymentExportRow, error) {
	const q = `SELECT p.id, COALESCE(pr.full_name, ''), COALESCE(pr.email, ''), COALESCE(pr.phone, ''),
	                  p.amount, COALESCE(s.seat_number, ''), p.status, p.created_at
	           FROM payments p
	           LEFT JOIN profiles pr ON pr.user_id = p.user_id
	           LEFT JOIN bookings b ON b.id = p.booking_id
	           LEFT JOIN seats s ON s.id = b.seat_id
	           ORDER BY p.created_at DESC, p.id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PaymentExportRow{}
	for rows.Next() {
		var p PaymentExportRow
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email, &p.Phone, &p.Amount, &p.SeatNumber, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Stats counts active bookings and pending payments and sums approved
// payment amounts.
func (r *BookingRepo) Stats(ctx context.Context) (DashboardStats, error) {
	const q = `SELECT
	             (SELECT COUNT(*) FROM bookings WHERE status = 'active'),
	             (SELECT COUNT(*) FROM payments WHERE status = 'pending'),
	             (SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'approved')`
	var s DashboardStats
	err := r.db.QueryRowContext(ctx, q).Scan(&s.ActiveBookings, &s.PendingPayments, &s.Revenue)
	return s, err
}
