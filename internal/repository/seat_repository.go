package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"       // errors for sentinel definitions
	"time"

	"github.com/iliyamo/library-seat-booking/internal/model"
)

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// SeatRepo provides methods to work with seats in the database.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// SeatBoardRow is one seat as shown to members choosing where to sit.
type SeatBoardRow struct {
	ID          uint64           `json:"id"`
	SeatNumber  string           `json:"seat_number"`
	IsAvailable bool             `json:"is_available"`
	Status      model.SeatStatus `json:"status"`
}

// SeatOccupancyRow is one seat as shown on the admin seat map, with the
// name of the member holding the active booking if any.
type SeatOccupancyRow struct {
	ID          uint64           `json:"id"`
	SeatNumber  string           `json:"seat_number"`
	IsAvailable bool             `json:"is_available"`
	Status      model.SeatStatus `json:"status"`
	BookingID   *uint64          `json:"booking_id,omitempty"`
	Occupant    *string          `json:"occupant,omitempty"`
}

// Create inserts a single seat record. On success the seat's ID is populated.
// A duplicate seat number yields ErrConflict.
func (r *SeatRepo) Create(ctx context.Context, s *model.Seat) error {
	const q = `INSERT INTO seats (seat_number, is_available) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.SeatNumber, s.IsAvailable)
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
	s.ID = uint64(id)
	return nil
}

// GetByID retrieves a seat by its id.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	const q = `SELECT id, seat_number, is_available, created_at, updated_at FROM seats WHERE id = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&s.ID, &s.SeatNumber, &s.IsAvailable, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// SetAvailability flips the is_available flag of a seat (maintenance).
func (r *SeatRepo) SetAvailability(ctx context.Context, id uint64, available bool) (*model.Seat, error) {
	const q = `UPDATE seats SET is_available = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, available, id); err != nil {
		return nil, err
	}
	// MySQL reports zero affected rows for a no-op update, so existence is
	// decided by reading the row back.
	return r.GetByID(ctx, id)
}

// liveBookingClause matches rows of the bookings table that hold a seat at
// the bound time: pending or active and not yet ended.  The seat
// board and the upload conflict check both use it so they always agree.
const liveBookingClause = `status IN ('pending', 'active') AND end_date > ?`

// Board lists every seat ordered by seat number with its derived status as
// of at.
func (r *SeatRepo) Board(ctx context.Context, at time.Time) ([]SeatBoardRow, error) {
	const q = `SELECT s.id, s.seat_number, s.is_available,
	                  EXISTS (SELECT 1 FROM bookings
	                          WHERE bookings.seat_id = s.id
	                            AND ` + liveBookingClause + `) AS live
	           FROM seats s
	           ORDER BY s.seat_number`
	rows, err := r.db.QueryContext(ctx, q, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []SeatBoardRow{}
	for rows.Next() {
		var (
			s    SeatBoardRow
			live bool
		)
		if err := rows.Scan(&s.ID, &s.SeatNumber, &s.IsAvailable, &live); err != nil {
			return nil, err
		}
		s.Status = model.DeriveSeatStatus(s.IsAvailable, live)
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Occupancy lists every seat with the occupant of its active booking as of
// at.  Pending bookings have no occupant yet.
func (r *SeatRepo) Occupancy(ctx context.Context, at time.Time) ([]SeatOccupancyRow, error) {
	const q = `SELECT s.id, s.seat_number, s.is_available, b.id, p.full_name
	           FROM seats s
	           LEFT JOIN bookings b ON b.seat_id = s.id AND b.status = 'active' AND b.end_date > ?
	           LEFT JOIN profiles p ON p.user_id = b.user_id
	           ORDER BY s.seat_number`
	rows, err := r.db.QueryContext(ctx, q, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []SeatOccupancyRow{}
	for rows.Next() {
		var (
			s         SeatOccupancyRow
			bookingID sql.NullInt64
			name      sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.SeatNumber, &s.IsAvailable, &bookingID, &name); err != nil {
			return nil, err
		}
		if bookingID.Valid {
			id := uint64(bookingID.Int64)
			s.BookingID = &id
		}
		if name.Valid {
			n := name.String
			s.Occupant = &n
		}
		s.Status = model.DeriveSeatStatus(s.IsAvailable, bookingID.Valid)
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
