package model

import "time"

// Seat describes a physical desk in the reading hall.  Seats are seeded by
// an administrator and identified to members by SeatNumber (e.g. "A-12").
//
// Fields:
//  ID          – primary key identifier.
//  SeatNumber  – unique human readable number, also the sort key.
//  IsAvailable – false once a booking on the seat has been approved or
//                while the seat is out of service.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Seat struct {
	ID          uint64    // seats.id
	SeatNumber  string    // seats.seat_number
	IsAvailable bool      // seats.is_available
	CreatedAt   time.Time // seats.created_at
	UpdatedAt   time.Time // seats.updated_at
}

// SeatStatus is the derived status shown on the seat board.
type SeatStatus string

const (
	SeatAvailable   SeatStatus = "available"
	SeatOccupied    SeatStatus = "occupied"
	SeatMaintenance SeatStatus = "maintenance"
)

// DeriveSeatStatus combines the persisted flag with the presence of a live
// (pending or active, not yet ended) booking.  A live booking wins over the
// maintenance flag.
func DeriveSeatStatus(isAvailable, hasLiveBooking bool) SeatStatus {
	switch {
	case hasLiveBooking:
		return SeatOccupied
	case !isAvailable:
		return SeatMaintenance
	default:
		return SeatAvailable
	}
}
