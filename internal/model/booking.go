package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingActive    BookingStatus = "active"
	BookingCancelled BookingStatus = "cancelled"
	BookingExpired   BookingStatus = "expired"
)

// Booking is a member's claim on one seat for the plan period.  It is
// created pending together with its payment and only leaves pending through
// an admin decision on that payment.
//
// Fields:
//  ID                  – primary key identifier.
//  UserID              – member who owns the booking.
//  SeatID              – booked seat.
//  StartDate, EndDate  – covered period (EndDate = StartDate + plan days).
//  Status              – pending, active, cancelled or expired.
//  Amount              – plan price in whole currency units.
//  RegistrationFeePaid – set when the payment is approved.
//  CreatedAt           – creation timestamp.
type Booking struct {
	ID                  uint64        // bookings.id
	UserID              uint64        // bookings.user_id
	SeatID              uint64        // bookings.seat_id
	StartDate           time.Time     // bookings.start_date
	EndDate             time.Time     // bookings.end_date
	Status              BookingStatus // bookings.status
	Amount              uint32        // bookings.amount
	RegistrationFeePaid bool          // bookings.registration_fee_paid
	CreatedAt           time.Time     // bookings.created_at
}
