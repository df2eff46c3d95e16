// Package queue defines message payloads exchanged over the message broker.
package queue

// QueueName is the durable queue carrying payment lifecycle events.
const QueueName = "booking.events"

// Event types carried in PaymentEvent.Type.
const (
	EventPaymentSubmitted = "payment.submitted"
	EventPaymentApproved  = "payment.approved"
	EventPaymentRejected  = "payment.rejected"
)

// PaymentEvent is published whenever a payment proof is submitted or
// decided.  It carries enough information for downstream consumers to log,
// notify or feed analytics without querying the primary database.
type PaymentEvent struct {
	Type       string `json:"type"`
	PaymentID  uint64 `json:"payment_id"`
	BookingID  uint64 `json:"booking_id"`
	UserID     uint64 `json:"user_id"`
	SeatID     uint64 `json:"seat_id,omitempty"`
	SeatNumber string `json:"seat_number,omitempty"`
	Amount     uint32 `json:"amount"`
	ActorID    uint64 `json:"actor_id,omitempty"` // deciding admin profile
	OccurredAt string `json:"occurred_at"`        // RFC3339, UTC
}
