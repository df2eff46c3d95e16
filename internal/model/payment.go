package model

import "time"

// PaymentStatus is the review state of a payment proof.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

// PaymentTypeRegistration is the only payment type produced by uploads.
const PaymentTypeRegistration = "registration"

// Payment is a proof-of-payment submission for exactly one booking.
//
// Fields:
//  ID            – primary key identifier.
//  BookingID     – booking this payment settles (unique).
//  UserID        – member who submitted the proof.
//  Amount        – amount claimed, equal to the booking amount.
//  PaymentType   – e.g. "registration".
//  ScreenshotURL – public URL of the stored proof.
//  ScreenshotKey – blob store key of the proof, used for cleanup.
//  Status        – pending, approved or rejected.
//  VerifiedBy    – profile id of the deciding admin (nil while pending).
//  VerifiedAt    – decision time (nil while pending).
//  CreatedAt     – submission timestamp.
type Payment struct {
	ID            uint64        // payments.id
	BookingID     uint64        // payments.booking_id
	UserID        uint64        // payments.user_id
	Amount        uint32        // payments.amount
	PaymentType   string        // payments.payment_type
	ScreenshotURL string        // payments.screenshot_url
	ScreenshotKey string        // payments.screenshot_key
	Status        PaymentStatus // payments.status
	VerifiedBy    *uint64       // payments.verified_by (nullable)
	VerifiedAt    *time.Time    // payments.verified_at (nullable)
	CreatedAt     time.Time     // payments.created_at
}
