package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/library-seat-booking/internal/model"
	"github.com/iliyamo/library-seat-booking/internal/queue"
	"github.com/iliyamo/library-seat-booking/internal/repository"
	"github.com/iliyamo/library-seat-booking/internal/storage"
)

// Ledger is the transactional booking/payment persistence.
type Ledger interface {
	CreateWithPayment(ctx context.Context, b *model.Booking, p *model.Payment) error
	DecidePayment(ctx context.Context, d repository.Decision) (model.PaymentStatus, error)
	ListPendingPayments(ctx context.Context) ([]repository.PendingPaymentRow, error)
}

// allowedProofTypes maps an accepted file extension to the only content
// type a proof with that extension may have.
var allowedProofTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

// Plan is the subscription a new booking is created for.
type Plan struct {
	Price uint32
	Days  int
}

// Deps wires a BookingService.
type Deps struct {
	Authz    *Authorizer
	Profiles *ProfileService
	Store    ProfileStore
	Ledger   Ledger
	Blobs    storage.BlobStore
	Events   EventPublisher
	Log      *zap.Logger
	Plan     Plan
	MaxBytes int64
}

// BookingService runs the booking-payment workflow.
type BookingService struct {
	authz    *Authorizer
	profiles *ProfileService
	store    ProfileStore
	ledger   Ledger
	blobs    storage.BlobStore
	events   EventPublisher
	log      *zap.Logger
	plan     Plan
	maxBytes int64

	now   func() time.Time
	newID func() string
}

func NewBookingService(d Deps) *BookingService {
	if d.Events == nil {
		d.Events = NopPublisher{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &BookingService{
		authz:    d.Authz,
		profiles: d.Profiles,
		store:    d.Store,
		ledger:   d.Ledger,
		blobs:    d.Blobs,
		events:   d.Events,
		log:      d.Log,
		plan:     d.Plan,
		maxBytes: d.MaxBytes,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.NewString() },
	}
}

// UploadInput is a member's seat choice with its payment proof.
type UploadInput struct {
	SeatID      uint64
	FileName    string
	ContentType string // as declared by the client, may be empty
	File        io.Reader
}

// UploadResult identifies the rows created by a successful upload.
type UploadResult struct {
	BookingID     uint64 `json:"bookingId"`
	PaymentID     uint64 `json:"paymentId"`
	ScreenshotURL string `json:"screenshotUrl"`
}

// Upload validates the proof, stores it, and creates a pending booking with
// its pending payment.  Validation failures leave no trace; once the proof
// is stored, any later failure removes it again.
func (s *BookingService) Upload(ctx context.Context, id Identity, in UploadInput) (res *UploadResult, err error) {
	defer func() { uploadsTotal.WithLabelValues(outcome(err)).Inc() }()

	if in.File == nil || in.SeatID == 0 {
		return nil, fail(KindMissingInput, "Missing file or seatId", nil)
	}
	if id.UserID == 0 {
		return nil, fail(KindUnauthorized, "Unauthorized", nil)
	}

	data, err := io.ReadAll(io.LimitReader(in.File, s.maxBytes+1))
	if err != nil {
		return nil, fail(KindMissingInput, "could not read file", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fail(KindFileTooLarge, fmt.Sprintf("file exceeds %d bytes", s.maxBytes), nil)
	}
	if len(data) == 0 {
		return nil, fail(KindMissingInput, "file is empty", nil)
	}
	ext, contentType, err := checkProofType(in.FileName, in.ContentType, data)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.Ensure(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	key := fmt.Sprintf("%d/%d-%s%s", id.UserID, now.UnixMilli(), s.newID(), ext)
	url, err := s.blobs.Put(ctx, key, contentType, bytes.NewReader(data))
	if err != nil {
		s.log.Error("proof upload failed", zap.Uint64("user_id", id.UserID), zap.Error(err))
		return nil, fail(KindStorageUploadFailed, "Failed to upload image", err)
	}

	b := &model.Booking{
		UserID:    id.UserID,
		SeatID:    in.SeatID,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, s.plan.Days),
		Status:    model.BookingPending,
		Amount:    s.plan.Price,
	}
	p := &model.Payment{
		UserID:        id.UserID,
		Amount:        s.plan.Price,
		PaymentType:   model.PaymentTypeRegistration,
		ScreenshotURL: url,
		ScreenshotKey: key,
		Status:        model.PaymentPending,
	}
	if err := s.ledger.CreateWithPayment(ctx, b, p); err != nil {
		s.discardBlob(key)
		return nil, s.bookingFailure(err, id, in.SeatID)
	}

	s.publish(ctx, queue.PaymentEvent{
		Type:      queue.EventPaymentSubmitted,
		PaymentID: p.ID,
		BookingID: b.ID,
		UserID:    id.UserID,
		SeatID:    in.SeatID,
		Amount:    p.Amount,
	})
	s.log.Info("booking submitted",
		zap.Uint64("booking_id", b.ID), zap.Uint64("payment_id", p.ID),
		zap.Uint64("seat_id", in.SeatID), zap.Uint64("profile_id", profile.ID))
	return &UploadResult{BookingID: b.ID, PaymentID: p.ID, ScreenshotURL: url}, nil
}

// checkProofType accepts a proof only when its extension, its sniffed
// content and (if given) its declared content type all agree on one of the
// allowed types.
func checkProofType(name, declared string, data []byte) (ext, contentType string, err error) {
	ext = strings.ToLower(filepath.Ext(name))
	want, ok := allowedProofTypes[ext]
	if !ok {
		return "", "", fail(KindInvalidFileType, "only JPG, PNG or PDF files are accepted", nil)
	}
	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	if sniffed != want {
		return "", "", fail(KindInvalidFileType, "file content does not match its extension", nil)
	}
	if declared != "" {
		mt, _, perr := mime.ParseMediaType(declared)
		if perr != nil || (mt != want && mt != "application/octet-stream") {
			return "", "", fail(KindInvalidFileType, "declared content type is not allowed", perr)
		}
	}
	return ext, want, nil
}

func (s *BookingService) bookingFailure(err error, id Identity, seatID uint64) error {
	fields := []zap.Field{zap.Uint64("user_id", id.UserID), zap.Uint64("seat_id", seatID), zap.Error(err)}
	switch {
	case errors.Is(err, repository.ErrSeatNotFound):
		return fail(KindNotFound, "Seat not found", err)
	case errors.Is(err, repository.ErrConflict):
		s.log.Info("booking rejected, seat taken", fields...)
		return fail(KindBookingConflict, "Failed to create booking. Seat might be taken.", err)
	case errors.Is(err, repository.ErrPaymentInsert):
		s.log.Error("payment insert failed, booking rolled back", fields...)
		return fail(KindPaymentPersistFailed, "Failed to record payment", err)
	default:
		s.log.Error("booking insert failed", fields...)
		return fail(KindPersistFailed, "Failed to create booking", err)
	}
}

// discardBlob removes an orphaned proof.  It runs detached from the request
// context so a cancelled request still cleans up.
func (s *BookingService) discardBlob(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.log.Warn("orphaned proof not removed", zap.String("key", key), zap.Error(err))
	}
}

// DecisionInput names the payment an admin decides on.  SeatID is honoured
// on approval only.
type DecisionInput struct {
	PaymentID uint64
	BookingID uint64
	SeatID    *uint64
}

// Verify approves a pending payment: payment approved, booking active with
// the registration fee paid, and the seat (when given) marked unavailable,
// all in one transaction.  Approving an approved payment again succeeds
// without writing; approving a rejected one is a conflict.
func (s *BookingService) Verify(ctx context.Context, id Identity, in DecisionInput) (err error) {
	defer func() { decisionsTotal.WithLabelValues("approve", outcome(err)).Inc() }()
	return s.decide(ctx, id, in, model.PaymentApproved)
}

// Reject rejects a pending payment and cancels its booking in one
// transaction.  Seat availability is never changed.  Rejecting a rejected
// payment again succeeds without writing; rejecting an approved one is a
// conflict.
func (s *BookingService) Reject(ctx context.Context, id Identity, in DecisionInput) (err error) {
	defer func() { decisionsTotal.WithLabelValues("reject", outcome(err)).Inc() }()
	in.SeatID = nil
	return s.decide(ctx, id, in, model.PaymentRejected)
}

func (s *BookingService) decide(ctx context.Context, id Identity, in DecisionInput, to model.PaymentStatus) error {
	if in.PaymentID == 0 || in.BookingID == 0 {
		return fail(KindMissingInput, "Missing Data", nil)
	}
	actor, err := s.authz.RequireRole(ctx, id, model.RoleAdmin)
	if err != nil {
		return err
	}

	prior, err := s.ledger.DecidePayment(ctx, repository.Decision{
		PaymentID:  in.PaymentID,
		BookingID:  in.BookingID,
		SeatID:     in.SeatID,
		Outcome:    to,
		VerifiedBy: actor.ProfileID,
		At:         s.now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return fail(KindNotFound, "Payment not found", err)
		case errors.Is(err, repository.ErrBookingMismatch):
			return fail(KindInvalidInput, "payment does not belong to the given booking or seat", err)
		default:
			s.log.Error("payment decision failed",
				zap.Uint64("payment_id", in.PaymentID), zap.String("decision", string(to)), zap.Error(err))
			return fail(KindPersistFailed, "Failed to update payment", err)
		}
	}

	switch prior {
	case model.PaymentPending:
	case to:
		s.log.Info("payment already decided", zap.Uint64("payment_id", in.PaymentID), zap.String("status", string(prior)))
		return nil
	default:
		return fail(KindConflict, fmt.Sprintf("payment already %s", prior), nil)
	}

	ev := queue.PaymentEvent{
		Type:      queue.EventPaymentRejected,
		PaymentID: in.PaymentID,
		BookingID: in.BookingID,
		ActorID:   actor.ProfileID,
	}
	if to == model.PaymentApproved {
		ev.Type = queue.EventPaymentApproved
		if in.SeatID != nil {
			ev.SeatID = *in.SeatID
		}
	}
	s.publish(ctx, ev)
	s.log.Info("payment decided",
		zap.Uint64("payment_id", in.PaymentID), zap.Uint64("booking_id", in.BookingID),
		zap.String("status", string(to)), zap.Uint64("admin_profile_id", actor.ProfileID))
	return nil
}

// PendingProfile is the member summary attached to a pending payment.
type PendingProfile struct {
	FullName  string  `json:"full_name"`
	Phone     string  `json:"phone"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// PendingSeat and PendingBooking mirror the nested booking/seat of a pending
// payment.
type PendingSeat struct {
	ID         uint64 `json:"id"`
	SeatNumber string `json:"seat_number"`
}

type PendingBooking struct {
	ID     uint64      `json:"id"`
	SeatID uint64      `json:"seat_id"`
	Seat   PendingSeat `json:"seat"`
}

// PendingPayment is one entry of the admin review feed.
type PendingPayment struct {
	ID            uint64              `json:"id"`
	BookingID     uint64              `json:"booking_id"`
	UserID        uint64              `json:"user_id"`
	Amount        uint32              `json:"amount"`
	PaymentType   string              `json:"payment_type"`
	ScreenshotURL string              `json:"screenshot_url"`
	Status        model.PaymentStatus `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	Booking       PendingBooking      `json:"booking"`
	Profile       PendingProfile      `json:"profile"`
}

// ListPending returns every pending payment, newest first, with its booking,
// seat and submitter.  Submitters without a profile are shown as
// "Unknown"/"N/A".
func (s *BookingService) ListPending(ctx context.Context, id Identity) ([]PendingPayment, error) {
	if _, err := s.authz.RequireRole(ctx, id, model.RoleAdmin); err != nil {
		return nil, err
	}
	rows, err := s.ledger.ListPendingPayments(ctx)
	if err != nil {
		return nil, fail(KindInternal, "could not load pending payments", err)
	}

	seen := make(map[uint64]struct{}, len(rows))
	userIDs := make([]uint64, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.Payment.UserID]; !ok {
			seen[r.Payment.UserID] = struct{}{}
			userIDs = append(userIDs, r.Payment.UserID)
		}
	}
	profiles, err := s.store.ListByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, fail(KindInternal, "could not load profiles", err)
	}

	out := make([]PendingPayment, 0, len(rows))
	for _, r := range rows {
		p := r.Payment
		pp := PendingPayment{
			ID:            p.ID,
			BookingID:     p.BookingID,
			UserID:        p.UserID,
			Amount:        p.Amount,
			PaymentType:   p.PaymentType,
			ScreenshotURL: p.ScreenshotURL,
			Status:        p.Status,
			CreatedAt:     p.CreatedAt,
			Booking: PendingBooking{
				ID:     p.BookingID,
				SeatID: r.SeatID,
				Seat:   PendingSeat{ID: r.SeatID, SeatNumber: r.SeatNumber},
			},
			Profile: PendingProfile{FullName: "Unknown", Phone: "N/A"},
		}
		if prof, ok := profiles[p.UserID]; ok {
			pp.Profile = PendingProfile{FullName: prof.FullName, Phone: prof.Phone, AvatarURL: prof.AvatarURL}
		}
		out = append(out, pp)
	}
	return out, nil
}

func (s *BookingService) publish(ctx context.Context, ev queue.PaymentEvent) {
	ev.OccurredAt = s.now().Format(time.RFC3339)
	if err := s.events.Publish(ctx, ev); err != nil {
		eventPublishFailures.Inc()
		s.log.Warn("event not published", zap.String("type", ev.Type), zap.Error(err))
	}
}
