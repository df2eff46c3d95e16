package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/library-seat-booking/internal/middleware"
	"github.com/iliyamo/library-seat-booking/internal/model"
	"github.com/iliyamo/library-seat-booking/internal/repository"
	"github.com/iliyamo/library-seat-booking/internal/service"
)

// Workflow is the booking-payment workflow as used by the HTTP layer.
type Workflow interface {
	Upload(ctx context.Context, id service.Identity, in service.UploadInput) (*service.UploadResult, error)
	Verify(ctx context.Context, id service.Identity, in service.DecisionInput) error
	Reject(ctx context.Context, id service.Identity, in service.DecisionInput) error
	ListPending(ctx context.Context, id service.Identity) ([]service.PendingPayment, error)
}

// Profiles resolves and edits the caller's profile.
type Profiles interface {
	Ensure(ctx context.Context, id service.Identity) (*model.Profile, error)
	Update(ctx context.Context, id service.Identity, fullName, phone string) (*model.Profile, error)
}

// SeatBoard lists seats with their derived status.
type SeatBoard interface {
	Board(ctx context.Context, at time.Time) ([]repository.SeatBoardRow, error)
}

// MemberBookings lists a member's own bookings.
type MemberBookings interface {
	ListByUser(ctx context.Context, userID uint64) ([]repository.MyBooking, error)
}

// BookingHandler serves the member facing endpoints.
type BookingHandler struct {
	Flow     Workflow
	Profiles Profiles
	Seats    SeatBoard
	Bookings MemberBookings
	Log      *zap.Logger
	// OnSeatsChanged runs after writes that change the seat board.
	OnSeatsChanged func(ctx context.Context)
}

// Upload handles POST /v1/payments/upload (multipart: file, seatId).
func (h *BookingHandler) Upload(c echo.Context) error {
	form, err := c.MultipartForm()
	switch {
	case bodyTooLarge(err):
		return badRequest(c, service.KindFileTooLarge, "request body too large")
	case errors.Is(err, http.ErrNotMultipart):
		return badRequest(c, service.KindMissingInput, "Missing file or seatId")
	case err != nil:
		return badRequest(c, service.KindInvalidInput, "malformed multipart body")
	}
	var seatRaw string
	if v := form.Value["seatId"]; len(v) > 0 {
		seatRaw = strings.TrimSpace(v[0])
	}
	files := form.File["file"]
	if len(files) == 0 || seatRaw == "" {
		return badRequest(c, service.KindMissingInput, "Missing file or seatId")
	}
	fh := files[0]
	seatID, ok := parseID(seatRaw)
	if !ok {
		return badRequest(c, service.KindInvalidInput, "seatId must be a positive integer")
	}

	f, err := fh.Open()
	if err != nil {
		return badRequest(c, service.KindInvalidInput, "could not read file")
	}
	defer f.Close()

	res, err := h.Flow.Upload(c.Request().Context(), middleware.IdentityFrom(c), service.UploadInput{
		SeatID:      seatID,
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		File:        f,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	h.seatsChanged(c)
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"bookingId": res.BookingID,
		"paymentId": res.PaymentID,
	})
}

// ListSeats handles GET /v1/seats.
func (h *BookingHandler) ListSeats(c echo.Context) error {
	rows, err := h.Seats.Board(c.Request().Context(), time.Now().UTC())
	if err != nil {
		h.Log.Error("seat board failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResp{Error: string(service.KindInternal), Details: "could not load seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": rows})
}

// MyBookings handles GET /v1/my-bookings.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	rows, err := h.Bookings.ListByUser(c.Request().Context(), id.UserID)
	if err != nil {
		h.Log.Error("list bookings failed", zap.Uint64("user_id", id.UserID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResp{Error: string(service.KindInternal), Details: "could not load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": rows})
}

type profileResp struct {
	ID        uint64    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toProfileResp(p *model.Profile) profileResp {
	return profileResp{ID: p.ID, FullName: p.FullName, Email: p.Email, Phone: p.Phone, AvatarURL: p.AvatarURL, CreatedAt: p.CreatedAt}
}

// GetProfile handles GET /v1/profile, creating the profile on first access.
func (h *BookingHandler) GetProfile(c echo.Context) error {
	p, err := h.Profiles.Ensure(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toProfileResp(p))
}

type profileReq struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// UpdateProfile handles PUT /v1/profile.
func (h *BookingHandler) UpdateProfile(c echo.Context) error {
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, service.KindInvalidInput, "invalid body")
	}
	p, err := h.Profiles.Update(c.Request().Context(), middleware.IdentityFrom(c), req.FullName, req.Phone)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toProfileResp(p))
}

func (h *BookingHandler) seatsChanged(c echo.Context) {
	if h.OnSeatsChanged != nil {
		h.OnSeatsChanged(c.Request().Context())
	}
}
