package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/library-seat-booking/internal/middleware"
	"github.com/iliyamo/library-seat-booking/internal/model"
	"github.com/iliyamo/library-seat-booking/internal/repository"
	"github.com/iliyamo/library-seat-booking/internal/service"
)

// AdminViews are the read models behind the admin dashboard and exports.
type AdminViews interface {
	Stats(ctx context.Context) (repository.DashboardStats, error)
	ListAll(ctx context.Context) ([]repository.AdminBooking, error)
	ListPaymentsForExport(ctx context.Context) ([]repository.PaymentExportRow, error)
}

// SeatAdmin manages the seat registry.
type SeatAdmin interface {
	Create(ctx context.Context, s *model.Seat) error
	SetAvailability(ctx context.Context, id uint64, available bool) (*model.Seat, error)
	Occupancy(ctx context.Context, at time.Time) ([]repository.SeatOccupancyRow, error)
}

// AdminHandler serves /v1/admin.  Payment review goes through the workflow,
// which authorizes the caller itself; the remaining routes are guarded by
// middleware.RequireRole.
type AdminHandler struct {
	Flow  Workflow
	Views AdminViews
	Seats SeatAdmin
	Log   *zap.Logger
	Now   func() time.Time
	// OnSeatsChanged runs after writes that change the seat board.
	OnSeatsChanged func(ctx context.Context)
}

// flexID accepts an id as a JSON number or a numeric string.
type flexID uint64

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return errors.New("id must be a positive integer")
	}
	*f = flexID(n)
	return nil
}

type decisionReq struct {
	PaymentID flexID  `json:"paymentId"`
	BookingID flexID  `json:"bookingId"`
	SeatID    *flexID `json:"seatId,omitempty"`
}

func (r decisionReq) input() service.DecisionInput {
	in := service.DecisionInput{PaymentID: uint64(r.PaymentID), BookingID: uint64(r.BookingID)}
	if r.SeatID != nil && *r.SeatID != 0 {
		id := uint64(*r.SeatID)
		in.SeatID = &id
	}
	return in
}

func bindDecision(c echo.Context) (decisionReq, error) {
	var req decisionReq
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return req, err
	}
	return req, nil
}

// PendingPayments handles GET /v1/admin/payments/pending.
func (h *AdminHandler) PendingPayments(c echo.Context) error {
	list, err := h.Flow.ListPending(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": list})
}

// VerifyPayment handles POST /v1/admin/payments/verify.
func (h *AdminHandler) VerifyPayment(c echo.Context) error {
	req, err := bindDecision(c)
	if err != nil {
		return badRequest(c, service.KindInvalidInput, "invalid body")
	}
	if err := h.Flow.Verify(c.Request().Context(), middleware.IdentityFrom(c), req.input()); err != nil {
		return fail(c, h.Log, err)
	}
	h.seatsChanged(c)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// RejectPayment handles POST /v1/admin/payments/reject.
func (h *AdminHandler) RejectPayment(c echo.Context) error {
	req, err := bindDecision(c)
	if err != nil {
		return badRequest(c, service.KindInvalidInput, "invalid body")
	}
	if err := h.Flow.Reject(c.Request().Context(), middleware.IdentityFrom(c), req.input()); err != nil {
		return fail(c, h.Log, err)
	}
	h.seatsChanged(c)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Stats handles GET /v1/admin/stats.
func (h *AdminHandler) Stats(c echo.Context) error {
	s, err := h.Views.Stats(c.Request().Context())
	if err != nil {
		h.Log.Error("stats failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResp{Error: string(service.KindInternal), Details: "could not load stats"})
	}
	return c.JSON(http.StatusOK, s)
}

// Bookings handles GET /v1/admin/bookings.
func (h *AdminHandler) Bookings(c echo.Context) error {
	rows, err := h.Views.ListAll(c.Request().Context())
	if err != nil {
		h.Log.Error("list bookings failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResp{Error: string(service.KindInternal), Details: "could not load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": rows})
}

// SeatMap handles GET /v1/admin/seats.
func (h *AdminHandler) SeatMap(c echo.Context) error {
	rows, err := h.Seats.Occupancy(c.Request().Context(), h.now())
	if err != nil {
		h.Log.Error("seat map failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResp{Error: string(service.KindInternal), Details: "could not load seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": rows})
}

type createSeatReq struct {
	SeatNumber  string `json:"seat_number"`
	IsAvailable *bool  `json:"is_available"`
}

type seatResp struct {
	ID          uint64 `json:"id"`
	SeatNumber  string `json:"seat_number"`
	IsAvailable bool   `json:"is_available"`
}

// CreateSeat handles POST /v1/admin/seats.
func (h *AdminHandler) CreateSeat(c echo.Context) error {
	var req createSeatReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, service.KindInvalidInput, "invalid body")
	}
	num := strings.ToUpper(strings.TrimSpace(req.SeatNumber))
	if num == "" {
		return badRequest(c, service.KindMissingInput, "seat_number is required")
	}
	if len(num) > 16 {
		return badRequest(c, service.KindInvalidInput, "seat_number too long")
	}
	seat := &model.Seat{SeatNumber: num, IsAvailable: req.IsAvailable == nil || *req.IsAvailable}
	if err := h.Seats.Create(c.Request().Context(), seat); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, errorResp{Error: string(service.KindConflict), Details: "seat number already exists"})
		}
		h.Log.Error("create seat failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResp{Error: string(service.KindPersistFailed), Details: "could not create seat"})
	}
	h.seatsChanged(c)
	return c.JSON(http.StatusCreated, seatResp{ID: seat.ID, SeatNumber: seat.SeatNumber, IsAvailable: seat.IsAvailable})
}

type updateSeatReq struct {
	IsAvailable *bool `json:"is_available"`
}

// UpdateSeat handles PATCH /v1/admin/seats/:id (maintenance toggle).
func (h *AdminHandler) UpdateSeat(c echo.Context) error {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return badRequest(c, service.KindInvalidInput, "invalid seat id")
	}
	var req updateSeatReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, service.KindInvalidInput, "invalid body")
	}
	if req.IsAvailable == nil {
		return badRequest(c, service.KindMissingInput, "is_available is required")
	}
	seat, err := h.Seats.SetAvailability(c.Request().Context(), id, *req.IsAvailable)
	if err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return c.JSON(http.StatusNotFound, errorResp{Error: string(service.KindNotFound), Details: "seat not found"})
		}
		h.Log.Error("update seat failed", zap.Uint64("seat_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResp{Error: string(service.KindPersistFailed), Details: "could not update seat"})
	}
	h.seatsChanged(c)
	return c.JSON(http.StatusOK, seatResp{ID: seat.ID, SeatNumber: seat.SeatNumber, IsAvailable: seat.IsAvailable})
}

func (h *AdminHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *AdminHandler) seatsChanged(c echo.Context) {
	if h.OnSeatsChanged != nil {
		h.OnSeatsChanged(c.Request().Context())
	}
}
