package router // router defines how HTTP routes are registered for the API

import (
	"database/sql"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/library-seat-booking/internal/handler"
	"github.com/iliyamo/library-seat-booking/internal/middleware"
	"github.com/iliyamo/library-seat-booking/internal/model"
	"github.com/iliyamo/library-seat-booking/internal/service"
)

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterProofs serves stored payment proofs under prefix to signed in
// callers; the handler lets through the uploader and admins only.
func RegisterProofs(e *echo.Echo, p *handler.ProofHandler, jwtSecret, prefix string) {
	e.GET(strings.TrimSuffix(prefix, "/")+"/*", p.Get, middleware.JWTAuth(jwtSecret))
}

// RegisterAuth registers the session endpoints under /v1/auth and the
// authenticated /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)               // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess) // keeps the refresh token
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers the seat board.  cache may be nil.
func RegisterPublic(e *echo.Echo, b *handler.BookingHandler, cache echo.MiddlewareFunc) {
	if cache != nil {
		e.GET("/v1/seats", b.ListSeats, cache)
		return
	}
	e.GET("/v1/seats", b.ListSeats)
}

// RegisterMember registers endpoints for any signed in user.  writeLimit
// guards the upload; bodyLimit caps the multipart request.
func RegisterMember(e *echo.Echo, b *handler.BookingHandler, jwtSecret string, writeLimit echo.MiddlewareFunc, bodyLimit string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	upload := []echo.MiddlewareFunc{echomw.BodyLimit(bodyLimit)}
	if writeLimit != nil {
		upload = append(upload, writeLimit)
	}
	g.POST("/payments/upload", b.Upload, upload...)
	g.GET("/my-bookings", b.MyBookings)
	g.GET("/profile", b.GetProfile)
	g.PUT("/profile", b.UpdateProfile)
}

// RegisterAdmin registers the admin console under /v1/admin.  The role
// check here covers the read models; the payment workflow authorizes the
// caller again on its own.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, authz *service.Authorizer, jwtSecret string, writeLimit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(authz, model.RoleAdmin),
	)

	var writes []echo.MiddlewareFunc
	if writeLimit != nil {
		writes = append(writes, writeLimit)
	}

	// ---- Payments ----
	g.GET("/payments/pending", h.PendingPayments)
	g.POST("/payments/verify", h.VerifyPayment, writes...)
	g.POST("/payments/reject", h.RejectPayment, writes...)

	// ---- Dashboard ----
	g.GET("/stats", h.Stats)
	g.GET("/bookings", h.Bookings)
	g.GET("/export", h.Export)

	// ---- Seats ----
	g.GET("/seats", h.SeatMap)
	g.POST("/seats", h.CreateSeat, writes...)
	g.PATCH("/seats/:id", h.UpdateSeat, writes...)
}
