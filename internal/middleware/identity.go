package middleware

// identity.go turns the values stored by JWTAuth back into a caller
// identity for handlers and for the rate limiter key.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-booking/internal/service"
)

// IdentityFrom returns the authenticated caller, or the zero Identity when
// the route is not behind JWTAuth.
func IdentityFrom(c echo.Context) service.Identity {
	id := service.Identity{}
	if v, ok := c.Get(CtxUserID).(uint64); ok {
		id.UserID = v
	}
	if v, ok := c.Get(CtxEmail).(string); ok {
		id.Email = v
	}
	if v, ok := c.Get(CtxName).(string); ok {
		id.Name = v
	}
	return id
}

// currentUserID is the caller id as a string, "anon" for anonymous callers.
func currentUserID(c echo.Context) string {
	if v, ok := c.Get(CtxUserID).(uint64); ok && v != 0 {
		return strconv.FormatUint(v, 10)
	}
	return "anon"
}
