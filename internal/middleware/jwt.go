package middleware // reusable HTTP middleware for the echo router

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-booking/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxUserID = "user_id" // uint64
	CtxEmail  = "email"   // string
	CtxName   = "name"    // string
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// stores the caller's id, email and name in the request context.  The secret
// must match the one used when issuing tokens.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "details": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "details": "invalid token"})
			}
			uid, err := claims.UserID()
			if err != nil || uid == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "details": "invalid claims"})
			}

			c.Set(CtxUserID, uid)
			c.Set(CtxEmail, claims.Email)
			c.Set(CtxName, claims.Name)
			return next(c)
		}
	}
}
