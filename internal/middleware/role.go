package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-booking/internal/service"
)

// CtxActor holds the *service.Actor resolved by RequireRole.
const CtxActor = "actor"

// RequireRole guards a route group with the Authorizer: the caller must have
// a profile holding role.  Failures are answered with the authorizer's kind
// (401, 403 or 404).  It must run after JWTAuth.
func RequireRole(authz *service.Authorizer, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, err := authz.RequireRole(c.Request().Context(), IdentityFrom(c), role)
			if err != nil {
				kind := service.KindOf(err)
				body := echo.Map{"error": string(kind)}
				var se *service.Error
				if errors.As(err, &se) {
					body["details"] = se.Detail
				}
				return c.JSON(kind.HTTPStatus(), body)
			}
			c.Set(CtxActor, actor)
			return next(c)
		}
	}
}
