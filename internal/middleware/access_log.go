package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const headerRequestID = "X-Request-ID"

// AccessLog assigns a request id (reusing a sane incoming one) and logs one
// line per request.  Handler errors are resolved through echo's error
// handler first so the logged status is the one the client saw.
func AccessLog(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			rid := c.Request().Header.Get(headerRequestID)
			if rid == "" || len(rid) > 64 {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(headerRequestID, rid)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			fields := []zap.Field{
				zap.String("request_id", rid),
				zap.String("method", c.Request().Method),
				zap.String("route", c.Path()),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			}
			if uid := currentUserID(c); uid != "anon" {
				fields = append(fields, zap.String("user_id", uid))
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}
			switch {
			case status >= 500:
				log.Error("request", fields...)
			case status >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
			return nil
		}
	}
}
