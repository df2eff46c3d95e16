package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/library-seat-booking/internal/service"
)

// errorResp is the body of every failed request.
type errorResp struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// fail writes err as {error, details} with the status of its kind.  Causes
// of server side failures are logged, never returned.
func fail(c echo.Context, log *zap.Logger, err error) error {
	kind := service.KindOf(err)
	resp := errorResp{Error: string(kind)}
	var se *service.Error
	if errors.As(err, &se) {
		resp.Details = se.Detail
	} else {
		resp.Details = "Internal server error"
	}
	status := kind.HTTPStatus()
	if status >= 500 && log != nil {
		log.Error("request failed", zap.String("route", c.Path()), zap.Error(err))
	}
	return c.JSON(status, resp)
}

func badRequest(c echo.Context, kind service.Kind, details string) error {
	return c.JSON(kind.HTTPStatus(), errorResp{Error: string(kind), Details: details})
}

// parseID reads a positive integer; ok is false for anything else.
func parseID(s string) (uint64, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	return n, err == nil && n > 0
}

// ErrorHandler renders errors that escape the handlers (routing misses,
// the body limit, static file lookups) as {error, details}.  An oversized
// request body is reported as file-too-large with status 400, the same as a
// proof that fails the size check inside the workflow.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			_ = fail(c, log, err)
			return
		}
		status, resp := httpErrorResp(he)
		if status >= 500 && log != nil {
			log.Error("request failed", zap.String("route", c.Path()), zap.Error(err))
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, resp)
		}
		if err != nil && log != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}

func httpErrorResp(he *echo.HTTPError) (int, errorResp) {
	details, _ := he.Message.(string)
	switch {
	case he.Code == http.StatusRequestEntityTooLarge:
		return http.StatusBadRequest, errorResp{Error: string(service.KindFileTooLarge), Details: "request body too large"}
	case he.Code == http.StatusUnauthorized:
		return he.Code, errorResp{Error: string(service.KindUnauthorized), Details: details}
	case he.Code == http.StatusForbidden:
		return he.Code, errorResp{Error: string(service.KindForbidden), Details: details}
	case he.Code == http.StatusNotFound:
		return he.Code, errorResp{Error: string(service.KindNotFound), Details: details}
	case he.Code >= 500:
		return http.StatusInternalServerError, errorResp{Error: string(service.KindInternal), Details: "Internal server error"}
	default:
		return he.Code, errorResp{Error: string(service.KindInvalidInput), Details: details}
	}
}

// bodyTooLarge reports whether err came from a request body limit, either
// echo's BodyLimit middleware or http.MaxBytesReader.
func bodyTooLarge(err error) bool {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
		return true
	}
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || errors.Is(err, multipart.ErrMessageTooLarge)
}
