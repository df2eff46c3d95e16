package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/library-seat-booking/internal/middleware"
	"github.com/iliyamo/library-seat-booking/internal/model"
	"github.com/iliyamo/library-seat-booking/internal/service"
)

// ProofFiles locates stored payment proofs.
type ProofFiles interface {
	Path(key string) (string, error)
}

// RoleChecker is satisfied by *service.Authorizer.
type RoleChecker interface {
	RequireRole(ctx context.Context, id service.Identity, role string) (*service.Actor, error)
}

// ProofHandler serves payment screenshots to the member who uploaded them
// and to admins.
type ProofHandler struct {
	Files ProofFiles
	Roles RoleChecker
	Log   *zap.Logger
}

// Get handles GET <proof base URL>/*.  Keys begin with the uploader's user
// id, which is how ownership is decided.
func (h *ProofHandler) Get(c echo.Context) error {
	key := c.Param("*")
	id := middleware.IdentityFrom(c)
	if !ownsProof(id.UserID, key) {
		if _, err := h.Roles.RequireRole(c.Request().Context(), id, model.RoleAdmin); err != nil {
			switch service.KindOf(err) {
			case service.KindForbidden, service.KindNotFound:
				return c.JSON(http.StatusForbidden, errorResp{Error: string(service.KindForbidden), Details: "Forbidden"})
			}
			return fail(c, h.Log, err)
		}
	}
	path, err := h.Files.Path(key)
	if err != nil {
		return c.JSON(http.StatusNotFound, errorResp{Error: string(service.KindNotFound), Details: "proof not found"})
	}
	hdr := c.Response().Header()
	hdr.Set("Cache-Control", "private, no-store")
	hdr.Set("X-Content-Type-Options", "nosniff")
	return c.File(path)
}

func ownsProof(userID uint64, key string) bool {
	return userID != 0 && strings.HasPrefix(key, strconv.FormatUint(userID, 10)+"/")
}
