package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/library-seat-booking/internal/config"
	"github.com/iliyamo/library-seat-booking/internal/middleware"
	"github.com/iliyamo/library-seat-booking/internal/model"
	"github.com/iliyamo/library-seat-booking/internal/repository"
	"github.com/iliyamo/library-seat-booking/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
	Profiles *repository.ProfileRepo
	Log      *zap.Logger
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, p *repository.ProfileRepo, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Profiles: p, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// Register creates the account and its profile and returns tokens
// immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid-input", "details": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing-input", "details": "email/password required"})
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooShort) || errors.Is(err, utils.ErrPasswordTooLong) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid-input", "details": err.Error()})
		}
		h.Log.Error("hash password failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "details": "create user failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	name := req.FullName
	if name == "" {
		name = strings.SplitN(req.Email, "@", 2)[0]
	}
	prof := &model.Profile{FullName: name, Phone: strings.TrimSpace(req.Phone)}
	uid, err := h.Users.Register(ctx, req.Email, hash, prof)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "details": "email already exists"})
		}
		h.Log.Error("register failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "details": "create user failed"})
	}

	resp, err := h.issuePair(ctx, uid, req.Email, name)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "details": err.Error()})
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid-input", "details": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing-input", "details": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "details": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "details": "query failed"})
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "details": "invalid credentials"})
	}

	resp, err := h.issuePair(ctx, u.ID, u.Email, h.nameOf(ctx, u.ID))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "details": err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing-input", "details": "refresh_token required"})
	}
	oldHash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	next, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "details": "issue refresh failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.Rotate(ctx, oldHash, utils.HashRefreshRaw(next.Raw), next.Exp)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "details": "invalid refresh"})
		}
		h.Log.Error("rotate refresh failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "details": "rotate refresh failed"})
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil || !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "details": "invalid refresh"})
	}
	name := h.nameOf(ctx, u.ID)
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, name, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "details": "issue access failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:    userPart{ID: u.ID, Email: u.Email, FullName: name},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: next.Raw, Expires: next.Exp},
	})
}

// RefreshAccess returns a new access token without rotating the refresh
// token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing-input", "details": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.Owner(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "details": "invalid refresh"})
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "details": "invalid refresh"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "details": "load user failed"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, h.nameOf(ctx, u.ID), h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "details": "issue access failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes one refresh token (body) or, given only a valid bearer
// token, every refresh token of the caller.
func (h *AuthHandler) Logout(c echo.Context) error {
	var uid uint64
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
			uid, _ = claims.UserID()
		}
	}

	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch {
	case refreshToken != "":
		if err := h.Tokens.Revoke(ctx, utils.HashRefreshRaw(refreshToken)); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "details": "invalid refresh token"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "details": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	case uid != 0:
		if err := h.Tokens.RevokeAll(ctx, uid); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "details": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing-input", "details": "provide Authorization header or refresh_token"})
	}
}

// Me echoes the authenticated identity.
func (h *AuthHandler) Me(c echo.Context) error {
	id := middleware.IdentityFrom(c)
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": id.UserID,
		"email":   id.Email,
		"name":    id.Name,
	})
}

func (h *AuthHandler) issuePair(ctx context.Context, uid uint64, email, name string) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, email, name, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, errors.New("issue access failed")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, errors.New("issue refresh failed")
	}
	if err := h.Tokens.Issue(ctx, uid, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, errors.New("save refresh failed")
	}
	return authResp{
		User:    userPart{ID: uid, Email: email, FullName: name},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}

// nameOf is the profile name used for the name claim, empty if unknown.
func (h *AuthHandler) nameOf(ctx context.Context, uid uint64) string {
	if p, err := h.Profiles.GetByUserID(ctx, uid); err == nil {
		return p.FullName
	}
	return ""
}
