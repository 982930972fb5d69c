package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/audiobook-library/internal/middleware"
	"github.com/iliyamo/audiobook-library/internal/model"
	"github.com/iliyamo/audiobook-library/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler { return &AuthHandler{Auth: a} }

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResp struct {
	User                  model.User `json:"user"`
	Token                 string     `json:"token"`
	ExpiresAt             time.Time  `json:"expiresAt"`
	HasActiveSubscription *bool      `json:"hasActiveSubscription,omitempty"`
}

// Register: create a USER account and return a session token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Auth.Register(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sessionResp{User: s.User, Token: s.Token.Token, ExpiresAt: s.Token.ExpiresAt})
}

// Login: verify credentials and return a fresh token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResp{
		User:                  s.User,
		Token:                 s.Token.Token,
		ExpiresAt:             s.Token.ExpiresAt,
		HasActiveSubscription: &s.HasActiveSubscription,
	})
}

// Logout revokes the presented token.
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return service.ErrUnauthorized
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Auth.Logout(ctx, claims); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Profile returns the caller's account, library size and subscription.
func (h *AuthHandler) Profile(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Auth.Profile(ctx, u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
