package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"messagely/internal/config"
	"messagely/internal/service"
	"messagely/internal/utils"
	apperrors "messagely/pkg/errors"
)

// AuthHandler bundles dependencies for the login/register endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Identity *service.IdentityService
}

func NewAuthHandler(cfg config.Config, identity *service.IdentityService) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Identity: identity}
}

// ----- DTOs -----

type registerReq struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account and returns a session token immediately.
// A username collision yields 409.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}
	if req.FirstName == "" || req.LastName == "" || req.Phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "first_name/last_name/phone required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Identity.Register(ctx, req.Username, req.Password, req.FirstName, req.LastName, req.Phone); err != nil {
		return writeError(c, err)
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, req.Username, h.Cfg.TokenTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"token": access.Token})
}

// Login verifies credentials and returns a fresh session token. Unknown
// usernames and wrong passwords produce the same 401 body.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Identity.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	if !ok {
		return writeError(c, apperrors.ErrInvalidCredentials)
	}

	if err := h.Identity.UpdateLoginTimestamp(ctx, req.Username); err != nil {
		return writeError(c, err)
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, req.Username, h.Cfg.TokenTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"token": access.Token})
}

// Me: simple protected endpoint returning the token's subject.
func (h *AuthHandler) Me(c echo.Context) error {
	username, ok := caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"username": username})
}
