package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"messagely/internal/model"
	"messagely/internal/service"
)

// UserHandler serves the user roster, profiles and per-user message
// listings. The per-user routes are restricted to the account itself.
type UserHandler struct {
	Identity *service.IdentityService
}

func NewUserHandler(identity *service.IdentityService) *UserHandler {
	return &UserHandler{Identity: identity}
}

// ----- DTOs -----

type userRef struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type userSummary struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type userDetail struct {
	Username    string    `json:"username"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Phone       string    `json:"phone"`
	JoinAt      time.Time `json:"join_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

type sentMessageItem struct {
	ID     uint64     `json:"id"`
	ToUser userRef    `json:"to_user"`
	Body   string     `json:"body"`
	SentAt time.Time  `json:"sent_at"`
	ReadAt *time.Time `json:"read_at"`
}

type receivedMessageItem struct {
	ID       uint64     `json:"id"`
	FromUser userRef    `json:"from_user"`
	Body     string     `json:"body"`
	SentAt   time.Time  `json:"sent_at"`
	ReadAt   *time.Time `json:"read_at"`
}

func refOf(p model.Profile) userRef {
	return userRef{Username: p.Username, FirstName: p.FirstName, LastName: p.LastName, Phone: p.Phone}
}

// List returns the roster of all users: {users: [{username, first_name, last_name}, ...]}.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Identity.List(ctx)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]userSummary, 0, len(users))
	for _, u := range users {
		out = append(out, userSummary{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// Get returns one user's profile. Only the user themselves may fetch it.
func (h *UserHandler) Get(c echo.Context) error {
	username, ok := caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	target := c.Param("username")
	if err := service.CanViewUser(username, target); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Identity.Get(ctx, target)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": userDetail{
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		JoinAt:      u.JoinAt,
		LastLoginAt: u.LastLoginAt,
	}})
}

// MessagesFrom lists messages the user sent, newest schema shape:
// {messages: [{id, to_user, body, sent_at, read_at}, ...]}.
func (h *UserHandler) MessagesFrom(c echo.Context) error {
	username, ok := caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	target := c.Param("username")
	if err := service.CanViewUser(username, target); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	msgs, err := h.Identity.MessagesFrom(ctx, target)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]sentMessageItem, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, sentMessageItem{ID: m.ID, ToUser: refOf(m.With), Body: m.Body, SentAt: m.SentAt, ReadAt: m.ReadAt})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": out})
}

// MessagesTo lists messages the user received:
// {messages: [{id, from_user, body, sent_at, read_at}, ...]}.
func (h *UserHandler) MessagesTo(c echo.Context) error {
	username, ok := caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	target := c.Param("username")
	if err := service.CanViewUser(username, target); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	msgs, err := h.Identity.MessagesTo(ctx, target)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]receivedMessageItem, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, receivedMessageItem{ID: m.ID, FromUser: refOf(m.With), Body: m.Body, SentAt: m.SentAt, ReadAt: m.ReadAt})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": out})
}
