package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"messagely/internal/service"
)

// MessageHandler serves message detail, creation and the read transition.
// All routes require a verified token; per-message authorization happens
// in the service layer.
type MessageHandler struct {
	Messages *service.MessageService
}

func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{Messages: messages}
}

// ----- DTOs -----

type createMessageReq struct {
	FromUsername string `json:"from_username"`
	ToUsername   string `json:"to_username"`
	Body         string `json:"body"`
}

type messageDetailResp struct {
	ID       uint64     `json:"id"`
	Body     string     `json:"body"`
	SentAt   time.Time  `json:"sent_at"`
	ReadAt   *time.Time `json:"read_at"`
	FromUser userRef    `json:"from_user"`
	ToUser   userRef    `json:"to_user"`
}

type messageCreatedResp struct {
	ID           uint64    `json:"id"`
	FromUsername string    `json:"from_username"`
	ToUsername   string    `json:"to_username"`
	Body         string    `json:"body"`
	SentAt       time.Time `json:"sent_at"`
}

func messageID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// Get returns the message with sender/recipient profiles; participants only.
func (h *MessageHandler) Get(c echo.Context) error {
	username, ok := caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := messageID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid message id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Messages.Get(ctx, username, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": messageDetailResp{
		ID:       d.ID,
		Body:     d.Body,
		SentAt:   d.SentAt,
		ReadAt:   d.ReadAt,
		FromUser: refOf(d.From),
		ToUser:   refOf(d.To),
	}})
}

// Create sends a message. from_username must equal the token subject and
// the recipient must exist.
func (h *MessageHandler) Create(c echo.Context) error {
	username, ok := caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.FromUsername == "" || req.ToUsername == "" || req.Body == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from_username/to_username/body required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Messages.Send(ctx, username, req.FromUsername, req.ToUsername, req.Body)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": messageCreatedResp{
		ID:           m.ID,
		FromUsername: m.FromUsername,
		ToUsername:   m.ToUsername,
		Body:         m.Body,
		SentAt:       m.SentAt,
	}})
}

// MarkRead stamps read_at; recipient only. Repeat calls return the
// original timestamp.
func (h *MessageHandler) MarkRead(c echo.Context) error {
	username, ok := caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := messageID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid message id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Messages.MarkRead(ctx, username, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": echo.Map{
		"id":      m.ID,
		"read_at": m.ReadAt,
	}})
}
