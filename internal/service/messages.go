package service

import (
	"context"
	"log"
	"time"

	"messagely/internal/model"
	"messagely/internal/queue"
)

// MessageStore is the slice of the message store the service needs.
// *repository.MessageRepo implements it.
type MessageStore interface {
	Create(ctx context.Context, from, to, body string) (model.Message, error)
	GetByID(ctx context.Context, id uint64) (model.MessageDetail, error)
	MarkRead(ctx context.Context, id uint64) (time.Time, error)
}

// Publisher pushes domain events to the broker. May be left nil to disable
// publishing (e.g. in tests).
type Publisher interface {
	MessageSent(ctx context.Context, ev queue.MessageSentEvent) error
}

// MessageService applies the access rules around the message store. All
// callers are already authenticated; the caller argument is the username
// taken from a verified token.
type MessageService struct {
	messages MessageStore
	users    UserStore
	pub      Publisher
}

func NewMessageService(messages MessageStore, users UserStore, pub Publisher) *MessageService {
	return &MessageService{messages: messages, users: users, pub: pub}
}

// Send creates a message from caller to `to`. The declared from_username
// must equal the caller, and the recipient must exist; both are checked
// before the insert. A message.sent event is published best-effort after a
// successful insert; publish failures are logged, never surfaced.
func (s *MessageService) Send(ctx context.Context, caller, from, to, body string) (model.Message, error) {
	if err := CanSend(caller, from); err != nil {
		return model.Message{}, err
	}
	if _, err := s.users.GetByUsername(ctx, to); err != nil {
		return model.Message{}, err // unknown recipient -> NOT_FOUND
	}
	m, err := s.messages.Create(ctx, from, to, body)
	if err != nil {
		return model.Message{}, err
	}
	if s.pub != nil {
		ev := queue.MessageSentEvent{
			MessageID:    m.ID,
			FromUsername: m.FromUsername,
			ToUsername:   m.ToUsername,
			SentAt:       m.SentAt.Format(time.RFC3339),
		}
		if err := s.pub.MessageSent(ctx, ev); err != nil {
			log.Printf("messages: publish message.sent failed: %v", err)
		}
	}
	return m, nil
}

// Get returns the message with both profiles, but only to a participant.
func (s *MessageService) Get(ctx context.Context, caller string, id uint64) (model.MessageDetail, error) {
	d, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return model.MessageDetail{}, err
	}
	if err := CanViewMessage(caller, d.Message); err != nil {
		return model.MessageDetail{}, err
	}
	return d, nil
}

// MarkRead sets read_at, recipient only. Already-read messages are a
// no-op returning the stored timestamp, so repeat calls cannot re-stamp it.
func (s *MessageService) MarkRead(ctx context.Context, caller string, id uint64) (model.Message, error) {
	d, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return model.Message{}, err
	}
	if err := CanMarkRead(caller, d.Message); err != nil {
		return model.Message{}, err
	}
	if d.ReadAt != nil {
		return d.Message, nil
	}
	readAt, err := s.messages.MarkRead(ctx, id)
	if err != nil {
		return model.Message{}, err
	}
	d.Message.ReadAt = &readAt
	return d.Message, nil
}
