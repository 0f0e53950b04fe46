package model

import "time"

// Message mirrors the `messages` table. A message is immutable after
// creation except for ReadAt, which transitions once from nil to a
// timestamp and is never cleared.
type Message struct {
	ID           uint64
	FromUsername string
	ToUsername   string
	Body         string
	SentAt       time.Time
	ReadAt       *time.Time // nil means unread
}

// Read reports whether the message has been marked read.
func (m Message) Read() bool { return m.ReadAt != nil }

// MessageDetail is a message expanded with the sender and recipient
// profiles, as returned by a lookup by id.
type MessageDetail struct {
	Message
	From Profile
	To   Profile
}

// UserMessage is one entry of a per-user message listing. With holds the
// counterpart profile: the recipient when listing sent messages, the
// sender when listing received ones.
type UserMessage struct {
	ID     uint64
	Body   string
	SentAt time.Time
	ReadAt *time.Time
	With   Profile
}
