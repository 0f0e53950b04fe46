// Package queue defines message payloads exchanged over the message broker.
package queue

// MessageSentEvent is published when a message is successfully persisted.
// It carries enough for downstream consumers (delivery logs, notification
// fan-out) without querying the primary database. The body is deliberately
// omitted so the broker never sees message content.
type MessageSentEvent struct {
	MessageID    uint64 `json:"message_id"`
	FromUsername string `json:"from_username"`
	ToUsername   string `json:"to_username"`
	SentAt       string `json:"sent_at"`
}
