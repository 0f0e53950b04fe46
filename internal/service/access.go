package service

import (
	"messagely/internal/model"
	apperrors "messagely/pkg/errors"
)

// Access control decisions. Each function is pure: it looks only at the
// authenticated caller and the target, has no side effects, and returns
// nil when the action is permitted.

// CanViewMessage permits a read iff the caller is the sender or the recipient.
func CanViewMessage(caller string, m model.Message) error {
	if caller == m.FromUsername || caller == m.ToUsername {
		return nil
	}
	return apperrors.ErrNotParticipant
}

// CanMarkRead permits the transition iff the caller is the recipient.
// Senders may never mark their own sent message read.
func CanMarkRead(caller string, m model.Message) error {
	if caller == m.ToUsername {
		return nil
	}
	return apperrors.ErrNotRecipient
}

// CanSend permits sending iff the declared from_username is the caller,
// preventing identity spoofing in the sender field.
func CanSend(caller, fromUsername string) error {
	if caller == fromUsername {
		return nil
	}
	return apperrors.ErrSenderMismatch
}

// CanViewUser permits per-user listings (profile, sent/received messages)
// only for the user themselves.
func CanViewUser(caller, username string) error {
	if caller == username {
		return nil
	}
	return apperrors.ErrNotSelf
}
