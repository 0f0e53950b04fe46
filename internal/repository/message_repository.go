package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"messagely/internal/model"
	apperrors "messagely/pkg/errors"
)

// MessageRepo persists directed messages. Rows are immutable after insert
// except for the one-way read_at transition.
type MessageRepo struct{ DB *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{DB: db} }

// Create inserts a message with sent_at = now and read_at = NULL and
// returns it with the generated id. The foreign keys on from_username and
// to_username backstop the existence checks done in the service layer.
func (r *MessageRepo) Create(ctx context.Context, from, to, body string) (model.Message, error) {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO messages (from_username, to_username, body, sent_at) VALUES (?,?,?,?)",
		from, to, body, now)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.Message{}, apperrors.ErrUserNotFound
		}
		return model.Message{}, apperrors.ErrStoreUnavailable(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Message{}, apperrors.ErrStoreUnavailable(err)
	}
	return model.Message{
		ID:           uint64(id),
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
		SentAt:       now,
	}, nil
}

// GetByID fetches a message expanded with the sender and recipient
// profiles (never their hashes).
func (r *MessageRepo) GetByID(ctx context.Context, id uint64) (model.MessageDetail, error) {
	const q = `SELECT m.id, m.from_username, m.to_username, m.body, m.sent_at, m.read_at,
		f.username, f.first_name, f.last_name, f.phone,
		t.username, t.first_name, t.last_name, t.phone
		FROM messages AS m
		JOIN users AS f ON f.username = m.from_username
		JOIN users AS t ON t.username = m.to_username
		WHERE m.id = ? LIMIT 1`

	var (
		d      model.MessageDetail
		readAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.FromUsername, &d.ToUsername, &d.Body, &d.SentAt, &readAt,
		&d.From.Username, &d.From.FirstName, &d.From.LastName, &d.From.Phone,
		&d.To.Username, &d.To.FirstName, &d.To.LastName, &d.To.Phone)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.MessageDetail{}, apperrors.ErrMessageNotFound
		}
		return model.MessageDetail{}, apperrors.ErrStoreUnavailable(err)
	}
	if readAt.Valid {
		t := readAt.Time
		d.ReadAt = &t
	}
	return d, nil
}

// MarkRead stamps read_at and returns the stored value. The update is
// fenced on read_at IS NULL, so the first call wins and repeat calls return
// the original timestamp instead of re-stamping it.
func (r *MessageRepo) MarkRead(ctx context.Context, id uint64) (time.Time, error) {
	now := time.Now().UTC().Truncate(time.Second)
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE messages SET read_at=? WHERE id=? AND read_at IS NULL",
		now, id); err != nil {
		return time.Time{}, apperrors.ErrStoreUnavailable(err)
	}

	var readAt sql.NullTime
	err := r.DB.QueryRowContext(ctx,
		"SELECT read_at FROM messages WHERE id=? LIMIT 1", id).Scan(&readAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, apperrors.ErrMessageNotFound
		}
		return time.Time{}, apperrors.ErrStoreUnavailable(err)
	}
	if !readAt.Valid {
		// unreachable unless the row vanished between the two statements
		return time.Time{}, apperrors.ErrMessageNotFound
	}
	return readAt.Time, nil
}

// isForeignKeyViolation detects MySQL error 1452 (FK constraint fails on insert).
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1452")
}
