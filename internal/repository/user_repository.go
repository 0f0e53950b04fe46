package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"messagely/internal/model"
	apperrors "messagely/pkg/errors"
)

// UserRepo is the credential store. It persists username -> password hash
// plus profile fields and performs no hashing itself; callers supply the
// bcrypt digest.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user row. join_at and last_login_at are both set to the
// same creation instant and written back onto u. The unique key on username
// is the arbiter of concurrent registrations: the loser gets
// ErrUsernameTaken, never a lost write.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC().Truncate(time.Second)
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, first_name, last_name, phone, join_at, last_login_at) VALUES (?,?,?,?,?,?,?)",
		u.Username, u.PasswordHash, u.FirstName, u.LastName, u.Phone, now, now)
	if err != nil {
		if isDuplicateKey(err) {
			return apperrors.ErrUsernameTaken
		}
		return apperrors.ErrStoreUnavailable(err)
	}
	u.JoinAt, u.LastLoginAt = now, now
	return nil
}

// GetByUsername fetches a full user row, hash included.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT username, password_hash, first_name, last_name, phone, join_at, last_login_at FROM users WHERE username=? LIMIT 1",
		username).Scan(&u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.JoinAt, &u.LastLoginAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, apperrors.ErrUserNotFound
		}
		return model.User{}, apperrors.ErrStoreUnavailable(err)
	}
	return u, nil
}

// UpdateLoginTimestamp stamps last_login_at. A zero row count means the
// username does not exist; since this runs only after a successful
// authenticate, that indicates a logic error upstream rather than bad input.
func (r *UserRepo) UpdateLoginTimestamp(ctx context.Context, username string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET last_login_at=? WHERE username=?",
		at.UTC(), username)
	if err != nil {
		return apperrors.ErrStoreUnavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.ErrStoreUnavailable(err)
	}
	if n == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// List returns the unordered roster of all users (no pagination).
func (r *UserRepo) List(ctx context.Context) ([]model.Summary, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT username, first_name, last_name FROM users")
	if err != nil {
		return nil, apperrors.ErrStoreUnavailable(err)
	}
	defer rows.Close()

	var out []model.Summary
	for rows.Next() {
		var s model.Summary
		if err := rows.Scan(&s.Username, &s.FirstName, &s.LastName); err != nil {
			return nil, apperrors.ErrStoreUnavailable(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.ErrStoreUnavailable(err)
	}
	return out, nil
}

// MessagesFrom returns every message sent by the user, each carrying the
// recipient's public profile.
func (r *UserRepo) MessagesFrom(ctx context.Context, username string) ([]model.UserMessage, error) {
	const q = `SELECT m.id, m.body, m.sent_at, m.read_at,
		u.username, u.first_name, u.last_name, u.phone
		FROM messages AS m JOIN users AS u ON u.username = m.to_username
		WHERE m.from_username = ?`
	return r.queryUserMessages(ctx, q, username)
}

// MessagesTo returns every message received by the user, each carrying the
// sender's public profile.
func (r *UserRepo) MessagesTo(ctx context.Context, username string) ([]model.UserMessage, error) {
	const q = `SELECT m.id, m.body, m.sent_at, m.read_at,
		u.username, u.first_name, u.last_name, u.phone
		FROM messages AS m JOIN users AS u ON u.username = m.from_username
		WHERE m.to_username = ?`
	return r.queryUserMessages(ctx, q, username)
}

func (r *UserRepo) queryUserMessages(ctx context.Context, q, username string) ([]model.UserMessage, error) {
	rows, err := r.DB.QueryContext(ctx, q, username)
	if err != nil {
		return nil, apperrors.ErrStoreUnavailable(err)
	}
	defer rows.Close()

	var out []model.UserMessage
	for rows.Next() {
		var (
			m      model.UserMessage
			readAt sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.Body, &m.SentAt, &readAt,
			&m.With.Username, &m.With.FirstName, &m.With.LastName, &m.With.Phone); err != nil {
			return nil, apperrors.ErrStoreUnavailable(err)
		}
		if readAt.Valid {
			t := readAt.Time
			m.ReadAt = &t
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.ErrStoreUnavailable(err)
	}
	return out, nil
}

// isDuplicateKey detects MySQL error 1062 (duplicate entry for a unique key).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
