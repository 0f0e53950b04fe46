// Package service contains the business logic between the HTTP handlers and
// the repositories: identity (registration/authentication), message flow,
// and the access control decisions.
package service

import (
	"context"
	"errors"
	"time"

	"messagely/internal/model"
	"messagely/internal/utils"
	apperrors "messagely/pkg/errors"
)

// UserStore is the slice of the credential store the identity service
// needs. *repository.UserRepo implements it.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (model.User, error)
	UpdateLoginTimestamp(ctx context.Context, username string, at time.Time) error
	List(ctx context.Context) ([]model.Summary, error)
	MessagesFrom(ctx context.Context, username string) ([]model.UserMessage, error)
	MessagesTo(ctx context.Context, username string) ([]model.UserMessage, error)
}

// dummyHash is a bcrypt digest compared against when a login names an
// unknown user, so the missing-user path costs the same as a real
// mismatch and existence cannot be probed through timing.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// IdentityService registers accounts, authenticates credentials and reads
// profile/listing data. It is the only component that touches password
// hashes, and it never returns one.
type IdentityService struct {
	users UserStore
	cost  int // bcrypt work factor
}

func NewIdentityService(users UserStore, bcryptCost int) *IdentityService {
	return &IdentityService{users: users, cost: bcryptCost}
}

// Register hashes the password and persists a new account. join_at and
// last_login_at are both set to the creation instant by the store. The
// returned user has the hash blanked; duplicate usernames surface as
// ErrUsernameTaken from the store's unique key.
func (s *IdentityService) Register(ctx context.Context, username, password, firstName, lastName, phone string) (model.User, error) {
	hash, err := utils.HashPassword(password, s.cost)
	if err != nil {
		return model.User{}, apperrors.Wrap(apperrors.CodeInternal, "hash password", err)
	}
	u := model.User{
		Username:     username,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        phone,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return model.User{}, err
	}
	u.PasswordHash = "" // the hash never leaves the identity layer
	return u, nil
}

// Authenticate reports whether the username/password pair is valid. A
// missing account and a wrong password both return (false, nil) through
// the same code path; this is the sole gate for issuing tokens.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string) (bool, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			utils.VerifyPassword(dummyHash, password) // burn the same bcrypt cost
			return false, nil
		}
		return false, err
	}
	return utils.VerifyPassword(u.PasswordHash, password), nil
}

// UpdateLoginTimestamp stamps last_login_at = now. It is called after a
// successful Authenticate, so ErrUserNotFound here means a logic error
// upstream.
func (s *IdentityService) UpdateLoginTimestamp(ctx context.Context, username string) error {
	return s.users.UpdateLoginTimestamp(ctx, username, time.Now().UTC())
}

// Get returns the account for username with the hash blanked.
func (s *IdentityService) Get(ctx context.Context, username string) (model.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return model.User{}, err
	}
	u.PasswordHash = ""
	return u, nil
}

// List returns the unordered user roster.
func (s *IdentityService) List(ctx context.Context) ([]model.Summary, error) {
	return s.users.List(ctx)
}

// MessagesFrom lists messages the user sent, expanded with recipient profiles.
func (s *IdentityService) MessagesFrom(ctx context.Context, username string) ([]model.UserMessage, error) {
	if _, err := s.users.GetByUsername(ctx, username); err != nil {
		return nil, err
	}
	return s.users.MessagesFrom(ctx, username)
}

// MessagesTo lists messages the user received, expanded with sender profiles.
func (s *IdentityService) MessagesTo(ctx context.Context, username string) ([]model.UserMessage, error) {
	if _, err := s.users.GetByUsername(ctx, username); err != nil {
		return nil, err
	}
	return s.users.MessagesTo(ctx, username)
}
