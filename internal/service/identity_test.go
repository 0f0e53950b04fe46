package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"messagely/internal/model"
	"messagely/internal/utils"
	apperrors "messagely/pkg/errors"
)

// fakeUserStore is a scriptable UserStore for service tests.
type fakeUserStore struct {
	created   *model.User
	createErr error

	getOut model.User
	getErr error

	stamped  string
	stampErr error

	listOut []model.Summary
	fromOut []model.UserMessage
	toOut   []model.UserMessage
}

func (f *fakeUserStore) Create(ctx context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	now := time.Now().UTC()
	u.JoinAt, u.LastLoginAt = now, now
	cp := *u
	f.created = &cp
	return nil
}

func (f *fakeUserStore) GetByUsername(ctx context.Context, username string) (model.User, error) {
	if f.getErr != nil {
		return model.User{}, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUserStore) UpdateLoginTimestamp(ctx context.Context, username string, at time.Time) error {
	if f.stampErr != nil {
		return f.stampErr
	}
	f.stamped = username
	return nil
}

func (f *fakeUserStore) List(ctx context.Context) ([]model.Summary, error) { return f.listOut, nil }
func (f *fakeUserStore) MessagesFrom(ctx context.Context, username string) ([]model.UserMessage, error) {
	return f.fromOut, nil
}
func (f *fakeUserStore) MessagesTo(ctx context.Context, username string) ([]model.UserMessage, error) {
	return f.toOut, nil
}

func TestRegister_HashesAndStripsPassword(t *testing.T) {
	t.Parallel()

	store := &fakeUserStore{}
	svc := NewIdentityService(store, bcrypt.MinCost)

	u, err := svc.Register(context.Background(), "alice", "pw", "Alice", "Anderson", "+155501")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if u.PasswordHash != "" {
		t.Fatal("register must never return the hash")
	}
	if store.created == nil {
		t.Fatal("user was not persisted")
	}
	if store.created.PasswordHash == "pw" || store.created.PasswordHash == "" {
		t.Fatalf("persisted password must be hashed, got %q", store.created.PasswordHash)
	}
	if !utils.VerifyPassword(store.created.PasswordHash, "pw") {
		t.Fatal("persisted hash should verify against the original password")
	}
	if u.JoinAt.IsZero() || !u.JoinAt.Equal(u.LastLoginAt) {
		t.Fatal("join_at and last_login_at should be set to the creation instant")
	}
}

func TestRegister_DuplicatePropagates(t *testing.T) {
	t.Parallel()

	store := &fakeUserStore{createErr: apperrors.ErrUsernameTaken}
	svc := NewIdentityService(store, bcrypt.MinCost)

	_, err := svc.Register(context.Background(), "alice", "pw", "Alice", "Anderson", "+155501")
	if !errors.Is(err, apperrors.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAuthenticate_Success(t *testing.T) {
	t.Parallel()

	hash, err := utils.HashPassword("pw", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	store := &fakeUserStore{getOut: model.User{Username: "alice", PasswordHash: hash}}
	svc := NewIdentityService(store, bcrypt.MinCost)

	ok, err := svc.Authenticate(context.Background(), "alice", "pw")
	if err != nil || !ok {
		t.Fatalf("Authenticate = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestAuthenticate_WrongPasswordAndMissingUserLookAlike(t *testing.T) {
	t.Parallel()

	hash, err := utils.HashPassword("pw", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	// Wrong password on an existing account.
	store := &fakeUserStore{getOut: model.User{Username: "alice", PasswordHash: hash}}
	svc := NewIdentityService(store, bcrypt.MinCost)
	okWrong, errWrong := svc.Authenticate(context.Background(), "alice", "nope")

	// Missing account: same observable result, no error.
	store2 := &fakeUserStore{getErr: apperrors.ErrUserNotFound}
	svc2 := NewIdentityService(store2, bcrypt.MinCost)
	okMissing, errMissing := svc2.Authenticate(context.Background(), "ghost", "nope")

	if okWrong || okMissing {
		t.Fatal("both failure cases must report false")
	}
	if errWrong != nil || errMissing != nil {
		t.Fatalf("both failure cases must be error-free: %v / %v", errWrong, errMissing)
	}
}

func TestAuthenticate_StoreFailureSurfaces(t *testing.T) {
	t.Parallel()

	store := &fakeUserStore{getErr: apperrors.ErrStoreUnavailable(errors.New("conn refused"))}
	svc := NewIdentityService(store, bcrypt.MinCost)

	_, err := svc.Authenticate(context.Background(), "alice", "pw")
	if apperrors.CodeOf(err) != apperrors.CodeUnavailable {
		t.Fatalf("expected UNAVAILABLE, got %v", err)
	}
}

func TestGet_StripsHash(t *testing.T) {
	t.Parallel()

	store := &fakeUserStore{getOut: model.User{Username: "alice", PasswordHash: "hash"}}
	svc := NewIdentityService(store, bcrypt.MinCost)

	u, err := svc.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if u.PasswordHash != "" {
		t.Fatal("Get must never expose the hash")
	}
}
