package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"messagely/internal/config"
	"messagely/internal/handler"
	"messagely/internal/model"
	"messagely/internal/router"
	"messagely/internal/service"
	apperrors "messagely/pkg/errors"
)

// In-memory stores implementing service.UserStore and service.MessageStore,
// so the full register -> login -> send -> read flow runs through the real
// router, JWT middleware, handlers and services.

type memDB struct {
	mu     sync.Mutex
	users  map[string]model.User
	msgs   map[uint64]model.Message
	nextID uint64
}

func newMemDB() *memDB {
	return &memDB{users: map[string]model.User{}, msgs: map[uint64]model.Message{}}
}

type memUsers struct{ db *memDB }

func (s *memUsers) Create(ctx context.Context, u *model.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[u.Username]; ok {
		return apperrors.ErrUsernameTaken
	}
	now := time.Now().UTC().Truncate(time.Second)
	u.JoinAt, u.LastLoginAt = now, now
	s.db.users[u.Username] = *u
	return nil
}

func (s *memUsers) GetByUsername(ctx context.Context, username string) (model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[username]
	if !ok {
		return model.User{}, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (s *memUsers) UpdateLoginTimestamp(ctx context.Context, username string, at time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[username]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.LastLoginAt = at.UTC()
	s.db.users[username] = u
	return nil
}

func (s *memUsers) List(ctx context.Context) ([]model.Summary, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]model.Summary, 0, len(s.db.users))
	for _, u := range s.db.users {
		out = append(out, model.Summary{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName})
	}
	return out, nil
}

func (s *memUsers) MessagesFrom(ctx context.Context, username string) ([]model.UserMessage, error) {
	return s.listMessages(username, true), nil
}

func (s *memUsers) MessagesTo(ctx context.Context, username string) ([]model.UserMessage, error) {
	return s.listMessages(username, false), nil
}

func (s *memUsers) listMessages(username string, sent bool) []model.UserMessage {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.UserMessage{}
	for _, m := range s.db.msgs {
		var counterpart string
		switch {
		case sent && m.FromUsername == username:
			counterpart = m.ToUsername
		case !sent && m.ToUsername == username:
			counterpart = m.FromUsername
		default:
			continue
		}
		out = append(out, model.UserMessage{
			ID: m.ID, Body: m.Body, SentAt: m.SentAt, ReadAt: m.ReadAt,
			With: s.db.users[counterpart].Profile(),
		})
	}
	return out
}

type memMessages struct{ db *memDB }

func (s *memMessages) Create(ctx context.Context, from, to, body string) (model.Message, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.nextID++
	m := model.Message{
		ID:           s.db.nextID,
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
		SentAt:       time.Now().UTC().Truncate(time.Second),
	}
	s.db.msgs[m.ID] = m
	return m, nil
}

func (s *memMessages) GetByID(ctx context.Context, id uint64) (model.MessageDetail, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	m, ok := s.db.msgs[id]
	if !ok {
		return model.MessageDetail{}, apperrors.ErrMessageNotFound
	}
	return model.MessageDetail{
		Message: m,
		From:    s.db.users[m.FromUsername].Profile(),
		To:      s.db.users[m.ToUsername].Profile(),
	}, nil
}

func (s *memMessages) MarkRead(ctx context.Context, id uint64) (time.Time, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	m, ok := s.db.msgs[id]
	if !ok {
		return time.Time{}, apperrors.ErrMessageNotFound
	}
	if m.ReadAt == nil {
		now := time.Now().UTC().Truncate(time.Second)
		m.ReadAt = &now
		s.db.msgs[id] = m
	}
	return *m.ReadAt, nil
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	db := newMemDB()
	users := &memUsers{db: db}
	identity := service.NewIdentityService(users, bcrypt.MinCost)
	messages := service.NewMessageService(&memMessages{db: db}, users, nil)

	cfg := config.Config{JWTSecret: "test-secret", TokenTTLMin: 60, BcryptCost: bcrypt.MinCost}

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAPI(e,
		handler.NewAuthHandler(cfg, identity),
		handler.NewUserHandler(identity),
		handler.NewMessageHandler(messages),
		cfg.JWTSecret,
		nil,
	)
	return e
}

func doJSON(e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != nil {
		bs, _ := json.Marshal(body)
		reader = strings.NewReader(string(bs))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, e *echo.Echo, username string) string {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/register", "", map[string]string{
		"username":   username,
		"password":   "pw-" + username,
		"first_name": username,
		"last_name":  "Tester",
		"phone":      "+1555000",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestEndToEndMessageFlow(t *testing.T) {
	e := newTestServer(t)

	registerUser(t, e, "alice")
	bobToken := registerUser(t, e, "bob")
	carolToken := registerUser(t, e, "carol")

	// Login as alice to get a fresh token.
	rec := doJSON(e, http.MethodPost, "/login", "", map[string]string{"username": "alice", "password": "pw-alice"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	aliceToken := login.Token

	// Send alice -> bob.
	rec = doJSON(e, http.MethodPost, "/messages", aliceToken, map[string]string{
		"from_username": "alice", "to_username": "bob", "body": "hi",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Message struct {
			ID   uint64 `json:"id"`
			Body string `json:"body"`
		} `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created.Message.ID
	require.NotZero(t, id)

	msgPath := fmt.Sprintf("/messages/%d", id)

	// Bob sees the message unread.
	rec = doJSON(e, http.MethodGet, msgPath, bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var detail struct {
		Message struct {
			ReadAt   *time.Time `json:"read_at"`
			FromUser struct {
				Username string `json:"username"`
			} `json:"from_user"`
		} `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.Nil(t, detail.Message.ReadAt)
	require.Equal(t, "alice", detail.Message.FromUser.Username)

	// Carol is not a participant.
	rec = doJSON(e, http.MethodGet, msgPath, carolToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Alice may view but not mark read.
	rec = doJSON(e, http.MethodGet, msgPath, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(e, http.MethodPost, msgPath+"/read", aliceToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Bob marks it read.
	rec = doJSON(e, http.MethodPost, msgPath+"/read", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var marked struct {
		Message struct {
			ReadAt *time.Time `json:"read_at"`
		} `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &marked))
	require.NotNil(t, marked.Message.ReadAt)
	firstReadAt := *marked.Message.ReadAt

	// A repeat read call keeps the original timestamp.
	rec = doJSON(e, http.MethodPost, msgPath+"/read", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &marked))
	require.NotNil(t, marked.Message.ReadAt)
	require.True(t, marked.Message.ReadAt.Equal(firstReadAt))

	// Subsequent GETs show read_at set and unchanged.
	rec = doJSON(e, http.MethodGet, msgPath, bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.NotNil(t, detail.Message.ReadAt)
	require.True(t, detail.Message.ReadAt.Equal(firstReadAt))
}

func TestRegisterConflict(t *testing.T) {
	e := newTestServer(t)

	registerUser(t, e, "alice")

	rec := doJSON(e, http.MethodPost, "/register", "", map[string]string{
		"username": "alice", "password": "other", "first_name": "A", "last_name": "B", "phone": "+1",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	// An unrelated registration right after still succeeds.
	registerUser(t, e, "bob")
}

func TestLoginFailuresIndistinguishable(t *testing.T) {
	e := newTestServer(t)

	registerUser(t, e, "alice")

	wrongPw := doJSON(e, http.MethodPost, "/login", "", map[string]string{"username": "alice", "password": "nope"})
	noUser := doJSON(e, http.MethodPost, "/login", "", map[string]string{"username": "ghost", "password": "nope"})

	require.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	require.Equal(t, http.StatusUnauthorized, noUser.Code)
	// Identical observable responses: no user-existence oracle.
	require.Equal(t, wrongPw.Body.String(), noUser.Body.String())
}

func TestSendSpoofedSenderForbidden(t *testing.T) {
	e := newTestServer(t)

	registerUser(t, e, "alice")
	registerUser(t, e, "bob")
	carolToken := registerUser(t, e, "carol")

	rec := doJSON(e, http.MethodPost, "/messages", carolToken, map[string]string{
		"from_username": "alice", "to_username": "bob", "body": "spoofed",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSendToUnknownRecipient(t *testing.T) {
	e := newTestServer(t)

	aliceToken := registerUser(t, e, "alice")

	rec := doJSON(e, http.MethodPost, "/messages", aliceToken, map[string]string{
		"from_username": "alice", "to_username": "ghost", "body": "hi",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/messages/1", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodGet, "/users", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserRoutes(t *testing.T) {
	e := newTestServer(t)

	aliceToken := registerUser(t, e, "alice")
	bobToken := registerUser(t, e, "bob")

	// Roster is visible to any authenticated user.
	rec := doJSON(e, http.MethodGet, "/users", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var roster struct {
		Users []struct {
			Username string `json:"username"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roster))
	require.Len(t, roster.Users, 2)

	// Profiles and listings are self-only.
	rec = doJSON(e, http.MethodGet, "/users/bob", aliceToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = doJSON(e, http.MethodGet, "/users/alice", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Send a message and check both listings.
	rec = doJSON(e, http.MethodPost, "/messages", aliceToken, map[string]string{
		"from_username": "alice", "to_username": "bob", "body": "hello bob",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(e, http.MethodGet, "/users/alice/from", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sent struct {
		Messages []struct {
			Body   string `json:"body"`
			ToUser struct {
				Username string `json:"username"`
			} `json:"to_user"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sent))
	require.Len(t, sent.Messages, 1)
	require.Equal(t, "bob", sent.Messages[0].ToUser.Username)

	rec = doJSON(e, http.MethodGet, "/users/bob/to", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var received struct {
		Messages []struct {
			FromUser struct {
				Username string `json:"username"`
			} `json:"from_user"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &received))
	require.Len(t, received.Messages, 1)
	require.Equal(t, "alice", received.Messages[0].FromUser.Username)
}
