package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/mflix-api/services/mflix-service/internal/model"
	"github.com/vasapolrittideah/mflix-api/services/mflix-service/internal/repository"
	"github.com/vasapolrittideah/mflix-api/shared/logger"
)

// --- fakes ---

type fakeUsers struct {
	users     map[string]*model.User
	addOK     bool
	addErr    error
	prefs     map[string]any
	deleteOK  bool
	getErr    error
	lastEmail string
}

func (f *fakeUsers) AddUser(_ context.Context, u *model.User) (bool, error) {
	if f.addErr != nil {
		return false, f.addErr
	}
	if f.addOK {
		f.users[u.Email] = u
	}
	return f.addOK, nil
}

func (f *fakeUsers) GetUser(_ context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.users[email], nil
}

func (f *fakeUsers) UpdateUserPreferences(_ context.Context, email string, p map[string]any) (bool, error) {
	if len(p) == 0 {
		return false, repository.ErrInvalidArgument
	}
	f.lastEmail = email
	f.prefs = p
	_, ok := f.users[email]
	return ok, nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, email string) (bool, error) {
	f.lastEmail = email
	return f.deleteOK, nil
}

type fakeSessions struct {
	byToken   map[string]string
	createOK  bool
	deleteOK  bool
	lastUser  string
	lastToken string
}

func (f *fakeSessions) CreateSession(_ context.Context, userID, jwt string) (bool, error) {
	f.lastUser, f.lastToken = userID, jwt
	return f.createOK, nil
}

func (f *fakeSessions) GetUserSession(context.Context, string) (*model.Session, error) {
	return nil, nil
}

func (f *fakeSessions) GetSessionByToken(_ context.Context, jwt string) (*model.Session, error) {
	userID, ok := f.byToken[jwt]
	if !ok {
		return nil, nil
	}
	return &model.Session{UserID: userID, JWT: jwt}, nil
}

func (f *fakeSessions) DeleteUserSessions(_ context.Context, userID string) (bool, error) {
	f.lastUser = userID
	return f.deleteOK, nil
}

type fakeComments struct {
	comments    map[string]*model.Comment
	added       *model.Comment
	critics     []model.Critic
	criticsErr  error
	userComment []model.Comment
}

func (f *fakeComments) GetComment(_ context.Context, id string) (*model.Comment, error) {
	return f.comments[id], nil
}

func (f *fakeComments) AddComment(_ context.Context, c *model.Comment) (*model.Comment, error) {
	f.added = c
	return c, nil
}

func (f *fakeComments) UpdateComment(_ context.Context, id, text, email string) (bool, error) {
	c, ok := f.comments[id]
	if !ok || c.Email != email {
		return false, nil
	}
	c.Text = text
	return true, nil
}

func (f *fakeComments) DeleteComment(_ context.Context, id, email string) (bool, error) {
	c, ok := f.comments[id]
	if !ok || c.Email != email {
		return false, nil
	}
	delete(f.comments, id)
	return true, nil
}

func (f *fakeComments) GetUserComments(context.Context, string) ([]model.Comment, error) {
	return f.userComment, nil
}

func (f *fakeComments) MostActiveCommenters(context.Context) ([]model.Critic, error) {
	return f.critics, f.criticsErr
}

// --- helpers ---

const aliceToken = "alice-token"

type testServer struct {
	handler  http.Handler
	users    *fakeUsers
	sessions *fakeSessions
	comments *fakeComments
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	users := &fakeUsers{users: map[string]*model.User{
		"alice@example.com": {Email: "alice@example.com", Name: "Alice"},
	}}
	sessions := &fakeSessions{byToken: map[string]string{aliceToken: "alice@example.com"}}
	comments := &fakeComments{comments: map[string]*model.Comment{
		"c1": {ID: "c1", Email: "alice@example.com", Text: "great"},
		"c2": {ID: "c2", Email: "bob@example.com", Text: "meh"},
	}}

	h := NewHandler(logger.Nop(), users, sessions, comments, "internal-key")
	h.newID = func() string { return "generated-id" }
	h.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	return &testServer{handler: h.Routes(nil), users: users, sessions: sessions, comments: comments}
}

func (s *testServer) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	return rec
}

// --- tests ---

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	t.Run("missing header", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/users/me", "", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/users/me", "", "nope")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("known token", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/users/me", "", aliceToken)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"email":"alice@example.com","name":"Alice"}`, rec.Body.String())
	})
}

func TestRegister(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		s := newTestServer(t)
		s.users.addOK = true

		rec := s.do(t, http.MethodPost, "/api/v1/users",
			`{"email":"bob@example.com","name":"Bob","password":"hash"}`, "")
		require.Equal(t, http.StatusCreated, rec.Code)
		require.NotContains(t, rec.Body.String(), "hash")
		require.Contains(t, s.users.users, "bob@example.com")
	})

	t.Run("duplicate email", func(t *testing.T) {
		s := newTestServer(t)
		s.users.addErr = repository.ErrDuplicateKey

		rec := s.do(t, http.MethodPost, "/api/v1/users",
			`{"email":"alice@example.com","name":"Alice","password":"hash"}`, "")
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("store rejected the write", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(t, http.MethodPost, "/api/v1/users",
			`{"email":"bob@example.com","name":"Bob","password":"hash"}`, "")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(t, http.MethodPost, "/api/v1/users", `{"email":"not-an-email"}`, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body struct {
			Fields map[string]string `json:"fields"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Contains(t, body.Fields, "email")
		require.Contains(t, body.Fields, "name")
		require.Contains(t, body.Fields, "password")
	})
}

func TestPreferences(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(t, http.MethodPut, "/api/v1/users/me/preferences", `{"preferences":{"theme":"dark","volume":7}}`, aliceToken)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "alice@example.com", s.users.lastEmail)
		require.Equal(t, "dark", s.users.prefs["theme"])
	})

	t.Run("empty map is rejected", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(t, http.MethodPut, "/api/v1/users/me/preferences", `{"preferences":{}}`, aliceToken)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Nil(t, s.users.prefs)
	})
}

func TestDeleteCurrentUser(t *testing.T) {
	s := newTestServer(t)
	s.users.deleteOK = true

	rec := s.do(t, http.MethodDelete, "/api/v1/users/me", "", aliceToken)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "alice@example.com", s.users.lastEmail)

	s.users.deleteOK = false
	rec = s.do(t, http.MethodDelete, "/api/v1/users/me", "", aliceToken)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessions(t *testing.T) {
	t.Run("internal key is required", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(t, http.MethodPost, "/internal/v1/sessions", `{"email":"bob@example.com","token":"t"}`, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Empty(t, s.sessions.lastUser)
	})

	t.Run("create session", func(t *testing.T) {
		s := newTestServer(t)
		s.sessions.createOK = true

		req := httptest.NewRequest(http.MethodPost, "/internal/v1/sessions",
			strings.NewReader(`{"email":"bob@example.com","token":"t"}`))
		req.Header.Set(internalAPIKeyHeader, "internal-key")
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "bob@example.com", s.sessions.lastUser)
		require.Equal(t, "t", s.sessions.lastToken)
	})

	t.Run("token already in use", func(t *testing.T) {
		s := newTestServer(t)

		req := httptest.NewRequest(http.MethodPost, "/internal/v1/sessions",
			strings.NewReader(`{"email":"bob@example.com","token":"alice-token"}`))
		req.Header.Set(internalAPIKeyHeader, "internal-key")
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("logout", func(t *testing.T) {
		s := newTestServer(t)
		s.sessions.deleteOK = true

		rec := s.do(t, http.MethodDelete, "/api/v1/sessions/me", "", aliceToken)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "alice@example.com", s.sessions.lastUser)
	})
}

func TestComments(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(t, http.MethodGet, "/api/v1/comments/c1", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"text":"great"`)

		rec = s.do(t, http.MethodGet, "/api/v1/comments/missing", "", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("add stamps id owner and date", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(t, http.MethodPost, "/api/v1/comments",
			`{"movie_id":"573a1390f29313caabcd4135","text":"loved it"}`, aliceToken)
		require.Equal(t, http.StatusCreated, rec.Code)

		added := s.comments.added
		require.NotNil(t, added)
		require.Equal(t, "generated-id", added.ID)
		require.Equal(t, "alice@example.com", added.Email)
		require.Equal(t, "Alice", added.Name)
		require.Equal(t, "573a1390f29313caabcd4135", added.MovieID.Hex())
		require.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), added.Date)
	})

	t.Run("add rejects a malformed movie id", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(t, http.MethodPost, "/api/v1/comments", `{"movie_id":"xyz","text":"loved it"}`, aliceToken)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Nil(t, s.comments.added)
	})

	t.Run("owner can update", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(t, http.MethodPut, "/api/v1/comments/c1", `{"text":"edited"}`, aliceToken)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "edited", s.comments.comments["c1"].Text)
	})

	t.Run("other users cannot update or delete", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(t, http.MethodPut, "/api/v1/comments/c2", `{"text":"edited"}`, aliceToken)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "meh", s.comments.comments["c2"].Text)

		rec = s.do(t, http.MethodDelete, "/api/v1/comments/c2", "", aliceToken)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Contains(t, s.comments.comments, "c2")
	})

	t.Run("owner can delete", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(t, http.MethodDelete, "/api/v1/comments/c1", "", aliceToken)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.NotContains(t, s.comments.comments, "c1")
	})

	t.Run("current user comments", func(t *testing.T) {
		s := newTestServer(t)
		s.comments.userComment = []model.Comment{{ID: "c1", Email: "alice@example.com", Text: "great"}}

		rec := s.do(t, http.MethodGet, "/api/v1/users/me/comments", "", aliceToken)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"id":"c1"`)
	})
}

func TestMostActiveCommenters(t *testing.T) {
	t.Run("report", func(t *testing.T) {
		s := newTestServer(t)
		s.comments.critics = []model.Critic{
			{Email: "a@example.com", CommentCount: 5},
			{Email: "b@example.com", CommentCount: 3},
		}

		rec := s.do(t, http.MethodGet, "/api/v1/reports/critics", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"critics":[
			{"email":"a@example.com","comment_count":5},
			{"email":"b@example.com","comment_count":3}
		]}`, rec.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		s := newTestServer(t)
		s.comments.criticsErr = errors.Join(repository.ErrStore, errors.New("boom"))

		rec := s.do(t, http.MethodGet, "/api/v1/reports/critics", "", "")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
