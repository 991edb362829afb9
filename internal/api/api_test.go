package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/reactimer/internal/api"
	"github.com/mcoot/reactimer/internal/api/response"
	"github.com/mcoot/reactimer/internal/dependencies/mocks"
	"github.com/mcoot/reactimer/internal/factory"
	"github.com/mcoot/reactimer/internal/model"
	"github.com/mcoot/reactimer/internal/services/scores"
	"github.com/mcoot/reactimer/internal/session"
	"github.com/mcoot/reactimer/internal/storage/memory"
	"github.com/mcoot/reactimer/internal/testutil"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.App
	clock   *mocks.MockClock
}

func newTestServer(t *testing.T, opts ...func(*api.RouterConfig)) *testServer {
	t.Helper()

	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	app, err := factory.New(context.Background(), factory.Config{
		Logger:        testutil.NopLogger(),
		Clock:         clk,
		SessionSecret: []byte("api-test-secret-api-test-secret-"),
		BcryptCost:    bcrypt.MinCost,
	})
	require.NoError(t, err)

	cfg := api.RouterConfig{
		Logger:       app.Logger,
		AuthService:  app.AuthService,
		ScoreService: app.ScoreService,
		Sessions:     app.Sessions,
		Backend:      app.Storage,
		Metrics:      app.Metrics,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &testServer{handler: api.NewRouter(cfg), app: app, clock: clk}
}

// request sends body as JSON; a string body is sent verbatim as text/plain
func (ts *testServer) request(method, path string, body any, cookie string) *httptest.ResponseRecorder {
	var reqBody io.Reader = http.NoBody
	contentType := "application/json"
	switch b := body.(type) {
	case nil:
	case string:
		reqBody = strings.NewReader(b)
		contentType = "text/plain"
	default:
		raw, _ := json.Marshal(b)
		reqBody = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", contentType)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookie})
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// login upserts credentials and returns the session cookie value
func (ts *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	rr := ts.request(http.MethodPost, "/auth/upsert", map[string]string{"username": username, "password": password}, "")
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, rr.Code, rr.Body.String())
	c := sessionCookie(rr)
	require.NotNil(t, c)
	return c.Value
}

// submit saves a score one millisecond after the previous one
func (ts *testServer) submit(t *testing.T, cookie, name string, timeMs float64) response.MutationResponse {
	t.Helper()
	ts.clock.Advance(time.Millisecond)
	rr := ts.request(http.MethodPost, "/submit", map[string]any{"yourName": name, "timeMs": timeMs}, cookie)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decode[response.MutationResponse](t, rr)
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body.Error
}

// Operational endpoints

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

type downBackend struct{}

func (downBackend) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthCheckBackendDown(t *testing.T) {
	ts := newTestServer(t, func(cfg *api.RouterConfig) { cfg.Backend = downBackend{} })

	rr := ts.request(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rr.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.request(http.MethodGet, "/health", nil, "")

	rr := ts.request(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `reactimer_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/me", nil, "")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

// Auth

func TestUpsertRegistersThenLogsIn(t *testing.T) {
	ts := newTestServer(t)
	creds := map[string]string{"username": "  Alice ", "password": "secret123"}

	rr := ts.request(http.MethodPost, "/auth/upsert", creds, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	reg := decode[response.AuthResponse](t, rr)
	assert.True(t, reg.OK)
	assert.Equal(t, "register", reg.Mode)
	assert.Equal(t, "alice", reg.Username)
	assert.Equal(t, response.RegisterNote, reg.Note)

	c := sessionCookie(rr)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	rr = ts.request(http.MethodPost, "/auth/upsert", creds, "")
	require.Equal(t, http.StatusOK, rr.Code)
	login := decode[response.AuthResponse](t, rr)
	assert.Equal(t, "login", login.Mode)
	assert.Empty(t, login.Note)
	assert.NotNil(t, sessionCookie(rr))
}

func TestUpsertWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "alice", "secret123")

	rr := ts.request(http.MethodPost, "/auth/upsert", map[string]string{"username": "alice", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "invalid_credentials", errorCode(t, rr))
	assert.Nil(t, sessionCookie(rr))
}

func TestUpsertEmptyUsername(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/auth/upsert", map[string]string{"username": "  ", "password": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_username", errorCode(t, rr))
}

func TestUpsertMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/auth/upsert", "{not json", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_request", errorCode(t, rr))
}

func TestUpsertAcceptsTextPlainJSON(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/auth/upsert", `{"username":"bob","password":"pw"}`, "")
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestMe(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/me", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"user":null}`, rr.Body.String())

	cookie := ts.login(t, "alice", "pw")
	rr = ts.request(http.MethodGet, "/me", nil, cookie)
	assert.JSONEq(t, `{"user":{"username":"alice"}}`, rr.Body.String())

	rr = ts.request(http.MethodGet, "/me", nil, cookie+"x")
	assert.JSONEq(t, `{"user":null}`, rr.Body.String())
}

func TestLogoutClearsCookie(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t, "alice", "pw")

	rr := ts.request(http.MethodPost, "/auth/logout", nil, cookie)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())

	c := sessionCookie(rr)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.Less(t, c.MaxAge, 0)

	// Idempotent without a session
	rr = ts.request(http.MethodPost, "/auth/logout", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

// Session gate

func TestScoreRoutesRequireSession(t *testing.T) {
	ts := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/highscores"},
		{http.MethodPost, "/submit"},
		{http.MethodPost, "/rename"},
		{http.MethodPost, "/delete"},
	} {
		rr := ts.request(route.method, route.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, route.path)
		assert.Equal(t, "auth_required", errorCode(t, rr), route.path)
	}
}

func TestTamperedCookieRejected(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t, "alice", "pw")

	i := len(cookie) / 2
	flipped := byte('A')
	if cookie[i] == 'A' {
		flipped = 'B'
	}
	tampered := cookie[:i] + string(flipped) + cookie[i+1:]

	rr := ts.request(http.MethodGet, "/highscores", nil, tampered)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "auth_required", errorCode(t, rr))
}

func TestExpiredSessionRejected(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t, "alice", "pw")

	ts.clock.Advance(24 * time.Hour)

	rr := ts.request(http.MethodGet, "/highscores", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// Scores

func TestHighscoresEmpty(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t, "alice", "pw")

	rr := ts.request(http.MethodGet, "/highscores", nil, cookie)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"entries":[]}`, rr.Body.String())
}

func TestSubmitReturnsRankedEntries(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t, "alice", "pw")

	ts.submit(t, cookie, "slow", 900)
	resp := ts.submit(t, cookie, "fast", 100)

	assert.True(t, resp.OK)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "fast", resp.Entries[0].Name)
	assert.Equal(t, int64(100), resp.Entries[0].TimeMs)
	assert.Equal(t, int64(98), resp.Entries[0].Score)
	assert.Equal(t, ts.clock.Now().UnixMilli(), resp.Entries[0].Ts)
	assert.Equal(t, "slow", resp.Entries[1].Name)

	rr := ts.request(http.MethodGet, "/highscores", nil, cookie)
	list := decode[response.EntriesResponse](t, rr)
	assert.Equal(t, resp.Entries, list.Entries)
}

func TestSubmitDefaultsAndNegativeScore(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t, "alice", "pw")

	resp := ts.submit(t, cookie, "", 6000)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "Anonymous", resp.Entries[0].Name)
	assert.Equal(t, int64(-20), resp.Entries[0].Score)
}

func TestSubmitAcceptsNumericString(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t, "alice", "pw")

	rr := ts.request(http.MethodPost, "/submit", map[string]any{"yourName": "s", "timeMs": "250"}, cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[response.MutationResponse](t, rr)
	assert.Equal(t, int64(250), resp.Entries[0].TimeMs)
}

func TestSubmitInvalidTime(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t, "alice", "pw")

	for _, body := range []map[string]any{
		{"yourName": "x", "timeMs": -1},
		{"yourName": "x", "timeMs": "soon"},
		{"yourName": "x"},
	} {
		rr := ts.request(http.MethodPost, "/submit", body, cookie)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "invalid_time_ms", errorCode(t, rr))
	}
}

func TestSubmitSameMillisecondConflicts(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t, "alice", "pw")
	ts.submit(t, cookie, "first", 100)

	rr := ts.request(http.MethodPost, "/submit", map[string]any{"yourName": "second", "timeMs": 200}, cookie)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "conflict", errorCode(t, rr))
}

func TestRename(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t, "alice", "pw")
	id := ts.submit(t, cookie, "old", 100).Entries[0].Ts

	rr := ts.request(http.MethodPost, "/rename", map[string]any{"id": id, "yourName": " new "}, cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[response.MutationResponse](t, rr)
	assert.Equal(t, "new", resp.Entries[0].Name)
}

func TestRenameValidation(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t, "alice", "pw")
	id := ts.submit(t, cookie, "old", 100).Entries[0].Ts

	rr := ts.request(http.MethodPost, "/rename", map[string]any{"id": id, "yourName": "  "}, cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "name_required", errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/rename", map[string]any{"id": "abc", "yourName": "n"}, cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_id", errorCode(t, rr))
}

func TestDelete(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t, "alice", "pw")
	ts.submit(t, cookie, "keep", 100)
	id := ts.submit(t, cookie, "drop", 200).Entries[1].Ts

	rr := ts.request(http.MethodPost, "/delete", map[string]any{"id": id}, cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[response.MutationResponse](t, rr)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "keep", resp.Entries[0].Name)

	rr = ts.request(http.MethodPost, "/delete", map[string]any{}, cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_id", errorCode(t, rr))
}

func TestOtherUsersRecordsAreUntouchable(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.login(t, "alice", "pw")
	mallory := ts.login(t, "mallory", "pw")
	id := ts.submit(t, alice, "mine", 100).Entries[0].Ts

	rr := ts.request(http.MethodPost, "/rename", map[string]any{"id": id, "yourName": "pwned"}, mallory)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true,"entries":[]}`, rr.Body.String())

	rr = ts.request(http.MethodPost, "/delete", map[string]any{"id": id}, mallory)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/highscores", nil, alice)
	list := decode[response.EntriesResponse](t, rr)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "mine", list.Entries[0].Name)
}

// Failures

type brokenStorage struct {
	*memory.Storage
}

func (brokenStorage) ListScores(context.Context, string) ([]model.ScoreRecord, error) {
	return nil, errors.New("read timeout")
}

func TestStorageFailureUsesOperationCode(t *testing.T) {
	ts := newTestServer(t, func(cfg *api.RouterConfig) {
		cfg.ScoreService = scores.New(brokenStorage{memory.New()}, mocks.NewMockClock(time.Now()))
	})
	cookie := ts.login(t, "alice", "pw")

	rr := ts.request(http.MethodGet, "/highscores", nil, cookie)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "db_read_failed", errorCode(t, rr))
	assert.NotContains(t, rr.Body.String(), "read timeout")
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, func(cfg *api.RouterConfig) { cfg.CORSOrigins = []string{"http://game.test"} })

	req := httptest.NewRequest(http.MethodOptions, "/submit", nil)
	req.Header.Set("Origin", "http://game.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, "http://game.test", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}
