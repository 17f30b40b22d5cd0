package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Lsoni680/ai-chatbot-new/internal/api"
	"github.com/Lsoni680/ai-chatbot-new/internal/api/handler"
	"github.com/Lsoni680/ai-chatbot-new/internal/config"
	"github.com/Lsoni680/ai-chatbot-new/internal/llm"
	"github.com/Lsoni680/ai-chatbot-new/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway emits fragments and optionally fails at a given index
type fakeGateway struct {
	mu        sync.Mutex
	fragments []string
	failAt    int
	calls     int
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) Complete(ctx context.Context, system, user string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.failAt >= 0 {
		return "", llm.Upstreamf("fake", "down")
	}
	return strings.Join(g.fragments, ""), nil
}

func (g *fakeGateway) Stream(ctx context.Context, system, user string) (llm.Stream, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.failAt == 0 {
		return nil, llm.Upstreamf("fake", "unreachable")
	}
	return &fakeStream{fragments: g.fragments, failAt: g.failAt}, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeStream struct {
	fragments []string
	failAt    int
	next      int
}

func (s *fakeStream) Next() (string, error) {
	if s.failAt > 0 && s.next == s.failAt {
		return "", llm.Upstreamf("fake", "connection reset")
	}
	if s.next >= len(s.fragments) {
		return "", io.EOF
	}
	f := s.fragments[s.next]
	s.next++
	return f, nil
}

func (s *fakeStream) Close() error { return nil }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   any             `json:"error"`
}

type testServer struct {
	*httptest.Server
	gateway *fakeGateway
}

func newTestServer(t *testing.T, gateway *fakeGateway) *testServer {
	t.Helper()
	cfg := &config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour, BcryptCost: 4},
		LLM:  config.LLMConfig{RequestTimeout: 5 * time.Second},
	}
	srv := httptest.NewServer(api.NewRouter(cfg, memory.NewUserRepository(), gateway))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, gateway: gateway}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func (s *testServer) registerAndLogin(t *testing.T, identifier, secret string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"identifier": identifier, "secret": secret})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"identifier": identifier, "secret": secret})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func (s *testServer) history(t *testing.T, token string) []map[string]any {
	t.Helper()
	resp := s.do(t, http.MethodGet, "/api/v1/history", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &items))
	return items
}

func TestRouter_RegisterLoginChatHistory(t *testing.T) {
	s := newTestServer(t, &fakeGateway{fragments: []string{"Hel", "lo", "!"}, failAt: -1})

	resp := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"identifier": "alice", "secret": "pw1"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	env := decode(t, resp)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"message":"registered"}`, string(env.Data))

	resp = s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"identifier": "alice", "secret": "other"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "user already exists", decode(t, resp).Error)

	resp = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"identifier": "alice", "secret": "pw1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &login))

	assert.Empty(t, s.history(t, login.Token))

	resp = s.do(t, http.MethodPost, "/api/v1/chat", login.Token, map[string]string{"message": "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Hello!", string(body))
	assert.Equal(t, "ok", resp.Trailer.Get(handler.StreamStatusTrailer))

	items := s.history(t, login.Token)
	require.Len(t, items, 1)
	assert.Equal(t, "hi", items[0]["prompt"])
	assert.Equal(t, "Hello!", items[0]["reply"])
}

func TestRouter_RegisterMissingFields(t *testing.T) {
	s := newTestServer(t, &fakeGateway{failAt: -1})

	for _, body := range []map[string]string{
		{"identifier": "alice"},
		{"secret": "pw"},
		{},
	} {
		resp := s.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "missing required fields", decode(t, resp).Error)
	}
}

func TestRouter_MultibyteSecretTooLong(t *testing.T) {
	s := newTestServer(t, &fakeGateway{failAt: -1})

	body := map[string]string{"identifier": "alice", "secret": strings.Repeat("é", 72)}
	resp := s.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "secret must be at most 72 bytes", decode(t, resp).Error)

	s.registerAndLogin(t, "bob", "pw1")
	resp = s.do(t, http.MethodPost, "/api/v1/auth/reset", "", map[string]string{"identifier": "bob", "newSecret": strings.Repeat("é", 72)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "secret must be at most 72 bytes", decode(t, resp).Error)
}

func TestRouter_LoginFailuresAreUniform(t *testing.T) {
	s := newTestServer(t, &fakeGateway{failAt: -1})
	s.registerAndLogin(t, "alice", "pw1")

	wrong := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"identifier": "alice", "secret": "nope"})
	unknown := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"identifier": "mallory", "secret": "pw1"})

	assert.Equal(t, http.StatusBadRequest, wrong.StatusCode)
	assert.Equal(t, wrong.StatusCode, unknown.StatusCode)
	assert.Equal(t, decode(t, wrong).Error, decode(t, unknown).Error)
}

func TestRouter_ProtectedRoutes(t *testing.T) {
	s := newTestServer(t, &fakeGateway{failAt: -1})

	resp := s.do(t, http.MethodGet, "/api/v1/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "no token provided", decode(t, resp).Error)

	resp = s.do(t, http.MethodGet, "/api/v1/history", "not.a.token", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/v1/chat", "", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, s.gateway.callCount())
}

func TestRouter_ChatMissingMessage(t *testing.T) {
	s := newTestServer(t, &fakeGateway{fragments: []string{"x"}, failAt: -1})
	token := s.registerAndLogin(t, "alice", "pw1")

	for _, body := range []any{map[string]string{"message": ""}, map[string]string{"message": "  "}, map[string]string{}} {
		resp := s.do(t, http.MethodPost, "/api/v1/chat", token, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "no message received", decode(t, resp).Error)
	}

	assert.Zero(t, s.gateway.callCount())
}

func TestRouter_ChatBodyTooLarge(t *testing.T) {
	s := newTestServer(t, &fakeGateway{fragments: []string{"x"}, failAt: -1})
	token := s.registerAndLogin(t, "alice", "pw1")

	body := map[string]string{"message": strings.Repeat("a", 1<<20)}
	for _, path := range []string{"/api/v1/chat", "/api/v1/chat/complete"} {
		resp := s.do(t, http.MethodPost, path, token, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "invalid request body", decode(t, resp).Error)
	}

	assert.Zero(t, s.gateway.callCount())
}

func TestRouter_ChatUpstreamUnavailable(t *testing.T) {
	s := newTestServer(t, &fakeGateway{failAt: 0})
	token := s.registerAndLogin(t, "alice", "pw1")

	resp := s.do(t, http.MethodPost, "/api/v1/chat", token, map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "AI service unavailable", decode(t, resp).Error)

	assert.Empty(t, s.history(t, token))
}

func TestRouter_ChatFailsMidStream(t *testing.T) {
	s := newTestServer(t, &fakeGateway{fragments: []string{"f1", "f2", "f3", "f4", "f5"}, failAt: 2})
	token := s.registerAndLogin(t, "alice", "pw1")

	resp := s.do(t, http.MethodPost, "/api/v1/chat", token, map[string]string{"message": "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "f1f2"+handler.StreamErrorMarker, string(body))
	assert.Equal(t, "error", resp.Trailer.Get(handler.StreamStatusTrailer))

	assert.Empty(t, s.history(t, token))
}

func TestRouter_ChatComplete(t *testing.T) {
	s := newTestServer(t, &fakeGateway{fragments: []string{"Hi ", "there"}, failAt: -1})
	token := s.registerAndLogin(t, "alice", "pw1")

	resp := s.do(t, http.MethodPost, "/api/v1/chat/complete", token, map[string]string{"message": "hello"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"reply":"Hi there"}`, string(decode(t, resp).Data))

	items := s.history(t, token)
	require.Len(t, items, 1)
	assert.Equal(t, "hello", items[0]["prompt"])
}

func TestRouter_ResetSecret(t *testing.T) {
	s := newTestServer(t, &fakeGateway{failAt: -1})
	s.registerAndLogin(t, "alice", "pw1")

	// Public route: no token is required
	resp := s.do(t, http.MethodPost, "/api/v1/auth/reset", "", map[string]string{"identifier": "alice", "newSecret": "pw2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"updated"}`, string(decode(t, resp).Data))

	resp = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"identifier": "alice", "secret": "pw2"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/v1/auth/reset", "", map[string]string{"identifier": "ghost", "newSecret": "pw2"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "user not found", decode(t, resp).Error)
}

func TestRouter_RootHealthReady(t *testing.T) {
	s := newTestServer(t, &fakeGateway{failAt: -1})

	resp := s.do(t, http.MethodGet, "/", "", nil)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Server is working!", string(body))

	resp = s.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.JSONEq(t, `{"status":"ok"}`, string(decode(t, resp).Data))

	resp = s.do(t, http.MethodGet, "/api/v1/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ready"}`, string(decode(t, resp).Data))
}

func TestRouter_CORS(t *testing.T) {
	s := newTestServer(t, &fakeGateway{failAt: -1})

	req, err := http.NewRequest(http.MethodGet, s.URL+"/api/v1/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
