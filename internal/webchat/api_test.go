// ABOUTME: Tests for the webchat REST API handlers
// ABOUTME: Verifies status codes, error envelopes and the submit flow through the bus

package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/parley/internal/bus"
	"github.com/2389/parley/internal/config"
	"github.com/2389/parley/internal/hub"
	"github.com/2389/parley/internal/store"
)

type testEnv struct {
	channel *Channel
	store   store.ChatStore
	hub     *hub.Hub
	bus     *bus.Bus
	cfg     *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.NewJSONStore(filepath.Join(t.TempDir(), "chats.json"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return newTestEnvWithStore(t, st)
}

func newTestEnvWithStore(t *testing.T, st store.ChatStore) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Stream.Heartbeat = 200 * time.Millisecond

	h := hub.NewHub(nil)
	b := bus.New(8)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testEnv{
		channel: NewChannel(cfg, st, h, b, logger),
		store:   st,
		hub:     h,
		bus:     b,
		cfg:     cfg,
	}
}

// serve routes a request through the channel's mux so path patterns and
// PathValue behave as in production.
func (env *testEnv) serve(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	env.channel.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope["error"]
}

func createChat(t *testing.T, env *testEnv, title string) store.ChatSummary {
	t.Helper()
	rec := env.serve(http.MethodPost, "/chats", `{"title":"`+title+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var summary store.ChatSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summary))
	return summary
}

func TestListChats_Empty(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(http.MethodGet, "/chats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	// An empty listing is a JSON array, not null
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestCreateChat(t *testing.T) {
	env := newTestEnv(t)

	summary := createChat(t, env, "Demo")
	assert.Len(t, summary.ID, 12)
	assert.Equal(t, "Demo", summary.Title)
	assert.False(t, summary.CreatedAt.IsZero())

	rec := env.serve(http.MethodGet, "/chats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []store.ChatSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, summary.ID, summaries[0].ID)
}

func TestCreateChat_ListsNewestFirst(t *testing.T) {
	env := newTestEnv(t)

	first := createChat(t, env, "first")
	second := createChat(t, env, "second")

	rec := env.serve(http.MethodGet, "/chats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []store.ChatSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, second.ID, summaries[0].ID)
	assert.Equal(t, first.ID, summaries[1].ID)
}

func TestCreateChat_EmptyTitle(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{`{"title":""}`, `{"title":"   "}`, `{}`} {
		rec := env.serve(http.MethodPost, "/chats", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "title is required", decodeError(t, rec))
	}
}

func TestCreateChat_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(http.MethodPost, "/chats", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON body", decodeError(t, rec))
}

func TestGetMessages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	summary := createChat(t, env, "greetings")
	require.NoError(t, env.store.Append(ctx, summary.ID, store.RoleUser, "hi"))
	require.NoError(t, env.store.Append(ctx, summary.ID, store.RoleAssistant, "hello"))

	rec := env.serve(http.MethodGet, "/chats/"+summary.ID+"/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var history []store.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&history))
	require.Len(t, history, 2)
	assert.Equal(t, store.Message{Role: store.RoleUser, Content: "hi"}, history[0])
	assert.Equal(t, store.Message{Role: store.RoleAssistant, Content: "hello"}, history[1])
}

func TestGetMessages_EmptyHistoryIsArray(t *testing.T) {
	env := newTestEnv(t)

	summary := createChat(t, env, "quiet")

	rec := env.serve(http.MethodGet, "/chats/"+summary.ID+"/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestGetMessages_UnknownChat(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(http.MethodGet, "/chats/nonexistent/messages", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "chat not found", decodeError(t, rec))
}

func TestPostMessage_Accepted(t *testing.T) {
	env := newTestEnv(t)

	summary := createChat(t, env, "Demo")

	rec := env.serve(http.MethodPost, "/chats/"+summary.ID+"/messages", `{"content":"hi"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "accepted", resp["status"])

	// Persisted before the request returned
	history, err := env.store.History(context.Background(), summary.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, store.Message{Role: store.RoleUser, Content: "hi"}, history[0])

	// Queued for the agent pipeline
	select {
	case msg := <-env.bus.Inbound():
		assert.Equal(t, bus.InboundMessage{Channel: "web", ChatID: summary.ID, Content: "hi"}, msg)
	case <-time.After(time.Second):
		t.Fatal("message never reached the bus")
	}
}

func TestPostMessage_EmptyContent(t *testing.T) {
	env := newTestEnv(t)

	summary := createChat(t, env, "Demo")

	for _, body := range []string{`{"content":""}`, `{"content":"  "}`, `{}`} {
		rec := env.serve(http.MethodPost, "/chats/"+summary.ID+"/messages", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "content is required", decodeError(t, rec))
	}

	// Nothing was stored
	history, err := env.store.History(context.Background(), summary.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPostMessage_UnknownChat(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(http.MethodPost, "/chats/nonexistent/messages", `{"content":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "chat not found", decodeError(t, rec))
}

// failingStore wraps a real store but fails every append.
type failingStore struct {
	store.ChatStore
	appendErr error
}

func (f *failingStore) Append(ctx context.Context, id string, role store.Role, content string) error {
	return f.appendErr
}

func TestPostMessage_StoreFailure(t *testing.T) {
	st, err := store.NewJSONStore(filepath.Join(t.TempDir(), "chats.json"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	env := newTestEnvWithStore(t, &failingStore{ChatStore: st, appendErr: errors.New("disk full")})

	summary := createChat(t, env, "Demo")

	rec := env.serve(http.MethodPost, "/chats/"+summary.ID+"/messages", `{"content":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeError(t, rec), "disk full")
}

func TestIndexPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<title>parley</title>")
}

func TestHelpPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(http.MethodGet, "/help", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1")
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rec := env.serve(http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
}
