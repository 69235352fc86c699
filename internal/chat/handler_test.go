package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/medibook/clinic-booking/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

type memoryTranscript struct {
	mu    sync.Mutex
	store map[string][]Message
}

func newMemoryTranscript() *memoryTranscript {
	return &memoryTranscript{store: map[string][]Message{}}
}

func (m *memoryTranscript) Append(_ context.Context, id string, msgs ...Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[id] = append(m.store[id], msgs...)
	return nil
}

func (m *memoryTranscript) List(_ context.Context, id string, limit int64) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.store[id]
	if limit > 0 && int64(len(msgs)) > limit {
		msgs = msgs[int64(len(msgs))-limit:]
	}
	return append([]Message(nil), msgs...), nil
}

func TestHandleMessage(t *testing.T) {
	ts := newMemoryTranscript()
	h := NewHandler(nil, ts, logging.New("error"))

	req := httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(`{"session_id":"sess1","text":"Do you take insurance?"}`))
	w := httptest.NewRecorder()
	h.HandleMessage(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sess1", resp["session_id"])
	assert.Equal(t, "insurance", resp["topic"])
	assert.Contains(t, resp["reply"], "Blue Cross")

	msgs := ts.store["sess1"]
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)
}

func TestHandleMessage_Validation(t *testing.T) {
	h := NewHandler(nil, nil, logging.New("error"))
	for _, body := range []string{`{"text":"  "}`, `{`} {
		w := httptest.NewRecorder()
		h.HandleMessage(w, httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestHandleMessage_GeneratesSessionID(t *testing.T) {
	h := NewHandler(nil, nil, logging.New("error"))
	w := httptest.NewRecorder()
	h.HandleMessage(w, httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(`{"text":"hi"}`)))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp["session_id"], 32)
	assert.Equal(t, DefaultReply, resp["reply"])
}

func TestHandleHistory(t *testing.T) {
	ts := newMemoryTranscript()
	ts.store["sess1"] = []Message{{Role: "user", Text: "Hello"}, {Role: "assistant", Text: "Hi there!"}}
	h := NewHandler(nil, ts, logging.New("error"))

	w := httptest.NewRecorder()
	h.HandleHistory(w, httptest.NewRequest(http.MethodGet, "/chat/history?session=sess1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Messages []Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "Hi there!", resp.Messages[1].Text)
}

func TestHandleHistory_MissingSessionAndNoStore(t *testing.T) {
	h := NewHandler(nil, nil, logging.New("error"))

	w := httptest.NewRecorder()
	h.HandleHistory(w, httptest.NewRequest(http.MethodGet, "/chat/history", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.HandleHistory(w, httptest.NewRequest(http.MethodGet, "/chat/history?session=s", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"messages":[]}`, w.Body.String())
}

func TestWebSocketConversation(t *testing.T) {
	ts := newMemoryTranscript()
	r := chi.NewRouter()
	NewHandler(nil, ts, logging.New("error")).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)
	defer conn.Close()

	var out OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &out))
	assert.Equal(t, "session", out.Type)
	sessionID := out.SessionID
	require.NotEmpty(t, sessionID)

	require.NoError(t, websocket.JSON.Receive(conn, &out))
	assert.Equal(t, "message", out.Type)
	assert.Equal(t, Greeting, out.Text)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "ping"}))
	require.NoError(t, websocket.JSON.Receive(conn, &out))
	assert.Equal(t, "pong", out.Type)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "message", Text: "What are your hours?"}))
	out = OutboundMessage{}
	require.NoError(t, websocket.JSON.Receive(conn, &out))
	assert.Equal(t, "hours", out.Topic)
	assert.Contains(t, out.Text, "Monday to Friday")

	msgs, err := ts.List(context.Background(), sessionID, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}
