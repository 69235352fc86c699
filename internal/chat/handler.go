package chat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/medibook/clinic-booking/pkg/logging"
	"golang.org/x/net/websocket"
)

const historyLimit = 100

// InboundMessage is what the widget sends over the socket.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what the widget receives.
type OutboundMessage struct {
	Type      string    `json:"type"` // "session", "message", "history", "pong", "error"
	Text      string    `json:"text,omitempty"`
	Topic     string    `json:"topic,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Messages  []Message `json:"messages,omitempty"`
}

// Handler serves the assistant over HTTP and websocket.
type Handler struct {
	engine     *Engine
	transcript TranscriptStore
	logger     *logging.Logger
	now        func() time.Time
}

// NewHandler creates a chat handler. A nil transcript disables history.
func NewHandler(engine *Engine, transcript TranscriptStore, logger *logging.Logger) *Handler {
	if engine == nil {
		engine = NewEngine(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, transcript: transcript, logger: logger, now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/message", h.HandleMessage)
	r.Get("/chat/ws", h.HandleWebSocket)
	r.Get("/chat/history", h.HandleHistory)
}

func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// respond answers text and records both sides of the exchange.
func (h *Handler) respond(ctx context.Context, sessionID, text string) (string, string) {
	topic, reply := h.engine.Reply(text)
	if h.transcript != nil {
		now := h.now().UTC()
		err := h.transcript.Append(ctx, sessionID,
			Message{Role: "user", Text: text, Timestamp: now},
			Message{Role: "assistant", Text: reply, Topic: topic, Timestamp: now},
		)
		if err != nil {
			h.logger.Warn("chat: failed to store transcript", "session_id", sessionID, "error", err)
		}
	}
	return topic, reply
}

// HandleMessage answers a single message over plain HTTP.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = generateSessionID()
	}

	topic, reply := h.respond(r.Context(), req.SessionID, req.Text)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"session_id": req.SessionID,
		"topic":      topic,
		"reply":      reply,
	})
}

// HandleWebSocket greets the client and replies to each inbound message.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()
	sessionID := r.URL.Query().Get("session")
	resumed := sessionID != ""
	if !resumed {
		sessionID = generateSessionID()
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})

	if resumed && h.transcript != nil {
		if msgs, err := h.transcript.List(ctx, sessionID, 50); err == nil && len(msgs) > 0 {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: msgs})
		}
	}
	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "message", Text: Greeting})

	h.logger.Debug("chat: connection opened", "session_id", sessionID)
	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("chat: connection closed", "session_id", sessionID, "error", err)
			return
		}
		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}
		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}
		topic, reply := h.respond(ctx, sessionID, msg.Text)
		if err := websocket.JSON.Send(conn, OutboundMessage{Type: "message", Text: reply, Topic: topic}); err != nil {
			return
		}
	}
}

// HandleHistory returns the stored transcript for a session.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	msgs := []Message{}
	if h.transcript != nil {
		stored, err := h.transcript.List(r.Context(), sessionID, historyLimit)
		if err != nil {
			h.logger.Error("chat: failed to load history", "error", err)
			http.Error(w, "failed to load history", http.StatusInternalServerError)
			return
		}
		msgs = append(msgs, stored...)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"messages": msgs})
}
