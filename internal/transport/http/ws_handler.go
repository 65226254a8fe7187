package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"group-quiz-bot/internal/app"
	"group-quiz-bot/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Engine is the slice of app.Engine the websocket handler drives.
type Engine interface {
	OnStartRequested(ctx context.Context, req app.StartRequest) error
	OnAnswerSubmitted(ctx context.Context, sub app.AnswerSubmission) (domain.AnswerResult, error)
	OnPoll(ctx context.Context) int
	ShowLeaderboard(ctx context.Context, conversation string) error
	ResetScores(ctx context.Context, req app.ControlRequest) error
	StopSession(ctx context.Context, req app.ControlRequest) error
	Leaderboard(ctx context.Context, conversation string) (domain.Leaderboard, error)
}

type WSHandler struct {
	engine   Engine
	hub      *Hub
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewWSHandler(engine Engine, hub *Hub, log *slog.Logger) *WSHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WSHandler{
		engine: engine,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Size string `json:"size"`
}

type answerPayload struct {
	Option  json.RawMessage `json:"option"`
	EventID string          `json:"eventId"`
}

// option returns the selected index, or -1 when it is missing or not an
// integer so the engine rejects it as a malformed selection.
func (p answerPayload) option() int {
	var n int
	if err := json.Unmarshal(p.Option, &n); err != nil {
		return -1
	}
	return n
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and joins the caller to the
// conversation room.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conversation := r.URL.Query().Get("conversation")
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if conversation == "" || userID == "" || displayName == "" {
		http.Error(w, "missing conversation, userId, or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	participant := domain.Participant{ID: userID, DisplayName: displayName}
	c := h.hub.join(conversation, participant)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Warn("ws write error", "conversation", conversation, "error", err)
				// keep draining so the hub never blocks on this client
				for range c.send {
				}
				return
			}
		}
	}()

	h.hub.reply(c, outboundMessage{Type: "joined", Payload: messagePayload{
		Conversation: conversation,
		Participant:  userID,
		Text:         "welcome " + displayName,
	}})

	ctx := r.Context()
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.engine.OnPoll(ctx)
		h.dispatch(ctx, c, inbound)
	}

	h.hub.leave(c)
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, c *client, inbound inboundMessage) {
	control := app.ControlRequest{Conversation: c.conversation, Actor: c.participant}
	switch inbound.Type {
	case "start":
		var payload startPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.hub.reply(c, outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid start payload"}})
				return
			}
		}
		_ = h.engine.OnStartRequested(ctx, app.StartRequest{
			Conversation: c.conversation,
			Actor:        c.participant,
			Size:         domain.ParseSizeClass(payload.Size),
		})
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.hub.reply(c, outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
			return
		}
		if payload.EventID == "" {
			payload.EventID = uuid.NewString()
		}
		h.hub.expect(payload.EventID, c)
		defer h.hub.forget(payload.EventID)
		_, _ = h.engine.OnAnswerSubmitted(ctx, app.AnswerSubmission{
			Conversation: c.conversation,
			Participant:  c.participant,
			EventID:      payload.EventID,
			Option:       payload.option(),
		})
	case "leaderboard":
		_ = h.engine.ShowLeaderboard(ctx, c.conversation)
	case "reset":
		_ = h.engine.ResetScores(ctx, control)
	case "stop":
		_ = h.engine.StopSession(ctx, control)
	default:
		h.hub.reply(c, outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
	}
}
