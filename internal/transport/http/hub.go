package http

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"group-quiz-bot/internal/domain"
)

const sendBuffer = 32

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type messagePayload struct {
	Conversation string   `json:"conversation"`
	Participant  string   `json:"participant,omitempty"`
	Text         string   `json:"text"`
	Choices      []string `json:"choices,omitempty"`
}

type ackPayload struct {
	EventID string `json:"eventId"`
	Text    string `json:"text"`
}

type client struct {
	conversation string
	participant  domain.Participant
	send         chan outboundMessage
}

// Hub fans engine output out to websocket clients grouped by conversation.
// It implements app.Transport. Sends never block: a client whose buffer is
// full misses the message.
type Hub struct {
	mu      sync.Mutex
	rooms   map[string]map[*client]struct{}
	pending map[string]*client
	log     *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		rooms:   make(map[string]map[*client]struct{}),
		pending: make(map[string]*client),
		log:     log,
	}
}

func (h *Hub) join(conversation string, participant domain.Participant) *client {
	c := &client{
		conversation: conversation,
		participant:  participant,
		send:         make(chan outboundMessage, sendBuffer),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[conversation]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[conversation] = room
	}
	room[c] = struct{}{}
	return c
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[c.conversation]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.conversation)
		}
	}
	for id, owner := range h.pending {
		if owner == c {
			delete(h.pending, id)
		}
	}
	close(c.send)
}

// expect routes the ack for eventID back to c.
func (h *Hub) expect(eventID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending[eventID] = c
}

func (h *Hub) forget(eventID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.pending, eventID)
}

// Emit delivers msg to the whole room, or only to the participant's
// connections for private messages.
func (h *Hub) Emit(_ context.Context, msg domain.Message) error {
	out := outboundMessage{
		Type: string(msg.Kind),
		Payload: messagePayload{
			Conversation: msg.Target.Conversation,
			Participant:  msg.Target.Participant,
			Text:         msg.Text,
			Choices:      msg.Choices,
		},
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[msg.Target.Conversation] {
		if msg.Target.Private() && c.participant.ID != msg.Target.Participant {
			continue
		}
		h.deliverLocked(c, out)
	}
	return nil
}

func (h *Hub) EmitAck(_ context.Context, eventID, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.pending[eventID]
	if !ok {
		return fmt.Errorf("ack %s: no waiting connection", eventID)
	}
	delete(h.pending, eventID)
	h.deliverLocked(c, outboundMessage{Type: "ack", Payload: ackPayload{EventID: eventID, Text: text}})
	return nil
}

func (h *Hub) deliverLocked(c *client, out outboundMessage) {
	select {
	case c.send <- out:
	default:
		h.log.Warn("ws client too slow, dropping message",
			"conversation", c.conversation, "participant", c.participant.ID, "type", out.Type)
	}
}

// reply sends directly to one client, bypassing the engine.
func (h *Hub) reply(c *client, out outboundMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliverLocked(c, out)
}
