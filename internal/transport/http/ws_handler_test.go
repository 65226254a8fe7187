package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"group-quiz-bot/internal/app"
	"group-quiz-bot/internal/domain"
	"group-quiz-bot/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketQuizFlow(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	conn := dial(t, server, "room-1", "u1", "Alice")
	defer conn.Close()
	readUntil(t, conn, "joined")

	if err := conn.WriteJSON(map[string]any{"type": "start", "payload": map[string]any{"size": "small"}}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	question := readUntil(t, conn, "question")
	if question.Payload.Text != "Q1/1: What is 2 + 2?" || len(question.Payload.Choices) != 3 {
		t.Fatalf("unexpected question: %+v", question.Payload)
	}

	answer := map[string]any{
		"type":    "answer",
		"payload": map[string]any{"option": 1, "eventId": "e1"},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	result := readUntil(t, conn, "result")
	if result.Payload.Participant != "u1" {
		t.Fatalf("expected private result for u1, got %+v", result.Payload)
	}
	ack := readUntil(t, conn, "ack")
	if ack.Payload.Text != "✅ Correct!" {
		t.Fatalf("unexpected ack: %+v", ack.Payload)
	}

	malformed := map[string]any{
		"type":    "answer",
		"payload": map[string]any{"option": "two", "eventId": "e2"},
	}
	if err := conn.WriteJSON(malformed); err != nil {
		t.Fatalf("write malformed answer: %v", err)
	}
	if ack := readUntil(t, conn, "ack"); ack.Payload.EventID != "e2" || ack.Payload.Text != "That option does not exist." {
		t.Fatalf("expected malformed selection ack, got %+v", ack.Payload)
	}

	resp, err := http.Get(server.URL + "/conversations/room-1/leaderboard")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	defer resp.Body.Close()
	var lb domain.Leaderboard
	if err := json.NewDecoder(resp.Body).Decode(&lb); err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].ParticipantID != "u1" || lb.Entries[0].Score != 1 {
		t.Fatalf("unexpected leaderboard: %+v", lb)
	}
}

func TestWebSocketRejectsMissingParams(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws?conversation=room-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHubPrivateMessagesReachOnlyTheParticipant(t *testing.T) {
	hub := NewHub(nil)
	alice := hub.join("room-1", domain.Participant{ID: "u1", DisplayName: "Alice"})
	bob := hub.join("room-1", domain.Participant{ID: "u2", DisplayName: "Bob"})
	other := hub.join("room-2", domain.Participant{ID: "u3", DisplayName: "Carol"})

	ctx := context.Background()
	_ = hub.Emit(ctx, domain.Message{Target: domain.Target{Conversation: "room-1", Participant: "u2"}, Kind: domain.KindResult, Text: "private"})
	_ = hub.Emit(ctx, domain.Message{Target: domain.Target{Conversation: "room-1"}, Kind: domain.KindReveal, Text: "public"})

	if len(alice.send) != 1 || len(bob.send) != 2 || len(other.send) != 0 {
		t.Fatalf("unexpected fan-out: alice=%d bob=%d other=%d", len(alice.send), len(bob.send), len(other.send))
	}

	hub.expect("e1", bob)
	if err := hub.EmitAck(ctx, "e1", "ok"); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if err := hub.EmitAck(ctx, "e1", "ok"); err == nil {
		t.Fatalf("expected second ack for the same event to fail")
	}

	hub.leave(bob)
	if err := hub.Emit(ctx, domain.Message{Target: domain.Target{Conversation: "room-1"}, Kind: domain.KindNotice}); err != nil {
		t.Fatalf("emit after leave: %v", err)
	}
}

type testEvent struct {
	Type    string `json:"type"`
	Payload struct {
		messagePayload
		EventID string `json:"eventId"`
	} `json:"payload"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	bank := memory.NewQuestionBank(nil)
	if err := bank.Add(domain.Question{
		ID:      "q1",
		Prompt:  "What is 2 + 2?",
		Options: []string{"3", "4", "5"},
		Correct: 1,
	}); err != nil {
		t.Fatalf("add question: %v", err)
	}
	hub := NewHub(nil)
	engine := app.NewEngine(app.Deps{
		Bank:      bank,
		Scores:    memory.NewScoreboard(),
		Sessions:  memory.NewSessionStore(),
		Transport: hub,
	}, app.DefaultSettings())
	return httptest.NewServer(NewRouter(engine, NewWSHandler(engine, hub, nil)))
}

func dial(t *testing.T, server *httptest.Server, conversation, userID, name string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?conversation=" + conversation + "&userId=" + userID + "&name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, typ string) testEvent {
	t.Helper()
	for i := 0; i < 10; i++ {
		var msg testEvent
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json waiting for %s: %v", typ, err)
		}
		if msg.Type == typ {
			return msg
		}
	}
	t.Fatalf("no %s event received", typ)
	return testEvent{}
}
