package memory

import (
	"testing"
	"time"

	"group-quiz-bot/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	session := app.NewSession("s1", "chat-1", nil, time.Now())

	if !store.Create("chat-1", session) {
		t.Fatalf("expected first create to succeed")
	}
	if store.Create("chat-1", app.NewSession("s2", "chat-1", nil, time.Now())) {
		t.Fatalf("expected second create to be rejected")
	}
	if got, ok := store.Get("chat-1"); !ok || got != session {
		t.Fatalf("expected stored session")
	}

	store.Delete("chat-1", app.NewSession("other", "chat-1", nil, time.Now()))
	if _, ok := store.Get("chat-1"); !ok {
		t.Fatalf("deleting a different session must not remove the live one")
	}

	store.Delete("chat-1", session)
	if _, ok := store.Get("chat-1"); ok {
		t.Fatalf("expected session removed")
	}
	if len(store.Conversations()) != 0 {
		t.Fatalf("expected no conversations, got %v", store.Conversations())
	}
}
