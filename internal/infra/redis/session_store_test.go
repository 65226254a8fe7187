package redis

import (
	"testing"
	"time"

	"group-quiz-bot/internal/app"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	session := app.NewSession("s-1", "chat-1", nil, time.Now())

	if !store.Create("chat-1", session) {
		t.Fatalf("expected create to succeed")
	}
	if got, _ := mr.Get("quiz:session:chat-1"); got != "s-1" {
		t.Fatalf("expected liveness marker with session id, got %q", got)
	}
	if ttl := mr.TTL("quiz:session:chat-1"); ttl != time.Minute {
		t.Fatalf("expected ttl of a minute, got %v", ttl)
	}

	mr.FastForward(50 * time.Second)
	store.Refresh("chat-1", session)
	if ttl := mr.TTL("quiz:session:chat-1"); ttl != time.Minute {
		t.Fatalf("expected refresh to restore a minute, got %v", ttl)
	}
	store.Refresh("chat-1", app.NewSession("s-2", "chat-1", nil, time.Now()))
	if got, _ := mr.Get("quiz:session:chat-1"); got != "s-1" {
		t.Fatalf("refresh by a stale session must not touch the marker, got %q", got)
	}

	store.Delete("chat-1", session)
	if mr.Exists("quiz:session:chat-1") {
		t.Fatalf("expected redis key to be removed")
	}
}
