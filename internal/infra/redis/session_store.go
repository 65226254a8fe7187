package redis

import (
	"context"
	"sort"
	"sync"
	"time"

	"group-quiz-bot/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionStore.
// Notes:
//   - It keeps the live sessions in a local map; the per-session locks that
//     serialize transitions only exist in-process.
//   - Redis is used to mark session liveness so operators (or another
//     instance) can see which conversations run a quiz.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Create(conversation string, session *app.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[conversation]; ok {
		return false
	}
	s.sessions[conversation] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(conversation), session.ID(), s.ttl).Err()
	return true
}

func (s *SessionStore) Get(conversation string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[conversation]
	return session, ok
}

func (s *SessionStore) Delete(conversation string, session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[conversation]
	if !ok || current != session {
		return
	}
	delete(s.sessions, conversation)
	_ = s.client.Del(context.Background(), s.key(conversation)).Err()
}

// Refresh restores the liveness marker's full TTL. The engine calls it on
// every advance, so a marker outlives its quiz by at most one TTL.
func (s *SessionStore) Refresh(conversation string, session *app.Session) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if current, ok := s.sessions[conversation]; !ok || current != session {
		return
	}
	_ = s.client.Expire(context.Background(), s.key(conversation), s.ttl).Err()
}

func (s *SessionStore) Conversations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sessions))
	for conversation := range s.sessions {
		out = append(out, conversation)
	}
	sort.Strings(out)
	return out
}

func (s *SessionStore) key(conversation string) string {
	return "quiz:session:" + conversation
}
