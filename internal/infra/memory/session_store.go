package memory

import (
	"sort"
	"sync"

	"group-quiz-bot/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
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
	if current, ok := s.sessions[conversation]; ok && current == session {
		delete(s.sessions, conversation)
	}
}

// Refresh is a no-op: in-memory sessions live until deleted.
func (s *SessionStore) Refresh(string, *app.Session) {}

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
