package app

import (
	"sync"

	"group-quiz-bot/internal/domain"
)

// Registry maps conversations to live sessions and enforces at most one
// session per conversation. It also owns one outbound lock per
// conversation, shared by consecutive sessions, so a new session never
// emits before its predecessor's final messages.
type Registry struct {
	store SessionStore

	mu  sync.Mutex
	out map[string]*sync.Mutex
}

func NewRegistry(store SessionStore) *Registry {
	return &Registry{store: store, out: make(map[string]*sync.Mutex)}
}

// Register stores a new session or fails with domain.ErrAlreadyActive.
func (r *Registry) Register(conversation string, session *Session) error {
	if !r.store.Create(conversation, session) {
		return domain.ErrAlreadyActive
	}
	return nil
}

// Get returns the live session for a conversation.
func (r *Registry) Get(conversation string) (*Session, bool) {
	return r.store.Get(conversation)
}

// Remove drops the session if it is still the one registered.
func (r *Registry) Remove(conversation string, session *Session) {
	r.store.Delete(conversation, session)
}

// Refresh extends the store's liveness marker after the session advanced.
func (r *Registry) Refresh(conversation string, session *Session) {
	r.store.Refresh(conversation, session)
}

// Conversations lists conversations with a live session.
func (r *Registry) Conversations() []string {
	return r.store.Conversations()
}

// outbound returns the conversation's emission lock.
func (r *Registry) outbound(conversation string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.out[conversation]
	if !ok {
		l = &sync.Mutex{}
		r.out[conversation] = l
	}
	return l
}
