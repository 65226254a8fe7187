package app

import (
	"context"

	"group-quiz-bot/internal/domain"
)

// Transport delivers outbound messages. Calls are fire-and-forget from the
// engine's point of view: errors are logged, never propagated.
type Transport interface {
	Emit(ctx context.Context, msg domain.Message) error
	// EmitAck acknowledges an inbound answer event.
	EmitAck(ctx context.Context, eventID, text string) error
}

// Permissions decides whether an actor may run privileged operations in a
// multi-party conversation.
type Permissions interface {
	IsPrivileged(ctx context.Context, actorID, conversation string) (bool, error)
}

// QuestionSource provides a snapshot of the question bank at session start.
type QuestionSource interface {
	Snapshot(ctx context.Context) ([]domain.Question, error)
}

// Scoreboard abstracts where per-conversation scores live (in-memory, Redis, etc).
type Scoreboard interface {
	// AddScore creates the entry at zero if absent, applies delta and
	// returns the new total.
	AddScore(ctx context.Context, conversation string, participant domain.Participant, delta float64) (float64, error)
	// Get returns entries in first-scored order.
	Get(ctx context.Context, conversation string) ([]domain.ScoreEntry, error)
	Reset(ctx context.Context, conversation string) error
}

// SessionStore abstracts how live sessions are stored.
type SessionStore interface {
	// Create stores the session unless one already exists for the conversation.
	Create(conversation string, session *Session) bool
	Get(conversation string) (*Session, bool)
	// Delete removes the session only if it is the one stored.
	Delete(conversation string, session *Session)
	// Refresh marks the session as still alive, if it is the one stored.
	Refresh(conversation string, session *Session)
	Conversations() []string
}
