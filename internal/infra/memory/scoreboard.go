package memory

import (
	"context"
	"sync"

	"group-quiz-bot/internal/domain"
)

// Scoreboard is an in-memory implementation of app.Scoreboard. Each
// conversation has its own board and lock.
type Scoreboard struct {
	mu     sync.RWMutex
	boards map[string]*board
}

type board struct {
	mu      sync.Mutex
	order   []string
	entries map[string]*scoreEntry
}

type scoreEntry struct {
	name  string
	units int64
}

func NewScoreboard() *Scoreboard {
	return &Scoreboard{boards: make(map[string]*board)}
}

func (s *Scoreboard) board(conversation string) *board {
	s.mu.RLock()
	b, ok := s.boards[conversation]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.boards[conversation]; ok {
		return b
	}
	b = &board{entries: make(map[string]*scoreEntry)}
	s.boards[conversation] = b
	return b
}

func (s *Scoreboard) AddScore(_ context.Context, conversation string, participant domain.Participant, delta float64) (float64, error) {
	b := s.board(conversation)
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[participant.ID]
	if !ok {
		entry = &scoreEntry{}
		b.entries[participant.ID] = entry
		b.order = append(b.order, participant.ID)
	}
	entry.name = participant.DisplayName
	entry.units += domain.ScoreUnits(delta)
	return domain.ScoreFromUnits(entry.units), nil
}

func (s *Scoreboard) Get(_ context.Context, conversation string) ([]domain.ScoreEntry, error) {
	s.mu.RLock()
	b, ok := s.boards[conversation]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.ScoreEntry, 0, len(b.order))
	for _, id := range b.order {
		entry := b.entries[id]
		out = append(out, domain.ScoreEntry{
			ParticipantID: id,
			DisplayName:   entry.name,
			Score:         domain.ScoreFromUnits(entry.units),
		})
	}
	return out, nil
}

func (s *Scoreboard) Reset(_ context.Context, conversation string) error {
	b := s.board(conversation)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.order = nil
	b.entries = make(map[string]*scoreEntry)
	return nil
}
