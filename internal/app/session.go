package app

import (
	"sync"
	"time"

	"group-quiz-bot/internal/domain"
)

// Session is one running quiz bound to a conversation. Its question list is a
// content snapshot taken at start, so later bank edits never reach it.
//
// All fields are guarded by mu. Outbound ordering is the Registry's
// per-conversation lock, not the session's.
type Session struct {
	id           string
	conversation string
	questions    []domain.Question
	position     int
	deadline     time.Time
	answered     map[string]struct{}
	stats        map[string]*domain.ParticipantStats
	participants []domain.Participant // first-answer order
	closed       bool

	mu sync.Mutex
}

// SessionView is a read-only snapshot of a session.
type SessionView struct {
	ID           string
	Conversation string
	Position     int
	Total        int
	Deadline     time.Time
	Question     domain.Question
	Answered     int
}

// NewSession is exported for infrastructure layers and tests that need to
// seed sessions directly.
func NewSession(id, conversation string, questions []domain.Question, deadline time.Time) *Session {
	return &Session{
		id:           id,
		conversation: conversation,
		questions:    questions,
		deadline:     deadline,
		answered:     make(map[string]struct{}),
		stats:        make(map[string]*domain.ParticipantStats),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) total() int {
	return len(s.questions)
}

func (s *Session) current() (domain.Question, bool) {
	if s.closed || s.position >= len(s.questions) {
		return domain.Question{}, false
	}
	return s.questions[s.position], true
}

// late reports whether an answer at now misses the deadline.
func (s *Session) late(now time.Time) bool {
	return now.After(s.deadline)
}

// due reports whether the sweeper should advance the session at now.
func (s *Session) due(now time.Time) bool {
	return !s.closed && !now.Before(s.deadline)
}

// submit records a participant's answer to the current question. It does
// not advance the position.
func (s *Session) submit(p domain.Participant, option int) (domain.Question, bool, error) {
	q, ok := s.current()
	if !ok {
		return domain.Question{}, false, domain.ErrNoActiveSession
	}
	if option < 0 || option >= len(q.Options) {
		return q, false, domain.ErrMalformedSelection
	}
	if _, seen := s.answered[p.ID]; seen {
		return q, false, domain.ErrDuplicateAnswer
	}

	st, ok := s.stats[p.ID]
	if !ok {
		st = &domain.ParticipantStats{}
		s.stats[p.ID] = st
		s.participants = append(s.participants, p)
	} else {
		s.renameLocked(p)
	}
	correct := option == q.Correct
	st.Attempted++
	if correct {
		st.Correct++
	} else {
		st.Wrong++
	}
	s.answered[p.ID] = struct{}{}
	return q, correct, nil
}

func (s *Session) renameLocked(p domain.Participant) {
	for i := range s.participants {
		if s.participants[i].ID == p.ID {
			s.participants[i].DisplayName = p.DisplayName
			return
		}
	}
}

// advance closes the current question and opens the next one with the given
// deadline. It reports whether the session has finished.
func (s *Session) advance(next time.Time) bool {
	if s.closed {
		return true
	}
	if s.position < len(s.questions) {
		s.position++
	}
	if s.position >= len(s.questions) {
		s.closed = true
		return true
	}
	s.deadline = next
	s.answered = make(map[string]struct{})
	return false
}

// summary builds per-participant rows. scores maps participant ID to the
// conversation score.
func (s *Session) summary(scores map[string]float64) []domain.SummaryRow {
	rows := make([]domain.SummaryRow, 0, len(s.participants))
	for _, p := range s.participants {
		st := s.stats[p.ID]
		rows = append(rows, domain.SummaryRow{
			Participant:      p,
			ParticipantStats: *st,
			Skipped:          len(s.questions) - st.Attempted,
			Score:            scores[p.ID],
		})
	}
	return rows
}

func (s *Session) view() SessionView {
	q, _ := s.current()
	return SessionView{
		ID:           s.id,
		Conversation: s.conversation,
		Position:     s.position,
		Total:        len(s.questions),
		Deadline:     s.deadline,
		Question:     q,
		Answered:     len(s.answered),
	}
}
