package domain

import (
	"fmt"
	"strings"
	"time"
)

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID          string   `json:"id" yaml:"id"`
	Prompt      string   `json:"prompt" yaml:"prompt"`
	Options     []string `json:"options" yaml:"options"`
	Correct     int      `json:"correct" yaml:"correct"` // zero-based index into Options
	Explanation string   `json:"explanation" yaml:"explanation"`
}

// Validate reports whether the question can be published to a bank.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("%w: empty prompt", ErrInvalidQuestion)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: need at least 2 options, got %d", ErrInvalidQuestion, len(q.Options))
	}
	if q.Correct < 0 || q.Correct >= len(q.Options) {
		return fmt.Errorf("%w: correct index %d out of range", ErrInvalidQuestion, q.Correct)
	}
	return nil
}

// CorrectOption returns the text of the correct option.
func (q Question) CorrectOption() string {
	if q.Correct < 0 || q.Correct >= len(q.Options) {
		return ""
	}
	return q.Options[q.Correct]
}

// Participant is an actor answering questions within a conversation.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// SizeClass selects how many questions a session asks.
type SizeClass string

const (
	SizeSmall SizeClass = "small"
	SizeLarge SizeClass = "large"
)

// ParseSizeClass maps user input to a SizeClass, defaulting to small.
func ParseSizeClass(raw string) SizeClass {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "large", "big":
		return SizeLarge
	default:
		return SizeSmall
	}
}

// ParticipantStats accumulates a participant's answers over a whole session.
type ParticipantStats struct {
	Attempted int `json:"attempted"`
	Correct   int `json:"correct"`
	Wrong     int `json:"wrong"`
}

// SummaryRow is one participant's end-of-session report.
type SummaryRow struct {
	Participant Participant `json:"participant"`
	ParticipantStats
	Skipped int     `json:"skipped"`
	Score   float64 `json:"score"`
}

// ScoreEntry is a participant's cumulative score in a conversation.
type ScoreEntry struct {
	ParticipantID string  `json:"participantId"`
	DisplayName   string  `json:"displayName"`
	Score         float64 `json:"score"`
}

// Leaderboard captures the ordered scoreboard for a conversation.
type Leaderboard struct {
	Conversation string       `json:"conversation"`
	Entries      []ScoreEntry `json:"entries"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Target addresses an outbound message. An empty Participant means the whole
// conversation.
type Target struct {
	Conversation string `json:"conversation"`
	Participant  string `json:"participant,omitempty"`
}

// Private reports whether the target is a single participant.
func (t Target) Private() bool {
	return t.Participant != ""
}

// MessageKind tags outbound messages so transports can render them.
type MessageKind string

const (
	KindQuestion    MessageKind = "question"
	KindResult      MessageKind = "result"
	KindReveal      MessageKind = "reveal"
	KindSummary     MessageKind = "summary"
	KindLeaderboard MessageKind = "leaderboard"
	KindNotice      MessageKind = "notice"
	KindError       MessageKind = "error"
)

// Message is an outbound text with an optional choice set.
type Message struct {
	Target  Target      `json:"target"`
	Kind    MessageKind `json:"kind"`
	Text    string      `json:"text"`
	Choices []string    `json:"choices,omitempty"`
}

// AnswerResult summarizes the outcome of a submission for a single participant.
type AnswerResult struct {
	Selected    int     `json:"selected"`
	Correct     bool    `json:"correct"`
	Explanation string  `json:"explanation"`
	Score       float64 `json:"score"`
}
