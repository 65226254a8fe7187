package app

import (
	"errors"
	"fmt"
	"strings"

	"group-quiz-bot/internal/domain"
)

func questionMessage(s *Session) domain.Message {
	q, _ := s.current()
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return domain.Message{
		Target:  domain.Target{Conversation: s.conversation},
		Kind:    domain.KindQuestion,
		Text:    fmt.Sprintf("Q%d/%d: %s", s.position+1, s.total(), q.Prompt),
		Choices: options,
	}
}

func resultMessage(conversation string, p domain.Participant, q domain.Question, selected int, correct bool) domain.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Your answer: %s\n", q.Options[selected])
	if correct {
		b.WriteString("✅ Correct!")
	} else {
		fmt.Fprintf(&b, "❌ Wrong. Correct answer: %s", q.CorrectOption())
	}
	if q.Explanation != "" {
		fmt.Fprintf(&b, "\nℹ️ %s", q.Explanation)
	}
	return domain.Message{
		Target: domain.Target{Conversation: conversation, Participant: p.ID},
		Kind:   domain.KindResult,
		Text:   b.String(),
	}
}

func revealMessage(conversation string, q domain.Question) domain.Message {
	text := fmt.Sprintf("⏰ Time's up! Correct answer: %s", q.CorrectOption())
	if q.Explanation != "" {
		text += "\nℹ️ " + q.Explanation
	}
	return domain.Message{
		Target: domain.Target{Conversation: conversation},
		Kind:   domain.KindReveal,
		Text:   text,
	}
}

func summaryMessage(conversation string, rows []domain.SummaryRow) domain.Message {
	var b strings.Builder
	b.WriteString("🎉 Quiz finished!")
	for _, row := range rows {
		fmt.Fprintf(&b, "\n%s: attempted %d, correct %d, wrong %d, skipped %d, score %.2f",
			row.Participant.DisplayName, row.Attempted, row.Correct, row.Wrong, row.Skipped, row.Score)
	}
	return domain.Message{
		Target: domain.Target{Conversation: conversation},
		Kind:   domain.KindSummary,
		Text:   b.String(),
	}
}

func leaderboardMessage(lb domain.Leaderboard) domain.Message {
	var b strings.Builder
	b.WriteString("🏆 Leaderboard")
	if len(lb.Entries) == 0 {
		b.WriteString("\nno scores yet")
	}
	for i, entry := range lb.Entries {
		fmt.Fprintf(&b, "\n%d. %s — %.2f", i+1, entry.DisplayName, entry.Score)
	}
	return domain.Message{
		Target: domain.Target{Conversation: lb.Conversation},
		Kind:   domain.KindLeaderboard,
		Text:   b.String(),
	}
}

func noticeMessage(conversation, text string) domain.Message {
	return domain.Message{
		Target: domain.Target{Conversation: conversation},
		Kind:   domain.KindNotice,
		Text:   text,
	}
}

func errorMessage(conversation string, err error) domain.Message {
	return domain.Message{
		Target: domain.Target{Conversation: conversation},
		Kind:   domain.KindError,
		Text:   describe(err),
	}
}

func ackText(result domain.AnswerResult) string {
	if result.Correct {
		return "✅ Correct!"
	}
	return "❌ Wrong"
}

// describe maps engine errors to user-facing text.
func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyBank):
		return "No questions available yet."
	case errors.Is(err, domain.ErrAlreadyActive):
		return "A quiz is already running here."
	case errors.Is(err, domain.ErrNoActiveSession):
		return "No quiz is running right now."
	case errors.Is(err, domain.ErrDuplicateAnswer):
		return "You have already answered this question."
	case errors.Is(err, domain.ErrExpired):
		return "⏰ Too late, time is up for this question."
	case errors.Is(err, domain.ErrMalformedSelection):
		return "That option does not exist."
	case errors.Is(err, domain.ErrNotPrivileged):
		return "Only admins can do that here."
	default:
		return "Something went wrong, please try again."
	}
}
