package app_test

import (
	"context"
	"testing"
	"time"

	"group-quiz-bot/internal/app"
	"group-quiz-bot/internal/domain"
	"group-quiz-bot/internal/infra/memory"
)

func TestSweeperRunAdvancesOnTimer(t *testing.T) {
	bank := memory.NewQuestionBank(nil)
	for _, q := range twoQuestions() {
		if err := bank.Add(q); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	transport := &recordingTransport{}
	settings := app.DefaultSettings()
	settings.QuestionTime = 20 * time.Millisecond
	settings.SweepInterval = 5 * time.Millisecond

	engine := app.NewEngine(app.Deps{
		Bank:      bank,
		Scores:    memory.NewScoreboard(),
		Sessions:  memory.NewSessionStore(),
		Transport: transport,
	}, settings, app.WithShuffle(identity))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Sweeper().Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	if err := engine.OnStartRequested(ctx, app.StartRequest{Conversation: "chat", Actor: alice}); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := engine.Session("chat"); !ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, ok := engine.Session("chat"); ok {
		t.Fatalf("expected timer-driven sweeps to finish the session")
	}
	if transport.last(domain.KindSummary).Text == "" {
		t.Fatalf("expected summary to be emitted")
	}
}
