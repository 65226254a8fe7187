package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"group-quiz-bot/internal/app"
)

func TestLoadQuizSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: "9090"
quiz:
  question_time: 15s
  large_size: 10
  mark_wrong: -0.5
  admins: ["42"]
log:
  level: debug
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Log.Level != "debug" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	s := cfg.Settings()
	defaults := app.DefaultSettings()
	if s.QuestionTime != 15*time.Second {
		t.Fatalf("expected 15s question time, got %v", s.QuestionTime)
	}
	if s.LargeSize != 10 || s.SmallSize != defaults.SmallSize {
		t.Fatalf("unexpected sizes: small=%d large=%d", s.SmallSize, s.LargeSize)
	}
	if s.MarkWrong != -0.5 || s.MarkCorrect != defaults.MarkCorrect {
		t.Fatalf("unexpected marks: correct=%v wrong=%v", s.MarkCorrect, s.MarkWrong)
	}
	if len(cfg.Quiz.Admins) != 1 || cfg.Quiz.Admins[0] != "42" {
		t.Fatalf("unexpected admins: %v", cfg.Quiz.Admins)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Settings() != app.DefaultSettings() {
		t.Fatalf("expected default settings, got %+v", cfg.Settings())
	}
}

func TestTTLDurationFallsBack(t *testing.T) {
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("-5s", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for negative duration, got %v", got)
	}
	if got := TTLDuration("2m", time.Minute); got != 2*time.Minute {
		t.Fatalf("expected 2m, got %v", got)
	}
}
