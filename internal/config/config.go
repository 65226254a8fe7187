package config

import (
	"os"
	"time"

	"group-quiz-bot/internal/app"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		QuestionTime  string   `yaml:"question_time"`
		SmallSize     int      `yaml:"small_size"`
		LargeSize     int      `yaml:"large_size"`
		MarkCorrect   *float64 `yaml:"mark_correct"`
		MarkWrong     *float64 `yaml:"mark_wrong"`
		SweepInterval string   `yaml:"sweep_interval"`
		QuestionsFile string   `yaml:"questions_file"`
		Admins        []string `yaml:"admins"`
	} `yaml:"quiz"`
	Telegram struct {
		Token string `yaml:"token"`
	} `yaml:"telegram"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads YAML config from path. A missing file yields the zero config.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Settings converts the quiz section into engine settings, keeping defaults
// for anything left unset.
func (c Config) Settings() app.Settings {
	s := app.DefaultSettings()
	s.QuestionTime = TTLDuration(c.Quiz.QuestionTime, s.QuestionTime)
	s.SweepInterval = TTLDuration(c.Quiz.SweepInterval, s.SweepInterval)
	if c.Quiz.SmallSize > 0 {
		s.SmallSize = c.Quiz.SmallSize
	}
	if c.Quiz.LargeSize > 0 {
		s.LargeSize = c.Quiz.LargeSize
	}
	if c.Quiz.MarkCorrect != nil {
		s.MarkCorrect = *c.Quiz.MarkCorrect
	}
	if c.Quiz.MarkWrong != nil {
		s.MarkWrong = *c.Quiz.MarkWrong
	}
	return s
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return fallback
}
