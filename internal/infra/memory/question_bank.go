package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"group-quiz-bot/internal/domain"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// QuestionLoader fetches question content from a backing store (file, Postgres, etc).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionBank is the ordered, shared question list. Sessions read it only at
// start through Snapshot.
type QuestionBank struct {
	loader QuestionLoader
	sf     singleflight.Group

	mu        sync.RWMutex
	questions []domain.Question
}

func NewQuestionBank(loader QuestionLoader) *QuestionBank {
	return &QuestionBank{loader: loader}
}

// Reload replaces the bank content from the loader. Concurrent reloads share
// one load.
func (b *QuestionBank) Reload(ctx context.Context) error {
	if b.loader == nil {
		return nil
	}
	_, err, _ := b.sf.Do("reload", func() (interface{}, error) {
		questions, err := b.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		for i, q := range questions {
			if err := q.Validate(); err != nil {
				return nil, fmt.Errorf("question %d: %w", i, err)
			}
		}
		b.mu.Lock()
		b.questions = append([]domain.Question(nil), questions...)
		b.mu.Unlock()
		return nil, nil
	})
	return err
}

// Add appends a validated question.
func (b *QuestionBank) Add(q domain.Question) error {
	if err := q.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.questions = append(b.questions, q)
	return nil
}

// Remove deletes the question at index.
func (b *QuestionBank) Remove(index int) (domain.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.questions) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	removed := b.questions[index]
	b.questions = append(b.questions[:index:index], b.questions[index+1:]...)
	return removed, nil
}

// List returns a copy of the bank.
func (b *QuestionBank) List() []domain.Question {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return copyQuestions(b.questions)
}

// Len returns the number of questions.
func (b *QuestionBank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.questions)
}

// Snapshot implements app.QuestionSource. The copy is deep so later bank
// edits never reach a running session.
func (b *QuestionBank) Snapshot(_ context.Context) ([]domain.Question, error) {
	return b.List(), nil
}

func copyQuestions(src []domain.Question) []domain.Question {
	out := make([]domain.Question, len(src))
	for i, q := range src {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

// StaticQuestionLoader is a simple loader backed by a slice (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	return copyQuestions(l.questions), nil
}

// FileQuestionLoader reads questions from a YAML file.
type FileQuestionLoader struct {
	path string
}

func NewFileQuestionLoader(path string) *FileQuestionLoader {
	return &FileQuestionLoader{path: path}
}

func (l *FileQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	var doc struct {
		Questions []domain.Question `yaml:"questions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse questions file: %w", err)
	}
	return doc.Questions, nil
}
