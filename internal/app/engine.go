package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"group-quiz-bot/internal/domain"
	"github.com/google/uuid"
)

// Settings tunes session timing, sizes and marking.
type Settings struct {
	QuestionTime  time.Duration
	SmallSize     int
	LargeSize     int
	MarkCorrect   float64
	MarkWrong     float64
	SweepInterval time.Duration
}

// DefaultSettings returns +1 for a correct answer, -0.33 for a wrong one and
// 30 seconds per question.
func DefaultSettings() Settings {
	return Settings{
		QuestionTime:  30 * time.Second,
		SmallSize:     5,
		LargeSize:     20,
		MarkCorrect:   1.0,
		MarkWrong:     -0.33,
		SweepInterval: time.Second,
	}
}

func (s Settings) normalized() Settings {
	def := DefaultSettings()
	if s.QuestionTime <= 0 {
		s.QuestionTime = def.QuestionTime
	}
	if s.SmallSize <= 0 {
		s.SmallSize = def.SmallSize
	}
	if s.LargeSize <= 0 {
		s.LargeSize = def.LargeSize
	}
	return s
}

func (s Settings) size(class domain.SizeClass) int {
	if class == domain.SizeLarge {
		return s.LargeSize
	}
	return s.SmallSize
}

// Deps are the collaborators the engine composes.
type Deps struct {
	Bank        QuestionSource
	Scores      Scoreboard
	Sessions    SessionStore
	Transport   Transport
	Permissions Permissions
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithShuffle replaces the permutation source used to order questions.
func WithShuffle(perm func(n int) []int) Option {
	return func(e *Engine) { e.perm = perm }
}

// WithLogger sets the engine logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// StartRequest asks for a new session. Direct marks a one-to-one
// conversation, where every actor is privileged.
type StartRequest struct {
	Conversation string
	Direct       bool
	Actor        domain.Participant
	Size         domain.SizeClass
}

// ControlRequest is a privileged operation on a conversation.
type ControlRequest struct {
	Conversation string
	Direct       bool
	Actor        domain.Participant
}

// AnswerSubmission is one participant's choice for the current question.
type AnswerSubmission struct {
	Conversation string
	Participant  domain.Participant
	EventID      string
	Option       int
}

// Engine is the facade inbound event handlers call.
type Engine struct {
	registry    *Registry
	scores      Scoreboard
	bank        QuestionSource
	transport   Transport
	permissions Permissions
	settings    Settings
	sweeper     *Sweeper

	now    func() time.Time
	log    *slog.Logger
	perm   func(n int) []int
	rndMu  sync.Mutex
	rnd    *rand.Rand
	nextID func() string
}

func NewEngine(deps Deps, settings Settings, opts ...Option) *Engine {
	e := &Engine{
		registry:    NewRegistry(deps.Sessions),
		scores:      deps.Scores,
		bank:        deps.Bank,
		transport:   deps.Transport,
		permissions: deps.Permissions,
		settings:    settings.normalized(),
		now:         time.Now,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		nextID:      uuid.NewString,
	}
	e.perm = e.randomPerm
	for _, opt := range opts {
		opt(e)
	}
	e.sweeper = newSweeper(e.registry, e.ForceAdvanceExpired, e.settings.SweepInterval, e.log)
	return e
}

// Sweeper exposes the expiry sweeper so callers can run it on a timer.
func (e *Engine) Sweeper() *Sweeper {
	return e.sweeper
}

func (e *Engine) randomPerm(n int) []int {
	e.rndMu.Lock()
	defer e.rndMu.Unlock()
	return e.rnd.Perm(n)
}

// OnStartRequested starts a session in the conversation.
func (e *Engine) OnStartRequested(ctx context.Context, req StartRequest) error {
	err := e.start(ctx, req)
	if err != nil {
		e.log.Info("start rejected", "conversation", req.Conversation, "actor", req.Actor.ID, "error", err)
		e.emit(ctx, []domain.Message{errorMessage(req.Conversation, err)})
	}
	return err
}

func (e *Engine) start(ctx context.Context, req StartRequest) error {
	if err := e.authorize(ctx, req.Conversation, req.Actor, req.Direct); err != nil {
		return err
	}
	if _, ok := e.registry.Get(req.Conversation); ok {
		return domain.ErrAlreadyActive
	}

	bank, err := e.bank.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot question bank: %w", err)
	}
	if len(bank) == 0 {
		return domain.ErrEmptyBank
	}

	count := min(e.settings.size(req.Size), len(bank))
	order := e.perm(len(bank))[:count]
	questions := make([]domain.Question, 0, count)
	for _, idx := range order {
		questions = append(questions, bank[idx])
	}

	session := NewSession(e.nextID(), req.Conversation, questions, e.now().Add(e.settings.QuestionTime))
	first := questionMessage(session)
	out := e.registry.outbound(req.Conversation)
	out.Lock()
	defer out.Unlock()
	if err := e.registry.Register(req.Conversation, session); err != nil {
		return err
	}

	e.log.Info("quiz started", "conversation", req.Conversation, "session", session.id, "questions", count, "actor", req.Actor.ID)
	e.emit(ctx, []domain.Message{
		noticeMessage(req.Conversation, fmt.Sprintf("📝 Quiz started: %d questions, %s each.", count, e.settings.QuestionTime)),
		first,
	})
	return nil
}

// OnAnswerSubmitted scores a participant's answer to the current question.
// A late answer forces the stalled question to advance before ErrExpired is
// reported.
func (e *Engine) OnAnswerSubmitted(ctx context.Context, sub AnswerSubmission) (domain.AnswerResult, error) {
	result, err := e.submit(ctx, sub)
	if err != nil {
		e.log.Debug("answer rejected", "conversation", sub.Conversation, "participant", sub.Participant.ID, "error", err)
		e.ack(ctx, sub.EventID, describe(err))
		return result, err
	}
	e.ack(ctx, sub.EventID, ackText(result))
	return result, nil
}

func (e *Engine) submit(ctx context.Context, sub AnswerSubmission) (domain.AnswerResult, error) {
	session, ok := e.registry.Get(sub.Conversation)
	if !ok {
		return domain.AnswerResult{}, domain.ErrNoActiveSession
	}

	var result domain.AnswerResult
	err := e.transition(ctx, session, func() ([]domain.Message, error) {
		if session.closed {
			return nil, domain.ErrNoActiveSession
		}
		now := e.now()
		if session.late(now) {
			return e.advanceLocked(ctx, session, now), domain.ErrExpired
		}

		q, correct, err := session.submit(sub.Participant, sub.Option)
		if err != nil {
			return nil, err
		}
		delta := e.settings.MarkWrong
		if correct {
			delta = e.settings.MarkCorrect
		}
		total, err := e.scores.AddScore(ctx, sub.Conversation, sub.Participant, delta)
		if err != nil {
			e.log.Error("add score failed", "conversation", sub.Conversation, "participant", sub.Participant.ID, "error", err)
		}
		result = domain.AnswerResult{
			Selected:    sub.Option,
			Correct:     correct,
			Explanation: q.Explanation,
			Score:       total,
		}
		return []domain.Message{resultMessage(sub.Conversation, sub.Participant, q, sub.Option, correct)}, nil
	})
	if errors.Is(err, domain.ErrExpired) {
		e.registry.Refresh(sub.Conversation, session)
	}
	return result, err
}

// OnPoll runs one expiry sweep. Transports call it once per inbound event.
func (e *Engine) OnPoll(ctx context.Context) int {
	return e.sweeper.Sweep(ctx)
}

// ForceAdvanceExpired advances the conversation's session if its current
// question is past the deadline. It reports whether an advance happened.
func (e *Engine) ForceAdvanceExpired(ctx context.Context, conversation string) bool {
	session, ok := e.registry.Get(conversation)
	if !ok {
		return false
	}
	advanced := false
	_ = e.transition(ctx, session, func() ([]domain.Message, error) {
		now := e.now()
		if !session.due(now) {
			return nil, nil
		}
		advanced = true
		return e.advanceLocked(ctx, session, now), nil
	})
	if advanced {
		e.registry.Refresh(conversation, session)
	}
	return advanced
}

// advanceLocked reveals the current answer and opens the next question, or
// finishes the session. The caller holds session.mu.
func (e *Engine) advanceLocked(ctx context.Context, session *Session, now time.Time) []domain.Message {
	var msgs []domain.Message
	if q, ok := session.current(); ok {
		msgs = append(msgs, revealMessage(session.conversation, q))
	}
	if !session.advance(now.Add(e.settings.QuestionTime)) {
		return append(msgs, questionMessage(session))
	}

	e.registry.Remove(session.conversation, session)

	entries, err := e.scores.Get(ctx, session.conversation)
	if err != nil {
		e.log.Error("read scoreboard failed", "conversation", session.conversation, "error", err)
	}
	scores := make(map[string]float64, len(entries))
	for _, entry := range entries {
		scores[entry.ParticipantID] = entry.Score
	}
	e.log.Info("quiz finished", "conversation", session.conversation, "session", session.id, "participants", len(session.participants))
	return append(msgs,
		summaryMessage(session.conversation, session.summary(scores)),
		leaderboardMessage(domain.NewLeaderboard(session.conversation, entries, now)),
	)
}

// transition serializes fn against other operations on the session, then
// emits its messages after releasing the state lock. The conversation's
// outbound lock is held from before fn until emission ends, so a session
// removed by fn cannot be overtaken by its successor's start.
func (e *Engine) transition(ctx context.Context, session *Session, fn func() ([]domain.Message, error)) error {
	out := e.registry.outbound(session.conversation)
	out.Lock()
	defer out.Unlock()

	session.mu.Lock()
	msgs, err := fn()
	session.mu.Unlock()

	e.emit(ctx, msgs)
	return err
}

// StopSession ends the running session without a summary. Scores already
// applied are kept.
func (e *Engine) StopSession(ctx context.Context, req ControlRequest) error {
	err := e.stop(ctx, req)
	if err != nil {
		e.emit(ctx, []domain.Message{errorMessage(req.Conversation, err)})
	}
	return err
}

func (e *Engine) stop(ctx context.Context, req ControlRequest) error {
	if err := e.authorize(ctx, req.Conversation, req.Actor, req.Direct); err != nil {
		return err
	}
	session, ok := e.registry.Get(req.Conversation)
	if !ok {
		return domain.ErrNoActiveSession
	}
	return e.transition(ctx, session, func() ([]domain.Message, error) {
		if session.closed {
			return nil, domain.ErrNoActiveSession
		}
		session.closed = true
		e.registry.Remove(req.Conversation, session)
		e.log.Info("quiz stopped", "conversation", req.Conversation, "session", session.id, "actor", req.Actor.ID)
		return []domain.Message{noticeMessage(req.Conversation, "🛑 Quiz stopped.")}, nil
	})
}

// ResetScores clears the conversation's scoreboard.
func (e *Engine) ResetScores(ctx context.Context, req ControlRequest) error {
	err := e.authorize(ctx, req.Conversation, req.Actor, req.Direct)
	if err == nil {
		err = e.scores.Reset(ctx, req.Conversation)
	}
	if err != nil {
		e.emit(ctx, []domain.Message{errorMessage(req.Conversation, err)})
		return err
	}
	e.log.Info("scores reset", "conversation", req.Conversation, "actor", req.Actor.ID)
	e.emit(ctx, []domain.Message{noticeMessage(req.Conversation, "♻️ Leaderboard reset.")})
	return nil
}

// Leaderboard returns the conversation's ranked scoreboard.
func (e *Engine) Leaderboard(ctx context.Context, conversation string) (domain.Leaderboard, error) {
	entries, err := e.scores.Get(ctx, conversation)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("read scoreboard: %w", err)
	}
	return domain.NewLeaderboard(conversation, entries, e.now()), nil
}

// ShowLeaderboard emits the ranked scoreboard to the conversation.
func (e *Engine) ShowLeaderboard(ctx context.Context, conversation string) error {
	lb, err := e.Leaderboard(ctx, conversation)
	if err != nil {
		e.emit(ctx, []domain.Message{errorMessage(conversation, err)})
		return err
	}
	e.emit(ctx, []domain.Message{leaderboardMessage(lb)})
	return nil
}

// Session returns a snapshot of the conversation's live session.
func (e *Engine) Session(conversation string) (SessionView, bool) {
	session, ok := e.registry.Get(conversation)
	if !ok {
		return SessionView{}, false
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.closed {
		return SessionView{}, false
	}
	return session.view(), true
}

func (e *Engine) authorize(ctx context.Context, conversation string, actor domain.Participant, direct bool) error {
	if direct || e.permissions == nil {
		return nil
	}
	ok, err := e.permissions.IsPrivileged(ctx, actor.ID, conversation)
	if err != nil {
		e.log.Warn("permission check failed", "conversation", conversation, "actor", actor.ID, "error", err)
		return errors.Join(domain.ErrNotPrivileged, err)
	}
	if !ok {
		return domain.ErrNotPrivileged
	}
	return nil
}

func (e *Engine) emit(ctx context.Context, msgs []domain.Message) {
	if e.transport == nil {
		return
	}
	for _, msg := range msgs {
		if err := e.transport.Emit(ctx, msg); err != nil {
			e.log.Warn("emit failed", "conversation", msg.Target.Conversation, "kind", msg.Kind, "error", err)
		}
	}
}

func (e *Engine) ack(ctx context.Context, eventID, text string) {
	if e.transport == nil || eventID == "" {
		return
	}
	if err := e.transport.EmitAck(ctx, eventID, text); err != nil {
		e.log.Warn("ack failed", "event", eventID, "error", err)
	}
}
