package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"group-quiz-bot/internal/app"
	"group-quiz-bot/internal/domain"
	"gopkg.in/telebot.v4"
)

const answerPrefix = "answer_"

// Engine is the slice of app.Engine the bot handlers drive.
type Engine interface {
	OnStartRequested(ctx context.Context, req app.StartRequest) error
	OnAnswerSubmitted(ctx context.Context, sub app.AnswerSubmission) (domain.AnswerResult, error)
	OnPoll(ctx context.Context) int
	ShowLeaderboard(ctx context.Context, conversation string) error
	ResetScores(ctx context.Context, req app.ControlRequest) error
	StopSession(ctx context.Context, req app.ControlRequest) error
}

type Handlers struct {
	ctx    context.Context
	engine Engine
	log    *slog.Logger
}

func NewHandlers(ctx context.Context, engine Engine, log *slog.Logger) *Handlers {
	if log == nil {
		log = slog.Default()
	}
	return &Handlers{ctx: ctx, engine: engine, log: log}
}

// Register installs middleware and command handlers on bot.
func (h *Handlers) Register(bot *telebot.Bot) {
	bot.Use(h.Recover, h.Poll)

	bot.Handle("/quiz", h.start(domain.SizeSmall))
	bot.Handle("/bigquiz", h.start(domain.SizeLarge))
	bot.Handle("/leaderboard", h.leaderboard)
	bot.Handle("/resetscores", h.reset)
	bot.Handle("/stopquiz", h.stop)
	bot.Handle(telebot.OnCallback, h.answer)
}

// Poll runs an expiry sweep before every update.
func (h *Handlers) Poll(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		h.engine.OnPoll(h.ctx)
		return next(c)
	}
}

// Recover turns a handler panic into an error.
func (h *Handlers) Recover(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				switch x := r.(type) {
				case error:
					err = x
				case string:
					err = errors.New(x)
				default:
					err = errors.New("unknown panic")
				}
				h.log.Error("recovered from panic in telegram handler", "error", err)
			}
		}()
		return next(c)
	}
}

func (h *Handlers) start(size domain.SizeClass) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		err := h.engine.OnStartRequested(h.ctx, app.StartRequest{
			Conversation: conversationOf(c.Chat()),
			Direct:       isDirect(c.Chat()),
			Actor:        participantOf(c.Sender()),
			Size:         size,
		})
		return h.reported(err)
	}
}

func (h *Handlers) leaderboard(c telebot.Context) error {
	return h.reported(h.engine.ShowLeaderboard(h.ctx, conversationOf(c.Chat())))
}

func (h *Handlers) reset(c telebot.Context) error {
	return h.reported(h.engine.ResetScores(h.ctx, controlOf(c)))
}

func (h *Handlers) stop(c telebot.Context) error {
	return h.reported(h.engine.StopSession(h.ctx, controlOf(c)))
}

func (h *Handlers) answer(c telebot.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	option, ok := parseAnswer(cb.Data)
	if !ok {
		return c.Respond()
	}
	chat := c.Chat()
	if cb.Message != nil {
		chat = cb.Message.Chat
	}
	_, err := h.engine.OnAnswerSubmitted(h.ctx, app.AnswerSubmission{
		Conversation: conversationOf(chat),
		Participant:  participantOf(c.Sender()),
		EventID:      cb.ID,
		Option:       option,
	})
	return h.reported(err)
}

// reported drops errors the engine has already shown to the user.
func (h *Handlers) reported(err error) error {
	if err != nil {
		h.log.Debug("telegram command rejected", "error", err)
	}
	return nil
}

func controlOf(c telebot.Context) app.ControlRequest {
	return app.ControlRequest{
		Conversation: conversationOf(c.Chat()),
		Direct:       isDirect(c.Chat()),
		Actor:        participantOf(c.Sender()),
	}
}

// parseAnswer extracts the option index from callback data of the form
// "\fanswer_<n>". It reports false for callbacks that are not answers and
// returns -1 when the index does not parse.
func parseAnswer(data string) (int, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(data, "\f", ""))
	if i := strings.IndexByte(cleaned, '|'); i >= 0 {
		cleaned = cleaned[:i]
	}
	raw, found := strings.CutPrefix(cleaned, answerPrefix)
	if !found {
		return 0, false
	}
	option, err := strconv.Atoi(raw)
	if err != nil {
		return -1, true
	}
	return option, true
}

func conversationOf(chat *telebot.Chat) string {
	if chat == nil {
		return ""
	}
	return strconv.FormatInt(chat.ID, 10)
}

func isDirect(chat *telebot.Chat) bool {
	return chat != nil && chat.Type == telebot.ChatPrivate
}

func participantOf(user *telebot.User) domain.Participant {
	if user == nil {
		return domain.Participant{}
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.Username
	}
	if name == "" {
		name = strconv.FormatInt(user.ID, 10)
	}
	return domain.Participant{ID: strconv.FormatInt(user.ID, 10), DisplayName: name}
}
