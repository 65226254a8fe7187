package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/telebot.v4"
)

// NewBot connects to the Bot API with long polling.
func NewBot(token string, log *slog.Logger) (*telebot.Bot, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			log.Warn("telegram handler error", "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("telebot.NewBot: %w", err)
	}
	return bot, nil
}

// Run polls for updates until ctx is canceled.
func Run(ctx context.Context, bot *telebot.Bot, log *slog.Logger) error {
	go func() {
		<-ctx.Done()
		bot.Stop()
	}()
	log.Info("telegram bot started", "username", bot.Me.Username)
	bot.Start()
	log.Info("telegram bot stopped")
	return nil
}
