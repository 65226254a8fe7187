package telegram

import (
	"context"
	"fmt"
	"strconv"

	"group-quiz-bot/internal/domain"
	"gopkg.in/telebot.v4"
)

// API is the part of *telebot.Bot the transport and permissions use.
type API interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
	Respond(c *telebot.Callback, resp ...*telebot.CallbackResponse) error
	ChatMemberOf(chat, user telebot.Recipient) (*telebot.ChatMember, error)
}

// Transport delivers engine output to Telegram chats. Conversations are
// chat IDs and participants are user IDs, both in decimal.
type Transport struct {
	api API
}

func NewTransport(api API) *Transport {
	return &Transport{api: api}
}

// Emit sends msg to the chat, or as a direct message when it targets one
// participant. Question choices become an inline keyboard.
func (t *Transport) Emit(_ context.Context, msg domain.Message) error {
	to, err := recipient(msg.Target)
	if err != nil {
		return err
	}
	opts := &telebot.SendOptions{}
	if len(msg.Choices) > 0 {
		opts.ReplyMarkup = answerKeyboard(msg.Choices)
	}
	if _, err := t.api.Send(to, msg.Text, opts); err != nil {
		return fmt.Errorf("send %s to %s: %w", msg.Kind, to.Recipient(), err)
	}
	return nil
}

// EmitAck answers the callback query identified by eventID.
func (t *Transport) EmitAck(_ context.Context, eventID, text string) error {
	err := t.api.Respond(&telebot.Callback{ID: eventID}, &telebot.CallbackResponse{Text: text})
	if err != nil {
		return fmt.Errorf("respond to callback %s: %w", eventID, err)
	}
	return nil
}

func recipient(target domain.Target) (telebot.Recipient, error) {
	if target.Private() {
		id, err := strconv.ParseInt(target.Participant, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("participant %q: %w", target.Participant, err)
		}
		return &telebot.User{ID: id}, nil
	}
	id, err := strconv.ParseInt(target.Conversation, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("conversation %q: %w", target.Conversation, err)
	}
	return &telebot.Chat{ID: id}, nil
}

func answerKeyboard(choices []string) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, len(choices))
	for i, choice := range choices {
		btn := markup.Data(fmt.Sprintf("%d. %s", i+1, choice), answerPrefix+strconv.Itoa(i))
		rows = append(rows, markup.Row(btn))
	}
	markup.Inline(rows...)
	return markup
}
