package telegram

import (
	"context"
	"fmt"
	"strconv"

	"gopkg.in/telebot.v4"
)

// Permissions treats chat administrators and the chat creator as
// privileged.
type Permissions struct {
	api API
}

func NewPermissions(api API) *Permissions {
	return &Permissions{api: api}
}

func (p *Permissions) IsPrivileged(_ context.Context, actorID, conversation string) (bool, error) {
	chatID, err := strconv.ParseInt(conversation, 10, 64)
	if err != nil {
		return false, fmt.Errorf("conversation %q: %w", conversation, err)
	}
	userID, err := strconv.ParseInt(actorID, 10, 64)
	if err != nil {
		return false, fmt.Errorf("actor %q: %w", actorID, err)
	}
	member, err := p.api.ChatMemberOf(&telebot.Chat{ID: chatID}, &telebot.User{ID: userID})
	if err != nil {
		return false, fmt.Errorf("chat member: %w", err)
	}
	return member.Role == telebot.Administrator || member.Role == telebot.Creator, nil
}
