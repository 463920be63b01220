package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Telegram шлёт уведомление через Bot API (отдельный бот, не игровая сессия).
type Telegram struct {
	bot  *telego.Bot
	chat telego.ChatID
}

func NewTelegram(token, chat string) (*Telegram, error) {
	chatID, err := parseChatID(chat)
	if err != nil {
		return nil, err
	}
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chat: chatID}, nil
}

// parseChatID: число — id чата, иначе @username канала.
func parseChatID(chat string) (telego.ChatID, error) {
	chat = strings.TrimSpace(chat)
	if chat == "" {
		return telego.ChatID{}, errors.New("telegram: chat is required")
	}
	if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
		return tu.ID(id), nil
	}
	if !strings.HasPrefix(chat, "@") {
		chat = "@" + chat
	}
	return tu.Username(chat), nil
}

func (t *Telegram) Send(ctx context.Context, message string) error {
	_, err := t.bot.SendMessage(ctx, tu.Message(t.chat, message))
	return err
}
