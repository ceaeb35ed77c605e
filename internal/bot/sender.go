package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender delivers Markdown alerts through the Bot API.
type Sender struct {
	api telegramAPI
}

// NewSender creates a Sender on top of api.
func NewSender(api telegramAPI) *Sender {
	return &Sender{api: api}
}

// Send delivers text to chatID, which is either a numeric chat ID or a
// public "@channel" name.
func (s *Sender) Send(ctx context.Context, chatID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg tgbotapi.MessageConfig
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(id, text)
	} else if strings.HasPrefix(chatID, "@") {
		msg = tgbotapi.NewMessageToChannel(chatID, text)
	} else {
		return fmt.Errorf("invalid chat id %q", chatID)
	}
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("send to %s: %w", chatID, err)
	}
	return nil
}
