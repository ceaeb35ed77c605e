package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quake_bot/internal/model"
)

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		b.answer(cb.ID, "")
		return
	}
	chatID := cb.Message.Chat.ID

	category, err := ParseToggleData(cb.Data)
	if err != nil {
		b.log.Debug("ignore callback", "data", cb.Data, "chat_id", chatID)
		b.answer(cb.ID, "")
		return
	}

	enabled := b.store.Toggle(ChatKey(chatID), category)

	attrs := []any{"category", category, "enabled", enabled, "chat_id", chatID}
	if cb.From != nil {
		attrs = append(attrs, "user_id", cb.From.ID, "username", cb.From.UserName)
	}
	b.log.Info("callback", attrs...)

	prefs := b.currentPreferences(chatID)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, cb.Message.MessageID, customizeText, CustomizeKeyboard(prefs))
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Request(edit); err != nil {
		b.log.Error("edit customize message", "chat_id", chatID, "error", err)
	}

	b.answer(cb.ID, FormatToggleAnswer(category, enabled))
}

func (b *Bot) currentPreferences(chatID int64) model.Preferences {
	sub, err := b.store.Find(ChatKey(chatID))
	if err != nil {
		return model.Preferences{}
	}
	return sub.Preferences
}
