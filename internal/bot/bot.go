// Package bot implements the Telegram command interface and the chat
// transport used to deliver alerts.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quake_bot/internal/config"
	"quake_bot/internal/engine"
	"quake_bot/internal/model"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// SubscriberStore is the subscriber store as seen by the bot.
type SubscriberStore interface {
	Find(chatID string) (model.Subscriber, error)
	Upsert(chatID string, patch model.PreferencePatch) model.Subscriber
	Toggle(chatID string, c model.Category) bool
	Remove(chatID string) bool
}

// CycleRunner runs on-demand notification cycles.
type CycleRunner interface {
	RunFor(ctx context.Context, chatID string) (engine.Report, error)
}

// History returns past deliveries of a chat.
type History interface {
	Recent(ctx context.Context, chatID string, limit int) ([]model.Delivery, error)
}

// Bot is the Telegram bot that handles user commands.
type Bot struct {
	api     telegramAPI
	store   SubscriberStore
	cycles  CycleRunner
	history History
	cfg     *config.Config
	log     *slog.Logger

	wg sync.WaitGroup
}

// NewAPI connects to the Telegram Bot API.
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return api, nil
}

// New creates a Bot. history may be nil, which disables /history.
func New(api telegramAPI, store SubscriberStore, cycles CycleRunner, history History, cfg *config.Config, log *slog.Logger) *Bot {
	return &Bot{
		api:     api,
		store:   store,
		cycles:  cycles,
		history: history,
		cfg:     cfg,
		log:     log,
	}
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled
// and every on-demand cycle it started has finished.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if cb := update.CallbackQuery; cb != nil {
		if cb.From != nil && !b.cfg.IsUserAllowed(cb.From.ID) {
			b.answer(cb.ID, "Access denied.")
			return
		}
		b.handleCallback(cb)
		return
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	cmd := ""
	switch {
	case msg.IsCommand():
		cmd = msg.Command()
	default:
		var ok bool
		if cmd, ok = ParseMenuButton(msg.Text); !ok {
			return
		}
	}

	if msg.From != nil && !b.cfg.IsUserAllowed(msg.From.ID) {
		b.reply(msg.Chat.ID, "Access denied.")
		return
	}
	b.handleCommand(ctx, msg.Chat.ID, cmd, strings.TrimSpace(msg.CommandArguments()))
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	b.send(msg)
}

func (b *Bot) replyMarkdown(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	b.send(msg)
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", msg.ChatID, "error", err)
	}
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Error("answer callback", "error", err)
	}
}
