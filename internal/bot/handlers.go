package bot

import (
	"context"
	"errors"
	"fmt"

	"quake_bot/internal/model"
	"quake_bot/internal/subscribers"
)

const (
	cmdStart       = "start"
	cmdHelp        = "help"
	cmdSubscribe   = "subscribe"
	cmdUnsubscribe = "unsubscribe"
	cmdCustomize   = "customize"
	cmdStatus      = "status"
	cmdLatest      = "latest"
	cmdHistory     = "history"

	historyLimit = 10
)

func (b *Bot) handleCommand(ctx context.Context, chatID int64, cmd, args string) {
	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case cmdStart:
		b.handleStart(chatID)
	case cmdHelp:
		b.handleHelp(chatID)
	case cmdSubscribe:
		b.handleSubscribe(chatID)
	case cmdUnsubscribe:
		b.handleUnsubscribe(chatID)
	case cmdCustomize:
		b.handleCustomize(chatID)
	case cmdStatus:
		b.handleStatus(chatID)
	case cmdLatest:
		b.handleLatest(ctx, chatID)
	case cmdHistory:
		b.handleHistory(ctx, chatID)
	default:
		if c, err := model.ParseCategory(cmd); err == nil {
			b.handleToggle(chatID, c)
			return
		}
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}

func (b *Bot) handleStart(chatID int64) {
	text := "Welcome to EarthBoundBot! 🌍\n\n" +
		"I send real-time earthquake alerts from the USGS (United States Geological Survey).\n\n" +
		"🔔 *Available Options:*\n" +
		"• Subscribe - Get notifications for all earthquakes\n" +
		"• Customize - Choose which magnitude levels to monitor:\n" +
		"  - Significant events (typically M6.0+)\n" +
		"  - M4.5+ (moderate to large)\n" +
		"  - M2.5+ (minor earthquakes)\n" +
		"  - M1.0+ (very minor)\n" +
		"  - All detected events\n" +
		"• Status - View your current notification settings\n" +
		"• Latest - Get the most recent earthquake data\n" +
		"• Unsubscribe - Stop all notifications\n\n" +
		fmt.Sprintf("🔄 Feeds are checked every %d minutes.\n\n", b.cfg.IntervalMinutes) +
		"Use the menu buttons below to get started! 👇"
	b.replyMarkdown(chatID, text, MainKeyboard())
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Subscription:
/subscribe - receive alerts for every category
/unsubscribe - stop all alerts
/customize - toggle categories with buttons
/status - show your current settings

Categories:
/significant - significant earthquakes
/m4plus - magnitude 4.5+
/m2plus - magnitude 2.5+
/m1plus - magnitude 1.0+
/all - every detected earthquake

Alerts:
/latest - send the latest events for your categories now
/history - alerts recently sent to this chat`)
}

func (b *Bot) handleSubscribe(chatID int64) {
	b.store.Upsert(ChatKey(chatID), model.PatchAll(true))
	b.reply(chatID, "✅ You've successfully subscribed to all earthquake notifications! You'll receive alerts for new earthquakes.")
}

func (b *Bot) handleUnsubscribe(chatID int64) {
	b.store.Remove(ChatKey(chatID))
	b.reply(chatID, "🔕 You've unsubscribed from earthquake notifications. You can subscribe again anytime with /subscribe.")
}

func (b *Bot) handleCustomize(chatID int64) {
	var prefs model.Preferences
	if sub, err := b.store.Find(ChatKey(chatID)); err == nil {
		prefs = sub.Preferences
	}
	b.replyMarkdown(chatID, customizeText, CustomizeKeyboard(prefs))
}

func (b *Bot) handleStatus(chatID int64) {
	sub, err := b.store.Find(ChatKey(chatID))
	if err != nil {
		b.reply(chatID, "❌ You are not subscribed to any earthquake notifications. Use /subscribe to start receiving updates.")
		return
	}
	b.reply(chatID, FormatStatus(sub.Preferences))
}

func (b *Bot) handleToggle(chatID int64, c model.Category) {
	enabled := b.store.Toggle(ChatKey(chatID), c)
	b.reply(chatID, FormatToggle(c, enabled))
}

func (b *Bot) handleLatest(ctx context.Context, chatID int64) {
	if _, err := b.store.Find(ChatKey(chatID)); errors.Is(err, subscribers.ErrNotFound) {
		b.reply(chatID, "❌ You must be subscribed to receive earthquake data. Use /subscribe first.")
		return
	}

	b.reply(chatID, "Fetching the latest earthquake data based on your preferences...")

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.runLatest(ctx, chatID)
	}()
}

func (b *Bot) runLatest(ctx context.Context, chatID int64) {
	report, err := b.cycles.RunFor(ctx, ChatKey(chatID))
	if err != nil {
		b.log.Error("on-demand cycle", "chat_id", chatID, "error", err)
		b.reply(chatID, "❌ Sorry, there was an error fetching the latest earthquake data. Please try again later.")
		return
	}
	b.log.Info("on-demand cycle done", "chat_id", chatID, "sent", report.Delivery.Sent)
	b.reply(chatID, "✅ Latest earthquake data has been sent for your subscribed categories.")
}

func (b *Bot) handleHistory(ctx context.Context, chatID int64) {
	if b.history == nil {
		b.reply(chatID, "History is not available.")
		return
	}
	deliveries, err := b.history.Recent(ctx, ChatKey(chatID), historyLimit)
	if err != nil {
		b.log.Error("load history", "chat_id", chatID, "error", err)
		b.reply(chatID, "Failed to load history. Please try again later.")
		return
	}
	b.reply(chatID, FormatHistory(deliveries))
}
