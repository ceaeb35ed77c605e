package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quake_bot/internal/model"
)

const customizeText = "*🎛 Customize Your Earthquake Notifications*\n\n" +
	"Tap each button to toggle notifications for that magnitude level. " +
	"Your current settings are shown below:\n\n" +
	"✅ = Enabled  |  ⭕️ = Disabled"

const historyTimeLayout = "2006-01-02 15:04 UTC"

func buttonLabel(c model.Category) string {
	switch c {
	case model.CategorySignificant:
		return "Significant (M6.0+)"
	case model.CategoryM4Plus:
		return "Strong (M4.5+)"
	case model.CategoryM2Plus:
		return "Moderate (M2.5+)"
	case model.CategoryM1Plus:
		return "Minor (M1.0+)"
	default:
		return "All Events"
	}
}

func statusLabel(c model.Category) string {
	switch c {
	case model.CategorySignificant:
		return "Significant earthquakes"
	case model.CategoryM4Plus:
		return "Magnitude 4.5+ earthquakes"
	case model.CategoryM2Plus:
		return "Magnitude 2.5+ earthquakes"
	case model.CategoryM1Plus:
		return "Magnitude 1.0+ earthquakes"
	default:
		return "All earthquakes"
	}
}

func toggleSubject(c model.Category) string {
	switch c {
	case model.CategorySignificant:
		return "significant earthquakes"
	case model.CategoryM4Plus:
		return "earthquakes of magnitude 4.5+"
	case model.CategoryM2Plus:
		return "earthquakes of magnitude 2.5+"
	case model.CategoryM1Plus:
		return "earthquakes of magnitude 1.0+"
	default:
		return "all earthquakes"
	}
}

// MainKeyboard is the persistent reply keyboard.
func MainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonSubscribe),
			tgbotapi.NewKeyboardButton(buttonCustomize),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonStatus),
			tgbotapi.NewKeyboardButton(buttonLatest),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonUnsubscribe),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// CustomizeKeyboard renders one toggle button per category.
func CustomizeKeyboard(p model.Preferences) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(model.Categories))
	for _, c := range model.Categories {
		mark := "⭕️"
		if p.Get(c) {
			mark = "✅"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(mark+" "+buttonLabel(c), ToggleData(c)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// FormatStatus lists the subscriber's preferences.
func FormatStatus(p model.Preferences) string {
	var b strings.Builder
	b.WriteString("Your subscription status:\n\n")
	for _, c := range model.Categories {
		mark := "❌"
		if p.Get(c) {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %s\n", mark, statusLabel(c))
	}
	b.WriteString("\nUse /customize to change your preferences.")
	return b.String()
}

// FormatToggle confirms a single category switch.
func FormatToggle(c model.Category, enabled bool) string {
	if enabled {
		return "✅ You will now receive notifications for " + toggleSubject(c) + "."
	}
	return "❌ You will no longer receive notifications for " + toggleSubject(c) + "."
}

// FormatToggleAnswer is the short callback answer after a toggle.
func FormatToggleAnswer(c model.Category, enabled bool) string {
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return c.DisplayName() + " notifications " + state
}

// FormatHistory lists recent deliveries, newest first.
func FormatHistory(deliveries []model.Delivery) string {
	if len(deliveries) == 0 {
		return "No alerts have been sent to this chat yet."
	}
	var b strings.Builder
	b.WriteString("Recent alerts:\n")
	for _, d := range deliveries {
		mark := "✅"
		if d.Status != model.DeliverySent {
			mark = "❌"
		}
		fmt.Fprintf(&b, "\n%s %s  %s\n   %s", mark, d.CreatedAt.UTC().Format(historyTimeLayout),
			d.Category.DisplayName(), d.Title)
	}
	return b.String()
}
