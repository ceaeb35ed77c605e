package dispatch

import (
	"fmt"
	"strings"

	"quake_bot/internal/model"
)

const timeLayout = "2006-01-02 15:04:05 UTC"

var markdownEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"[", `\[`,
	"`", "\\`",
)

// EscapeMarkdown escapes the characters that Telegram's legacy Markdown mode
// treats as entity delimiters.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// FormatAlert renders an event as a Markdown alert message.
func FormatAlert(ev model.Event) string {
	var b strings.Builder
	b.WriteString("🚨 *Earthquake Alert* 🚨\n")
	fmt.Fprintf(&b, "*Category:* %s\n", EscapeMarkdown(ev.Category.DisplayName()))
	fmt.Fprintf(&b, "*Title:* %s\n", EscapeMarkdown(ev.Title))
	fmt.Fprintf(&b, "*Magnitude:* %s\n", EscapeMarkdown(ev.Magnitude))
	fmt.Fprintf(&b, "*Updated:* %s", ev.UpdatedAt.UTC().Format(timeLayout))
	if ev.Link != "" {
		fmt.Fprintf(&b, "\n*Link:* %s", EscapeMarkdown(ev.Link))
	}
	return b.String()
}
