package bot

import (
	"fmt"
	"strconv"
	"strings"

	"quake_bot/internal/model"
)

const toggleAction = "toggle"

// Reply keyboard buttons.
const (
	buttonSubscribe   = "🔔 Subscribe"
	buttonCustomize   = "⚙️ Customize"
	buttonStatus      = "📊 Status"
	buttonLatest      = "🔄 Latest"
	buttonUnsubscribe = "🔕 Unsubscribe"
)

var menuCommands = map[string]string{
	buttonSubscribe:   cmdSubscribe,
	buttonCustomize:   cmdCustomize,
	buttonStatus:      cmdStatus,
	buttonLatest:      cmdLatest,
	buttonUnsubscribe: cmdUnsubscribe,
}

// ParseMenuButton maps a reply keyboard button label to its command.
func ParseMenuButton(text string) (string, bool) {
	cmd, ok := menuCommands[strings.TrimSpace(text)]
	return cmd, ok
}

// ToggleData builds the callback data of a preference toggle button.
func ToggleData(c model.Category) string {
	return toggleAction + ":" + string(c)
}

// ParseToggleData extracts the category from toggle callback data. Both
// "toggle:<category>" and the older "toggle_<category>" forms are accepted.
func ParseToggleData(data string) (model.Category, error) {
	var name string
	switch {
	case strings.HasPrefix(data, toggleAction+":"):
		name = strings.TrimPrefix(data, toggleAction+":")
	case strings.HasPrefix(data, toggleAction+"_"):
		name = strings.TrimPrefix(data, toggleAction+"_")
	default:
		return "", fmt.Errorf("not a toggle callback: %q", data)
	}
	return model.ParseCategory(name)
}

// ChatKey renders a Telegram chat ID as a subscriber identity.
func ChatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
