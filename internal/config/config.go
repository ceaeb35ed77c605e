// Package config handles application configuration from flags and
// environment variables.
package config

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// ErrHelp is returned when usage was requested and printed.
var ErrHelp = errors.New("help requested")

type rawConfig struct {
	TelegramBotToken string `long:"token" env:"TELEGRAM_BOT_TOKEN" description:"Telegram bot token (required)"`
	DefaultChatID    string `long:"chat-id" env:"TELEGRAM_CHAT_ID" description:"Chat subscribed to every category on first run"`
	Port             int    `long:"port" env:"PORT" default:"8080" description:"Health server port"`
	Interval         int    `long:"interval" env:"NOTIFICATION_INTERVAL" default:"60" description:"Polling interval in minutes (1-1440)"`
	SubscribersPath  string `long:"subscribers" env:"SUBSCRIBERS_PATH" default:"./data/subscribers.json" description:"Subscriber preferences file"`
	DatabasePath     string `long:"db" env:"DATABASE_PATH" default:"./data/deliveries.db" description:"Delivery journal database"`
	LogLevel         string `long:"log-level" env:"LOG_LEVEL" default:"info" description:"Log level (debug, info, warn, error)"`
	AllowedUsers     string `long:"allowed-users" env:"ALLOWED_USERS" description:"Comma-separated Telegram user IDs allowed to use the bot"`
	FeedsFile        string `long:"feeds" env:"FEEDS_FILE" description:"YAML file overriding category feed URLs"`
	SendRate         int    `long:"send-rate" env:"SEND_RATE" default:"20" description:"Maximum outgoing messages per second (0 disables)"`
	SuppressRepeats  bool   `long:"suppress-repeats" env:"SUPPRESS_REPEATS" description:"Skip events already delivered in an earlier cycle"`
	Once             bool   `long:"once" description:"Run one notification cycle and exit"`
}

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	DefaultChatID    string
	Port             int
	IntervalMinutes  int
	SubscribersPath  string
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64
	FeedsFile        string
	SendRate         int
	SuppressRepeats  bool
	Once             bool
	Version          string
}

// Load reads configuration from the process arguments and environment.
func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs reads configuration from args and the environment. Flags take
// precedence over environment variables.
func LoadArgs(args []string) (*Config, error) {
	var raw rawConfig

	parser := flags.NewParser(&raw, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, flagsErr.Message)
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	if strings.TrimSpace(raw.TelegramBotToken) == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if raw.Interval < 1 || raw.Interval > 1440 {
		return nil, fmt.Errorf("NOTIFICATION_INTERVAL must be between 1 and 1440 minutes, got %d", raw.Interval)
	}
	if raw.Port < 1 || raw.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT %d", raw.Port)
	}
	if raw.SendRate < 0 {
		return nil, fmt.Errorf("SEND_RATE must not be negative, got %d", raw.SendRate)
	}

	allowedUsers, err := parseUserIDs(raw.AllowedUsers)
	if err != nil {
		return nil, err
	}

	return &Config{
		TelegramBotToken: strings.TrimSpace(raw.TelegramBotToken),
		DefaultChatID:    strings.TrimSpace(raw.DefaultChatID),
		Port:             raw.Port,
		IntervalMinutes:  raw.Interval,
		SubscribersPath:  raw.SubscribersPath,
		DatabasePath:     raw.DatabasePath,
		LogLevel:         raw.LogLevel,
		AllowedUsers:     allowedUsers,
		FeedsFile:        raw.FeedsFile,
		SendRate:         raw.SendRate,
		SuppressRepeats:  raw.SuppressRepeats,
		Once:             raw.Once,
		Version:          cmp.Or(Version, "unknown"),
	}, nil
}

func parseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		uid, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
		}
		ids = append(ids, uid)
	}
	return ids, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	return len(c.AllowedUsers) == 0 || slices.Contains(c.AllowedUsers, userID)
}
