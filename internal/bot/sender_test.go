package bot

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"
)

func TestSenderSend(t *testing.T) {
	t.Run("numeric chat", func(t *testing.T) {
		api := &mockAPI{}
		if err := NewSender(api).Send(context.Background(), "-100200", "*hi*"); err != nil {
			t.Fatalf("Send() error: %v", err)
		}
		want := sentMsg{ChatID: -100200, Text: "*hi*", ParseMode: tgbotapi.ModeMarkdown}
		if diff := cmp.Diff(want, api.last()); diff != "" {
			t.Errorf("sent message mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("channel name", func(t *testing.T) {
		api := &mockAPI{}
		if err := NewSender(api).Send(context.Background(), "@quakes", "alert"); err != nil {
			t.Fatalf("Send() error: %v", err)
		}
		if diff := cmp.Diff([]string{"@quakes"}, api.channel); diff != "" {
			t.Errorf("channel mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("invalid identity", func(t *testing.T) {
		api := &mockAPI{}
		if err := NewSender(api).Send(context.Background(), "not-a-chat", "alert"); err == nil {
			t.Fatal("expected error, got nil")
		}
		if len(api.allTexts()) != 0 {
			t.Error("nothing should be sent for an invalid identity")
		}
	})

	t.Run("api error", func(t *testing.T) {
		api := &mockAPI{sendErr: errors.New("Forbidden: bot was blocked by the user")}
		err := NewSender(api).Send(context.Background(), "1", "alert")
		if !errors.Is(err, api.sendErr) {
			t.Errorf("Send() error = %v, want wrapped %v", err, api.sendErr)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		api := &mockAPI{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := NewSender(api).Send(ctx, "1", "alert"); !errors.Is(err, context.Canceled) {
			t.Errorf("Send() error = %v, want context.Canceled", err)
		}
		if len(api.allTexts()) != 0 {
			t.Error("nothing should be sent after cancellation")
		}
	})
}
