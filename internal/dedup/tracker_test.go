package dedup

import "testing"

func TestTracker(t *testing.T) {
	tr := New()

	if !tr.ShouldSend("1", "ev") {
		t.Fatal("expected fresh tracker to allow send")
	}

	tr.MarkSent("1", "ev")

	tests := []struct {
		name    string
		chatID  string
		eventID string
		want    bool
	}{
		{name: "same chat same event", chatID: "1", eventID: "ev", want: false},
		{name: "same chat other event", chatID: "1", eventID: "ev2", want: true},
		{name: "other chat same event", chatID: "2", eventID: "ev", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.ShouldSend(tt.chatID, tt.eventID); got != tt.want {
				t.Errorf("ShouldSend(%q, %q) = %v, want %v", tt.chatID, tt.eventID, got, tt.want)
			}
		})
	}
}

func TestTrackerIsPerInstance(t *testing.T) {
	first := New()
	first.MarkSent("1", "ev")

	if !New().ShouldSend("1", "ev") {
		t.Error("expected a new tracker to start empty")
	}
}
