package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"quake_bot/internal/model"
)

var ignoreID = cmpopts.IgnoreFields(model.Delivery{}, "ID")

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	base := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	records := []model.Delivery{
		{ChatID: "1", Category: model.CategorySignificant, EventID: "a", Title: "A", Status: model.DeliverySent, CreatedAt: base},
		{ChatID: "1", Category: model.CategoryM4Plus, EventID: "b", Title: "B", Status: model.DeliveryFailed, Error: "forbidden", CreatedAt: base.Add(time.Minute)},
		{ChatID: "2", Category: model.CategoryAll, EventID: "c", Title: "C", Status: model.DeliverySent, CreatedAt: base.Add(2 * time.Minute)},
		{ChatID: "1", Category: model.CategoryAll, EventID: "d", Title: "D", Status: model.DeliverySent, CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, r := range records {
		if err := s.RecordDelivery(ctx, r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	tests := []struct {
		name   string
		chatID string
		limit  int
		want   []model.Delivery
	}{
		{
			name:   "newest first with limit",
			chatID: "1",
			limit:  2,
			want:   []model.Delivery{records[3], records[1]},
		},
		{
			name:   "other chat",
			chatID: "2",
			limit:  10,
			want:   []model.Delivery{records[2]},
		},
		{
			name:   "unknown chat",
			chatID: "3",
			limit:  10,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Recent(ctx, tt.chatID, tt.limit)
			if err != nil {
				t.Fatalf("recent: %v", err)
			}
			if diff := cmp.Diff(tt.want, got, ignoreID); diff != "" {
				t.Errorf("Recent() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecordDefaultsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)
	fixed := time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if err := s.RecordDelivery(ctx, model.Delivery{ChatID: "1", EventID: "e", Status: model.DeliverySent}); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := s.Recent(ctx, "1", 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
	if !got[0].CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", got[0].CreatedAt, fixed)
	}
}

func TestWasDelivered(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	for _, d := range []model.Delivery{
		{ChatID: "1", EventID: "sent", Status: model.DeliverySent},
		{ChatID: "1", EventID: "failed", Status: model.DeliveryFailed},
	} {
		if err := s.RecordDelivery(ctx, d); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	tests := []struct {
		name    string
		chatID  string
		eventID string
		want    bool
	}{
		{name: "sent event", chatID: "1", eventID: "sent", want: true},
		{name: "failed event", chatID: "1", eventID: "failed", want: false},
		{name: "other chat", chatID: "2", eventID: "sent", want: false},
		{name: "unknown event", chatID: "1", eventID: "nope", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.WasDelivered(ctx, tt.chatID, tt.eventID)
			if err != nil {
				t.Fatalf("was delivered: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("WasDelivered() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	empty, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if diff := cmp.Diff(Stats{}, empty); diff != "" {
		t.Errorf("empty Stats() mismatch (-want +got):\n%s", diff)
	}

	for _, status := range []model.DeliveryStatus{model.DeliverySent, model.DeliverySent, model.DeliveryFailed} {
		if err := s.RecordDelivery(ctx, model.Delivery{ChatID: "1", EventID: "e", Status: status}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if diff := cmp.Diff(Stats{Sent: 2, Failed: 1}, got); diff != "" {
		t.Errorf("Stats() mismatch (-want +got):\n%s", diff)
	}
}

func TestRecentRejectsMalformedTimestamp(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deliveries (chat_id, category, event_id, title, status, error, created_at)
		 VALUES ('1', 'all', 'e', 'T', 'sent', '', 'yesterday')`)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := s.Recent(ctx, "1", 10); err == nil {
		t.Fatal("expected error for malformed created_at, got nil")
	}
}
