package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"quake_bot/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func get(t *testing.T, s *Server, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Handler().ServeHTTP(rec, req)

	var body map[string]any
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v\n%s", err, rec.Body.String())
		}
	}
	return rec.Code, body
}

func TestHealth(t *testing.T) {
	s := New("1.2.3", nil, testLogger())
	s.started = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return time.Date(2026, 10, 19, 10, 1, 30, 0, time.UTC) }

	code, body := get(t, s, "/health")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}

	got := map[string]any{
		"status":    body["status"],
		"uptime":    body["uptime"],
		"timestamp": body["timestamp"],
		"version":   body["version"],
	}
	want := map[string]any{
		"status":    "healthy",
		"uptime":    90.0,
		"timestamp": "2026-10-19T10:01:30Z",
		"version":   "1.2.3",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("health body mismatch (-want +got):\n%s", diff)
	}
	if _, ok := body["memory"].(map[string]any); !ok {
		t.Errorf("expected memory object, got %v", body["memory"])
	}
	if _, ok := body["subscribers"]; ok {
		t.Error("health must not report subscribers")
	}
}

func TestMetrics(t *testing.T) {
	tests := []struct {
		name  string
		stats StatsFunc
		want  map[string]any
	}{
		{
			name: "with journal",
			stats: func(context.Context) (storage.Stats, error) {
				return storage.Stats{Sent: 7, Failed: 2}, nil
			},
			want: map[string]any{"subscribers": 3.0, "sent": 7.0, "failed": 2.0},
		},
		{
			name: "journal error omits counters",
			stats: func(context.Context) (storage.Stats, error) {
				return storage.Stats{}, errors.New("database is locked")
			},
			want: map[string]any{"subscribers": 3.0, "sent": nil, "failed": nil},
		},
		{
			name:  "without journal",
			stats: nil,
			want:  map[string]any{"subscribers": 3.0, "sent": nil, "failed": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("dev", tt.stats, testLogger())
			s.SetSubscribers(3)

			code, body := get(t, s, "/metrics")
			if code != http.StatusOK {
				t.Fatalf("status = %d, want 200", code)
			}
			got := map[string]any{
				"subscribers": body["subscribers"],
				"sent":        body["sent"],
				"failed":      body["failed"],
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("metrics body mismatch (-want +got):\n%s", diff)
			}
			if body["status"] != "healthy" {
				t.Errorf("status = %v, want healthy", body["status"])
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	s := New("dev", nil, testLogger())
	code, _ := get(t, s, "/nope")
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s := New("dev", nil, testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
