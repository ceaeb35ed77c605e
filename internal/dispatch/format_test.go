package dispatch

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"quake_bot/internal/model"
)

func TestFormatAlert(t *testing.T) {
	tests := []struct {
		name string
		ev   model.Event
		want string
	}{
		{
			name: "full event",
			ev:   testEvent(model.CategoryM4Plus),
			want: "🚨 *Earthquake Alert* 🚨\n" +
				"*Category:* M4.5+ Earthquake\n" +
				"*Title:* M 4.8 - 10km N of Example\n" +
				"*Magnitude:* 4.8\n" +
				"*Updated:* 2026-10-19 10:01:12 UTC\n" +
				"*Link:* https://example.com/ev",
		},
		{
			name: "markdown characters are escaped and empty link omitted",
			ev: model.Event{
				Category:  model.CategoryAll,
				Title:     "quake_near *city* [test]",
				Magnitude: "N/A",
				UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600)),
			},
			want: "🚨 *Earthquake Alert* 🚨\n" +
				"*Category:* All Earthquakes\n" +
				"*Title:* quake\\_near \\*city\\* \\[test]\n" +
				"*Magnitude:* N/A\n" +
				"*Updated:* 2026-01-02 02:04:05 UTC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FormatAlert(tt.ev)); diff != "" {
				t.Errorf("FormatAlert() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
