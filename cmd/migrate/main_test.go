package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDays(t *testing.T) {
	tests := []struct {
		arg     string
		want    int
		wantErr bool
	}{
		{arg: "30", want: 30},
		{arg: "1", want: 1},
		{arg: "3x", wantErr: true},
		{arg: "0", wantErr: true},
		{arg: "-5", wantErr: true},
		{arg: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseDays(tt.arg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseDays() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
