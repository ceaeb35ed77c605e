package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Category
		wantErr bool
	}{
		{name: "significant", in: "significant", want: CategorySignificant},
		{name: "all", in: "all", want: CategoryAll},
		{name: "unknown", in: "m9plus", wantErr: true},
		{name: "case sensitive", in: "M4Plus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseCategory() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPreferencesApply(t *testing.T) {
	p := NewSubscriberDefaults()
	p.Apply(PreferencePatch{CategoryM1Plus: true, CategorySignificant: false})

	want := Preferences{Significant: false, M4Plus: true, M1Plus: true}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}

	for _, c := range Categories {
		if got := p.Get(c); got != want.Get(c) {
			t.Errorf("Get(%s) = %v, want %v", c, got, want.Get(c))
		}
	}
}

func TestPreferencesMissingKeysDecodeFalse(t *testing.T) {
	var p Preferences
	if err := json.Unmarshal([]byte(`{"significant":true}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := Preferences{Significant: true}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("decoded preferences mismatch (-want +got):\n%s", diff)
	}
	if !p.Any() {
		t.Error("expected Any() to be true")
	}
	if (Preferences{}).Any() {
		t.Error("expected Any() to be false for zero preferences")
	}
}

func TestDisplayName(t *testing.T) {
	got := make([]string, 0, len(Categories))
	for _, c := range Categories {
		got = append(got, c.DisplayName())
	}
	want := []string{
		"Significant Earthquake",
		"M4.5+ Earthquake",
		"M2.5+ Earthquake",
		"M1.0+ Earthquake",
		"All Earthquakes",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("display names mismatch (-want +got):\n%s", diff)
	}
}
