package attendance

import (
	"testing"
	"time"
)

func TestNewRecordFields(t *testing.T) {
	now := time.Date(2026, 2, 6, 9, 5, 3, 0, time.Local)
	rec := NewRecord("juan@co", Entry, "Col. Centro", now)

	if rec.Actor != "juan@co" {
		t.Errorf("actor: got %q", rec.Actor)
	}
	if rec.Kind != Entry {
		t.Errorf("kind: got %q", rec.Kind)
	}
	if rec.Date != "6/2/2026" {
		t.Errorf("date: want 6/2/2026, got %q", rec.Date)
	}
	if rec.Time != "09:05:03" {
		t.Errorf("time: want 09:05:03, got %q", rec.Time)
	}
	if rec.Place != "Col. Centro" {
		t.Errorf("place: got %q", rec.Place)
	}
	if rec.ID != "" {
		t.Errorf("assembly must not assign storage ids, got %q", rec.ID)
	}
}

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want ActionKind
		ok   bool
	}{
		{"entry", Entry, true},
		{"exit", Exit, true},
		{"Entrada", Entry, true},
		{"SALIDA", Exit, true},
		{" entry ", Entry, true},
		{"lunch", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseKind(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("ParseKind(%q): want %q, got %q err=%v", tc.in, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseKind(%q): expected error", tc.in)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := []struct{ in, domain, want string }{
		{"juan", "vertiaguas.com", "juan@vertiaguas.com"},
		{"Juan@Co.Com", "vertiaguas.com", "juan@co.com"},
		{"  maria  ", "vertiaguas.com", "maria@vertiaguas.com"},
		{"", "vertiaguas.com", ""},
		{"pedro", "", "pedro"},
	}
	for _, tc := range cases {
		if got := NormalizeEmail(tc.in, tc.domain); got != tc.want {
			t.Errorf("NormalizeEmail(%q, %q): want %q, got %q", tc.in, tc.domain, tc.want, got)
		}
	}
}
