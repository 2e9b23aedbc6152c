package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		want    Month
		wantErr bool
	}{
		{name: "january", token: "2025-01", want: Month{Year: 2025, Month: time.January}},
		{name: "december", token: "2024-12", want: Month{Year: 2024, Month: time.December}},
		{name: "month zero", token: "2025-00", wantErr: true},
		{name: "month thirteen", token: "2025-13", wantErr: true},
		{name: "missing padding", token: "2025-1", wantErr: true},
		{name: "full date", token: "2025-01-01", wantErr: true},
		{name: "slash separator", token: "2025/01", wantErr: true},
		{name: "empty", token: "", wantErr: true},
		{name: "letters", token: "abcd-ef", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonth(tt.token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMonth) {
					t.Fatalf("ParseMonth(%q) error = %v, want ErrInvalidMonth", tt.token, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMonth(%q) unexpected error: %v", tt.token, err)
			}
			if got != tt.want {
				t.Errorf("ParseMonth(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestAdvanceMonth(t *testing.T) {
	tests := []struct {
		token  string
		offset int
		want   string
	}{
		{"2025-01", 0, "2025-01"},
		{"2025-01", 1, "2025-02"},
		{"2025-11", 1, "2025-12"},
		{"2025-11", 2, "2026-01"},
		{"2025-12", 1, "2026-01"},
		{"2025-06", 30, "2027-12"},
		{"2025-06", 31, "2028-01"},
		{"2025-01", -1, "2024-12"},
		{"2025-03", -15, "2023-12"},
	}

	for _, tt := range tests {
		got, err := AdvanceMonth(tt.token, tt.offset)
		if err != nil {
			t.Fatalf("AdvanceMonth(%q, %d) unexpected error: %v", tt.token, tt.offset, err)
		}
		if got != tt.want {
			t.Errorf("AdvanceMonth(%q, %d) = %q, want %q", tt.token, tt.offset, got, tt.want)
		}
	}

	if _, err := AdvanceMonth("2025-13", 1); !errors.Is(err, ErrInvalidMonth) {
		t.Errorf("expected ErrInvalidMonth for malformed token, got %v", err)
	}
}

func TestMonthIndexContiguous(t *testing.T) {
	m := Month{Year: 2023, Month: time.October}
	for i := 0; i < 40; i++ {
		next := m.Add(1)
		if next.Index()-m.Index() != 1 {
			t.Fatalf("%v -> %v is not contiguous", m, next)
		}
		if !next.Start().After(m.Start()) {
			t.Fatalf("%v does not start after %v", next, m)
		}
		m = next
	}
}

func TestMaxMonthIsLastParseable(t *testing.T) {
	got, err := ParseMonth(MaxMonth.String())
	if err != nil || got != MaxMonth {
		t.Fatalf("ParseMonth(%q) = %v, %v", MaxMonth.String(), got, err)
	}
	if _, err := ParseMonth(MaxMonth.Add(1).String()); err == nil {
		t.Fatalf("month after %v parsed", MaxMonth)
	}
}
