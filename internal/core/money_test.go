package core

import (
	"math"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{".5", 50, true},
		{"1.005", 101, true},
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1e3", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestRoundCents(t *testing.T) {
	cases := []struct {
		in, out float64
	}{
		{1050, 1050},
		{1.005, 1.01},
		{2.344, 2.34},
		{-2.345, -2.35},
		{0, 0},
	}
	for _, tc := range cases {
		if got := RoundCents(tc.in); got != tc.out {
			t.Fatalf("RoundCents(%v) = %v, want %v", tc.in, got, tc.out)
		}
	}
	if !math.IsNaN(RoundCents(math.NaN())) {
		t.Fatalf("NaN should pass through")
	}
	if !math.IsInf(RoundCents(math.Inf(1)), 1) {
		t.Fatalf("+Inf should pass through")
	}
}
