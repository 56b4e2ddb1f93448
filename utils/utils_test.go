package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestGroupThousands(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"999", "999"},
		{"1000", "1,000"},
		{"3500000", "3,500,000"},
		{"1234.5", "1,234.5"},
		{"1234.567", "1,234.57"},
		{"-2500", "-2,500"},
	}

	for _, tc := range cases {
		got := GroupThousands(decimal.RequireFromString(tc.in))
		if got != tc.want {
			t.Fatalf("GroupThousands(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	got := FormatCurrency(decimal.NewFromInt(15000))
	if got != "৳১৫,০০০" {
		t.Fatalf("unexpected currency format: %q", got)
	}
}

func TestFormatCountdown(t *testing.T) {
	got := FormatCountdown(23*time.Hour + 59*time.Minute + 59*time.Second)
	if got != "২৩:৫৯:৫৯" {
		t.Fatalf("unexpected countdown: %q", got)
	}
	if FormatCountdown(-time.Second) != "০০:০০:০০" {
		t.Fatalf("negative durations should clamp to zero")
	}
}
