package util

import (
	"testing"
	"time"
)

func TestCoerceInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"nil", nil, 0},
		{"int", 42, 42},
		{"int64", int64(42), 42},
		{"float64", float64(42.9), 42},
		{"plain string", "1250", 1250},
		{"comma grouped string", "12,500", 12500},
		{"space grouped string", "12 500", 12500},
		{"garbage string", "a lot", 0},
		{"unsupported type", []int{1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoerceInt(tt.in); got != tt.want {
				t.Errorf("CoerceInt(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestCoerceTime(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want time.Time
	}{
		{"nil falls back to now", nil, now},
		{"unix int", 1700000000, time.Unix(1700000000, 0).UTC()},
		{"unix float", float64(1700000000), time.Unix(1700000000, 0).UTC()},
		{"digit string", "1700000000", time.Unix(1700000000, 0).UTC()},
		{"rfc3339", "2026-07-15T10:30:00Z", time.Date(2026, 7, 15, 10, 30, 0, 0, time.UTC)},
		{"bare date", "2026-07-15", time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)},
		{"garbage falls back to now", "yesterday", now},
		{"zero time falls back to now", time.Time{}, now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceTime(tt.in, now)
			if !got.Equal(tt.want) {
				t.Errorf("CoerceTime(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
