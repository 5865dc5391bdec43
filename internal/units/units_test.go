package units

import (
	"testing"
	"time"
)

func TestParseSize(t *testing.T) {
	fracMiB := 12.47
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"1024", 1024, false},
		{"2K", 2048, false},
		{"2k", 2048, false},
		{"1.5M", 1572864, false},
		{"500M", 500 * 1024 * 1024, false},
		{"2G", 2 * 1024 * 1024 * 1024, false},
		{"1T", 1024 * 1024 * 1024 * 1024, false},
		{"12.47 MiB", int64(fracMiB * 1024 * 1024), false},
		{"100KB", 100 * 1024, false},
		{"0", 0, false},
		{" 3 G ", 3 * 1024 * 1024 * 1024, false},
		{"", 0, true},
		{"invalid", 0, true},
		{"10.5", 0, true}, // fractional bytes without a unit
		{"10Z", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseSize(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSize(%q) = %d, want error", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSize(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"60s", 60 * time.Second, false},
		{"5m", 5 * time.Minute, false},
		{"2h", 2 * time.Hour, false},
		{"3d", 3 * 24 * time.Hour, false},
		{"1w", 7 * 24 * time.Hour, false},
		{"2month", 60 * 24 * time.Hour, false},
		{"1y", 365 * 24 * time.Hour, false},
		{"10", 10 * time.Second, false},
		{"1s", time.Second, false},
		{"", 0, true},
		{"5 fortnights", 0, true},
		{"invalid", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDuration(%q) = %v, want error", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDuration(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{-1, "N/A"},
		{123, "123 B"},
		{2048, "2.0 KB"},
		{1536 * 1024, "1.5 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}

	for _, tt := range tests {
		if got := HumanSize(tt.bytes); got != tt.want {
			t.Errorf("HumanSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
