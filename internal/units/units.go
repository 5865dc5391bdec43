// Package units parses and formats the human-readable size and duration
// strings used throughout the arch-cleaner configuration (e.g. "500M",
// "3m", "1w"). Sizes are binary (1K = 1024 bytes); durations support
// calendar-ish units with month = 30 days and year = 365 days.
package units

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	KB = int64(1024)
	MB = KB * 1024
	GB = MB * 1024
	TB = GB * 1024
)

var (
	sizeRe     = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([BKMGT])?(?:I?B)?$`)
	durationRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(s|m|h|d|w|month|y)?$`)
)

var sizeMultipliers = map[string]int64{
	"B": 1,
	"K": KB,
	"M": MB,
	"G": GB,
	"T": TB,
}

var durationMultipliers = map[string]time.Duration{
	"s":     time.Second,
	"m":     time.Minute,
	"h":     time.Hour,
	"d":     24 * time.Hour,
	"w":     7 * 24 * time.Hour,
	"month": 30 * 24 * time.Hour,
	"y":     365 * 24 * time.Hour,
}

// ParseSize converts a size string like "500M", "1.5G", "12.47 MiB" or a
// bare byte count into bytes.
func ParseSize(s string) (int64, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(s))
	if trimmed == "" {
		return 0, fmt.Errorf("empty size string")
	}

	m := sizeRe.FindStringSubmatch(trimmed)
	if m == nil {
		return 0, fmt.Errorf("invalid size string %q", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size string %q: %w", s, err)
	}

	unit := m[2]
	if unit == "" {
		// Bare numbers are bytes; fractional bytes make no sense.
		if strings.Contains(m[1], ".") {
			return 0, fmt.Errorf("size string %q has a fractional value but no unit", s)
		}
		return int64(value), nil
	}

	return int64(value * float64(sizeMultipliers[unit])), nil
}

// ParseDuration converts a duration string like "3m", "2w" or "1y" into a
// time.Duration. Note that "m" means minutes, matching the config grammar,
// and a bare number is seconds.
func ParseDuration(s string) (time.Duration, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if trimmed == "" {
		return 0, fmt.Errorf("empty duration string")
	}

	m := durationRe.FindStringSubmatch(trimmed)
	if m == nil {
		return 0, fmt.Errorf("invalid duration string %q", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration string %q: %w", s, err)
	}

	unit := m[2]
	if unit == "" {
		unit = "s"
	}

	return time.Duration(value * float64(durationMultipliers[unit])), nil
}

// HumanSize converts bytes to a human-readable string using 1024-based
// units, matching the display style of the rest of the CLI.
func HumanSize(bytes int64) string {
	switch {
	case bytes < 0:
		return "N/A"
	case bytes < KB:
		return fmt.Sprintf("%d B", bytes)
	case bytes < MB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	case bytes < GB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes < TB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	default:
		return fmt.Sprintf("%.1f TB", float64(bytes)/float64(TB))
	}
}
