// Package output renders the terminal tables and progress indicators
// for arch-cleaner. Tables use plain ASCII with ANSI colors when stdout
// is a TTY and NO_COLOR is unset.
package output

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/Sri-dhar/arch-cleaner/internal/executor"
	"github.com/Sri-dhar/arch-cleaner/internal/recommend"
	"github.com/Sri-dhar/arch-cleaner/internal/store"
	"github.com/Sri-dhar/arch-cleaner/internal/units"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderSuggestionTable renders the ranked suggestion list. Suggestions
// are printed in the order given; the recommender already sorts them by
// estimated saving.
func RenderSuggestionTable(suggestions []*recommend.Suggestion) string {
	if len(suggestions) == 0 {
		return "No suggestions. Everything looks clean.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-12s %-16s %-10s %-6s %s\n",
		"ID", "Type", "Size", "Conf", "Description"))
	sb.WriteString(strings.Repeat("─", 92))
	sb.WriteString("\n")

	var total int64
	for _, s := range suggestions {
		total += s.EstimatedSizeBytes
		conf := fmt.Sprintf("%.0f%%", s.Confidence*100)
		sb.WriteString(fmt.Sprintf("%-12s %-16s %-10s %s %s\n",
			s.ID,
			string(s.Kind),
			units.HumanSize(s.EstimatedSizeBytes),
			colorize(confidenceColor(s.Confidence), fmt.Sprintf("%-6s", conf)),
			truncate(s.Description, 50)))
	}

	sb.WriteString(strings.Repeat("─", 92))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Potential savings: %s across %d suggestions\n",
		units.HumanSize(total), len(suggestions)))

	return sb.String()
}

// RenderSuggestionDetail renders one suggestion with its rationale, for
// the interactive apply prompt.
func RenderSuggestionDetail(s *recommend.Suggestion) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s\n", s.ID, s.Description))
	sb.WriteString(fmt.Sprintf("  Type:       %s\n", s.Kind))
	sb.WriteString(fmt.Sprintf("  Saves:      %s\n", units.HumanSize(s.EstimatedSizeBytes)))
	sb.WriteString(fmt.Sprintf("  Confidence: %s\n",
		colorize(confidenceColor(s.Confidence), fmt.Sprintf("%.0f%%", s.Confidence*100))))
	if s.Rationale != "" {
		sb.WriteString(fmt.Sprintf("  Why:        %s\n", s.Rationale))
	}
	return sb.String()
}

// RenderResultList renders the outcome of an apply batch, one line per
// suggestion, with a freed-bytes total at the end.
func RenderResultList(results []*executor.ActionResult) string {
	if len(results) == 0 {
		return "Nothing was executed.\n"
	}

	var sb strings.Builder
	var freed int64
	failures := 0

	for _, r := range results {
		status := colorize(colorGreen, "ok")
		if !r.Success {
			status = colorize(colorRed, "FAILED")
			failures++
		} else if r.DryRun {
			status = colorize(colorGray, "dry-run")
		}
		freed += r.BytesFreed
		sb.WriteString(fmt.Sprintf("%-12s %-8s %s\n", r.SuggestionID, status, r.Message))
	}

	sb.WriteString(strings.Repeat("─", 72))
	sb.WriteString("\n")
	if failures > 0 {
		sb.WriteString(fmt.Sprintf("Freed %s. %d of %d suggestions failed.\n",
			units.HumanSize(freed), failures, len(results)))
	} else {
		sb.WriteString(fmt.Sprintf("Freed %s.\n", units.HumanSize(freed)))
	}

	return sb.String()
}

// RenderFeedbackTable renders the recorded suggestion dispositions,
// newest first as returned by the store.
func RenderFeedbackTable(entries []*store.Feedback) string {
	if len(entries) == 0 {
		return "No feedback recorded yet.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-12s %-16s %-18s %-10s %s\n",
		"ID", "Type", "Action", "Size", "When"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, f := range entries {
		sb.WriteString(fmt.Sprintf("%-12s %-16s %-18s %-10s %s\n",
			f.SuggestionID,
			f.SuggestionType,
			f.Action,
			units.HumanSize(f.SizeBytes),
			humanize.Time(f.RecordedAt)))
	}

	return sb.String()
}

// RenderFeedbackCounts renders the per-type action breakdown used by
// the report command.
func RenderFeedbackCounts(counts map[string]map[string]int) string {
	if len(counts) == 0 {
		return "No feedback recorded yet.\n"
	}

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-18s %-10s %-10s %-10s %s\n",
		"Type", "Approved", "Rejected", "Skipped", "Failed"))
	sb.WriteString(strings.Repeat("─", 64))
	sb.WriteString("\n")

	for _, t := range types {
		c := counts[t]
		sb.WriteString(fmt.Sprintf("%-18s %-10s %-10s %-10s %s\n",
			t,
			humanize.Comma(int64(c["APPROVED"])),
			humanize.Comma(int64(c["REJECTED"])),
			humanize.Comma(int64(c["SKIPPED"])),
			humanize.Comma(int64(c["EXECUTION_FAILED"]))))
	}

	return sb.String()
}

func confidenceColor(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return colorGreen
	case confidence >= 0.5:
		return colorYellow
	default:
		return colorRed
	}
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
