package app

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Sri-dhar/arch-cleaner/internal/executor"
	"github.com/Sri-dhar/arch-cleaner/internal/feedback"
	"github.com/Sri-dhar/arch-cleaner/internal/output"
	"github.com/Sri-dhar/arch-cleaner/internal/recommend"
)

var (
	applyDryRun bool
	applyYes    bool

	applyCmd = &cobra.Command{
		Use:   "apply [ids...]",
		Short: "Execute suggestions from the last 'suggest' run",
		Long: `Execute suggestions by id, or review every stored suggestion
interactively when no ids are given. Each disposition (approved,
rejected, skipped, failed) is recorded for the report command.

File deletions go to the trash when trash-put is installed and
safety.use_trash is enabled. --dry-run prints what would happen without
touching anything.`,
		Example: `  # Review all suggestions interactively
  arch-cleaner apply

  # Execute two specific suggestions
  arch-cleaner apply 1a2b3c4d5e f6e5d4c3b2

  # Preview without changing anything
  arch-cleaner apply --dry-run

  # No prompts
  arch-cleaner apply 1a2b3c4d5e --yes`,
		RunE: runApply,
	}
)

func init() {
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "simulate without deleting anything")
	applyCmd.Flags().BoolVarP(&applyYes, "yes", "y", false, "skip confirmation prompts")
}

func runApply(cmd *cobra.Command, args []string) error {
	db, release, err := openStore()
	if err != nil {
		return err
	}
	defer release()

	artifact, err := artifactPath()
	if err != nil {
		return err
	}
	suggestions, skipped, err := recommend.LoadArtifact(artifact)
	if err != nil {
		return fmt.Errorf("failed to load suggestions: %w", err)
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d malformed suggestion records ignored\n", skipped)
	}
	if len(suggestions) == 0 {
		fmt.Println("No stored suggestions. Run 'arch-cleaner suggest' first.")
		return nil
	}

	selected, err := selectSuggestions(suggestions, args)
	if err != nil {
		return err
	}

	settings := loadSettings()
	exec := newExecutor(db, settings)
	recorder := feedback.NewRecorder(db, settings.FeedbackLimit)

	var results []*executor.ActionResult
	if applyYes {
		results = executeBatch(exec, recorder, selected, applyDryRun,
			output.NewProgress(len(selected), "Applying suggestions"))
	} else {
		reader := bufio.NewReader(os.Stdin)
		for _, s := range selected {
			fmt.Print(output.RenderSuggestionDetail(s))
			answer, aborted := confirm(reader)
			if aborted {
				break
			}
			switch answer {
			case "n":
				recordDisposition(recorder, s, feedback.ActionRejected)
				continue
			case "s":
				recordDisposition(recorder, s, feedback.ActionSkipped)
				continue
			}

			result := exec.Execute(s, applyDryRun)
			results = append(results, result)

			if applyDryRun {
				continue
			}
			if result.Success {
				recordDisposition(recorder, s, feedback.ActionApproved)
			} else {
				recordDisposition(recorder, s, feedback.ActionExecutionFailed)
			}
		}
	}

	if len(results) > 0 {
		fmt.Print(output.RenderResultList(results))
	}
	return nil
}

// executeBatch runs a known-length batch behind a progress bar,
// recording a disposition per suggestion.
func executeBatch(exec *executor.Executor, recorder *feedback.Recorder, selected []*recommend.Suggestion, dryRun bool, bar *output.ProgressBar) []*executor.ActionResult {
	results := make([]*executor.ActionResult, 0, len(selected))
	for _, s := range selected {
		result := exec.Execute(s, dryRun)
		results = append(results, result)
		bar.Increment()

		if dryRun {
			continue
		}
		if result.Success {
			recordDisposition(recorder, s, feedback.ActionApproved)
		} else {
			recordDisposition(recorder, s, feedback.ActionExecutionFailed)
		}
	}
	bar.Finish()
	return results
}

// selectSuggestions resolves explicit ids against the stored list, or
// returns the whole list when no ids are given.
func selectSuggestions(suggestions []*recommend.Suggestion, ids []string) ([]*recommend.Suggestion, error) {
	if len(ids) == 0 {
		return suggestions, nil
	}

	byID := make(map[string]*recommend.Suggestion, len(suggestions))
	for _, s := range suggestions {
		byID[s.ID] = s
	}

	selected := make([]*recommend.Suggestion, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown suggestion id %q, run 'arch-cleaner suggest' to refresh the list", id)
		}
		selected = append(selected, s)
	}
	return selected, nil
}

// confirm prompts for one suggestion. Returns the normalized answer
// ("y", "n" or "s") and whether input ended (quit or EOF).
func confirm(reader *bufio.Reader) (string, bool) {
	fmt.Print("Apply? [y/n/s(kip)/q(uit)] ")
	line, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println()
		return "", true
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return "y", false
	case "s", "skip":
		return "s", false
	case "q", "quit":
		return "", true
	default:
		return "n", false
	}
}

func recordDisposition(recorder *feedback.Recorder, s *recommend.Suggestion, action string) {
	if err := recorder.Record(s, action, ""); err != nil {
		log.WithError(err).Warnf("could not record %s for suggestion %s", action, s.ID)
	}
}
