package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sri-dhar/arch-cleaner/internal/feedback"
	"github.com/Sri-dhar/arch-cleaner/internal/output"
	"github.com/Sri-dhar/arch-cleaner/internal/recommend"
	"github.com/Sri-dhar/arch-cleaner/internal/units"
)

var (
	autoDryRun bool

	autoCmd = &cobra.Command{
		Use:   "auto",
		Short: "Apply every high-confidence suggestion without prompting",
		Long: `Generate suggestions from the last scan and execute those whose
confidence meets automation.min_confidence (default 0.8). Intended for
cron or a systemd timer; everything else is left for an interactive
'arch-cleaner apply'.`,
		Example: `  # Run all high-confidence cleanups
  arch-cleaner auto

  # See what would run
  arch-cleaner auto --dry-run`,
		RunE: runAuto,
	}
)

func init() {
	autoCmd.Flags().BoolVar(&autoDryRun, "dry-run", false, "simulate without deleting anything")
}

func runAuto(cmd *cobra.Command, args []string) error {
	db, release, err := openStore()
	if err != nil {
		return err
	}
	defer release()

	if db.LastSuccessfulScan() == nil {
		return fmt.Errorf("no completed scan found, run 'arch-cleaner scan' first")
	}

	settings := loadSettings()
	suggestions := generateSuggestions(db, settings)

	exec := newExecutor(db, settings)
	recorder := feedback.NewRecorder(db, settings.FeedbackLimit)

	var eligible []*recommend.Suggestion
	for _, s := range suggestions {
		if s.Confidence >= settings.MinConfidence {
			eligible = append(eligible, s)
		}
	}
	if len(eligible) == 0 {
		fmt.Printf("No suggestions at or above %.0f%% confidence. Run 'arch-cleaner suggest' to review the rest.\n",
			settings.MinConfidence*100)
		return nil
	}

	results := executeBatch(exec, recorder, eligible, autoDryRun,
		output.NewProgress(len(eligible), "Applying suggestions"))

	fmt.Print(output.RenderResultList(results))

	var remaining int64
	for _, s := range suggestions {
		if s.Confidence < settings.MinConfidence {
			remaining += s.EstimatedSizeBytes
		}
	}
	if remaining > 0 {
		fmt.Printf("Another %s could be freed by lower-confidence suggestions; see 'arch-cleaner suggest'.\n",
			units.HumanSize(remaining))
	}
	return nil
}
