package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sri-dhar/arch-cleaner/internal/feedback"
	"github.com/Sri-dhar/arch-cleaner/internal/output"
	"github.com/Sri-dhar/arch-cleaner/internal/units"
)

var (
	reportRecent int

	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Summarize past suggestion dispositions",
		Long: `Show how suggestions have been handled over time: an approval
breakdown per suggestion type and the most recent individual
dispositions.`,
		RunE: runReport,
	}
)

func init() {
	reportCmd.Flags().IntVarP(&reportRecent, "recent", "n", 10, "number of recent entries to show")
}

func runReport(cmd *cobra.Command, args []string) error {
	db, release, err := openStore()
	if err != nil {
		return err
	}
	defer release()

	counts := db.FeedbackCountsByType()
	if len(counts) == 0 {
		fmt.Println("No feedback recorded yet. Dispositions are logged when you run 'arch-cleaner apply'.")
		return nil
	}

	fmt.Println("Disposition breakdown:")
	fmt.Println()
	fmt.Print(output.RenderFeedbackCounts(counts))

	recorder := feedback.NewRecorder(db, reportRecent)
	recent := recorder.Recent()
	if len(recent) > 0 {
		var approved int64
		for _, f := range recent {
			if f.Action == feedback.ActionApproved {
				approved += f.SizeBytes
			}
		}
		fmt.Println()
		fmt.Printf("Recent activity (last %d):\n", len(recent))
		fmt.Println()
		fmt.Print(output.RenderFeedbackTable(recent))
		if approved > 0 {
			fmt.Printf("\nApproved cleanups in this window freed roughly %s.\n", units.HumanSize(approved))
		}
	}

	return nil
}
