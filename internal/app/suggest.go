package app

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Sri-dhar/arch-cleaner/internal/output"
	"github.com/Sri-dhar/arch-cleaner/internal/recommend"
)

var (
	suggestLimit int
	suggestJSON  bool

	suggestCmd = &cobra.Command{
		Use:   "suggest",
		Short: "Generate ranked cleanup suggestions from the last scan",
		Long: `Analyze the scanned inventory against the configured thresholds and
produce ranked cleanup suggestions: old files, large files, duplicate
sets, orphaned packages, pacman cache bloat and oversized journals.

The full list is written to the suggestion artifact; a later
'arch-cleaner apply <id>' resolves ids against that artifact, so
suggestions survive across invocations.`,
		Example: `  # Show all suggestions
  arch-cleaner suggest

  # Top five only
  arch-cleaner suggest -n 5

  # Machine-readable output
  arch-cleaner suggest --json`,
		RunE: runSuggest,
	}
)

func init() {
	suggestCmd.Flags().IntVarP(&suggestLimit, "limit", "n", 0, "show at most N suggestions (0 = all)")
	suggestCmd.Flags().BoolVar(&suggestJSON, "json", false, "emit suggestions as JSON")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	db, release, err := openStore()
	if err != nil {
		return err
	}
	defer release()

	artifact, err := artifactPath()
	if err != nil {
		return err
	}

	if db.LastSuccessfulScan() == nil {
		// Overwrite any stale artifact so a later apply cannot act on
		// suggestions from a previous database state.
		if err := recommend.SaveArtifact(artifact, nil); err != nil {
			log.WithError(err).Warn("could not reset the suggestion artifact")
		}
		return fmt.Errorf("no completed scan found, run 'arch-cleaner scan' first")
	}

	settings := loadSettings()
	suggestions := generateSuggestions(db, settings)

	if err := recommend.SaveArtifact(artifact, suggestions); err != nil {
		return fmt.Errorf("failed to persist suggestions: %w", err)
	}

	shown := suggestions
	if suggestLimit > 0 && suggestLimit < len(shown) {
		shown = shown[:suggestLimit]
	}

	if suggestJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(shown)
	}

	fmt.Print(output.RenderSuggestionTable(shown))
	if len(shown) > 0 {
		fmt.Println("\nRun 'arch-cleaner apply <id>' to execute a suggestion, or 'arch-cleaner apply' to review all.")
	}
	return nil
}
