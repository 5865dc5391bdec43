package app

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sri-dhar/arch-cleaner/internal/recommend"
	"github.com/Sri-dhar/arch-cleaner/internal/units"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and scan status",
	Long: `Show when the last scan ran, what the inventory currently holds and
how many suggestions are waiting in the artifact.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	db, release, err := openStore()
	if err != nil {
		return err
	}
	defer release()

	path, err := getDBPath()
	if err != nil {
		return err
	}

	fmt.Println("arch-cleaner status")
	fmt.Println()
	fmt.Printf("  Database:     %s\n", path)
	if cfg := viper.GetViper().ConfigFileUsed(); cfg != "" {
		fmt.Printf("  Config:       %s\n", cfg)
	}

	last := db.LastSuccessfulScan()
	if last == nil {
		fmt.Println("  Last scan:    never (run 'arch-cleaner scan')")
	} else {
		fmt.Printf("  Last scan:    %s (%s scope, %d items", humanize.Time(last.FinishedAt), last.Scope, last.ItemsFound)
		if last.ErrorCount > 0 {
			fmt.Printf(", %d errors", last.ErrorCount)
		}
		fmt.Println(")")
		if last.Errors != "" {
			fmt.Printf("  Scan errors:  %s\n", last.Errors)
		}
	}

	fmt.Printf("  Inventory:    %s items (%s), %s packages\n",
		humanize.Comma(int64(db.CountItems())),
		units.HumanSize(db.TotalItemSize()),
		humanize.Comma(int64(db.CountPackages())))

	orphans := db.OrphanPackages()
	if len(orphans) > 0 {
		fmt.Printf("  Orphans:      %d packages\n", len(orphans))
	}

	artifact, err := artifactPath()
	if err != nil {
		return err
	}
	suggestions, _, err := recommend.LoadArtifact(artifact)
	if err != nil {
		fmt.Printf("  Suggestions:  unreadable (%v)\n", err)
		return nil
	}
	if len(suggestions) == 0 {
		fmt.Println("  Suggestions:  none stored (run 'arch-cleaner suggest')")
		return nil
	}

	var total int64
	for _, s := range suggestions {
		total += s.EstimatedSizeBytes
	}
	fmt.Printf("  Suggestions:  %d stored, %s reclaimable\n", len(suggestions), units.HumanSize(total))

	return nil
}
