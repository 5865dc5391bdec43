package app

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Sri-dhar/arch-cleaner/internal/collector"
	"github.com/Sri-dhar/arch-cleaner/internal/output"
)

// A fresh scan is reused within this window unless --force is given.
const scanFreshness = time.Hour

var (
	scanForce     bool
	scanDirectory string

	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Inventory the filesystem, packages, pacman cache and journal",
		Long: `Walk the configured scan paths and record every file with its size,
timestamps and (for duplicate detection) a content hash. A full scan
also queries pacman for the installed package list, inventories the
package cache and measures journal disk usage.

A scan completed within the last hour is reused; pass --force to rescan
anyway. With --directory only that directory is walked and the package,
cache and journal collections are skipped.`,
		Example: `  # Full system scan
  arch-cleaner scan

  # Rescan even if the last scan is fresh
  arch-cleaner scan --force

  # Targeted scan of one directory
  arch-cleaner scan --directory ~/Downloads`,
		RunE: runScan,
	}
)

func init() {
	scanCmd.Flags().BoolVarP(&scanForce, "force", "f", false, "rescan even if a recent scan exists")
	scanCmd.Flags().StringVarP(&scanDirectory, "directory", "d", "", "scan only this directory")
}

func runScan(cmd *cobra.Command, args []string) error {
	db, release, err := openStore()
	if err != nil {
		return err
	}
	defer release()

	if err := db.CreateSchema(); err != nil {
		return fmt.Errorf("failed to create database schema: %w", err)
	}

	// Targeted scans always run; the freshness check only applies to
	// full scans.
	if !scanForce && scanDirectory == "" {
		if last := db.LastSuccessfulScan(); last != nil && time.Since(last.FinishedAt) < scanFreshness {
			fmt.Printf("✓ Scan from %s is still fresh (%d items). Use --force to rescan.\n",
				last.FinishedAt.Format("15:04:05"), last.ItemsFound)
			return nil
		}
	}

	settings := loadSettings()
	c := collector.New(db, collectorOptions(settings))

	isTTY := isatty.IsTerminal(os.Stdout.Fd())
	var spinner *output.Spinner
	if isTTY {
		spinner = output.NewSpinner("Scanning")
		spinner.Start()
	} else {
		fmt.Println("Scanning...")
	}

	summary, err := c.CollectAll(scanDirectory)
	if err != nil {
		if spinner != nil {
			spinner.Stop()
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	msg := fmt.Sprintf("✓ Scan complete: %d items", summary.ItemsFound)
	if summary.Packages > 0 {
		msg += fmt.Sprintf(", %d packages", summary.Packages)
	}
	if summary.ErrorCount > 0 {
		msg += fmt.Sprintf(" (%d errors)", summary.ErrorCount)
	}

	if spinner != nil {
		spinner.StopWithMessage(msg)
	} else {
		fmt.Println(msg)
	}

	for _, e := range summary.Errors {
		fmt.Printf("  ! %s\n", e)
	}

	return nil
}
