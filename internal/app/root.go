// Package app wires the arch-cleaner CLI: command dispatch, flag
// parsing, config bootstrap and the glue between the pipeline
// components. The pipeline itself lives in the internal packages this
// package composes.
package app

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sri-dhar/arch-cleaner/internal/config"
)

var (
	cfgFile  string
	dbPath   string
	logLevel string

	// RootCmd is the root command for arch-cleaner.
	RootCmd = &cobra.Command{
		Use:   "arch-cleaner",
		Short: "Intelligent storage cleanup for Arch Linux",
		Long: `arch-cleaner inventories your disk, finds stale and duplicate files,
orphaned pacman packages, package-cache bloat and oversized journal
logs, and turns the findings into ranked cleanup suggestions you review
and apply.

Typical workflow:
  1. arch-cleaner scan       # inventory the filesystem and packages
  2. arch-cleaner suggest    # see ranked cleanup suggestions
  3. arch-cleaner apply      # review and execute them

Deletions go to the trash when trash-put is installed; use
'arch-cleaner apply --dry-run' to preview any action first.

Examples:
  # Scan only your downloads
  arch-cleaner scan --directory ~/Downloads

  # Top five suggestions as JSON
  arch-cleaner suggest -n 5 --json

  # Apply two specific suggestions without prompting
  arch-cleaner apply 1a2b3c4d5e f6e5d4c3b2 --yes

  # Run every high-confidence cleanup unattended
  arch-cleaner auto`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/arch-cleaner/config.toml)")
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.local/share/arch-cleaner/arch-cleaner.db)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "loglevel", "warn", "log level (debug, info, warn, error)")

	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(scanCmd)
	RootCmd.AddCommand(suggestCmd)
	RootCmd.AddCommand(applyCmd)
	RootCmd.AddCommand(autoCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(reportCmd)
	RootCmd.AddCommand(configCmd)
}

// initConfig runs before any command and loads the config file plus the
// log level.
func initConfig() {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		level = log.WarnLevel
	}
	log.SetLevel(level)

	if err := config.Init(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}
