package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/viper"

	"github.com/Sri-dhar/arch-cleaner/internal/analyzer"
	"github.com/Sri-dhar/arch-cleaner/internal/collector"
	"github.com/Sri-dhar/arch-cleaner/internal/config"
	"github.com/Sri-dhar/arch-cleaner/internal/executor"
	"github.com/Sri-dhar/arch-cleaner/internal/recommend"
	"github.com/Sri-dhar/arch-cleaner/internal/store"
)

// getDBPath returns the database path, using the flag value or the
// default under the data directory.
func getDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}

	dir, err := config.DataDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate data directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return filepath.Join(dir, "arch-cleaner.db"), nil
}

// artifactPath returns where the suggestion list is persisted between
// a suggest and a later apply.
func artifactPath() (string, error) {
	dir, err := config.DataDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate data directory: %w", err)
	}
	return filepath.Join(dir, "suggestions.json"), nil
}

// openStore opens the database behind an advisory file lock so that a
// concurrent scan and apply cannot race on the store or the suggestion
// artifact. The returned release function unlocks and closes.
func openStore() (*store.Store, func(), error) {
	path, err := getDBPath()
	if err != nil {
		return nil, nil, err
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, nil, fmt.Errorf("another arch-cleaner instance is running (lock held on %s)", lock.Path())
	}

	db, err := store.New(path)
	if err != nil {
		lock.Unlock()
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	release := func() {
		db.Close()
		lock.Unlock()
	}
	return db, release, nil
}

// loadSettings returns the typed configuration view for this run.
func loadSettings() *config.Settings {
	return config.Load(viper.GetViper())
}

// collectorOptions maps settings onto collector behavior for a full
// system scan.
func collectorOptions(settings *config.Settings) collector.Options {
	return collector.Options{
		ScanPaths:          settings.ScanPaths,
		ExcludePatterns:    settings.ExcludePatterns,
		HashEnabled:        settings.DuplicatesOn,
		MinHashSize:        settings.DuplicateMinSize,
		DuplicateScanPaths: settings.DuplicateScanPaths,
		CollectPackages:    true,
		CollectPacmanCache: settings.CleanPacmanCache,
		CollectJournal:     settings.CleanJournal,
	}
}

// generateSuggestions runs analysis and recommendation over the current
// store contents.
func generateSuggestions(db *store.Store, settings *config.Settings) []*recommend.Suggestion {
	results := analyzer.New(db, settings).AnalyzeAll(time.Now())
	engine := recommend.NewEngine(recommend.Policy{
		PacmanCacheKeep: settings.PacmanCacheKeep,
		JournalMaxBytes: settings.JournalMaxBytes,
	})
	return engine.Generate(results, time.Now())
}

// newExecutor builds the executor with the trash capability probed once
// here, not inside the execution path.
func newExecutor(db *store.Store, settings *config.Settings) *executor.Executor {
	return executor.New(db, executor.Config{
		UseTrash:   settings.UseTrash,
		TrashCmd:   executor.DetectTrash(),
		KeepPolicy: settings.DuplicateKeep,
	})
}
