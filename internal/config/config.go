// Package config provides configuration handling for arch-cleaner: the
// default settings tree, the TOML config file location and the typed
// view of the values the pipeline consumes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/Sri-dhar/arch-cleaner/internal/units"
)

// Dir returns the arch-cleaner config directory, respecting
// XDG_CONFIG_HOME. Defaults to ~/.config/arch-cleaner.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "arch-cleaner"), nil
}

// DataDir returns the arch-cleaner data directory, respecting
// XDG_DATA_HOME. Defaults to ~/.local/share/arch-cleaner. This is where
// the database, the suggestion artifact and the lock file live.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "arch-cleaner"), nil
}

// SetDefaults installs the documented default value for every setting.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("general.aggressiveness", 2)

	v.SetDefault("safety.use_trash", true)
	v.SetDefault("safety.default_dry_run", false)

	v.SetDefault("paths.scan", []string{"~/.cache", "~/Downloads", "~/.local/share"})
	v.SetDefault("paths.exclude", []string{
		"*/.git/*",
		"*/node_modules/*",
		"*/__pycache__/*",
		"*.important",
		"~/.config/*",
	})

	v.SetDefault("thresholds.old_file", "3m")
	v.SetDefault("thresholds.large_file", "500M")

	v.SetDefault("arch.clean_pacman_cache", true)
	v.SetDefault("arch.pacman_cache_keep", 1)
	v.SetDefault("arch.remove_orphans", true)
	v.SetDefault("arch.clean_journal", true)
	v.SetDefault("arch.journal_max_disk_size", "500M")

	v.SetDefault("duplicates.enabled", true)
	v.SetDefault("duplicates.min_size", "1M")
	v.SetDefault("duplicates.keep", "first")
	v.SetDefault("duplicates.scan_paths", []string{})

	v.SetDefault("automation.enabled", false)
	v.SetDefault("automation.min_confidence", 0.8)

	v.SetDefault("learning.enabled", true)
	v.SetDefault("learning.feedback_history_limit", 1000)
}

// Init wires viper to the config file. An explicit cfgFile wins;
// otherwise the default location is used and created with defaults on
// first run.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return fmt.Errorf("failed to locate config directory: %w", err)
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("toml")

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			dir, _ := Dir()
			path := filepath.Join(dir, "config.toml")
			if err := v.SafeWriteConfigAs(path); err != nil {
				log.WithError(err).Warn("could not write default config file")
			}
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	return nil
}

// DuplicateKeepPolicy selects which member of a duplicate set survives.
type DuplicateKeepPolicy string

const (
	KeepFirst    DuplicateKeepPolicy = "first"
	KeepOldest   DuplicateKeepPolicy = "oldest"
	KeepNewest   DuplicateKeepPolicy = "newest"
	KeepShortest DuplicateKeepPolicy = "shortest"
)

// Settings is the typed view of the configuration the pipeline consumes.
// Human-readable size/duration strings are already parsed; invalid
// values have been replaced by their documented defaults.
type Settings struct {
	ScanPaths       []string
	ExcludePatterns []string

	// DuplicateScanPaths narrows hashing to specific paths; empty means
	// hash across all of ScanPaths.
	DuplicateScanPaths []string

	OldFileAge       time.Duration
	LargeFileSize    int64
	DuplicatesOn     bool
	DuplicateMinSize int64
	DuplicateKeep    DuplicateKeepPolicy

	CleanPacmanCache bool
	PacmanCacheKeep  int
	RemoveOrphans    bool
	CleanJournal     bool
	JournalMaxBytes  int64

	UseTrash      bool
	MinConfidence float64

	FeedbackLimit int
}

// Load materializes Settings from the given viper instance. Unparseable
// threshold strings fall back to the documented defaults with a warning
// rather than aborting.
func Load(v *viper.Viper) *Settings {
	s := &Settings{
		ScanPaths:          expandPaths(v.GetStringSlice("paths.scan")),
		ExcludePatterns:    expandPaths(v.GetStringSlice("paths.exclude")),
		DuplicateScanPaths: expandPaths(v.GetStringSlice("duplicates.scan_paths")),
		OldFileAge:         durationSetting(v, "thresholds.old_file", 90*24*time.Hour),
		LargeFileSize:      sizeSetting(v, "thresholds.large_file", 500*units.MB),
		DuplicatesOn:       v.GetBool("duplicates.enabled"),
		DuplicateMinSize:   sizeSetting(v, "duplicates.min_size", units.MB),
		DuplicateKeep:      keepPolicy(v.GetString("duplicates.keep")),
		CleanPacmanCache:   v.GetBool("arch.clean_pacman_cache"),
		PacmanCacheKeep:    v.GetInt("arch.pacman_cache_keep"),
		RemoveOrphans:      v.GetBool("arch.remove_orphans"),
		CleanJournal:       v.GetBool("arch.clean_journal"),
		JournalMaxBytes:    sizeSetting(v, "arch.journal_max_disk_size", 500*units.MB),
		UseTrash:           v.GetBool("safety.use_trash"),
		MinConfidence:      v.GetFloat64("automation.min_confidence"),
		FeedbackLimit:      v.GetInt("learning.feedback_history_limit"),
	}

	return s
}

func sizeSetting(v *viper.Viper, key string, fallback int64) int64 {
	raw := v.GetString(key)
	size, err := units.ParseSize(raw)
	if err != nil {
		log.Warnf("invalid size %q for %s, using default", raw, key)
		return fallback
	}
	return size
}

func durationSetting(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := units.ParseDuration(raw)
	if err != nil {
		log.Warnf("invalid duration %q for %s, using default", raw, key)
		return fallback
	}
	return d
}

func keepPolicy(raw string) DuplicateKeepPolicy {
	switch DuplicateKeepPolicy(raw) {
	case KeepFirst, KeepOldest, KeepNewest, KeepShortest:
		return DuplicateKeepPolicy(raw)
	default:
		log.Warnf("invalid duplicates.keep policy %q, using %q", raw, KeepFirst)
		return KeepFirst
	}
}

// expandPaths expands ~ and environment variables in each entry.
func expandPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, ExpandPath(p))
	}
	return out
}

// ExpandPath expands a leading ~ and any environment variables.
func ExpandPath(p string) string {
	p = os.ExpandEnv(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
