// Package analyzer classifies inventory items against configured
// thresholds and policy flags. It is a stateless pass over the current
// store contents; which items to actually act on, and how, is decided
// by the recommendation layer.
package analyzer

import (
	"os"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Sri-dhar/arch-cleaner/internal/config"
	"github.com/Sri-dhar/arch-cleaner/internal/pacman"
	"github.com/Sri-dhar/arch-cleaner/internal/store"
)

// DuplicateSet is a verified group of identical files. Paths are only
// those that still exist on disk at analysis time.
type DuplicateSet struct {
	Hash           string
	SizeBytes      int64 // size of one member
	Paths          []string
	TotalSizeBytes int64
}

// Results holds the classified findings of one analysis pass.
type Results struct {
	OldFiles         []*store.ScannedItem
	LargeFiles       []*store.ScannedItem
	OrphanPackages   []*pacman.Package
	DuplicateSets    []*DuplicateSet
	PacmanCacheFiles []*store.ScannedItem
	JournalLogs      []*store.ScannedItem
}

// Engine runs threshold analysis over the store.
type Engine struct {
	store    *store.Store
	settings *config.Settings

	// stat is injectable so tests can fake file existence.
	stat func(string) (os.FileInfo, error)
}

// New creates an analysis engine.
func New(s *store.Store, settings *config.Settings) *Engine {
	return &Engine{store: s, settings: settings, stat: os.Stat}
}

// AnalyzeAll classifies the current inventory. The caller supplies the
// reference time so results are reproducible.
func (e *Engine) AnalyzeAll(now time.Time) *Results {
	results := &Results{}

	files := e.store.ItemsByType(0, store.ItemFile)
	results.OldFiles = e.findOldFiles(files, now)
	results.LargeFiles = e.findLargeFiles(files)
	log.Debugf("analysis: %d old files, %d large files", len(results.OldFiles), len(results.LargeFiles))

	if e.settings.RemoveOrphans {
		results.OrphanPackages = e.store.OrphanPackages()
	}

	if e.settings.DuplicatesOn {
		results.DuplicateSets = e.findDuplicateSets()
	}

	if e.settings.CleanPacmanCache {
		results.PacmanCacheFiles = e.store.ItemsByType(0, store.ItemPacmanCache)
	}

	if e.settings.CleanJournal {
		results.JournalLogs = e.store.ItemsByType(0, store.ItemJournal)
	}

	return results
}

// findOldFiles returns files last accessed strictly before the cutoff.
// A file accessed exactly at the cutoff is not old.
func (e *Engine) findOldFiles(files []*store.ScannedItem, now time.Time) []*store.ScannedItem {
	cutoff := now.Add(-e.settings.OldFileAge)
	var old []*store.ScannedItem
	for _, f := range files {
		if f.AccessedAt.Before(cutoff) {
			old = append(old, f)
		}
	}
	return old
}

// findLargeFiles returns files at or above the size threshold, largest
// first.
func (e *Engine) findLargeFiles(files []*store.ScannedItem) []*store.ScannedItem {
	var large []*store.ScannedItem
	for _, f := range files {
		if f.SizeBytes >= e.settings.LargeFileSize {
			large = append(large, f)
		}
	}
	sort.SliceStable(large, func(i, j int) bool {
		return large[i].SizeBytes > large[j].SizeBytes
	})
	return large
}

// findDuplicateSets re-verifies stored duplicate groups against the
// filesystem. The store may be stale; groups that collapse to fewer
// than two existing files are dropped.
func (e *Engine) findDuplicateSets() []*DuplicateSet {
	groups := e.store.DuplicateGroups(e.settings.DuplicateMinSize)
	var sets []*DuplicateSet
	for _, g := range groups {
		var valid []string
		for _, p := range g.Paths {
			if _, err := e.stat(p); err == nil {
				valid = append(valid, p)
			}
		}
		if len(valid) < 2 {
			log.Debugf("duplicate set %.8s collapsed to %d existing files, skipping", g.Hash, len(valid))
			continue
		}
		sets = append(sets, &DuplicateSet{
			Hash:           g.Hash,
			SizeBytes:      g.SizeBytes,
			Paths:          valid,
			TotalSizeBytes: g.SizeBytes * int64(len(valid)),
		})
	}

	sort.SliceStable(sets, func(i, j int) bool {
		return sets[i].TotalSizeBytes > sets[j].TotalSizeBytes
	})
	return sets
}
