// Package collector walks configured paths and system locations and
// writes normalized inventory records into the store under a scan
// epoch. A collection run never aborts on individual path failures; it
// accumulates an error count and reports it with the scan record.
package collector

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Sri-dhar/arch-cleaner/internal/pacman"
	"github.com/Sri-dhar/arch-cleaner/internal/store"
)

// Options controls what a collection run covers.
type Options struct {
	ScanPaths       []string
	ExcludePatterns []string

	HashEnabled        bool
	MinHashSize        int64
	DuplicateScanPaths []string

	CollectPackages    bool
	CollectPacmanCache bool
	CollectJournal     bool

	PacmanCacheDir string
	JournalDirs    []string
}

// Summary reports what a collection run produced.
type Summary struct {
	ScanID     int64
	ItemsFound int
	Packages   int
	ErrorCount int
	Errors     []string
}

// addError records one sub-collection failure. The messages travel with
// the scan record so they survive process exit.
func (s *Summary) addError(format string, args ...interface{}) {
	s.ErrorCount++
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

func (s *Summary) addErrors(msgs []string) {
	s.ErrorCount += len(msgs)
	s.Errors = append(s.Errors, msgs...)
}

// Collector gathers filesystem and system state into the store.
type Collector struct {
	store *store.Store
	opts  Options

	// Injection points for tests.
	run          func(name string, args ...string) ([]byte, error)
	listPackages func() ([]*pacman.Package, error)
}

// New creates a Collector writing into the given store.
func New(s *store.Store, opts Options) *Collector {
	if opts.PacmanCacheDir == "" {
		opts.PacmanCacheDir = pacman.DefaultCacheDir
	}
	if len(opts.JournalDirs) == 0 {
		opts.JournalDirs = []string{"/var/log/journal", "/run/log/journal"}
	}
	return &Collector{
		store: s,
		opts:  opts,
		run: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).Output()
		},
		listPackages: pacman.ListInstalled,
	}
}

// CollectAll runs a full collection. With targetDir set, only that
// directory is walked and the system-wide collections (packages, pacman
// cache, journal) are skipped; the rest of the inventory is left
// untouched.
func (c *Collector) CollectAll(targetDir string) (*Summary, error) {
	scope := "system"
	roots := c.opts.ScanPaths
	targeted := targetDir != ""

	if targeted {
		abs, err := filepath.Abs(targetDir)
		if err == nil {
			targetDir = abs
		}
		info, err := os.Stat(targetDir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("target directory not valid: %s", targetDir)
		}
		scope = targetDir
		roots = []string{targetDir}
	}

	scanID, err := c.store.BeginScan(scope)
	if err != nil {
		return nil, fmt.Errorf("failed to begin scan: %w", err)
	}

	summary := &Summary{ScanID: scanID}
	exclude := NewExcludeMatcher(c.opts.ExcludePatterns)

	log.WithFields(log.Fields{
		"scan_id": scanID,
		"paths":   strings.Join(roots, ", "),
	}).Info("starting collection")

	items, walkErrors := c.scanFilesystem(roots, exclude)
	summary.addErrors(walkErrors)
	if len(items) > 0 {
		if err := c.store.UpsertItems(scanID, items); err != nil {
			c.store.EndScan(scanID, 0,
				append(summary.Errors, fmt.Sprintf("persist items: %v", err)), store.ScanFailed)
			return nil, fmt.Errorf("failed to persist scanned items: %w", err)
		}
		summary.ItemsFound += len(items)
	}

	if !targeted {
		if c.opts.CollectPackages {
			pkgs, err := c.listPackages()
			if err != nil {
				log.WithError(err).Warn("package collection failed")
				summary.addError("package collection: %v", err)
			} else if err := c.store.UpsertPackages(pkgs); err != nil {
				log.WithError(err).Warn("failed to persist packages")
				summary.addError("persist packages: %v", err)
			} else {
				summary.Packages = len(pkgs)
			}
		}

		if c.opts.CollectPacmanCache {
			cacheItems, errs := c.collectPacmanCache(exclude)
			summary.addErrors(errs)
			if len(cacheItems) > 0 {
				if err := c.store.UpsertItems(scanID, cacheItems); err != nil {
					log.WithError(err).Warn("failed to persist pacman cache items")
					summary.addError("persist pacman cache items: %v", err)
				} else {
					summary.ItemsFound += len(cacheItems)
				}
			}
		}

		if c.opts.CollectJournal {
			journalItems := c.collectJournal()
			if len(journalItems) > 0 {
				if err := c.store.UpsertItems(scanID, journalItems); err != nil {
					log.WithError(err).Warn("failed to persist journal items")
					summary.addError("persist journal items: %v", err)
				} else {
					summary.ItemsFound += len(journalItems)
				}
			}
		}
	}

	if c.opts.HashEnabled {
		if err := c.markDuplicates(); err != nil {
			log.WithError(err).Warn("failed to mark duplicates")
			summary.addError("mark duplicates: %v", err)
		}
	}

	pruneRoots := roots
	if !targeted {
		pruneRoots = append(append([]string{}, roots...), c.opts.PacmanCacheDir)
	}
	if err := c.store.PruneStaleItems(scanID, pruneRoots); err != nil {
		log.WithError(err).Warn("failed to prune stale items")
		summary.addError("prune stale items: %v", err)
	}

	status := store.ScanCompleted
	if err := c.store.EndScan(scanID, summary.ItemsFound, summary.Errors, status); err != nil {
		return summary, fmt.Errorf("failed to finalize scan: %w", err)
	}

	log.WithFields(log.Fields{
		"scan_id": scanID,
		"items":   summary.ItemsFound,
		"errors":  summary.ErrorCount,
	}).Info("collection finished")

	return summary, nil
}

// collectPacmanCache inventories package archives in the pacman cache.
func (c *Collector) collectPacmanCache(exclude *ExcludeMatcher) ([]*store.ScannedItem, []string) {
	entries, err := os.ReadDir(c.opts.PacmanCacheDir)
	if err != nil {
		log.WithError(err).Warnf("pacman cache directory not accessible: %s", c.opts.PacmanCacheDir)
		return nil, []string{fmt.Sprintf("pacman cache %s: %v", c.opts.PacmanCacheDir, err)}
	}

	var items []*store.ScannedItem
	var errs []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), ".pkg.tar.") {
			continue
		}
		path := filepath.Join(c.opts.PacmanCacheDir, entry.Name())
		if exclude.Excluded(path) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.WithError(err).Warnf("could not stat cache file %s", path)
			errs = append(errs, fmt.Sprintf("stat cache file %s: %v", path, err))
			continue
		}

		items = append(items, &store.ScannedItem{
			Path:       path,
			Type:       store.ItemPacmanCache,
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime(),
			AccessedAt: accessTime(info),
		})
	}

	return items, errs
}

// markDuplicates flags every file whose content hash is shared by at
// least one other file of the same size.
func (c *Collector) markDuplicates() error {
	groups := c.store.DuplicateGroups(c.opts.MinHashSize)
	if len(groups) == 0 {
		return nil
	}

	hashes := make([]string, 0, len(groups))
	for _, g := range groups {
		hashes = append(hashes, g.Hash)
	}

	log.Debugf("marking %d duplicate sets", len(groups))
	return c.store.MarkDuplicates(hashes)
}
