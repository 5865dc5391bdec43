// Package recommend converts classified analysis findings into ranked,
// uniquely-identified cleanup suggestions and persists them to the
// suggestion artifact consumed by a later apply.
package recommend

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Sri-dhar/arch-cleaner/internal/analyzer"
	"github.com/Sri-dhar/arch-cleaner/internal/pacman"
	"github.com/Sri-dhar/arch-cleaner/internal/store"
	"github.com/Sri-dhar/arch-cleaner/internal/units"
)

// Policy holds the retention settings the recommendation step applies.
type Policy struct {
	// PacmanCacheKeep is how many versions of each package to keep in
	// the cache; values below 1 are treated as 1.
	PacmanCacheKeep int
	// JournalMaxBytes is the journal size ceiling; a vacuum is only
	// suggested when current usage exceeds it.
	JournalMaxBytes int64
}

// Engine generates suggestions from analysis results.
type Engine struct {
	policy Policy
}

// NewEngine creates a recommendation engine with the given policy.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Generate maps each analysis category to zero or more suggestions and
// returns the full list sorted descending by estimated saving.
func (e *Engine) Generate(results *analyzer.Results, now time.Time) []*Suggestion {
	var suggestions []*Suggestion

	suggestions = append(suggestions, e.oldFileSuggestions(results.OldFiles, now)...)
	suggestions = append(suggestions, e.largeFileSuggestions(results.LargeFiles)...)
	suggestions = append(suggestions, e.orphanSuggestion(results.OrphanPackages)...)
	suggestions = append(suggestions, e.duplicateSuggestions(results.DuplicateSets)...)
	suggestions = append(suggestions, e.pacmanCacheSuggestion(results.PacmanCacheFiles)...)
	suggestions = append(suggestions, e.journalSuggestion(results.JournalLogs)...)

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].EstimatedSizeBytes != suggestions[j].EstimatedSizeBytes {
			return suggestions[i].EstimatedSizeBytes > suggestions[j].EstimatedSizeBytes
		}
		return suggestions[i].ID < suggestions[j].ID
	})

	log.Infof("generated %d suggestions", len(suggestions))
	return suggestions
}

func (e *Engine) oldFileSuggestions(items []*store.ScannedItem, now time.Time) []*Suggestion {
	var out []*Suggestion
	for _, item := range items {
		// Fractional days keep the confidence strictly above the base
		// for any file older than an instant.
		ageDays := now.Sub(item.AccessedAt).Hours() / 24
		confidence := 0.5 + minFloat(ageDays/365, 1)*0.4
		if confidence > 0.9 {
			confidence = 0.9
		}

		details := item.Path
		out = append(out, &Suggestion{
			ID:                 SuggestionID(KindOldFile, details),
			Kind:               KindOldFile,
			Description:        fmt.Sprintf("Remove old file not accessed in %d days (%s)", int(ageDays), units.HumanSize(item.SizeBytes)),
			Details:            details,
			EstimatedSizeBytes: item.SizeBytes,
			Confidence:         confidence,
			Rationale:          fmt.Sprintf("File last accessed on %s.", item.AccessedAt.Format("Mon Jan 2 15:04:05 2006")),
			Payload:            Payload{Item: item},
		})
	}
	return out
}

func (e *Engine) largeFileSuggestions(items []*store.ScannedItem) []*Suggestion {
	var out []*Suggestion
	for _, item := range items {
		sizeHR := units.HumanSize(item.SizeBytes)
		details := item.Path
		out = append(out, &Suggestion{
			ID:                 SuggestionID(KindLargeFile, details),
			Kind:               KindLargeFile,
			Description:        fmt.Sprintf("Review large file (%s)", sizeHR),
			Details:            details,
			EstimatedSizeBytes: item.SizeBytes,
			// Size alone is a weak deletion signal.
			Confidence: 0.3,
			Rationale:  fmt.Sprintf("File size (%s) exceeds threshold.", sizeHR),
			Payload:    Payload{Item: item},
		})
	}
	return out
}

func (e *Engine) orphanSuggestion(orphans []*pacman.Package) []*Suggestion {
	if len(orphans) == 0 {
		return nil
	}

	var totalSize int64
	names := make([]string, 0, len(orphans))
	for _, pkg := range orphans {
		totalSize += pkg.SizeBytes
		names = append(names, pkg.Name)
	}
	sort.Strings(names)

	// Sorted name list keeps the id reproducible regardless of the
	// enumeration order.
	details := strings.Join(names, ", ")
	return []*Suggestion{{
		ID:                 SuggestionID(KindOrphanPackages, details),
		Kind:               KindOrphanPackages,
		Description:        fmt.Sprintf("Remove %d orphan packages (%s)", len(orphans), units.HumanSize(totalSize)),
		Details:            details,
		EstimatedSizeBytes: totalSize,
		Confidence:         0.8,
		Rationale:          "These packages were installed as dependencies but are no longer required by any installed package.",
		Payload:            Payload{Packages: orphans},
	}}
}

func (e *Engine) duplicateSuggestions(sets []*analyzer.DuplicateSet) []*Suggestion {
	var out []*Suggestion
	for _, set := range sets {
		saving := int64(len(set.Paths)-1) * set.SizeBytes
		if saving <= 0 {
			continue
		}

		out = append(out, &Suggestion{
			ID:                 SuggestionID(KindDuplicateSet, set.Hash),
			Kind:               KindDuplicateSet,
			Description:        fmt.Sprintf("Remove %d duplicate files (Save %s)", len(set.Paths)-1, units.HumanSize(saving)),
			Details:            set.Hash,
			EstimatedSizeBytes: saving,
			Confidence:         0.7,
			Rationale:          fmt.Sprintf("Found %d identical files of %s each. Keeping one copy is usually sufficient.", len(set.Paths), units.HumanSize(set.SizeBytes)),
			Payload:            Payload{Duplicates: set},
		})
	}
	return out
}

func (e *Engine) pacmanCacheSuggestion(cacheFiles []*store.ScannedItem) []*Suggestion {
	if len(cacheFiles) == 0 {
		return nil
	}

	type cacheFile struct {
		version string
		path    string
		size    int64
	}
	byPackage := make(map[string][]cacheFile)
	var totalSize int64

	for _, item := range cacheFiles {
		totalSize += item.SizeBytes
		name, version, _, ok := pacman.ParseCacheFilename(filepath.Base(item.Path))
		if !ok {
			continue
		}
		byPackage[name] = append(byPackage[name], cacheFile{version: version, path: item.Path, size: item.SizeBytes})
	}

	keep := e.policy.PacmanCacheKeep
	if keep < 1 {
		keep = 1
	}

	var candidates []string
	var removableSize int64
	for _, versions := range byPackage {
		if len(versions) <= keep {
			continue
		}
		sort.SliceStable(versions, func(i, j int) bool {
			return pacman.VerCmp(versions[i].version, versions[j].version) > 0
		})
		for _, v := range versions[keep:] {
			candidates = append(candidates, v.path)
			removableSize += v.size
		}
	}

	if len(candidates) == 0 {
		log.Debug("no pacman cache files removable under the keep setting")
		return nil
	}
	sort.Strings(candidates)

	// The candidate path list is the id's stable descriptor.
	details := strings.Join(candidates, ",")
	return []*Suggestion{{
		ID:                 SuggestionID(KindPacmanCache, details),
		Kind:               KindPacmanCache,
		Description:        fmt.Sprintf("Clean pacman cache: Remove %d older versions (Save %s)", len(candidates), units.HumanSize(removableSize)),
		Details:            details,
		EstimatedSizeBytes: removableSize,
		Confidence:         0.9,
		Rationale:          fmt.Sprintf("Keep the latest %d version(s) of each package and remove older ones. Total cache size: %s.", keep, units.HumanSize(totalSize)),
		Payload:            Payload{CachePaths: candidates},
	}}
}

func (e *Engine) journalSuggestion(journalItems []*store.ScannedItem) []*Suggestion {
	if len(journalItems) == 0 || e.policy.JournalMaxBytes <= 0 {
		return nil
	}

	current := journalItems[0].SizeBytes
	if current <= e.policy.JournalMaxBytes {
		log.Debugf("journal size %s within the configured limit", units.HumanSize(current))
		return nil
	}

	target := e.policy.JournalMaxBytes
	saving := current - target
	details := fmt.Sprintf("current=%d target=%d", current, target)
	return []*Suggestion{{
		ID:                 SuggestionID(KindJournal, details),
		Kind:               KindJournal,
		Description:        fmt.Sprintf("Vacuum journal logs to target size (%s)", units.HumanSize(target)),
		Details:            details,
		EstimatedSizeBytes: saving,
		Confidence:         0.8,
		Rationale:          fmt.Sprintf("Journal size (%s) exceeds configured limit (%s).", units.HumanSize(current), units.HumanSize(target)),
		Payload:            Payload{Journal: &JournalVacuum{CurrentBytes: current, TargetBytes: target}},
	}}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
