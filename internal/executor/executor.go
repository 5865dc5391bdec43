// Package executor carries out approved suggestions. Every execution
// path terminates in an ActionResult; dry-run mode simulates success
// without touching the filesystem, the package database or the store.
package executor

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Sri-dhar/arch-cleaner/internal/config"
	"github.com/Sri-dhar/arch-cleaner/internal/recommend"
	"github.com/Sri-dhar/arch-cleaner/internal/store"
	"github.com/Sri-dhar/arch-cleaner/internal/units"
)

// ActionResult is the outcome of executing one suggestion.
type ActionResult struct {
	SuggestionID string `json:"suggestion_id"`
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	BytesFreed   int64  `json:"bytes_freed"`
	DryRun       bool   `json:"dry_run"`
}

// Config holds the capabilities and policies the executor runs under.
// TrashCmd is resolved once at startup via DetectTrash and passed in,
// never re-probed mid-run.
type Config struct {
	UseTrash   bool
	TrashCmd   string
	KeepPolicy config.DuplicateKeepPolicy
}

// DetectTrash returns the path of the trash utility, or "" when it is
// not installed.
func DetectTrash() string {
	path, err := exec.LookPath("trash-put")
	if err != nil {
		return ""
	}
	return path
}

// Executor applies suggestions and syncs the store on success.
type Executor struct {
	store *store.Store
	cfg   Config

	// run executes an external command and returns its combined output.
	// Swapped out in tests.
	run func(name string, args ...string) ([]byte, error)
}

// New creates an executor backed by the given store.
func New(st *store.Store, cfg Config) *Executor {
	return &Executor{
		store: st,
		cfg:   cfg,
		run: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).CombinedOutput()
		},
	}
}

// Execute dispatches one suggestion to its handler. A panic inside a
// handler becomes a failed result, never a crash of the apply batch.
func (e *Executor) Execute(s *recommend.Suggestion, dryRun bool) (result *ActionResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("suggestion %s: handler panicked: %v", s.ID, r)
			result = &ActionResult{
				SuggestionID: s.ID,
				Success:      false,
				Message:      fmt.Sprintf("internal error: %v", r),
				DryRun:       dryRun,
			}
		}
	}()

	switch s.Kind {
	case recommend.KindOldFile, recommend.KindLargeFile:
		return e.executeFileRemoval(s, dryRun)
	case recommend.KindDuplicateSet:
		return e.executeDuplicateRemoval(s, dryRun)
	case recommend.KindOrphanPackages:
		return e.executeOrphanRemoval(s, dryRun)
	case recommend.KindPacmanCache:
		return e.executeCacheRemoval(s, dryRun)
	case recommend.KindJournal:
		return e.executeJournalVacuum(s, dryRun)
	default:
		return &ActionResult{
			SuggestionID: s.ID,
			Success:      false,
			Message:      fmt.Sprintf("no handler for suggestion type %q", s.Kind),
			DryRun:       dryRun,
		}
	}
}

func (e *Executor) executeFileRemoval(s *recommend.Suggestion, dryRun bool) *ActionResult {
	item := s.Payload.Item
	if item == nil {
		return e.failed(s, dryRun, "suggestion carries no file reference")
	}

	if dryRun {
		return e.simulated(s, fmt.Sprintf("would remove %s", item.Path))
	}

	if err := e.safeDelete(item.Path); err != nil {
		return e.failed(s, dryRun, err.Error())
	}
	if err := e.store.DeleteItem(item.Path); err != nil {
		log.WithError(err).Warnf("removed %s but could not update the store", item.Path)
	}

	return &ActionResult{
		SuggestionID: s.ID,
		Success:      true,
		Message:      fmt.Sprintf("removed %s", item.Path),
		BytesFreed:   item.SizeBytes,
	}
}

func (e *Executor) executeDuplicateRemoval(s *recommend.Suggestion, dryRun bool) *ActionResult {
	set := s.Payload.Duplicates
	if set == nil || len(set.Paths) < 2 {
		return e.failed(s, dryRun, "suggestion carries no duplicate set")
	}

	keeper := pickKeeper(set.Paths, e.cfg.KeepPolicy)

	if dryRun {
		return e.simulated(s, fmt.Sprintf("would remove %d duplicates, keeping %s", len(set.Paths)-1, set.Paths[keeper]))
	}

	var removed int
	var failures []string
	for i, path := range set.Paths {
		if i == keeper {
			continue
		}
		if err := e.safeDelete(path); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		removed++
		// Rows for removed paths come out of the store even when other
		// members of the set fail.
		if err := e.store.DeleteItem(path); err != nil {
			log.WithError(err).Warnf("removed %s but could not update the store", path)
		}
	}

	freed := int64(removed) * set.SizeBytes
	if len(failures) > 0 {
		return &ActionResult{
			SuggestionID: s.ID,
			Success:      false,
			Message:      fmt.Sprintf("removed %d of %d duplicates; failed: %s", removed, len(set.Paths)-1, strings.Join(failures, "; ")),
			BytesFreed:   freed,
		}
	}

	return &ActionResult{
		SuggestionID: s.ID,
		Success:      true,
		Message:      fmt.Sprintf("removed %d duplicates, kept %s", removed, set.Paths[keeper]),
		BytesFreed:   freed,
	}
}

func (e *Executor) executeOrphanRemoval(s *recommend.Suggestion, dryRun bool) *ActionResult {
	if len(s.Payload.Packages) == 0 {
		return e.failed(s, dryRun, "suggestion carries no package list")
	}

	names := make([]string, 0, len(s.Payload.Packages))
	for _, pkg := range s.Payload.Packages {
		names = append(names, pkg.Name)
	}
	sort.Strings(names)

	if dryRun {
		return e.simulated(s, fmt.Sprintf("would remove %d orphan packages: %s", len(names), strings.Join(names, ", ")))
	}

	// One removal command for the whole list; a non-zero exit means the
	// operation failed as a unit.
	args := append([]string{"pacman", "-Rns", "--noconfirm"}, names...)
	out, err := e.run("sudo", args...)
	if err != nil {
		return e.failed(s, dryRun, fmt.Sprintf("pacman -Rns failed: %v: %s", err, strings.TrimSpace(string(out))))
	}

	for _, name := range names {
		if err := e.store.DeletePackage(name); err != nil {
			log.WithError(err).Warnf("removed package %s but could not update the store", name)
		}
	}

	return &ActionResult{
		SuggestionID: s.ID,
		Success:      true,
		Message:      fmt.Sprintf("removed %d orphan packages", len(names)),
		BytesFreed:   s.EstimatedSizeBytes,
	}
}

func (e *Executor) executeCacheRemoval(s *recommend.Suggestion, dryRun bool) *ActionResult {
	paths := s.Payload.CachePaths
	if len(paths) == 0 {
		return e.failed(s, dryRun, "suggestion carries no cache file list")
	}

	if dryRun {
		return e.simulated(s, fmt.Sprintf("would remove %d cached package files", len(paths)))
	}

	args := append([]string{"rm", "-f"}, paths...)
	out, err := e.run("sudo", args...)
	if err != nil {
		return e.failed(s, dryRun, fmt.Sprintf("cache removal failed: %v: %s", err, strings.TrimSpace(string(out))))
	}

	for _, path := range paths {
		if err := e.store.DeleteItem(path); err != nil {
			log.WithError(err).Warnf("removed %s but could not update the store", path)
		}
	}

	return &ActionResult{
		SuggestionID: s.ID,
		Success:      true,
		Message:      fmt.Sprintf("removed %d cached package files", len(paths)),
		BytesFreed:   s.EstimatedSizeBytes,
	}
}

var vacuumFreedRe = regexp.MustCompile(`freed\s+([\d.]+\s*[BKMGT]?)`)

func (e *Executor) executeJournalVacuum(s *recommend.Suggestion, dryRun bool) *ActionResult {
	vac := s.Payload.Journal
	if vac == nil {
		return e.failed(s, dryRun, "suggestion carries no vacuum parameters")
	}

	if dryRun {
		return e.simulated(s, fmt.Sprintf("would vacuum journal logs down to %s", units.HumanSize(vac.TargetBytes)))
	}

	out, err := e.run("sudo", "journalctl", "--vacuum-size="+strconv.FormatInt(vac.TargetBytes, 10))
	if err != nil {
		return e.failed(s, dryRun, fmt.Sprintf("journalctl vacuum failed: %v: %s", err, strings.TrimSpace(string(out))))
	}

	return &ActionResult{
		SuggestionID: s.ID,
		Success:      true,
		Message:      "vacuumed journal logs",
		BytesFreed:   parseVacuumFreed(string(out)),
	}
}

// parseVacuumFreed extracts the freed byte count from journalctl's
// vacuum report, zero when the output is unparseable.
func parseVacuumFreed(out string) int64 {
	m := vacuumFreedRe.FindStringSubmatch(out)
	if m == nil {
		return 0
	}
	n, err := units.ParseSize(strings.TrimSpace(m[1]))
	if err != nil {
		log.Debugf("could not parse vacuum report %q", m[1])
		return 0
	}
	return n
}

// safeDelete removes a path. A path that is already gone counts as
// success. With trash enabled, a trash utility failure is a hard
// failure rather than a fallback to permanent deletion.
func (e *Executor) safeDelete(path string) error {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		log.Debugf("%s already gone", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if e.cfg.UseTrash && e.cfg.TrashCmd != "" {
		out, err := e.run(e.cfg.TrashCmd, path)
		if err != nil {
			return fmt.Errorf("failed to trash %s: %v: %s", path, err, strings.TrimSpace(string(out)))
		}
		return nil
	}

	if info.IsDir() {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
		return nil
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// pickKeeper selects which member of a duplicate set survives.
func pickKeeper(paths []string, policy config.DuplicateKeepPolicy) int {
	switch policy {
	case config.KeepOldest, config.KeepNewest:
		// Each path is statted once; the keeper's FileInfo is kept so a
		// file vanishing mid-selection cannot invalidate the comparison.
		keeper := 0
		var keeperInfo os.FileInfo
		for i, path := range paths {
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if keeperInfo == nil {
				keeper, keeperInfo = i, info
				continue
			}
			if policy == config.KeepOldest && info.ModTime().Before(keeperInfo.ModTime()) {
				keeper, keeperInfo = i, info
			}
			if policy == config.KeepNewest && info.ModTime().After(keeperInfo.ModTime()) {
				keeper, keeperInfo = i, info
			}
		}
		return keeper
	case config.KeepShortest:
		keeper := 0
		for i, path := range paths {
			if len(path) < len(paths[keeper]) {
				keeper = i
			}
		}
		return keeper
	default:
		// Stored order, first member.
		return 0
	}
}

func (e *Executor) failed(s *recommend.Suggestion, dryRun bool, msg string) *ActionResult {
	return &ActionResult{SuggestionID: s.ID, Success: false, Message: msg, DryRun: dryRun}
}

func (e *Executor) simulated(s *recommend.Suggestion, msg string) *ActionResult {
	return &ActionResult{
		SuggestionID: s.ID,
		Success:      true,
		Message:      "[dry-run] " + msg,
		BytesFreed:   s.EstimatedSizeBytes,
		DryRun:       true,
	}
}
