package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Sri-dhar/arch-cleaner/internal/pacman"
)

// File timestamps keep nanosecond precision so age comparisons behave
// identically before and after a round trip through the database.
const itemTimeLayout = time.RFC3339Nano

func parseItemTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(itemTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Scan history operations

// BeginScan opens a new scan_history row and returns its ID.
func (s *Store) BeginScan(scope string) (int64, error) {
	query := `
		INSERT INTO scan_history (started_at, scope, status)
		VALUES (?, ?, ?)
	`

	result, err := s.db.Exec(query, time.Now().Format(time.RFC3339), scope, ScanRunning)
	if err != nil {
		return 0, wrapWriteErr("failed to begin scan", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get scan ID: %w", err)
	}

	return id, nil
}

// EndScan closes a scan_history row with its final status, counters and
// the accumulated sub-collection failure messages.
func (s *Store) EndScan(scanID int64, itemsFound int, errs []string, status string) error {
	query := `
		UPDATE scan_history
		SET finished_at = ?, items_found = ?, error_count = ?, errors = ?, status = ?
		WHERE id = ?
	`

	_, err := s.db.Exec(query,
		time.Now().Format(time.RFC3339), itemsFound, len(errs), strings.Join(errs, "; "), status, scanID)
	if err != nil {
		return wrapWriteErr(fmt.Sprintf("failed to end scan %d", scanID), err)
	}

	return nil
}

// LastSuccessfulScan returns the most recent completed scan, or nil when
// no scan has completed yet.
func (s *Store) LastSuccessfulScan() *ScanRecord {
	query := `
		SELECT id, started_at, finished_at, scope, items_found, error_count, errors, status
		FROM scan_history
		WHERE status = ?
		ORDER BY id DESC
		LIMIT 1
	`

	var rec ScanRecord
	var startedAt, finishedAt, scope string
	var errText sql.NullString

	err := s.db.QueryRow(query, ScanCompleted).Scan(
		&rec.ID,
		&startedAt,
		&finishedAt,
		&scope,
		&rec.ItemsFound,
		&rec.ErrorCount,
		&errText,
		&rec.Status,
	)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		logReadErr("last successful scan", err)
		return nil
	}

	rec.Scope = scope
	rec.Errors = errText.String
	rec.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	rec.FinishedAt, _ = time.Parse(time.RFC3339, finishedAt)
	return &rec
}

// Scanned item operations

// UpsertItems writes a batch of scanned items in one transaction. An
// existing row for the same path is replaced wholesale.
func (s *Store) UpsertItems(scanID int64, items []*ScannedItem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO scanned_items
		(path, scan_id, item_type, size_bytes, modified_at, accessed_at, content_hash, is_duplicate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return wrapWriteErr("failed to prepare item upsert", err)
	}
	defer stmt.Close()

	for _, item := range items {
		_, err := stmt.Exec(
			item.Path,
			scanID,
			string(item.Type),
			item.SizeBytes,
			item.ModifiedAt.Format(itemTimeLayout),
			item.AccessedAt.Format(itemTimeLayout),
			item.ContentHash,
			item.IsDuplicate,
		)
		if err != nil {
			return wrapWriteErr(fmt.Sprintf("failed to upsert item %s", item.Path), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit item upsert: %w", err)
	}

	return nil
}

// ItemsByType returns every scanned item of at least minSize bytes and
// of the given types, every type when none is given. A minSize of 0
// disables the size filter. Failures degrade to an empty slice.
func (s *Store) ItemsByType(minSize int64, types ...ItemType) []*ScannedItem {
	query := `
		SELECT path, item_type, size_bytes, modified_at, accessed_at, content_hash, is_duplicate
		FROM scanned_items
	`
	var clauses []string
	var args []interface{}
	if minSize > 0 {
		clauses = append(clauses, "size_bytes >= ?")
		args = append(args, minSize)
	}
	if len(types) > 0 {
		placeholders := make([]string, len(types))
		for i, t := range types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		clauses = append(clauses, "item_type IN ("+strings.Join(placeholders, ", ")+")")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY path"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		logReadErr("items by type", err)
		return nil
	}
	defer rows.Close()

	var items []*ScannedItem
	for rows.Next() {
		var item ScannedItem
		var itemType, modifiedAt, accessedAt string

		err := rows.Scan(
			&item.Path,
			&itemType,
			&item.SizeBytes,
			&modifiedAt,
			&accessedAt,
			&item.ContentHash,
			&item.IsDuplicate,
		)
		if err != nil {
			logReadErr("scan item row", err)
			return nil
		}

		item.Type = ItemType(itemType)
		item.ModifiedAt = parseItemTime(modifiedAt)
		item.AccessedAt = parseItemTime(accessedAt)
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		logReadErr("iterating items", err)
		return nil
	}

	return items
}

// DuplicateGroups returns sets of files sharing a content hash and size,
// at least minSize bytes each, with the member paths sorted. Failures
// degrade to an empty slice.
func (s *Store) DuplicateGroups(minSize int64) []*DuplicateGroup {
	query := `
		SELECT content_hash, size_bytes, COUNT(*)
		FROM scanned_items
		WHERE content_hash != '' AND size_bytes >= ?
		GROUP BY content_hash, size_bytes
		HAVING COUNT(*) > 1
		ORDER BY size_bytes DESC, content_hash
	`

	rows, err := s.db.Query(query, minSize)
	if err != nil {
		logReadErr("duplicate groups", err)
		return nil
	}
	defer rows.Close()

	var groups []*DuplicateGroup
	for rows.Next() {
		var g DuplicateGroup
		if err := rows.Scan(&g.Hash, &g.SizeBytes, &g.Count); err != nil {
			logReadErr("duplicate group row", err)
			return nil
		}
		groups = append(groups, &g)
	}
	if err := rows.Err(); err != nil {
		logReadErr("iterating duplicate groups", err)
		return nil
	}

	for _, g := range groups {
		g.Paths = s.PathsForHash(g.Hash)
	}

	return groups
}

// PathsForHash returns the sorted paths of all items with the given
// content hash. Failures degrade to an empty slice.
func (s *Store) PathsForHash(hash string) []string {
	rows, err := s.db.Query(
		`SELECT path FROM scanned_items WHERE content_hash = ? ORDER BY path`, hash)
	if err != nil {
		logReadErr("paths for hash", err)
		return nil
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			logReadErr("path row", err)
			return nil
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		logReadErr("iterating paths", err)
		return nil
	}

	return paths
}

// MarkDuplicates flags every item carrying one of the given hashes.
func (s *Store) MarkDuplicates(hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`UPDATE scanned_items SET is_duplicate = 1 WHERE content_hash = ?`)
	if err != nil {
		return wrapWriteErr("failed to prepare duplicate mark", err)
	}
	defer stmt.Close()

	for _, h := range hashes {
		if _, err := stmt.Exec(h); err != nil {
			return wrapWriteErr("failed to mark duplicates", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit duplicate mark: %w", err)
	}

	return nil
}

// ClearScan deletes a scan epoch and, via the foreign key cascade,
// every scanned item recorded under it. The package mirror is not
// epoch-keyed and is left alone.
func (s *Store) ClearScan(scanID int64) error {
	if _, err := s.db.Exec(`DELETE FROM scan_history WHERE id = ?`, scanID); err != nil {
		return wrapWriteErr(fmt.Sprintf("failed to clear scan %d", scanID), err)
	}
	return nil
}

// DeleteItem removes an item and, for directories, everything under it.
func (s *Store) DeleteItem(path string) error {
	query := `DELETE FROM scanned_items WHERE path = ? OR path LIKE ? || '/%'`
	if _, err := s.db.Exec(query, path, path); err != nil {
		return wrapWriteErr(fmt.Sprintf("failed to delete item %s", path), err)
	}
	return nil
}

// PruneStaleItems drops items under the given roots that were not seen
// by the current scan. Items outside the roots are left alone so a
// targeted scan does not erase the rest of the inventory.
func (s *Store) PruneStaleItems(scanID int64, roots []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		DELETE FROM scanned_items
		WHERE scan_id != ? AND (path = ? OR path LIKE ? || '/%')
	`)
	if err != nil {
		return wrapWriteErr("failed to prepare stale prune", err)
	}
	defer stmt.Close()

	for _, root := range roots {
		if _, err := stmt.Exec(scanID, root, root); err != nil {
			return wrapWriteErr(fmt.Sprintf("failed to prune stale items under %s", root), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stale prune: %w", err)
	}

	return nil
}

// Package operations

// UpsertPackages replaces the package mirror with the given set in one
// transaction.
func (s *Store) UpsertPackages(pkgs []*pacman.Package) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM packages`); err != nil {
		return wrapWriteErr("failed to clear packages", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO packages
		(name, version, size_bytes, description, installed_at, is_orphan, is_dependency, required_by, optional_for)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return wrapWriteErr("failed to prepare package upsert", err)
	}
	defer stmt.Close()

	for _, pkg := range pkgs {
		requiredBy, err := json.Marshal(pkg.RequiredBy)
		if err != nil {
			return fmt.Errorf("failed to marshal required_by for %s: %w", pkg.Name, err)
		}
		optionalFor, err := json.Marshal(pkg.OptionalFor)
		if err != nil {
			return fmt.Errorf("failed to marshal optional_for for %s: %w", pkg.Name, err)
		}

		installedAt := ""
		if !pkg.InstallDate.IsZero() {
			installedAt = pkg.InstallDate.Format(time.RFC3339)
		}

		_, err = stmt.Exec(
			pkg.Name,
			pkg.Version,
			pkg.SizeBytes,
			pkg.Description,
			installedAt,
			pkg.IsOrphan,
			pkg.IsDependency,
			string(requiredBy),
			string(optionalFor),
		)
		if err != nil {
			return wrapWriteErr(fmt.Sprintf("failed to upsert package %s", pkg.Name), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit package upsert: %w", err)
	}

	return nil
}

// Packages returns every mirrored package ordered by name. Failures
// degrade to an empty slice.
func (s *Store) Packages() []*pacman.Package {
	return s.queryPackages(`
		SELECT name, version, size_bytes, description, installed_at, is_orphan, is_dependency, required_by, optional_for
		FROM packages
		ORDER BY name
	`)
}

// OrphanPackages returns mirrored packages flagged as orphans, ordered
// by name. Failures degrade to an empty slice.
func (s *Store) OrphanPackages() []*pacman.Package {
	return s.queryPackages(`
		SELECT name, version, size_bytes, description, installed_at, is_orphan, is_dependency, required_by, optional_for
		FROM packages
		WHERE is_orphan = 1
		ORDER BY name
	`)
}

func (s *Store) queryPackages(query string) []*pacman.Package {
	rows, err := s.db.Query(query)
	if err != nil {
		logReadErr("packages", err)
		return nil
	}
	defer rows.Close()

	var pkgs []*pacman.Package
	for rows.Next() {
		var pkg pacman.Package
		var installedAt, requiredBy, optionalFor string

		err := rows.Scan(
			&pkg.Name,
			&pkg.Version,
			&pkg.SizeBytes,
			&pkg.Description,
			&installedAt,
			&pkg.IsOrphan,
			&pkg.IsDependency,
			&requiredBy,
			&optionalFor,
		)
		if err != nil {
			logReadErr("package row", err)
			return nil
		}

		if installedAt != "" {
			pkg.InstallDate, _ = time.Parse(time.RFC3339, installedAt)
		}
		if err := json.Unmarshal([]byte(requiredBy), &pkg.RequiredBy); err != nil {
			logReadErr(fmt.Sprintf("required_by for %s", pkg.Name), err)
		}
		if err := json.Unmarshal([]byte(optionalFor), &pkg.OptionalFor); err != nil {
			logReadErr(fmt.Sprintf("optional_for for %s", pkg.Name), err)
		}

		pkgs = append(pkgs, &pkg)
	}

	if err := rows.Err(); err != nil {
		logReadErr("iterating packages", err)
		return nil
	}

	return pkgs
}

// DeletePackage removes a package from the mirror.
func (s *Store) DeletePackage(name string) error {
	result, err := s.db.Exec(`DELETE FROM packages WHERE name = ?`, name)
	if err != nil {
		return wrapWriteErr(fmt.Sprintf("failed to delete package %s", name), err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("package %s not found", name)
	}

	return nil
}

// Feedback operations

// RecordFeedback appends one action feedback row.
func (s *Store) RecordFeedback(f *Feedback) error {
	query := `
		INSERT INTO action_feedback (suggestion_id, suggestion_type, item_details, action, size_bytes, comment, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	recordedAt := f.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	_, err := s.db.Exec(query,
		f.SuggestionID,
		f.SuggestionType,
		f.ItemDetails,
		f.Action,
		f.SizeBytes,
		f.Comment,
		recordedAt.Format(time.RFC3339),
	)
	if err != nil {
		return wrapWriteErr("failed to record feedback", err)
	}

	return nil
}

// RecentFeedback returns the newest feedback rows, newest first.
// Failures degrade to an empty slice.
func (s *Store) RecentFeedback(limit int) []*Feedback {
	query := `
		SELECT id, suggestion_id, suggestion_type, item_details, action, size_bytes, comment, recorded_at
		FROM action_feedback
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		logReadErr("recent feedback", err)
		return nil
	}
	defer rows.Close()

	var entries []*Feedback
	for rows.Next() {
		var f Feedback
		var recordedAt string

		var details, comment sql.NullString
		err := rows.Scan(&f.ID, &f.SuggestionID, &f.SuggestionType, &details, &f.Action, &f.SizeBytes, &comment, &recordedAt)
		if err != nil {
			logReadErr("feedback row", err)
			return nil
		}

		f.ItemDetails = details.String
		f.Comment = comment.String
		f.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
		entries = append(entries, &f)
	}

	if err := rows.Err(); err != nil {
		logReadErr("iterating feedback", err)
		return nil
	}

	return entries
}

// FeedbackCountsByType returns, per suggestion type, how many rows carry
// each action. Failures degrade to an empty map.
func (s *Store) FeedbackCountsByType() map[string]map[string]int {
	rows, err := s.db.Query(`
		SELECT suggestion_type, action, COUNT(*)
		FROM action_feedback
		GROUP BY suggestion_type, action
	`)
	if err != nil {
		logReadErr("feedback counts", err)
		return map[string]map[string]int{}
	}
	defer rows.Close()

	counts := make(map[string]map[string]int)
	for rows.Next() {
		var suggestionType, action string
		var n int
		if err := rows.Scan(&suggestionType, &action, &n); err != nil {
			logReadErr("feedback count row", err)
			return map[string]map[string]int{}
		}
		if counts[suggestionType] == nil {
			counts[suggestionType] = make(map[string]int)
		}
		counts[suggestionType][action] = n
	}
	if err := rows.Err(); err != nil {
		logReadErr("iterating feedback counts", err)
		return map[string]map[string]int{}
	}

	return counts
}

// Counters for status output.

// CountItems returns the number of inventory rows, zero on failure.
func (s *Store) CountItems() int {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM scanned_items`).Scan(&n); err != nil {
		logReadErr("count items", err)
		return 0
	}
	return n
}

// CountPackages returns the number of mirrored packages, zero on failure.
func (s *Store) CountPackages() int {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM packages`).Scan(&n); err != nil {
		logReadErr("count packages", err)
		return 0
	}
	return n
}

// TotalItemSize returns the summed size of all inventory rows, zero on
// failure.
func (s *Store) TotalItemSize() int64 {
	var total sql.NullInt64
	if err := s.db.QueryRow(`SELECT SUM(size_bytes) FROM scanned_items`).Scan(&total); err != nil {
		logReadErr("total item size", err)
		return 0
	}
	return total.Int64
}
