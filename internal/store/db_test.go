package store

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Sri-dhar/arch-cleaner/internal/pacman"
)

// Helper function to create an in-memory store for testing
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	if err := s.CreateSchema(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return s
}

func TestNew(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	if s.db == nil {
		t.Error("Store.db should not be nil")
	}
}

func TestCreateSchema(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	tables := []string{"scan_history", "scanned_items", "packages", "action_feedback"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	indexes := []string{"idx_items_scan", "idx_items_type", "idx_items_hash", "idx_packages_orphan"}
	for _, index := range indexes {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", index).Scan(&name)
		if err != nil {
			t.Errorf("Index %s not found: %v", index, err)
		}
	}
}

// TestBeginScan_NoSchema_ReturnsErrNotInitialized verifies that writing
// to a fresh DB (no CreateSchema) returns ErrNotInitialized.
func TestBeginScan_NoSchema_ReturnsErrNotInitialized(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	// No CreateSchema call, the database stays uninitialized.
	_, err = s.BeginScan("system")
	if err == nil {
		t.Fatal("BeginScan() should return an error on uninitialized DB")
	}
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("BeginScan() error = %v; want errors.Is(err, ErrNotInitialized) to be true", err)
	}
}

// TestErrNotInitialized_ErrorMessage verifies that the sentinel tells the
// user what to run.
func TestErrNotInitialized_ErrorMessage(t *testing.T) {
	if !strings.Contains(ErrNotInitialized.Error(), "arch-cleaner scan") {
		t.Errorf("ErrNotInitialized message %q should mention 'arch-cleaner scan'", ErrNotInitialized.Error())
	}
}

// TestItemsByType_NoSchema_DegradesToEmpty verifies that read paths never
// surface database errors to callers.
func TestItemsByType_NoSchema_DegradesToEmpty(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	if items := s.ItemsByType(0); items != nil {
		t.Errorf("ItemsByType() on uninitialized DB = %v, want empty", items)
	}
	if pkgs := s.Packages(); pkgs != nil {
		t.Errorf("Packages() on uninitialized DB = %v, want empty", pkgs)
	}
}

func TestScanLifecycle(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	if rec := s.LastSuccessfulScan(); rec != nil {
		t.Errorf("LastSuccessfulScan() on empty history = %+v, want nil", rec)
	}

	scanID, err := s.BeginScan("system")
	if err != nil {
		t.Fatalf("BeginScan() failed: %v", err)
	}

	// A running scan is not a successful one.
	if rec := s.LastSuccessfulScan(); rec != nil {
		t.Errorf("LastSuccessfulScan() with only a running scan = %+v, want nil", rec)
	}

	scanErrs := []string{"scan path /root: permission denied", "walk /srv: input/output error"}
	if err := s.EndScan(scanID, 42, scanErrs, ScanCompleted); err != nil {
		t.Fatalf("EndScan() failed: %v", err)
	}

	rec := s.LastSuccessfulScan()
	if rec == nil {
		t.Fatal("LastSuccessfulScan() returned nil after a completed scan")
	}
	if rec.ID != scanID {
		t.Errorf("scan ID = %d, want %d", rec.ID, scanID)
	}
	if rec.ItemsFound != 42 || rec.ErrorCount != 2 {
		t.Errorf("counters = (%d, %d), want (42, 2)", rec.ItemsFound, rec.ErrorCount)
	}
	want := "scan path /root: permission denied; walk /srv: input/output error"
	if rec.Errors != want {
		t.Errorf("Errors round trip = %q, want %q", rec.Errors, want)
	}
	if rec.FinishedAt.IsZero() {
		t.Error("FinishedAt should be set after EndScan")
	}

	// A failed scan does not displace the last successful one.
	failedID, err := s.BeginScan("system")
	if err != nil {
		t.Fatalf("BeginScan() failed: %v", err)
	}
	if err := s.EndScan(failedID, 0, []string{"pacman query failed"}, ScanFailed); err != nil {
		t.Fatalf("EndScan() failed: %v", err)
	}
	if rec := s.LastSuccessfulScan(); rec == nil || rec.ID != scanID {
		t.Errorf("LastSuccessfulScan() after failed scan = %+v, want ID %d", rec, scanID)
	}
}

func TestUpsertItemsIdempotent(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	scanID, err := s.BeginScan("system")
	if err != nil {
		t.Fatalf("BeginScan() failed: %v", err)
	}

	now := time.Now()
	items := []*ScannedItem{
		{Path: "/home/user/big.iso", Type: ItemFile, SizeBytes: 1 << 30, ModifiedAt: now, AccessedAt: now},
		{Path: "/home/user/.cache/thumbs", Type: ItemDirectory, SizeBytes: 4096, ModifiedAt: now, AccessedAt: now},
	}

	if err := s.UpsertItems(scanID, items); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}
	// Rescan of the same paths must not duplicate rows.
	items[0].SizeBytes = 2 << 30
	if err := s.UpsertItems(scanID, items); err != nil {
		t.Fatalf("second UpsertItems() failed: %v", err)
	}

	got := s.ItemsByType(0)
	if len(got) != 2 {
		t.Fatalf("ItemsByType() returned %d items, want 2", len(got))
	}
	if got[1].SizeBytes != 2<<30 {
		t.Errorf("size after re-upsert = %d, want %d", got[1].SizeBytes, int64(2<<30))
	}
}

func TestItemTimestampRoundTripKeepsNanoseconds(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	scanID, err := s.BeginScan("system")
	if err != nil {
		t.Fatalf("BeginScan() failed: %v", err)
	}

	accessed := time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC)
	item := &ScannedItem{
		Path: "/tmp/precise", Type: ItemFile, SizeBytes: 10,
		ModifiedAt: accessed, AccessedAt: accessed,
	}
	if err := s.UpsertItems(scanID, []*ScannedItem{item}); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}

	got := s.ItemsByType(0, ItemFile)
	if len(got) != 1 {
		t.Fatalf("ItemsByType() returned %d items, want 1", len(got))
	}
	if !got[0].AccessedAt.Equal(accessed) {
		t.Errorf("AccessedAt round trip = %v, want %v", got[0].AccessedAt, accessed)
	}
}

func TestItemsByTypeFilters(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	scanID, _ := s.BeginScan("system")
	now := time.Now()
	items := []*ScannedItem{
		{Path: "/a/file.txt", Type: ItemFile, SizeBytes: 1, ModifiedAt: now, AccessedAt: now},
		{Path: "/a/app.log", Type: ItemLog, SizeBytes: 2, ModifiedAt: now, AccessedAt: now},
		{Path: "/var/cache/pacman/pkg/x-1.0-1-x86_64.pkg.tar.zst", Type: ItemPacmanCache, SizeBytes: 3, ModifiedAt: now, AccessedAt: now},
	}
	if err := s.UpsertItems(scanID, items); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}

	if got := s.ItemsByType(0, ItemFile, ItemLog); len(got) != 2 {
		t.Errorf("ItemsByType(file, log) returned %d items, want 2", len(got))
	}
	if got := s.ItemsByType(0, ItemPacmanCache); len(got) != 1 {
		t.Errorf("ItemsByType(pacman_cache) returned %d items, want 1", len(got))
	}
	if got := s.ItemsByType(0); len(got) != 3 {
		t.Errorf("ItemsByType() returned %d items, want 3", len(got))
	}
	if got := s.ItemsByType(2, ItemFile, ItemLog); len(got) != 1 || got[0].Path != "/a/app.log" {
		t.Errorf("ItemsByType(minSize=2, file, log) = %+v, want only /a/app.log", got)
	}
	if got := s.ItemsByType(3); len(got) != 1 {
		t.Errorf("ItemsByType(minSize=3) returned %d items, want 1", len(got))
	}
}

func TestClearScanCascades(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	now := time.Now()
	first, _ := s.BeginScan("system")
	err := s.UpsertItems(first, []*ScannedItem{
		{Path: "/home/u/a.txt", Type: ItemFile, SizeBytes: 1, ModifiedAt: now, AccessedAt: now},
		{Path: "/home/u/b.txt", Type: ItemFile, SizeBytes: 2, ModifiedAt: now, AccessedAt: now},
	})
	if err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}
	if err := s.EndScan(first, 2, nil, ScanCompleted); err != nil {
		t.Fatalf("EndScan() failed: %v", err)
	}

	second, _ := s.BeginScan("/var/tmp")
	err = s.UpsertItems(second, []*ScannedItem{
		{Path: "/var/tmp/c.txt", Type: ItemFile, SizeBytes: 3, ModifiedAt: now, AccessedAt: now},
	})
	if err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}
	if err := s.EndScan(second, 1, nil, ScanCompleted); err != nil {
		t.Fatalf("EndScan() failed: %v", err)
	}

	if err := s.ClearScan(second); err != nil {
		t.Fatalf("ClearScan() failed: %v", err)
	}

	// The second epoch and its items are gone; the first is untouched.
	got := s.ItemsByType(0)
	if len(got) != 2 {
		t.Fatalf("ItemsByType() after ClearScan returned %d items, want 2", len(got))
	}
	for _, item := range got {
		if item.Path == "/var/tmp/c.txt" {
			t.Error("/var/tmp/c.txt should have been removed with its scan")
		}
	}
	if rec := s.LastSuccessfulScan(); rec == nil || rec.ID != first {
		t.Errorf("LastSuccessfulScan() after ClearScan = %+v, want ID %d", rec, first)
	}
}

func TestDuplicateGroups(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	scanID, _ := s.BeginScan("system")
	now := time.Now()
	items := []*ScannedItem{
		{Path: "/a/one.bin", Type: ItemFile, SizeBytes: 2048, ContentHash: "aaa", ModifiedAt: now, AccessedAt: now},
		{Path: "/b/two.bin", Type: ItemFile, SizeBytes: 2048, ContentHash: "aaa", ModifiedAt: now, AccessedAt: now},
		{Path: "/c/three.bin", Type: ItemFile, SizeBytes: 2048, ContentHash: "aaa", ModifiedAt: now, AccessedAt: now},
		{Path: "/a/unique.bin", Type: ItemFile, SizeBytes: 2048, ContentHash: "bbb", ModifiedAt: now, AccessedAt: now},
		{Path: "/a/small1", Type: ItemFile, SizeBytes: 10, ContentHash: "ccc", ModifiedAt: now, AccessedAt: now},
		{Path: "/b/small2", Type: ItemFile, SizeBytes: 10, ContentHash: "ccc", ModifiedAt: now, AccessedAt: now},
		{Path: "/a/unhashed", Type: ItemFile, SizeBytes: 2048, ModifiedAt: now, AccessedAt: now},
	}
	if err := s.UpsertItems(scanID, items); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}

	groups := s.DuplicateGroups(1024)
	if len(groups) != 1 {
		t.Fatalf("DuplicateGroups(1024) returned %d groups, want 1", len(groups))
	}
	g := groups[0]
	if g.Hash != "aaa" || g.Count != 3 || g.SizeBytes != 2048 {
		t.Errorf("group = %+v, want hash=aaa count=3 size=2048", g)
	}
	if len(g.Paths) != 3 || g.Paths[0] != "/a/one.bin" {
		t.Errorf("group paths = %v, want 3 sorted paths starting with /a/one.bin", g.Paths)
	}

	// Lowering the floor picks up the small set too.
	if groups := s.DuplicateGroups(1); len(groups) != 2 {
		t.Errorf("DuplicateGroups(1) returned %d groups, want 2", len(groups))
	}

	if err := s.MarkDuplicates([]string{"aaa"}); err != nil {
		t.Fatalf("MarkDuplicates() failed: %v", err)
	}
	marked := 0
	for _, item := range s.ItemsByType(0, ItemFile) {
		if item.IsDuplicate {
			marked++
		}
	}
	if marked != 3 {
		t.Errorf("%d items marked duplicate, want 3", marked)
	}
}

func TestDeleteItemRemovesSubtree(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	scanID, _ := s.BeginScan("system")
	now := time.Now()
	items := []*ScannedItem{
		{Path: "/home/u/.cache/app", Type: ItemDirectory, SizeBytes: 0, ModifiedAt: now, AccessedAt: now},
		{Path: "/home/u/.cache/app/blob", Type: ItemFile, SizeBytes: 5, ModifiedAt: now, AccessedAt: now},
		{Path: "/home/u/.cache/apple", Type: ItemFile, SizeBytes: 5, ModifiedAt: now, AccessedAt: now},
	}
	if err := s.UpsertItems(scanID, items); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}

	if err := s.DeleteItem("/home/u/.cache/app"); err != nil {
		t.Fatalf("DeleteItem() failed: %v", err)
	}

	got := s.ItemsByType(0)
	if len(got) != 1 || got[0].Path != "/home/u/.cache/apple" {
		t.Errorf("remaining items = %v, want only /home/u/.cache/apple", got)
	}
}

func TestPruneStaleItems(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	now := time.Now()
	firstScan, _ := s.BeginScan("system")
	err := s.UpsertItems(firstScan, []*ScannedItem{
		{Path: "/home/u/old", Type: ItemFile, SizeBytes: 1, ModifiedAt: now, AccessedAt: now},
		{Path: "/var/tmp/other", Type: ItemFile, SizeBytes: 1, ModifiedAt: now, AccessedAt: now},
	})
	if err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}
	s.EndScan(firstScan, 2, nil, ScanCompleted)

	// Second scan of /home/u no longer sees /home/u/old.
	secondScan, _ := s.BeginScan("/home/u")
	err = s.UpsertItems(secondScan, []*ScannedItem{
		{Path: "/home/u/new", Type: ItemFile, SizeBytes: 1, ModifiedAt: now, AccessedAt: now},
	})
	if err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}
	if err := s.PruneStaleItems(secondScan, []string{"/home/u"}); err != nil {
		t.Fatalf("PruneStaleItems() failed: %v", err)
	}

	paths := make(map[string]bool)
	for _, item := range s.ItemsByType(0) {
		paths[item.Path] = true
	}
	if paths["/home/u/old"] {
		t.Error("/home/u/old should have been pruned")
	}
	if !paths["/home/u/new"] || !paths["/var/tmp/other"] {
		t.Errorf("unexpected surviving paths: %v", paths)
	}
}

func TestUpsertAndQueryPackages(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	pkgs := []*pacman.Package{
		{
			Name: "firefox", Version: "121.0-1", SizeBytes: 240 << 20,
			Description: "Web browser", InstallDate: time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC),
			RequiredBy: []string{}, OptionalFor: []string{},
		},
		{
			Name: "orphaned-lib", Version: "1.2-3", SizeBytes: 5 << 20,
			IsOrphan: true, IsDependency: true,
			RequiredBy: []string{}, OptionalFor: []string{"some-tool"},
		},
	}

	if err := s.UpsertPackages(pkgs); err != nil {
		t.Fatalf("UpsertPackages() failed: %v", err)
	}

	all := s.Packages()
	if len(all) != 2 {
		t.Fatalf("Packages() returned %d, want 2", len(all))
	}
	if all[0].Name != "firefox" {
		t.Errorf("first package = %s, want firefox (sorted by name)", all[0].Name)
	}
	if all[0].InstallDate.IsZero() {
		t.Error("InstallDate not round-tripped")
	}

	orphans := s.OrphanPackages()
	if len(orphans) != 1 || orphans[0].Name != "orphaned-lib" {
		t.Fatalf("OrphanPackages() = %v, want [orphaned-lib]", orphans)
	}
	if len(orphans[0].OptionalFor) != 1 || orphans[0].OptionalFor[0] != "some-tool" {
		t.Errorf("OptionalFor = %v, want [some-tool]", orphans[0].OptionalFor)
	}

	// A fresh upsert replaces the mirror wholesale.
	if err := s.UpsertPackages(pkgs[:1]); err != nil {
		t.Fatalf("UpsertPackages() failed: %v", err)
	}
	if got := s.CountPackages(); got != 1 {
		t.Errorf("CountPackages() after replace = %d, want 1", got)
	}

	if err := s.DeletePackage("firefox"); err != nil {
		t.Fatalf("DeletePackage() failed: %v", err)
	}
	if err := s.DeletePackage("firefox"); err == nil {
		t.Error("DeletePackage() on a missing package should fail")
	}
}

func TestFeedbackRoundTrip(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	entries := []*Feedback{
		{SuggestionID: "abc123def4", SuggestionType: "old_file", ItemDetails: "/home/u/a.dat", Action: "approved", SizeBytes: 100},
		{SuggestionID: "fed321cba0", SuggestionType: "old_file", ItemDetails: "/home/u/b.dat", Action: "rejected", SizeBytes: 50, Comment: "still needed"},
		{SuggestionID: "0011223344", SuggestionType: "orphaned_packages", ItemDetails: "liba, libb", Action: "approved", SizeBytes: 9000},
	}
	for _, f := range entries {
		if err := s.RecordFeedback(f); err != nil {
			t.Fatalf("RecordFeedback() failed: %v", err)
		}
	}

	recent := s.RecentFeedback(2)
	if len(recent) != 2 {
		t.Fatalf("RecentFeedback(2) returned %d rows, want 2", len(recent))
	}
	if recent[0].SuggestionID != "0011223344" {
		t.Errorf("newest feedback = %s, want 0011223344", recent[0].SuggestionID)
	}
	if recent[0].RecordedAt.IsZero() {
		t.Error("RecordedAt not round-tripped")
	}
	if recent[1].Comment != "still needed" || recent[1].ItemDetails != "/home/u/b.dat" {
		t.Errorf("details/comment not round-tripped: %+v", recent[1])
	}

	counts := s.FeedbackCountsByType()
	if counts["old_file"]["approved"] != 1 || counts["old_file"]["rejected"] != 1 {
		t.Errorf("old_file counts = %v", counts["old_file"])
	}
	if counts["orphaned_packages"]["approved"] != 1 {
		t.Errorf("orphaned_packages counts = %v", counts["orphaned_packages"])
	}
}

func TestCounters(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	if s.CountItems() != 0 || s.TotalItemSize() != 0 {
		t.Error("fresh store should report zero items and zero size")
	}

	scanID, _ := s.BeginScan("system")
	now := time.Now()
	err := s.UpsertItems(scanID, []*ScannedItem{
		{Path: "/a", Type: ItemFile, SizeBytes: 100, ModifiedAt: now, AccessedAt: now},
		{Path: "/b", Type: ItemFile, SizeBytes: 250, ModifiedAt: now, AccessedAt: now},
	})
	if err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}

	if got := s.CountItems(); got != 2 {
		t.Errorf("CountItems() = %d, want 2", got)
	}
	if got := s.TotalItemSize(); got != 350 {
		t.Errorf("TotalItemSize() = %d, want 350", got)
	}
}
