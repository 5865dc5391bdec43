package recommend

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sri-dhar/arch-cleaner/internal/store"
)

func sampleSuggestions() []*Suggestion {
	item := &store.ScannedItem{Path: "/f/stale.dat", Type: store.ItemFile, SizeBytes: 2048, AccessedAt: time.Now().Add(-200 * 24 * time.Hour)}
	return []*Suggestion{
		{
			ID:                 SuggestionID(KindOldFile, item.Path),
			Kind:               KindOldFile,
			Description:        "Remove old file",
			Details:            item.Path,
			EstimatedSizeBytes: item.SizeBytes,
			Confidence:         0.7,
			Payload:            Payload{Item: item},
		},
		{
			ID:                 SuggestionID(KindJournal, "current=100 target=50"),
			Kind:               KindJournal,
			Description:        "Vacuum journal",
			Details:            "current=100 target=50",
			EstimatedSizeBytes: 50,
			Confidence:         0.8,
			Payload:            Payload{Journal: &JournalVacuum{CurrentBytes: 100, TargetBytes: 50}},
		},
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suggestions.json")
	want := sampleSuggestions()

	if err := SaveArtifact(path, want); err != nil {
		t.Fatalf("SaveArtifact() error = %v", err)
	}

	got, skipped, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("LoadArtifact() error = %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if len(got) != len(want) {
		t.Fatalf("loaded %d suggestions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Kind != want[i].Kind {
			t.Errorf("suggestion %d = (%s, %s), want (%s, %s)", i, got[i].ID, got[i].Kind, want[i].ID, want[i].Kind)
		}
	}
	if got[0].Payload.Item == nil || got[0].Payload.Item.Path != "/f/stale.dat" {
		t.Errorf("old-file payload did not survive the round trip: %+v", got[0].Payload)
	}
	if got[1].Payload.Journal == nil || got[1].Payload.Journal.TargetBytes != 50 {
		t.Errorf("journal payload did not survive the round trip: %+v", got[1].Payload)
	}
}

func TestLoadArtifactMissingFile(t *testing.T) {
	got, skipped, err := LoadArtifact(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadArtifact() error = %v, want nil for a missing file", err)
	}
	if len(got) != 0 || skipped != 0 {
		t.Errorf("got %d suggestions and %d skipped, want 0 and 0", len(got), skipped)
	}
}

func TestSaveArtifactOverwritesWithEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suggestions.json")
	if err := SaveArtifact(path, sampleSuggestions()); err != nil {
		t.Fatalf("SaveArtifact() error = %v", err)
	}

	// A run that finds nothing must not leave stale suggestions behind.
	if err := SaveArtifact(path, nil); err != nil {
		t.Fatalf("SaveArtifact(empty) error = %v", err)
	}

	got, _, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("LoadArtifact() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("loaded %d suggestions after empty save, want 0", len(got))
	}
}

func TestLoadArtifactSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suggestions.json")
	data, err := json.Marshal(map[string]any{
		"schema_version": SchemaVersion + 1,
		"generated_at":   time.Now(),
		"suggestions":    []any{map[string]any{"id": "abc", "suggestion_type": "OLD_FILE"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	got, skipped, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("LoadArtifact() error = %v, want nil for a schema mismatch", err)
	}
	if len(got) != 0 || skipped != 0 {
		t.Errorf("got %d suggestions and %d skipped, want empty result", len(got), skipped)
	}
}

func TestLoadArtifactSkipsBadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suggestions.json")
	good := sampleSuggestions()[0]
	goodRaw, err := json.Marshal(good)
	if err != nil {
		t.Fatal(err)
	}

	file := artifactFile{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   time.Now(),
		Suggestions: []json.RawMessage{
			goodRaw,
			json.RawMessage(`{"id":"","suggestion_type":"OLD_FILE"}`),
			json.RawMessage(`{"id":"deadbeef00","suggestion_type":"NOT_A_KIND"}`),
			// Kind says journal but the payload carries no journal data.
			json.RawMessage(`{"id":"cafebabe00","suggestion_type":"JOURNAL_LOG","data":{}}`),
			json.RawMessage(`"not an object"`),
		},
	}
	data, err := json.Marshal(file)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	got, skipped, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("LoadArtifact() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != good.ID {
		t.Fatalf("got %d surviving suggestions, want only the valid one", len(got))
	}
	if skipped != 4 {
		t.Errorf("skipped = %d, want 4", skipped)
	}
}

func TestLoadArtifactCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suggestions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := LoadArtifact(path); err == nil {
		t.Error("LoadArtifact() on a corrupt file should return an error")
	}
}
