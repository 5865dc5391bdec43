package recommend

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

// SchemaVersion identifies the artifact layout. A file carrying a
// different version is treated as empty rather than misread.
const SchemaVersion = 1

type artifactFile struct {
	SchemaVersion int               `json:"schema_version"`
	GeneratedAt   time.Time         `json:"generated_at"`
	Suggestions   []json.RawMessage `json:"suggestions"`
}

// SaveArtifact overwrites the suggestion artifact wholesale with the
// given list. An empty or nil list writes an empty artifact, never a
// stale one.
func SaveArtifact(path string, suggestions []*Suggestion) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	records := make([]json.RawMessage, 0, len(suggestions))
	for _, s := range suggestions {
		raw, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal suggestion %s: %w", s.ID, err)
		}
		records = append(records, raw)
	}

	data, err := json.MarshalIndent(artifactFile{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   time.Now(),
		Suggestions:   records,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	return nil
}

// LoadArtifact reads the suggestion artifact. A missing file yields an
// empty list. Records that fail to decode, carry an unknown kind or a
// payload that does not match their kind are skipped individually; the
// skipped count is returned alongside the surviving suggestions.
func LoadArtifact(path string) ([]*Suggestion, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to read artifact: %w", err)
	}

	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, 0, fmt.Errorf("failed to parse artifact: %w", err)
	}

	if file.SchemaVersion != SchemaVersion {
		log.Warnf("suggestion artifact has schema version %d, expected %d; ignoring it", file.SchemaVersion, SchemaVersion)
		return nil, 0, nil
	}

	var suggestions []*Suggestion
	skipped := 0
	for _, raw := range file.Suggestions {
		var s Suggestion
		if err := json.Unmarshal(raw, &s); err != nil {
			log.WithError(err).Debug("skipping malformed suggestion record")
			skipped++
			continue
		}
		if s.ID == "" || !s.Kind.Valid() || !s.Payload.matches(s.Kind) {
			log.Debugf("skipping inconsistent suggestion record %q", s.ID)
			skipped++
			continue
		}
		suggestions = append(suggestions, &s)
	}

	if skipped > 0 {
		log.Warnf("skipped %d malformed suggestion records", skipped)
	}

	return suggestions, skipped, nil
}
