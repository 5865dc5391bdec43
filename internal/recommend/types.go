package recommend

import (
	"crypto/sha1"
	"encoding/hex"

	"github.com/Sri-dhar/arch-cleaner/internal/analyzer"
	"github.com/Sri-dhar/arch-cleaner/internal/pacman"
	"github.com/Sri-dhar/arch-cleaner/internal/store"
)

// Kind is the closed set of suggestion types.
type Kind string

const (
	KindOldFile        Kind = "OLD_FILE"
	KindLargeFile      Kind = "LARGE_FILE"
	KindOrphanPackages Kind = "ORPHAN_PACKAGE"
	KindDuplicateSet   Kind = "DUPLICATE_SET"
	KindPacmanCache    Kind = "PACMAN_CACHE"
	KindJournal        Kind = "JOURNAL_LOG"
)

// Valid reports whether k is one of the known suggestion kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindOldFile, KindLargeFile, KindOrphanPackages, KindDuplicateSet, KindPacmanCache, KindJournal:
		return true
	}
	return false
}

// JournalVacuum carries the parameters of a journal vacuum action.
type JournalVacuum struct {
	CurrentBytes int64 `json:"current_bytes"`
	TargetBytes  int64 `json:"target_bytes"`
}

// Payload carries the kind-specific data of a suggestion. Exactly one
// field is set, matching the suggestion's Kind.
type Payload struct {
	Item       *store.ScannedItem     `json:"item,omitempty"`        // OLD_FILE, LARGE_FILE
	Packages   []*pacman.Package      `json:"packages,omitempty"`    // ORPHAN_PACKAGE
	Duplicates *analyzer.DuplicateSet `json:"duplicates,omitempty"`  // DUPLICATE_SET
	CachePaths []string               `json:"cache_paths,omitempty"` // PACMAN_CACHE
	Journal    *JournalVacuum         `json:"journal,omitempty"`     // JOURNAL_LOG
}

// matches reports whether the populated payload field agrees with the
// given kind.
func (p *Payload) matches(k Kind) bool {
	switch k {
	case KindOldFile, KindLargeFile:
		return p.Item != nil
	case KindOrphanPackages:
		return len(p.Packages) > 0
	case KindDuplicateSet:
		return p.Duplicates != nil
	case KindPacmanCache:
		return len(p.CachePaths) > 0
	case KindJournal:
		return p.Journal != nil
	}
	return false
}

// Suggestion is one ranked, uniquely-identified cleanup action. The ID
// is deterministic over (Kind, Details), so a suggestion computed by one
// invocation can be approved and applied by a later one.
type Suggestion struct {
	ID                 string  `json:"id"`
	Kind               Kind    `json:"suggestion_type"`
	Description        string  `json:"description"`
	Details            string  `json:"details"`
	EstimatedSizeBytes int64   `json:"estimated_size_bytes"`
	Confidence         float64 `json:"confidence"`
	Rationale          string  `json:"rationale"`
	Payload            Payload `json:"data"`
}

// SuggestionID derives the stable id: the first 10 hex characters of
// SHA-1 over the kind and the machine-stable details string.
func SuggestionID(kind Kind, details string) string {
	h := sha1.New()
	h.Write([]byte(kind))
	h.Write([]byte(details))
	return hex.EncodeToString(h.Sum(nil))[:10]
}
