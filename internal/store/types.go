package store

import "time"

// ItemType classifies an inventory entry by what kind of disk object it
// describes.
type ItemType string

const (
	ItemFile        ItemType = "file"
	ItemDirectory   ItemType = "directory"
	ItemCache       ItemType = "cache"
	ItemLog         ItemType = "log"
	ItemPacmanCache ItemType = "pacman_cache"
	ItemJournal     ItemType = "journal_log"
)

// Scan status values recorded in scan_history.
const (
	ScanRunning   = "running"
	ScanCompleted = "completed"
	ScanFailed    = "failed"
)

// ScannedItem is one filesystem object captured by a scan. ContentHash
// is empty when hashing was skipped for the item.
type ScannedItem struct {
	Path        string
	Type        ItemType
	SizeBytes   int64
	ModifiedAt  time.Time
	AccessedAt  time.Time
	ContentHash string
	IsDuplicate bool
}

// ScanRecord is one row of scan history.
type ScanRecord struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time // zero while the scan is still running
	Scope      string
	ItemsFound int
	ErrorCount int
	Errors     string // joined sub-collection failure messages, "" when clean
	Status     string
}

// DuplicateGroup is a set of identically-hashed files of the same size.
type DuplicateGroup struct {
	Hash      string
	SizeBytes int64
	Count     int
	Paths     []string
}

// Feedback records what the user did with one suggestion.
type Feedback struct {
	ID             int64
	SuggestionID   string
	SuggestionType string
	ItemDetails    string
	Action         string
	SizeBytes      int64
	Comment        string
	RecordedAt     time.Time
}
