// Package feedback records what the user did with each suggestion. The
// log feeds the report command today; confidence tuning on top of it is
// an extension point, not a trained model.
package feedback

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Sri-dhar/arch-cleaner/internal/recommend"
	"github.com/Sri-dhar/arch-cleaner/internal/store"
)

// Dispositions a suggestion can receive.
const (
	ActionApproved        = "APPROVED"
	ActionRejected        = "REJECTED"
	ActionSkipped         = "SKIPPED"
	ActionExecutionFailed = "EXECUTION_FAILED"
)

// Recorder appends suggestion dispositions to the store.
type Recorder struct {
	store *store.Store
	limit int
}

// NewRecorder creates a recorder; limit caps how many entries Recent
// returns by default.
func NewRecorder(st *store.Store, limit int) *Recorder {
	if limit <= 0 {
		limit = 1000
	}
	return &Recorder{store: st, limit: limit}
}

// Record appends one disposition for the given suggestion.
func (r *Recorder) Record(s *recommend.Suggestion, action, comment string) error {
	entry := &store.Feedback{
		SuggestionID:   s.ID,
		SuggestionType: string(s.Kind),
		ItemDetails:    s.Details,
		Action:         action,
		SizeBytes:      s.EstimatedSizeBytes,
		Comment:        comment,
		RecordedAt:     time.Now(),
	}
	if err := r.store.RecordFeedback(entry); err != nil {
		return err
	}
	log.Debugf("recorded %s for suggestion %s", action, s.ID)
	return nil
}

// Recent returns the newest feedback entries, newest first, up to the
// recorder's configured history limit.
func (r *Recorder) Recent() []*store.Feedback {
	return r.store.RecentFeedback(r.limit)
}

// ConfidenceAdjustment returns the multiplier to apply to generated
// confidences for the given suggestion kind. Currently always 1.0; the
// recorded history is where a future adjustment would come from.
func (r *Recorder) ConfidenceAdjustment(kind recommend.Kind) float64 {
	return 1.0
}
