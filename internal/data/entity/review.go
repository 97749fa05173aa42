package entity

import (
	"time"

	"github.com/google/uuid"
)

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "pending"
	StatusFlagged  ReviewStatus = "flagged"
	StatusApproved ReviewStatus = "approved"
	StatusRejected ReviewStatus = "rejected"
)

// transitions is the full lifecycle table. Approved and rejected are terminal:
// nothing in the engine moves a review out of them.
var transitions = map[ReviewStatus][]ReviewStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusFlagged:  {StatusApproved, StatusRejected},
	StatusApproved: {},
	StatusRejected: {},
}

func (s ReviewStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s ReviewStatus) Terminal() bool {
	targets, ok := transitions[s]
	return ok && len(targets) == 0
}

func (s ReviewStatus) CanTransitionTo(target ReviewStatus) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// InitialStatus maps the analyzer's manipulation verdict to the entry state.
func InitialStatus(isManipulative bool) ReviewStatus {
	if isManipulative {
		return StatusFlagged
	}
	return StatusPending
}

// ContentFlags are the analyzer's structured content judgments. Informational,
// never mutated after creation.
type ContentFlags struct {
	Generic             bool `json:"genericContent"`
	ExcessivePositivity bool `json:"excessivePositivity"`
	SuspiciousPattern   bool `json:"suspiciousPatterns"`
	Inappropriate       bool `json:"inappropriateContent"`
}

type Review struct {
	BaseSimple
	ListingID      uuid.UUID    `db:"listing_id"`
	AuthorID       *uuid.UUID   `db:"author_id"` // nil for anonymous submissions
	Rating         int          `db:"rating"`    // 1-5
	Comment        string       `db:"comment"`
	Images         []string     `db:"images"`
	Status         ReviewStatus `db:"status"`
	Weight         float64      `db:"weight"` // [0.1, 2.0], write-once
	SentimentScore float64      `db:"sentiment_score"`
	ContentFlags   ContentFlags `db:"content_flags"`
	FingerprintID  uuid.UUID    `db:"fingerprint_id"`
	ApprovedAt     *time.Time   `db:"approved_at"` // set exactly once, at pending/flagged -> approved
}
