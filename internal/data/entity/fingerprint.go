package entity

import (
	"time"

	"github.com/google/uuid"
)

// ReviewFingerprint is one (listing, signature) admission record. The
// (listing_id, ip_hash, device_hash) triple carries a unique constraint;
// repeat attempts bump the counter instead of inserting.
type ReviewFingerprint struct {
	BaseSimple
	ListingID       uuid.UUID `db:"listing_id"`
	IPHash          string    `db:"ip_hash"`
	DeviceHash      string    `db:"device_hash"`
	UserAgent       string    `db:"user_agent"` // raw, diagnostic only
	LastSeenAt      time.Time `db:"last_seen_at"`
	OccurrenceCount int       `db:"occurrence_count"`
}
