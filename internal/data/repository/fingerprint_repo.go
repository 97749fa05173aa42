package repository

import (
	"context"
	"fmt"

	"marketplace-reviews/internal/data/entity"
	"marketplace-reviews/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type FingerprintRepository interface {
	// Admit inserts the admission record, or bumps the occurrence counter when
	// the (listing, ip_hash, device_hash) key already exists. Returns true only
	// for a fresh insert. The unique index is the concurrency control: two
	// concurrent attempts can never both see true.
	Admit(ctx context.Context, fp *entity.ReviewFingerprint) (bool, error)
	FindByKey(ctx context.Context, listingID uuid.UUID, ipHash, deviceHash string) (*entity.ReviewFingerprint, error)
}

type fingerprintRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewFingerprintRepository(db database.Querier, log *zap.Logger) FingerprintRepository {
	return &fingerprintRepository{
		db:  db,
		log: log.With(zap.String("repository", "fingerprint")),
	}
}

func (r *fingerprintRepository) Admit(ctx context.Context, fp *entity.ReviewFingerprint) (bool, error) {
	// xmax = 0 distinguishes a fresh insert from a conflict-update in one
	// round trip, so there is no check-then-insert race.
	query := `
		INSERT INTO review_fingerprints
			(id, listing_id, ip_hash, device_hash, user_agent, last_seen_at, occurrence_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, $7)
		ON CONFLICT (listing_id, ip_hash, device_hash)
		DO UPDATE SET
			occurrence_count = review_fingerprints.occurrence_count + 1,
			last_seen_at = EXCLUDED.last_seen_at
		RETURNING (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.db.QueryRow(ctx, query,
		fp.ID,
		fp.ListingID,
		fp.IPHash,
		fp.DeviceHash,
		fp.UserAgent,
		fp.LastSeenAt,
		fp.CreatedAt,
	).Scan(&inserted)

	if err != nil {
		r.log.Error("Failed to admit fingerprint",
			zap.Error(err),
			zap.String("listing_id", fp.ListingID.String()),
		)
		return false, fmt.Errorf("admit fingerprint for listing %s: %w", fp.ListingID.String(), err)
	}

	return inserted, nil
}

func (r *fingerprintRepository) FindByKey(ctx context.Context, listingID uuid.UUID, ipHash, deviceHash string) (*entity.ReviewFingerprint, error) {
	query := `
		SELECT id, listing_id, ip_hash, device_hash, user_agent, last_seen_at, occurrence_count, created_at
		FROM review_fingerprints
		WHERE listing_id = $1 AND ip_hash = $2 AND device_hash = $3
	`

	var fp entity.ReviewFingerprint
	err := r.db.QueryRow(ctx, query, listingID, ipHash, deviceHash).Scan(
		&fp.ID,
		&fp.ListingID,
		&fp.IPHash,
		&fp.DeviceHash,
		&fp.UserAgent,
		&fp.LastSeenAt,
		&fp.OccurrenceCount,
		&fp.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find fingerprint",
			zap.Error(err),
			zap.String("listing_id", listingID.String()),
		)
		return nil, fmt.Errorf("find fingerprint for listing %s: %w", listingID.String(), err)
	}

	return &fp, nil
}
