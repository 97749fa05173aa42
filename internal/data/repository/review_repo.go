package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace-reviews/internal/data/entity"
	"marketplace-reviews/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	FindApprovedByListingID(ctx context.Context, listingID uuid.UUID, limit, offset int) ([]*entity.Review, error)
	CountApprovedByListingID(ctx context.Context, listingID uuid.UUID) (int64, error)
	FindByStatus(ctx context.Context, status entity.ReviewStatus, limit, offset int) ([]*entity.Review, error)
	FindStalePending(ctx context.Context, cutoff time.Time) ([]*entity.Review, error)

	// UpdateStatus moves a review into a terminal state. The write only lands
	// when the row is still pending or flagged; it reports false when another
	// actor already closed the review, so terminal states are never reopened.
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReviewStatus, approvedAt *time.Time) (bool, error)

	// Aggregation input: every approved review for the listing, one snapshot
	FindApprovedForAggregation(ctx context.Context, listingID uuid.UUID) ([]*entity.Review, error)
}

type reviewRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewReviewRepository(db database.Querier, log *zap.Logger) ReviewRepository {
	return &reviewRepository{
		db:  db,
		log: log.With(zap.String("repository", "review")),
	}
}

const reviewColumns = `id, listing_id, author_id, rating, comment, images, status, weight, sentiment_score, content_flags, fingerprint_id, approved_at, created_at`

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	flagsJSON, err := json.Marshal(review.ContentFlags)
	if err != nil {
		return fmt.Errorf("marshal content flags: %w", err)
	}

	_, err = r.db.Exec(ctx, query,
		review.ID,
		review.ListingID,
		review.AuthorID,
		review.Rating,
		review.Comment,
		review.Images,
		review.Status,
		review.Weight,
		review.SentimentScore,
		flagsJSON,
		review.FingerprintID,
		review.ApprovedAt,
		review.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create review",
			zap.Error(err),
			zap.String("listing_id", review.ListingID.String()),
		)
		return fmt.Errorf("create review for listing %s: %w", review.ListingID.String(), err)
	}

	return nil
}

func scanReview(row pgx.Row) (*entity.Review, error) {
	var review entity.Review
	var flagsJSON []byte

	err := row.Scan(
		&review.ID,
		&review.ListingID,
		&review.AuthorID,
		&review.Rating,
		&review.Comment,
		&review.Images,
		&review.Status,
		&review.Weight,
		&review.SentimentScore,
		&flagsJSON,
		&review.FingerprintID,
		&review.ApprovedAt,
		&review.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(flagsJSON) > 0 {
		if err := json.Unmarshal(flagsJSON, &review.ContentFlags); err != nil {
			return nil, fmt.Errorf("unmarshal content flags: %w", err)
		}
	}

	return &review, nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	review, err := scanReview(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find review by ID",
			zap.Error(err),
			zap.String("review_id", id.String()),
		)
		return nil, fmt.Errorf("find review by ID %s: %w", id.String(), err)
	}

	return review, nil
}

func (r *reviewRepository) queryReviews(ctx context.Context, query string, args ...any) ([]*entity.Review, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*entity.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			r.log.Error("Failed to scan review row", zap.Error(err))
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, review)
	}

	return reviews, rows.Err()
}

func (r *reviewRepository) FindApprovedByListingID(ctx context.Context, listingID uuid.UUID, limit, offset int) ([]*entity.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE listing_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	reviews, err := r.queryReviews(ctx, query, listingID, entity.StatusApproved, limit, offset)
	if err != nil {
		r.log.Error("Failed to find approved reviews",
			zap.Error(err),
			zap.String("listing_id", listingID.String()),
		)
		return nil, fmt.Errorf("find approved reviews for listing %s: %w", listingID.String(), err)
	}

	return reviews, nil
}

func (r *reviewRepository) CountApprovedByListingID(ctx context.Context, listingID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM reviews WHERE listing_id = $1 AND status = $2`

	var count int64
	err := r.db.QueryRow(ctx, query, listingID, entity.StatusApproved).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count approved reviews",
			zap.Error(err),
			zap.String("listing_id", listingID.String()),
		)
		return 0, fmt.Errorf("count approved reviews for listing %s: %w", listingID.String(), err)
	}

	return count, nil
}

func (r *reviewRepository) FindByStatus(ctx context.Context, status entity.ReviewStatus, limit, offset int) ([]*entity.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`

	reviews, err := r.queryReviews(ctx, query, status, limit, offset)
	if err != nil {
		r.log.Error("Failed to find reviews by status",
			zap.Error(err),
			zap.String("status", string(status)),
		)
		return nil, fmt.Errorf("find reviews by status %s: %w", status, err)
	}

	return reviews, nil
}

func (r *reviewRepository) FindStalePending(ctx context.Context, cutoff time.Time) ([]*entity.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE status = $1 AND created_at <= $2
		ORDER BY created_at ASC
	`

	reviews, err := r.queryReviews(ctx, query, entity.StatusPending, cutoff)
	if err != nil {
		r.log.Error("Failed to find stale pending reviews",
			zap.Error(err),
			zap.Time("cutoff", cutoff),
		)
		return nil, fmt.Errorf("find stale pending reviews before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	return reviews, nil
}

func (r *reviewRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReviewStatus, approvedAt *time.Time) (bool, error) {
	// The status guard makes the transition atomic: a review a moderator
	// already closed stays closed, and approved_at keeps its first value.
	query := `
		UPDATE reviews
		SET status = $2, approved_at = COALESCE($3, approved_at)
		WHERE id = $1 AND status IN ($4, $5)
	`

	result, err := r.db.Exec(ctx, query, id, status, approvedAt, entity.StatusPending, entity.StatusFlagged)
	if err != nil {
		r.log.Error("Failed to update review status",
			zap.Error(err),
			zap.String("review_id", id.String()),
			zap.String("status", string(status)),
		)
		return false, fmt.Errorf("update review %s status: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *reviewRepository) FindApprovedForAggregation(ctx context.Context, listingID uuid.UUID) ([]*entity.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE listing_id = $1 AND status = $2
	`

	reviews, err := r.queryReviews(ctx, query, listingID, entity.StatusApproved)
	if err != nil {
		r.log.Error("Failed to load reviews for aggregation",
			zap.Error(err),
			zap.String("listing_id", listingID.String()),
		)
		return nil, fmt.Errorf("load reviews for aggregation of listing %s: %w", listingID.String(), err)
	}

	return reviews, nil
}
