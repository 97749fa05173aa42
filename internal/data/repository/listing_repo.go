package repository

import (
	"context"
	"fmt"
	"time"

	"marketplace-reviews/internal/data/entity"
	"marketplace-reviews/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ListingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error)

	// UpdateAggregate writes both derived rating fields in a single statement.
	// Only the rating aggregator calls this.
	UpdateAggregate(ctx context.Context, id uuid.UUID, averageRating float64, totalReviews int64) error
}

type listingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewListingRepository(db database.Querier, log *zap.Logger) ListingRepository {
	return &listingRepository{
		db:  db,
		log: log.With(zap.String("repository", "listing")),
	}
}

func (r *listingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	query := `
		SELECT id, name, category, average_rating, total_reviews, created_at, updated_at
		FROM listings
		WHERE id = $1
	`

	var listing entity.Listing
	err := r.db.QueryRow(ctx, query, id).Scan(
		&listing.ID,
		&listing.Name,
		&listing.Category,
		&listing.AverageRating,
		&listing.TotalReviews,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find listing by ID",
			zap.Error(err),
			zap.String("listing_id", id.String()),
		)
		return nil, fmt.Errorf("find listing by ID %s: %w", id.String(), err)
	}

	return &listing, nil
}

func (r *listingRepository) UpdateAggregate(ctx context.Context, id uuid.UUID, averageRating float64, totalReviews int64) error {
	query := `
		UPDATE listings
		SET average_rating = $2, total_reviews = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, averageRating, totalReviews, time.Now())
	if err != nil {
		r.log.Error("Failed to update listing aggregate",
			zap.Error(err),
			zap.String("listing_id", id.String()),
		)
		return fmt.Errorf("update aggregate for listing %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("listing %s not found", id.String())
	}

	return nil
}
