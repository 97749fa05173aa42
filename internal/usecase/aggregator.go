package usecase

import (
	"context"
	"fmt"

	"marketplace-reviews/internal/data/repository"
	"marketplace-reviews/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RatingAggregator owns the listing's derived rating fields. Every code path
// that changes the approved set requests a recompute here; nothing else writes
// average_rating or total_reviews.
type RatingAggregator interface {
	Recompute(ctx context.Context, listingID uuid.UUID) (averageRating float64, totalReviews int64, err error)
}

type ratingAggregator struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewRatingAggregator(repo *repository.Repository, log *zap.Logger) RatingAggregator {
	return &ratingAggregator{
		repo: repo,
		log:  log.With(zap.String("service", "aggregator")),
	}
}

// Recompute reads one snapshot of the approved reviews, computes the
// weight-normalized mean rounded to one decimal place, and writes both fields
// back in a single update. Idempotent for a fixed approved set; safe to call
// redundantly or interleaved, since reviews only ever enter the approved set.
func (a *ratingAggregator) Recompute(ctx context.Context, listingID uuid.UUID) (float64, int64, error) {
	reviews, err := a.repo.Review.FindApprovedForAggregation(ctx, listingID)
	if err != nil {
		return 0, 0, fmt.Errorf("recompute rating: %w", err)
	}

	var averageRating float64
	totalReviews := int64(len(reviews))

	if totalReviews > 0 {
		var weightedSum, weightSum float64
		for _, review := range reviews {
			weightedSum += float64(review.Rating) * review.Weight
			weightSum += review.Weight
		}
		if weightSum > 0 {
			averageRating = utils.RoundRating(weightedSum / weightSum)
		}
	}

	if err := a.repo.Listing.UpdateAggregate(ctx, listingID, averageRating, totalReviews); err != nil {
		return 0, 0, fmt.Errorf("recompute rating: %w", err)
	}

	a.log.Debug("Listing rating recomputed",
		zap.String("listing_id", listingID.String()),
		zap.Float64("average_rating", averageRating),
		zap.Int64("total_reviews", totalReviews),
	)

	return averageRating, totalReviews, nil
}
