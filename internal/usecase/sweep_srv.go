package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"marketplace-reviews/internal/data/entity"
	"marketplace-reviews/internal/data/repository"
	"marketplace-reviews/internal/dto/response"
	"marketplace-reviews/pkg/utils"

	"go.uber.org/zap"
)

// SweepService promotes reviews that sat in pending past the configured
// deadline. Flagged reviews are never touched: leaving flagged requires a
// human decision.
type SweepService interface {
	Run(ctx context.Context) (*response.SweepResponse, error)
}

type sweepService struct {
	repo       *repository.Repository
	aggregator RatingAggregator
	config     utils.ReviewConfig
	log        *zap.Logger

	mu sync.Mutex // one sweep at a time, manual triggers included
}

func NewSweepService(repo *repository.Repository, aggregator RatingAggregator, config utils.ReviewConfig, log *zap.Logger) SweepService {
	return &sweepService{
		repo:       repo,
		aggregator: aggregator,
		config:     config,
		log:        log.With(zap.String("service", "sweep")),
	}
}

func (s *sweepService) Run(ctx context.Context) (*response.SweepResponse, error) {
	if !s.mu.TryLock() {
		return nil, ErrSweepRunning
	}
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-time.Duration(s.config.PendingHours) * time.Hour)

	stale, err := s.repo.Review.FindStalePending(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("load stale pending reviews: %w", err)
	}

	s.log.Info("Sweep started",
		zap.Int("candidates", len(stale)),
		zap.Time("cutoff", cutoff),
	)

	processed := 0
	failed := 0

	for _, review := range stale {
		now := time.Now()
		updated, err := s.repo.Review.UpdateStatus(ctx, review.ID, entity.StatusApproved, &now)
		if err != nil {
			// One bad review must not abort the batch
			failed++
			s.log.Error("Sweep failed to approve review",
				zap.Error(err),
				zap.String("review_id", review.ID.String()),
			)
			continue
		}
		if !updated {
			// A moderator closed the review after our snapshot; their decision wins
			s.log.Info("Sweep skipped review, no longer pending",
				zap.String("review_id", review.ID.String()),
			)
			continue
		}

		processed++

		if _, _, err := s.aggregator.Recompute(ctx, review.ListingID); err != nil {
			// The approval stands; the rating catches up on the next trigger
			s.log.Error("Sweep failed to recompute listing rating",
				zap.Error(err),
				zap.String("review_id", review.ID.String()),
				zap.String("listing_id", review.ListingID.String()),
			)
		}
	}

	s.log.Info("Sweep finished",
		zap.Int("processed", processed),
		zap.Int("failed", failed),
	)

	return &response.SweepResponse{
		ProcessedCount: processed,
		FailedCount:    failed,
	}, nil
}
