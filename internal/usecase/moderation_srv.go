package usecase

import (
	"context"
	"fmt"
	"time"

	"marketplace-reviews/internal/data/entity"
	"marketplace-reviews/internal/data/repository"
	"marketplace-reviews/internal/dto/request"
	"marketplace-reviews/internal/dto/response"
	"marketplace-reviews/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ModerationService interface {
	Moderate(ctx context.Context, reviewID string, req *request.ModerateReviewRequest) (*response.ModerationResponse, error)
	GetModerationQueue(ctx context.Context, status string, req *request.PaginatedRequest) ([]response.ModeratedReviewResponse, error)
}

type moderationService struct {
	repo       *repository.Repository
	aggregator RatingAggregator
	log        *zap.Logger
}

func NewModerationService(repo *repository.Repository, aggregator RatingAggregator, log *zap.Logger) ModerationService {
	return &moderationService{
		repo:       repo,
		aggregator: aggregator,
		log:        log.With(zap.String("service", "moderation")),
	}
}

// Moderate applies an explicit approve/reject decision. An approval always
// recomputes the listing rating before reporting success; a status change
// without a recompute would leave a stale public rating.
func (s *moderationService) Moderate(ctx context.Context, reviewID string, req *request.ModerateReviewRequest) (*response.ModerationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	reviewUUID, err := uuid.Parse(reviewID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid review ID %s", ErrValidation, reviewID)
	}

	review, err := s.repo.Review.FindByID(ctx, reviewUUID)
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	if review == nil {
		return nil, fmt.Errorf("%w: %s", ErrReviewNotFound, reviewID)
	}

	target := entity.StatusRejected
	if req.Action == "approve" {
		target = entity.StatusApproved
	}

	if !review.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, review.Status, target)
	}

	var approvedAt *time.Time
	if target == entity.StatusApproved {
		now := time.Now()
		approvedAt = &now
	}

	updated, err := s.repo.Review.UpdateStatus(ctx, reviewUUID, target, approvedAt)
	if err != nil {
		return nil, fmt.Errorf("update review status: %w", err)
	}
	if !updated {
		// Another moderator or the sweep closed the review after we read it
		return nil, fmt.Errorf("%w: review %s is no longer open", ErrInvalidTransition, reviewID)
	}

	if target == entity.StatusApproved {
		if _, _, err := s.aggregator.Recompute(ctx, review.ListingID); err != nil {
			s.log.Error("Rating recompute failed after approval",
				zap.Error(err),
				zap.String("review_id", reviewID),
				zap.String("listing_id", review.ListingID.String()),
			)
			return nil, fmt.Errorf("recompute after approval: %w", err)
		}
	}

	s.log.Info("Review moderated",
		zap.String("review_id", reviewID),
		zap.String("from", string(review.Status)),
		zap.String("to", string(target)),
	)

	return &response.ModerationResponse{
		ID:     reviewID,
		Status: string(target),
	}, nil
}

func (s *moderationService) GetModerationQueue(ctx context.Context, status string, req *request.PaginatedRequest) ([]response.ModeratedReviewResponse, error) {
	reviewStatus := entity.ReviewStatus(status)
	if !reviewStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	reviews, err := s.repo.Review.FindByStatus(ctx, reviewStatus, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get moderation queue: %w", err)
	}

	queue := make([]response.ModeratedReviewResponse, len(reviews))
	for i, review := range reviews {
		queue[i] = response.ReviewToModeratedResponse(review)
	}

	return queue, nil
}
