package usecase

import (
	"context"
	"fmt"
	"time"

	"marketplace-reviews/internal/analysis"
	"marketplace-reviews/internal/data/entity"
	"marketplace-reviews/internal/data/repository"
	"marketplace-reviews/internal/dto/request"
	"marketplace-reviews/internal/dto/response"
	"marketplace-reviews/pkg/fingerprint"
	"marketplace-reviews/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Submission carries the per-request context the handler extracts: who is
// submitting (nil for anonymous) and from what device/network.
type Submission struct {
	AuthorID  *uuid.UUID
	ClientIP  string
	UserAgent string
}

type ReviewService interface {
	SubmitReview(ctx context.Context, req *request.CreateReviewRequest, sub Submission) (*response.SubmitReviewResponse, error)
	GetListingReviews(ctx context.Context, listingID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error)
	GetListingRating(ctx context.Context, listingID string) (*response.ListingRatingResponse, error)
}

type reviewService struct {
	repo     *repository.Repository
	analyzer analysis.Analyzer
	config   *utils.Config
	log      *zap.Logger
}

func NewReviewService(repo *repository.Repository, analyzer analysis.Analyzer, config *utils.Config, log *zap.Logger) ReviewService {
	return &reviewService{
		repo:     repo,
		analyzer: analyzer,
		config:   config,
		log:      log.With(zap.String("service", "review")),
	}
}

// SubmitReview runs the full admission pipeline: validation, listing lookup,
// fingerprint admission, content analysis, weight synthesis, persistence.
// Validation happens before any side effect; the fingerprint unique constraint
// guarantees at most one review per (listing, signature) even under concurrent
// duplicate attempts.
func (s *reviewService) SubmitReview(ctx context.Context, req *request.CreateReviewRequest, sub Submission) (*response.SubmitReviewResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Submit review validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid listing ID %s", ErrValidation, req.ListingID)
	}

	listing, err := s.repo.Listing.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("check listing: %w", err)
	}
	if listing == nil {
		return nil, fmt.Errorf("%w: %s", ErrListingNotFound, req.ListingID)
	}

	signature, err := fingerprint.Generate(sub.UserAgent, sub.ClientIP, s.config.JWT.Secret)
	if err != nil {
		return nil, fmt.Errorf("derive fingerprint: %w", err)
	}

	now := time.Now()
	fp := &entity.ReviewFingerprint{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		ListingID:  listingID,
		IPHash:     signature.IPHash,
		DeviceHash: signature.DeviceHash,
		UserAgent:  sub.UserAgent,
		LastSeenAt: now,
	}

	// Cheap pre-check: a device that already reviewed this listing is turned
	// away before the analyzer spends anything, with its counter bumped.
	existing, err := s.repo.Fingerprint.FindByKey(ctx, listingID, signature.IPHash, signature.DeviceHash)
	if err != nil {
		return nil, fmt.Errorf("check fingerprint: %w", err)
	}
	if existing != nil {
		if _, err := s.repo.Fingerprint.Admit(ctx, fp); err != nil {
			s.log.Warn("Failed to record repeat attempt", zap.Error(err))
		}
		s.log.Warn("Duplicate review attempt",
			zap.String("listing_id", req.ListingID),
			zap.String("device_hash", signature.DeviceHash),
		)
		return nil, fmt.Errorf("%w: listing %s", ErrDuplicateReview, req.ListingID)
	}

	// The analyzer is the only externally-latent step; on failure we score
	// neutral and proceed rather than blocking the submission.
	result, err := s.analyzer.Analyze(ctx, req.Comment, req.Rating)
	if err != nil {
		s.log.Warn("Analyzer degraded, using neutral result",
			zap.Error(err),
			zap.String("listing_id", req.ListingID),
		)
		result = analysis.Neutral()
	}

	weight := SynthesizeWeight(result, len(req.Comment), sub.AuthorID != nil, s.config.Review)

	review := &entity.Review{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		ListingID:      listingID,
		AuthorID:       sub.AuthorID,
		Rating:         req.Rating,
		Comment:        req.Comment,
		Images:         req.Images,
		Status:         entity.InitialStatus(result.IsManipulative),
		Weight:         weight,
		SentimentScore: result.SentimentScore,
		ContentFlags:   entity.ContentFlags(result.Flags),
		FingerprintID:  fp.ID,
	}

	// Admission and the review insert commit together. A failed insert rolls
	// the fingerprint back too, so the device can retry instead of being
	// locked out by a fingerprint with no review behind it.
	err = s.repo.Tx.WithinTx(ctx, func(txRepo *repository.Repository) error {
		admitted, err := txRepo.Fingerprint.Admit(ctx, fp)
		if err != nil {
			return fmt.Errorf("fingerprint admission: %w", err)
		}
		if !admitted {
			// Lost the race against a concurrent submission from the same device
			return fmt.Errorf("%w: listing %s", ErrDuplicateReview, req.ListingID)
		}

		if err := txRepo.Review.Create(ctx, review); err != nil {
			return fmt.Errorf("create review: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Review submitted",
		zap.String("review_id", review.ID.String()),
		zap.String("listing_id", req.ListingID),
		zap.String("status", string(review.Status)),
		zap.Int("rating", review.Rating),
		zap.Float64("weight", review.Weight),
		zap.Bool("anonymous", sub.AuthorID == nil),
	)

	return &response.SubmitReviewResponse{
		ID:     review.ID.String(),
		Status: string(review.Status),
	}, nil
}

func (s *reviewService) GetListingReviews(ctx context.Context, listingID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error) {
	listingUUID, err := uuid.Parse(listingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid listing ID %s", ErrValidation, listingID)
	}

	reviews, err := s.repo.Review.FindApprovedByListingID(ctx, listingUUID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get listing reviews: %w", err)
	}

	total, err := s.repo.Review.CountApprovedByListingID(ctx, listingUUID)
	if err != nil {
		return nil, fmt.Errorf("count listing reviews: %w", err)
	}

	reviewResponses := make([]response.ReviewResponse, len(reviews))
	for i, review := range reviews {
		reviewerName := ""
		if review.AuthorID != nil {
			user, err := s.repo.User.FindByID(ctx, *review.AuthorID)
			if err != nil {
				s.log.Warn("Reviewer lookup failed, omitting name",
					zap.Error(err),
					zap.String("author_id", review.AuthorID.String()),
				)
			} else if user != nil {
				reviewerName = user.Name
			}
		}
		reviewResponses[i] = response.ReviewToResponse(review, reviewerName)
	}

	return response.NewPaginatedResponse(reviewResponses, req.Page, req.PerPage, total), nil
}

func (s *reviewService) GetListingRating(ctx context.Context, listingID string) (*response.ListingRatingResponse, error) {
	listingUUID, err := uuid.Parse(listingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid listing ID %s", ErrValidation, listingID)
	}

	listing, err := s.repo.Listing.FindByID(ctx, listingUUID)
	if err != nil {
		return nil, fmt.Errorf("get listing rating: %w", err)
	}
	if listing == nil {
		return nil, fmt.Errorf("%w: %s", ErrListingNotFound, listingID)
	}

	return &response.ListingRatingResponse{
		ListingID:     listing.ID.String(),
		AverageRating: listing.AverageRating,
		TotalReviews:  listing.TotalReviews,
	}, nil
}
