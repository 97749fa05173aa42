package usecase

import (
	"marketplace-reviews/internal/analysis"
	"marketplace-reviews/internal/data/repository"
	"marketplace-reviews/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Review     ReviewService
	Moderation ModerationService
	Sweep      SweepService
	Aggregator RatingAggregator
}

func NewService(repo *repository.Repository, analyzer analysis.Analyzer, config *utils.Config, log *zap.Logger) *Service {
	aggregator := NewRatingAggregator(repo, log)

	return &Service{
		Review:     NewReviewService(repo, analyzer, config, log),
		Moderation: NewModerationService(repo, aggregator, log),
		Sweep:      NewSweepService(repo, aggregator, config.Review, log),
		Aggregator: aggregator,
	}
}
