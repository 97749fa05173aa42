package wire

import (
	"marketplace-reviews/internal/adaptor"
	"marketplace-reviews/pkg/middleware"
	"marketplace-reviews/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReview(
	r chi.Router,
	reviewHandler *adaptor.ReviewHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/listings/{id}/reviews - approved reviews for a listing
	r.Get("/api/listings/{id}/reviews", reviewHandler.GetListingReviews)

	// GET /api/listings/{id}/rating - public aggregate rating
	r.Get("/api/listings/{id}/rating", reviewHandler.GetListingRating)

	// ==================== OPTIONAL-AUTH ROUTES ====================
	// Submission accepts anonymous users; a valid token links authorship
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(config.JWT.Secret, log))

		// POST /api/reviews - submit a review
		r.Post("/api/reviews", reviewHandler.SubmitReview)
	})
}
