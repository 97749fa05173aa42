package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"marketplace-reviews/internal/dto/request"
	"marketplace-reviews/internal/usecase"
	"marketplace-reviews/pkg/fingerprint"
	"marketplace-reviews/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	service usecase.ReviewService
	log     *zap.Logger
}

func NewReviewHandler(service usecase.ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log.With(zap.String("handler", "review")),
	}
}

// SubmitReview handles POST /api/reviews (anonymous allowed)
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req request.CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	var authorID *uuid.UUID
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		authorID = &userID
	}

	sub := usecase.Submission{
		AuthorID:  authorID,
		ClientIP:  fingerprint.ClientIP(r),
		UserAgent: r.UserAgent(),
	}

	result, err := h.service.SubmitReview(r.Context(), &req, sub)
	if err != nil {
		h.handleServiceError(w, err, "submit review")
		return
	}

	utils.ResponseCreated(w, "Review submitted successfully. It will be visible after review.", result)
}

// GetListingReviews handles GET /api/listings/{id}/reviews (public)
func (h *ReviewHandler) GetListingReviews(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")
	if listingID == "" {
		utils.ResponseBadRequest(w, "Listing ID is required", nil)
		return
	}

	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	reviews, err := h.service.GetListingReviews(r.Context(), listingID, req)
	if err != nil {
		h.handleServiceError(w, err, "get listing reviews")
		return
	}

	utils.ResponseSuccess(w, "success", reviews)
}

// GetListingRating handles GET /api/listings/{id}/rating (public)
func (h *ReviewHandler) GetListingRating(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")
	if listingID == "" {
		utils.ResponseBadRequest(w, "Listing ID is required", nil)
		return
	}

	rating, err := h.service.GetListingRating(r.Context(), listingID)
	if err != nil {
		h.handleServiceError(w, err, "get listing rating")
		return
	}

	utils.ResponseSuccess(w, "success", rating)
}

func (h *ReviewHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, usecase.ErrDuplicateReview):
		h.log.Warn(operation+" rejected - duplicate", zap.Error(err))
		utils.ResponseTooManyRequests(w, "You have already reviewed this listing from this device", "DUPLICATE_REVIEW")

	case errors.Is(err, usecase.ErrValidation):
		h.log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrListingNotFound):
		h.log.Warn(operation+" failed - listing not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	default:
		h.log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
