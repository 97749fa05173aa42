package response

import (
	"time"

	"marketplace-reviews/internal/data/entity"
)

// SubmitReviewResponse deliberately exposes only the id and status: weights,
// sentiment scores and fingerprint hashes stay internal.
type SubmitReviewResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ReviewResponse struct {
	ID           string    `json:"id"`
	ListingID    string    `json:"listing_id"`
	ReviewerName string    `json:"reviewer_name,omitempty"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	Images       []string  `json:"images,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ModeratedReviewResponse is the admin queue view; it includes the trust
// signals hidden from the public surface.
type ModeratedReviewResponse struct {
	ID             string              `json:"id"`
	ListingID      string              `json:"listing_id"`
	AuthorID       *string             `json:"author_id,omitempty"`
	Rating         int                 `json:"rating"`
	Comment        string              `json:"comment"`
	Status         string              `json:"status"`
	Weight         float64             `json:"weight"`
	SentimentScore float64             `json:"sentiment_score"`
	ContentFlags   entity.ContentFlags `json:"content_flags"`
	CreatedAt      time.Time           `json:"created_at"`
	ApprovedAt     *time.Time          `json:"approved_at,omitempty"`
}

type ListingRatingResponse struct {
	ListingID     string  `json:"listing_id"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int64   `json:"total_reviews"`
}

type ModerationResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type SweepResponse struct {
	ProcessedCount int `json:"processed_count"`
	FailedCount    int `json:"failed_count"`
}

func ReviewToResponse(review *entity.Review, reviewerName string) ReviewResponse {
	return ReviewResponse{
		ID:           review.ID.String(),
		ListingID:    review.ListingID.String(),
		ReviewerName: reviewerName,
		Rating:       review.Rating,
		Comment:      review.Comment,
		Images:       review.Images,
		CreatedAt:    review.CreatedAt,
	}
}

func ReviewToModeratedResponse(review *entity.Review) ModeratedReviewResponse {
	var authorID *string
	if review.AuthorID != nil {
		s := review.AuthorID.String()
		authorID = &s
	}

	return ModeratedReviewResponse{
		ID:             review.ID.String(),
		ListingID:      review.ListingID.String(),
		AuthorID:       authorID,
		Rating:         review.Rating,
		Comment:        review.Comment,
		Status:         string(review.Status),
		Weight:         review.Weight,
		SentimentScore: review.SentimentScore,
		ContentFlags:   review.ContentFlags,
		CreatedAt:      review.CreatedAt,
		ApprovedAt:     review.ApprovedAt,
	}
}
