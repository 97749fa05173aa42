package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"marketplace-reviews/internal/analysis"
	"marketplace-reviews/internal/data/entity"
	"marketplace-reviews/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func validSubmitRequest(listingID uuid.UUID) *request.CreateReviewRequest {
	return &request.CreateReviewRequest{
		ListingID: listingID.String(),
		Rating:    4,
		Comment:   "Prompt arrival, fair price, and the repair has held up for two weeks now.",
	}
}

func anonymousSubmission() Submission {
	return Submission{
		ClientIP:  "203.0.113.7",
		UserAgent: testUserAgent,
	}
}

func TestSubmitReviewCreatesPending(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("Northside Plumbing")
	env.analyzer.result = analysis.Result{SentimentScore: 0.6}
	service := env.reviewService()

	authorID := uuid.New()
	sub := anonymousSubmission()
	sub.AuthorID = &authorID

	resp, err := service.SubmitReview(context.Background(), validSubmitRequest(listing.ID), sub)
	require.NoError(t, err)

	assert.Equal(t, string(entity.StatusPending), resp.Status)

	reviewID, err := uuid.Parse(resp.ID)
	require.NoError(t, err)

	stored := env.reviews.reviews[reviewID]
	require.NotNil(t, stored)
	assert.Equal(t, listing.ID, stored.ListingID)
	assert.Equal(t, &authorID, stored.AuthorID)
	assert.Equal(t, 4, stored.Rating)
	assert.Equal(t, 0.6, stored.SentimentScore)
	assert.Equal(t, 1.0, stored.Weight)
	assert.Nil(t, stored.ApprovedAt)
	assert.Len(t, env.fingerprints.entries, 1)
}

func TestSubmitReviewManipulativeIsFlagged(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("Northside Plumbing")
	env.analyzer.result = analysis.Result{
		SentimentScore: 0.95,
		IsManipulative: true,
		Flags:          analysis.Flags{ExcessivePositivity: true},
	}
	service := env.reviewService()

	resp, err := service.SubmitReview(context.Background(), validSubmitRequest(listing.ID), anonymousSubmission())
	require.NoError(t, err)

	assert.Equal(t, string(entity.StatusFlagged), resp.Status)
}

func TestSubmitReviewDuplicateFingerprint(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("Northside Plumbing")
	service := env.reviewService()

	_, err := service.SubmitReview(context.Background(), validSubmitRequest(listing.ID), anonymousSubmission())
	require.NoError(t, err)

	// Same device, same network, same listing
	_, err = service.SubmitReview(context.Background(), validSubmitRequest(listing.ID), anonymousSubmission())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateReview))

	// Exactly one review persisted; the repeat bumped the counter instead
	assert.Len(t, env.reviews.reviews, 1)
	for _, fp := range env.fingerprints.entries {
		assert.Equal(t, 2, fp.OccurrenceCount)
	}
}

func TestSubmitReviewFailedPersistDoesNotBlockRetry(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("Northside Plumbing")
	env.reviews.failCreate = errors.New("connection reset")
	service := env.reviewService()

	_, err := service.SubmitReview(context.Background(), validSubmitRequest(listing.ID), anonymousSubmission())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDuplicateReview))

	// The failed insert rolled the admission back with it
	assert.Empty(t, env.reviews.reviews)
	assert.Empty(t, env.fingerprints.entries)

	// The same device can retry and succeed
	resp, err := service.SubmitReview(context.Background(), validSubmitRequest(listing.ID), anonymousSubmission())
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusPending), resp.Status)

	assert.Len(t, env.reviews.reviews, 1)
	for _, fp := range env.fingerprints.entries {
		assert.Equal(t, 1, fp.OccurrenceCount)
	}
}

func TestSubmitReviewDifferentDeviceAdmitted(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("Northside Plumbing")
	service := env.reviewService()

	_, err := service.SubmitReview(context.Background(), validSubmitRequest(listing.ID), anonymousSubmission())
	require.NoError(t, err)

	other := anonymousSubmission()
	other.UserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

	_, err = service.SubmitReview(context.Background(), validSubmitRequest(listing.ID), other)
	require.NoError(t, err)

	assert.Len(t, env.reviews.reviews, 2)
}

func TestSubmitReviewAnalyzerDegradedFallsBackToNeutral(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("Northside Plumbing")
	env.analyzer.err = errors.New("model unavailable")
	service := env.reviewService()

	resp, err := service.SubmitReview(context.Background(), validSubmitRequest(listing.ID), anonymousSubmission())
	require.NoError(t, err)

	// Submission still succeeds with neutral scoring
	assert.Equal(t, string(entity.StatusPending), resp.Status)

	reviewID, _ := uuid.Parse(resp.ID)
	stored := env.reviews.reviews[reviewID]
	assert.Zero(t, stored.SentimentScore)
	assert.Equal(t, entity.ContentFlags{}, stored.ContentFlags)
}

func TestSubmitReviewValidationRejectedBeforeSideEffects(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("Northside Plumbing")
	service := env.reviewService()

	req := validSubmitRequest(listing.ID)
	req.Rating = 6

	_, err := service.SubmitReview(context.Background(), req, anonymousSubmission())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	assert.Empty(t, env.reviews.reviews)
	assert.Empty(t, env.fingerprints.entries)
}

func TestSubmitReviewShortCommentRejected(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("Northside Plumbing")
	service := env.reviewService()

	req := validSubmitRequest(listing.ID)
	req.Comment = "ok"

	_, err := service.SubmitReview(context.Background(), req, anonymousSubmission())
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestSubmitReviewUnknownListing(t *testing.T) {
	env := newTestEnv()
	service := env.reviewService()

	_, err := service.SubmitReview(context.Background(), validSubmitRequest(uuid.New()), anonymousSubmission())
	assert.True(t, errors.Is(err, ErrListingNotFound))
	assert.Empty(t, env.fingerprints.entries)
}

func TestSubmitReviewAnonymousDiscountApplied(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("Northside Plumbing")
	env.analyzer.result = analysis.Result{SentimentScore: 0.9}
	service := env.reviewService()

	req := validSubmitRequest(listing.ID)
	req.Comment = strings.Repeat("Solid work and clear communication throughout. ", 4) // > 150 chars

	resp, err := service.SubmitReview(context.Background(), req, anonymousSubmission())
	require.NoError(t, err)

	reviewID, _ := uuid.Parse(resp.ID)
	stored := env.reviews.reviews[reviewID]

	// 1.0 * 1.5 (detailed) * 0.5 (anonymous)
	assert.InDelta(t, 0.75, stored.Weight, 1e-9)
}

func TestGetListingReviewsSurvivesReviewerLookupFailure(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("Northside Plumbing")

	authorID := uuid.New()
	review := env.addReview(listing.ID, 5, 1.0, entity.StatusApproved, time.Now())
	review.AuthorID = &authorID

	env.users.err = errors.New("connection reset")
	service := env.reviewService()

	resp, err := service.GetListingReviews(context.Background(), listing.ID.String(), &request.PaginatedRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)

	// The listing still renders, just without the reviewer name
	require.Len(t, resp.Data, 1)
	assert.Empty(t, resp.Data[0].ReviewerName)
}

func TestGetListingRating(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("Northside Plumbing")
	listing.AverageRating = 4.2
	listing.TotalReviews = 17
	service := env.reviewService()

	resp, err := service.GetListingRating(context.Background(), listing.ID.String())
	require.NoError(t, err)

	assert.Equal(t, 4.2, resp.AverageRating)
	assert.Equal(t, int64(17), resp.TotalReviews)
}

func TestGetListingRatingNotFound(t *testing.T) {
	env := newTestEnv()
	service := env.reviewService()

	_, err := service.GetListingRating(context.Background(), uuid.New().String())
	assert.True(t, errors.Is(err, ErrListingNotFound))
}
