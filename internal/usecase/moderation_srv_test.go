package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace-reviews/internal/data/entity"
	"marketplace-reviews/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModerateApprovePending(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("Lakeside Garage")
	review := env.addReview(listing.ID, 5, 1.2, entity.StatusPending, time.Now())
	service := env.moderationService()

	resp, err := service.Moderate(context.Background(), review.ID.String(), &request.ModerateReviewRequest{Action: "approve"})
	require.NoError(t, err)

	assert.Equal(t, string(entity.StatusApproved), resp.Status)
	assert.Equal(t, entity.StatusApproved, review.Status)
	require.NotNil(t, review.ApprovedAt)

	// Approval re-aggregates before returning
	assert.Equal(t, 1, env.listings.aggregateWrites)
	assert.Equal(t, 5.0, env.listings.listings[listing.ID].AverageRating)
	assert.Equal(t, int64(1), env.listings.listings[listing.ID].TotalReviews)
}

func TestModerateApproveFlagged(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("Lakeside Garage")
	review := env.addReview(listing.ID, 4, 1.0, entity.StatusFlagged, time.Now())
	service := env.moderationService()

	resp, err := service.Moderate(context.Background(), review.ID.String(), &request.ModerateReviewRequest{Action: "approve"})
	require.NoError(t, err)

	assert.Equal(t, string(entity.StatusApproved), resp.Status)
}

func TestModerateRejectDoesNotAggregate(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("Lakeside Garage")
	review := env.addReview(listing.ID, 1, 1.0, entity.StatusFlagged, time.Now())
	service := env.moderationService()

	resp, err := service.Moderate(context.Background(), review.ID.String(), &request.ModerateReviewRequest{Action: "reject"})
	require.NoError(t, err)

	assert.Equal(t, string(entity.StatusRejected), resp.Status)
	assert.Nil(t, review.ApprovedAt)
	assert.Zero(t, env.listings.aggregateWrites)
}

func TestModerateTerminalStatesAreClosed(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("Lakeside Garage")
	service := env.moderationService()

	approved := env.addReview(listing.ID, 5, 1.0, entity.StatusApproved, time.Now())
	rejected := env.addReview(listing.ID, 1, 1.0, entity.StatusRejected, time.Now())

	for _, review := range []*entity.Review{approved, rejected} {
		for _, action := range []string{"approve", "reject"} {
			_, err := service.Moderate(context.Background(), review.ID.String(), &request.ModerateReviewRequest{Action: action})
			assert.True(t, errors.Is(err, ErrInvalidTransition),
				"expected invalid transition for %s -> %s", review.Status, action)
		}
	}
}

func TestModerateLosesRaceToConcurrentDecision(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("Lakeside Garage")
	review := env.addReview(listing.ID, 5, 1.0, entity.StatusPending, time.Now())
	service := env.moderationService()

	// Another actor rejects the review between our read and our write; the
	// guarded update must refuse to reopen it.
	env.reviews.afterFindByID = func() {
		env.reviews.setStatus(review.ID, entity.StatusRejected)
	}

	_, err := service.Moderate(context.Background(), review.ID.String(), &request.ModerateReviewRequest{Action: "approve"})
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	assert.Equal(t, entity.StatusRejected, env.reviews.reviews[review.ID].Status)
	assert.Nil(t, env.reviews.reviews[review.ID].ApprovedAt)
	assert.Zero(t, env.listings.aggregateWrites)
}

func TestModerateUnknownReview(t *testing.T) {
	env := newTestEnv()
	service := env.moderationService()

	_, err := service.Moderate(context.Background(), uuid.New().String(), &request.ModerateReviewRequest{Action: "approve"})
	assert.True(t, errors.Is(err, ErrReviewNotFound))
}

func TestModerateInvalidAction(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("Lakeside Garage")
	review := env.addReview(listing.ID, 3, 1.0, entity.StatusPending, time.Now())
	service := env.moderationService()

	_, err := service.Moderate(context.Background(), review.ID.String(), &request.ModerateReviewRequest{Action: "escalate"})
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, entity.StatusPending, review.Status)
}

func TestGetModerationQueue(t *testing.T) {
	env := newTestEnv()
	listing := env.addListing("Lakeside Garage")
	env.addReview(listing.ID, 5, 1.0, entity.StatusFlagged, time.Now())
	env.addReview(listing.ID, 4, 1.0, entity.StatusPending, time.Now())
	service := env.moderationService()

	queue, err := service.GetModerationQueue(context.Background(), "flagged", &request.PaginatedRequest{Page: 1, PerPage: 20})
	require.NoError(t, err)

	require.Len(t, queue, 1)
	assert.Equal(t, "flagged", queue[0].Status)
}

func TestGetModerationQueueUnknownStatus(t *testing.T) {
	env := newTestEnv()
	service := env.moderationService()

	_, err := service.GetModerationQueue(context.Background(), "archived", &request.PaginatedRequest{Page: 1, PerPage: 20})
	assert.True(t, errors.Is(err, ErrValidation))
}
