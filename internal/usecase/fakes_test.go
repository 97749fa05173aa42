package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"marketplace-reviews/internal/analysis"
	"marketplace-reviews/internal/data/entity"
	"marketplace-reviews/internal/data/repository"
	"marketplace-reviews/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// In-memory repository fakes. They mirror the Postgres semantics the services
// rely on: the fingerprint unique key, the open-status guard on status
// updates, COALESCE on approved_at, status filters.

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews map[uuid.UUID]*entity.Review

	failCreate    error // consumed by the next Create call
	failUpdateFor map[uuid.UUID]bool
	blockStale    chan struct{} // when set, FindStalePending waits until closed

	afterStaleFetch func() // runs after FindStalePending snapshots its result
	afterFindByID   func() // runs after FindByID takes its copy
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{
		reviews:       make(map[uuid.UUID]*entity.Review),
		failUpdateFor: make(map[uuid.UUID]bool),
	}
}

func (f *fakeReviewRepo) setStatus(id uuid.UUID, status entity.ReviewStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews[id].Status = status
}

func (f *fakeReviewRepo) Create(ctx context.Context, review *entity.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		err := f.failCreate
		f.failCreate = nil
		return err
	}
	f.reviews[review.ID] = review
	return nil
}

func (f *fakeReviewRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	f.mu.Lock()
	review, ok := f.reviews[id]
	var copied *entity.Review
	if ok {
		// Row scans hand back detached values, so the fake does too
		c := *review
		copied = &c
	}
	f.mu.Unlock()

	if f.afterFindByID != nil {
		f.afterFindByID()
	}
	return copied, nil
}

func (f *fakeReviewRepo) FindApprovedByListingID(ctx context.Context, listingID uuid.UUID, limit, offset int) ([]*entity.Review, error) {
	approved, err := f.FindApprovedForAggregation(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if offset >= len(approved) {
		return nil, nil
	}
	end := offset + limit
	if end > len(approved) {
		end = len(approved)
	}
	return approved[offset:end], nil
}

func (f *fakeReviewRepo) CountApprovedByListingID(ctx context.Context, listingID uuid.UUID) (int64, error) {
	approved, err := f.FindApprovedForAggregation(ctx, listingID)
	if err != nil {
		return 0, err
	}
	return int64(len(approved)), nil
}

func (f *fakeReviewRepo) FindByStatus(ctx context.Context, status entity.ReviewStatus, limit, offset int) ([]*entity.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Review
	for _, r := range f.reviews {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) FindStalePending(ctx context.Context, cutoff time.Time) ([]*entity.Review, error) {
	if f.blockStale != nil {
		<-f.blockStale
	}
	f.mu.Lock()
	var out []*entity.Review
	for _, r := range f.reviews {
		if r.Status == entity.StatusPending && !r.CreatedAt.After(cutoff) {
			c := *r
			out = append(out, &c)
		}
	}
	f.mu.Unlock()

	if f.afterStaleFetch != nil {
		f.afterStaleFetch()
	}
	return out, nil
}

func (f *fakeReviewRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReviewStatus, approvedAt *time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdateFor[id] {
		return false, fmt.Errorf("simulated storage failure for %s", id)
	}
	review, ok := f.reviews[id]
	if !ok || review.Status.Terminal() {
		return false, nil
	}
	review.Status = status
	if approvedAt != nil && review.ApprovedAt == nil {
		review.ApprovedAt = approvedAt
	}
	return true, nil
}

func (f *fakeReviewRepo) snapshot() map[uuid.UUID]entity.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := make(map[uuid.UUID]entity.Review, len(f.reviews))
	for id, r := range f.reviews {
		snap[id] = *r
	}
	return snap
}

func (f *fakeReviewRepo) restore(snap map[uuid.UUID]entity.Review) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = make(map[uuid.UUID]*entity.Review, len(snap))
	for id, r := range snap {
		c := r
		f.reviews[id] = &c
	}
}

func (f *fakeReviewRepo) FindApprovedForAggregation(ctx context.Context, listingID uuid.UUID) ([]*entity.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Review
	for _, r := range f.reviews {
		if r.ListingID == listingID && r.Status == entity.StatusApproved {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeFingerprintRepo struct {
	mu      sync.Mutex
	entries map[string]*entity.ReviewFingerprint
}

func newFakeFingerprintRepo() *fakeFingerprintRepo {
	return &fakeFingerprintRepo{entries: make(map[string]*entity.ReviewFingerprint)}
}

func admissionKey(listingID uuid.UUID, ipHash, deviceHash string) string {
	return listingID.String() + "|" + ipHash + "|" + deviceHash
}

func (f *fakeFingerprintRepo) Admit(ctx context.Context, fp *entity.ReviewFingerprint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := admissionKey(fp.ListingID, fp.IPHash, fp.DeviceHash)
	if existing, ok := f.entries[key]; ok {
		existing.OccurrenceCount++
		existing.LastSeenAt = fp.LastSeenAt
		return false, nil
	}
	fp.OccurrenceCount = 1
	f.entries[key] = fp
	return true, nil
}

func (f *fakeFingerprintRepo) FindByKey(ctx context.Context, listingID uuid.UUID, ipHash, deviceHash string) (*entity.ReviewFingerprint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[admissionKey(listingID, ipHash, deviceHash)], nil
}

func (f *fakeFingerprintRepo) snapshot() map[string]entity.ReviewFingerprint {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := make(map[string]entity.ReviewFingerprint, len(f.entries))
	for key, fp := range f.entries {
		snap[key] = *fp
	}
	return snap
}

func (f *fakeFingerprintRepo) restore(snap map[string]entity.ReviewFingerprint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(map[string]*entity.ReviewFingerprint, len(snap))
	for key, fp := range snap {
		c := fp
		f.entries[key] = &c
	}
}

type fakeListingRepo struct {
	mu       sync.Mutex
	listings map[uuid.UUID]*entity.Listing

	aggregateWrites int
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: make(map[uuid.UUID]*entity.Listing)}
}

func (f *fakeListingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listings[id], nil
}

func (f *fakeListingRepo) UpdateAggregate(ctx context.Context, id uuid.UUID, averageRating float64, totalReviews int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	listing, ok := f.listings[id]
	if !ok {
		return fmt.Errorf("listing %s not found", id)
	}
	listing.AverageRating = averageRating
	listing.TotalReviews = totalReviews
	f.aggregateWrites++
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
	err   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

// fakeTxRunner emulates transactional rollback: a failing function restores
// the review and fingerprint state captured at entry.
type fakeTxRunner struct {
	reviews      *fakeReviewRepo
	fingerprints *fakeFingerprintRepo
	repo         *repository.Repository
}

func (t *fakeTxRunner) WithinTx(ctx context.Context, fn func(r *repository.Repository) error) error {
	reviewSnap := t.reviews.snapshot()
	fingerprintSnap := t.fingerprints.snapshot()

	if err := fn(t.repo); err != nil {
		t.reviews.restore(reviewSnap)
		t.fingerprints.restore(fingerprintSnap)
		return err
	}
	return nil
}

type stubAnalyzer struct {
	result analysis.Result
	err    error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, text string, rating int) (analysis.Result, error) {
	if s.err != nil {
		return analysis.Neutral(), s.err
	}
	return s.result, nil
}

type testEnv struct {
	reviews      *fakeReviewRepo
	fingerprints *fakeFingerprintRepo
	listings     *fakeListingRepo
	users        *fakeUserRepo
	analyzer     *stubAnalyzer
	repo         *repository.Repository
	config       *utils.Config
}

func newTestEnv() *testEnv {
	env := &testEnv{
		reviews:      newFakeReviewRepo(),
		fingerprints: newFakeFingerprintRepo(),
		listings:     newFakeListingRepo(),
		users:        newFakeUserRepo(),
		analyzer:     &stubAnalyzer{},
	}
	env.repo = &repository.Repository{
		Review:      env.reviews,
		Fingerprint: env.fingerprints,
		Listing:     env.listings,
		User:        env.users,
	}
	env.repo.Tx = &fakeTxRunner{
		reviews:      env.reviews,
		fingerprints: env.fingerprints,
		repo:         env.repo,
	}
	env.config = &utils.Config{
		JWT: utils.JWTConfig{Secret: "test-secret"},
		Review: utils.ReviewConfig{
			PendingHours:    24,
			SweepSchedule:   "@hourly",
			WeightNeutral:   1.2,
			WeightDetailed:  1.5,
			WeightAnonymous: 0.5,
		},
	}
	return env
}

func (env *testEnv) addListing(name string) *entity.Listing {
	listing := &entity.Listing{
		Base: entity.Base{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Name: name,
	}
	env.listings.listings[listing.ID] = listing
	return listing
}

func (env *testEnv) addReview(listingID uuid.UUID, rating int, weight float64, status entity.ReviewStatus, createdAt time.Time) *entity.Review {
	review := &entity.Review{
		BaseSimple:    entity.BaseSimple{ID: uuid.New(), CreatedAt: createdAt},
		ListingID:     listingID,
		Rating:        rating,
		Comment:       "the service was reliable and reasonably priced",
		Status:        status,
		Weight:        weight,
		FingerprintID: uuid.New(),
	}
	env.reviews.reviews[review.ID] = review
	return review
}

func (env *testEnv) reviewService() ReviewService {
	return NewReviewService(env.repo, env.analyzer, env.config, zap.NewNop())
}

func (env *testEnv) aggregator() RatingAggregator {
	return NewRatingAggregator(env.repo, zap.NewNop())
}

func (env *testEnv) moderationService() ModerationService {
	return NewModerationService(env.repo, env.aggregator(), zap.NewNop())
}

func (env *testEnv) sweepService() SweepService {
	return NewSweepService(env.repo, env.aggregator(), env.config.Review, zap.NewNop())
}
