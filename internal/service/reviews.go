package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"goomer/internal/auth"
	"goomer/internal/domain/reviews"
	"goomer/internal/media"
	"goomer/internal/params"
	"goomer/internal/validation"
)

// ListAllLimit caps the unpaginated listing.
const ListAllLimit = 100

// Cache is the read-through store for single reviews. Counters track writes
// per review so a read that raced a write does not leave a stale entry.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Counter(ctx context.Context, key string) (int64, error)
}

type Options struct {
	CacheTTL          time.Duration
	MediaTimeout      time.Duration
	UploadConcurrency int
}

type ReviewService struct {
	store    reviews.Store
	media    media.Store
	cache    Cache
	logger   *zap.SugaredLogger
	validate *validator.Validate
	opts     Options
}

// NewReviewService wires the service. cache may be nil.
func NewReviewService(store reviews.Store, mediaStore media.Store, cache Cache, logger *zap.SugaredLogger, opts Options) *ReviewService {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.MediaTimeout <= 0 {
		opts.MediaTimeout = 30 * time.Second
	}
	if opts.UploadConcurrency <= 0 {
		opts.UploadConcurrency = 4
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ReviewService{
		store:    store,
		media:    mediaStore,
		cache:    cache,
		logger:   logger,
		validate: validation.New(),
		opts:     opts,
	}
}

type CreateReviewInput struct {
	RestaurantName string          `json:"restaurantName" validate:"required,min=2,max=100"`
	Address        string          `json:"address" validate:"required,min=5,max=200"`
	City           string          `json:"city" validate:"required,min=2,max=100"`
	Ratings        reviews.Ratings `json:"ratings"`
	Price          float64         `json:"price" validate:"required,min=1,max=5"`
	Comment        string          `json:"comment" validate:"required,min=10,max=500"`
	Images         []string        `json:"images" validate:"max=10"` // base64, optionally data URIs
}

func (in *CreateReviewInput) normalize() {
	in.RestaurantName = strings.TrimSpace(in.RestaurantName)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.Comment = strings.TrimSpace(in.Comment)
}

// UpdateReviewInput has no images field: images are fixed at creation.
type UpdateReviewInput struct {
	RestaurantName *string                `json:"restaurantName" validate:"omitnil,min=2,max=100"`
	Address        *string                `json:"address" validate:"omitnil,min=5,max=200"`
	City           *string                `json:"city" validate:"omitnil,min=2,max=100"`
	Ratings        *reviews.RatingsUpdate `json:"ratings"`
	Price          *float64               `json:"price" validate:"omitnil,min=1,max=5"`
	Comment        *string                `json:"comment" validate:"omitnil,min=10,max=500"`
}

func (in *UpdateReviewInput) normalize() {
	for _, s := range []*string{in.RestaurantName, in.Address, in.City, in.Comment} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
}

func (in UpdateReviewInput) toUpdate() reviews.Update {
	return reviews.Update{
		RestaurantName: in.RestaurantName,
		Address:        in.Address,
		City:           in.City,
		Ratings:        in.Ratings,
		Price:          in.Price,
		Comment:        in.Comment,
	}
}

type MediaFailure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// DeleteReport lists the image assets that could not be removed. The review
// itself is gone whenever Delete returns a nil error.
type DeleteReport struct {
	ReviewID      string         `json:"reviewId"`
	MediaDeleted  int            `json:"mediaDeleted"`
	MediaFailures []MediaFailure `json:"mediaFailures,omitempty"`
}

func cacheKey(id string) string { return "review:" + id }

func versionKey(id string) string { return "review:" + id + ":version" }

func (s *ReviewService) Create(ctx context.Context, caller *auth.Identity, in CreateReviewInput) (*reviews.Review, error) {
	if caller == nil || caller.UID == "" {
		return nil, ErrUnauthenticated
	}

	in.normalize()
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	images := make([]media.Image, 0, len(in.Images))
	for i, encoded := range in.Images {
		img, err := media.DecodeImage(encoded)
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{fmt.Sprintf("images[%d]", i): err.Error()}}
		}
		images = append(images, img)
	}

	urls, err := s.uploadAll(ctx, images)
	if err != nil {
		return nil, err
	}

	review := &reviews.Review{
		UserID:         caller.UID,
		RestaurantName: in.RestaurantName,
		Address:        in.Address,
		City:           in.City,
		Ratings:        in.Ratings,
		Price:          in.Price,
		Comment:        in.Comment,
		Images:         urls,
	}
	if err := s.store.Create(ctx, review); err != nil {
		s.discard(ctx, urls)
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.logger.Infow("review created", "reviewId", review.ID, "userId", caller.UID, "images", len(urls))
	return review, nil
}

// uploadAll uploads concurrently and keeps the input order. On the first
// failure the rest are cancelled and whatever did upload is removed again.
func (s *ReviewService) uploadAll(ctx context.Context, images []media.Image) ([]string, error) {
	urls := make([]string, len(images))
	if len(images) == 0 {
		return urls, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.UploadConcurrency)
	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			uctx, cancel := context.WithTimeout(gctx, s.opts.MediaTimeout)
			defer cancel()

			u, err := s.media.Upload(uctx, img.Data, img.ContentType)
			if err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			urls[i] = u
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		uploaded := make([]string, 0, len(urls))
		for _, u := range urls {
			if u != "" {
				uploaded = append(uploaded, u)
			}
		}
		s.discard(ctx, uploaded)
		return nil, &UploadError{Err: err}
	}
	return urls, nil
}

// discard removes assets of a create that did not complete.
func (s *ReviewService) discard(ctx context.Context, urls []string) {
	ctx = context.WithoutCancel(ctx)
	for _, u := range urls {
		dctx, cancel := context.WithTimeout(ctx, s.opts.MediaTimeout)
		if err := s.media.Delete(dctx, u); err != nil {
			s.logger.Warnw("failed to remove orphaned image", "url", u, "error", err)
		}
		cancel()
	}
}

func (s *ReviewService) Update(ctx context.Context, caller *auth.Identity, id string, in UpdateReviewInput) (*reviews.Review, error) {
	if caller == nil || caller.UID == "" {
		return nil, ErrUnauthenticated
	}

	in.normalize()
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != caller.UID {
		return nil, ErrForbidden
	}

	updated, err := s.store.Update(ctx, id, in.toUpdate())
	if err != nil {
		if errors.Is(err, reviews.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.invalidate(ctx, id)
	return updated, nil
}

// Delete removes the review's images first, then the record. Image failures
// are reported, never fatal.
func (s *ReviewService) Delete(ctx context.Context, caller *auth.Identity, id string) (*DeleteReport, error) {
	if caller == nil || caller.UID == "" {
		return nil, ErrUnauthenticated
	}

	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != caller.UID && !caller.IsPrivileged() {
		return nil, ErrForbidden
	}

	report := &DeleteReport{ReviewID: id}
	mctx := context.WithoutCancel(ctx)
	for _, u := range existing.Images {
		dctx, cancel := context.WithTimeout(mctx, s.opts.MediaTimeout)
		err := s.media.Delete(dctx, u)
		cancel()
		if err != nil {
			s.logger.Warnw("failed to delete review image", "reviewId", id, "url", u, "error", err)
			report.MediaFailures = append(report.MediaFailures, MediaFailure{URL: u, Error: err.Error()})
			continue
		}
		report.MediaDeleted++
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, reviews.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("delete review: %w", err)
	}

	s.invalidate(ctx, id)
	s.logger.Infow("review deleted", "reviewId", id, "by", caller.UID, "mediaFailures", len(report.MediaFailures))
	return report, nil
}

func (s *ReviewService) Get(ctx context.Context, id string) (*reviews.Review, error) {
	if s.cache == nil {
		return s.load(ctx, id)
	}

	var cached reviews.Review
	ok, err := s.cache.Get(ctx, cacheKey(id), &cached)
	if err != nil {
		s.logger.Warnw("cache read failed", "key", cacheKey(id), "error", err)
	}
	if ok {
		return &cached, nil
	}

	version, verr := s.cache.Counter(ctx, versionKey(id))
	review, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if verr != nil {
		s.logger.Warnw("cache version read failed", "key", versionKey(id), "error", verr)
		return review, nil
	}
	s.fill(ctx, id, review, version)
	return review, nil
}

func (s *ReviewService) load(ctx context.Context, id string) (*reviews.Review, error) {
	review, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reviews.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// fill caches review as read at version. If an update or delete bumped the
// version in the meantime the entry is dropped again.
func (s *ReviewService) fill(ctx context.Context, id string, review *reviews.Review, version int64) {
	if err := s.cache.Set(ctx, cacheKey(id), review, s.opts.CacheTTL); err != nil {
		s.logger.Warnw("cache write failed", "key", cacheKey(id), "error", err)
		return
	}

	current, err := s.cache.Counter(ctx, versionKey(id))
	if err == nil && current == version {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(id)); err != nil {
		s.logger.Warnw("cache invalidation failed", "key", cacheKey(id), "error", err)
	}
}

// List returns the newest reviews up to ListAllLimit. Page.Pagination.Total
// tells callers whether the result was cut off.
func (s *ReviewService) List(ctx context.Context, userID string) (*reviews.Page, error) {
	page, err := s.store.GetPaginated(ctx, reviews.Query{
		Pagination: params.Unbounded(ListAllLimit),
		UserID:     userID,
	})
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return page, nil
}

func (s *ReviewService) ListPaginated(ctx context.Context, p params.Pagination, userID string) (*reviews.Page, error) {
	page, err := s.store.GetPaginated(ctx, reviews.Query{
		Pagination: params.New(p.Page, p.Limit),
		UserID:     userID,
	})
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return page, nil
}

func (s *ReviewService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, versionKey(id), 2*s.opts.CacheTTL); err != nil {
		s.logger.Warnw("cache version bump failed", "key", versionKey(id), "error", err)
	}
	if err := s.cache.Del(ctx, cacheKey(id)); err != nil {
		s.logger.Warnw("cache invalidation failed", "key", cacheKey(id), "error", err)
	}
}
