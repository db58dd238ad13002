package reviews

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reviewme/internal/apperr"
	"reviewme/internal/feed"
	"reviewme/pkg/models"
)

const (
	msgAllFieldsRequired = "All fields are required"
	msgNotFound          = "Review not found"
)

var msgRatingRange = fmt.Sprintf("Rating must be between %d and %d", models.MinRating, models.MaxRating)

// Page is one page of a listing plus the owner-scoped total.
type Page struct {
	Items []models.Review
	Total int64
}

// Service enforces validation and ownership on top of a Store and reports
// every successful change to Events.
type Service struct {
	Store  Store
	Events feed.Publisher

	now func() time.Time
}

func NewService(store Store, events feed.Publisher) *Service {
	if events == nil {
		events = feed.Discard{}
	}
	return &Service{Store: store, Events: events, now: time.Now}
}

func validateFields(f Fields) (Fields, error) {
	f = f.trimmed()
	if f.Title == "" || f.Author == "" || f.Rating == 0 || f.ReviewText == "" {
		return f, apperr.Validation(msgAllFieldsRequired)
	}
	if f.Rating < models.MinRating || f.Rating > models.MaxRating {
		return f, apperr.Validation(msgRatingRange)
	}
	return f, nil
}

func (s *Service) Create(ctx context.Context, callerID string, in Fields) (*models.Review, error) {
	if callerID == "" {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	f, err := validateFields(in)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	rv := &models.Review{
		ID:        uuid.NewString(),
		UserID:    callerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.Apply(rv)

	if err := s.Store.Create(ctx, rv); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	s.publish(feed.TypeReviewCreated, rv, now)
	return rv, nil
}

func (s *Service) List(ctx context.Context, q ListQuery) (*Page, error) {
	q.Normalize()

	items, err := s.Store.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	total, err := s.Store.CountByUser(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}
	if items == nil {
		items = []models.Review{}
	}
	return &Page{Items: items, Total: total}, nil
}

// Update checks the fields before it looks the review up, so a bad body on a
// missing review is still a validation error.
func (s *Service) Update(ctx context.Context, callerID, id string, in Fields) (*models.Review, error) {
	f, err := validateFields(in)
	if err != nil {
		return nil, err
	}

	existing, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if existing == nil {
		return nil, apperr.NotFound(msgNotFound)
	}
	if existing.UserID != callerID {
		return nil, apperr.Forbidden("You're not allowed to update this review")
	}

	now := s.clock()
	updated, err := s.Store.Update(ctx, id, f, now)
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	// deleted between the lookup and the write
	if updated == nil {
		return nil, apperr.NotFound(msgNotFound)
	}
	s.publish(feed.TypeReviewUpdated, updated, now)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	existing, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get review: %w", err)
	}
	if existing == nil {
		return apperr.NotFound(msgNotFound)
	}
	if existing.UserID != callerID {
		return apperr.Forbidden("You're not allowed to delete this review")
	}

	ok, err := s.Store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if !ok {
		return apperr.NotFound(msgNotFound)
	}
	s.publish(feed.TypeReviewDeleted, existing, s.clock())
	return nil
}

func (s *Service) publish(typ string, rv *models.Review, at time.Time) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(feed.NewReviewEvent(typ, rv, at))
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}
