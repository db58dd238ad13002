package reviews

import (
	"context"
	"strings"
	"time"

	"reviewme/pkg/models"
)

const (
	DefaultPageSize  = 10
	DefaultSortField = "createdAt"
)

// sortColumns maps the accepted sortField values onto SQL columns. Anything
// else sorts by creation time.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "title",
	"author":    "author",
	"rating":    "rating",
}

// Store persists reviews. Lookups return (nil, nil) when nothing matches.
type Store interface {
	Create(ctx context.Context, r *models.Review) error
	GetByID(ctx context.Context, id string) (*models.Review, error)
	List(ctx context.Context, q ListQuery) ([]models.Review, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	Update(ctx context.Context, id string, f Fields, updatedAt time.Time) (*models.Review, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type ListQuery struct {
	UserID     string
	Title      string
	Author     string
	ReviewID   string
	SearchTerm string // case-insensitive substring of title or author, matched literally

	StartIndex int
	PageSize   int
	SortField  string
	SortAsc    bool
}

// Normalize clamps paging and resolves the sort field in place.
func (q *ListQuery) Normalize() {
	if q.StartIndex < 0 {
		q.StartIndex = 0
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if _, ok := sortColumns[q.SortField]; !ok {
		q.SortField = DefaultSortField
	}
}

// Fields are the mutable parts of a review.
type Fields struct {
	Title      string `json:"title"`
	Author     string `json:"author"`
	Rating     int    `json:"rating"`
	ReviewText string `json:"reviewText"`
}

func (f Fields) trimmed() Fields {
	return Fields{
		Title:      strings.TrimSpace(f.Title),
		Author:     strings.TrimSpace(f.Author),
		Rating:     f.Rating,
		ReviewText: strings.TrimSpace(f.ReviewText),
	}
}

func (f Fields) Apply(r *models.Review) {
	r.Title = f.Title
	r.Author = f.Author
	r.Rating = f.Rating
	r.ReviewText = f.ReviewText
}
