package feed

import (
	"time"

	"reviewme/pkg/models"
)

const (
	TypeReviewCreated = "review.created"
	TypeReviewUpdated = "review.updated"
	TypeReviewDeleted = "review.deleted"
)

type ReviewEvent struct {
	Type     string    `json:"type"`
	ReviewID string    `json:"review_id"`
	UserID   string    `json:"user_id"`
	Title    string    `json:"title,omitempty"`
	Author   string    `json:"author,omitempty"`
	Rating   int       `json:"rating,omitempty"`
	At       time.Time `json:"at"`
	// Origin identifies the publishing instance so relays can skip echoes.
	Origin string `json:"origin,omitempty"`
}

func NewReviewEvent(typ string, r *models.Review, at time.Time) ReviewEvent {
	return ReviewEvent{
		Type:     typ,
		ReviewID: r.ID,
		UserID:   r.UserID,
		Title:    r.Title,
		Author:   r.Author,
		Rating:   r.Rating,
		At:       at.UTC(),
	}
}

// Publisher accepts events without blocking the caller. Delivery is best
// effort.
type Publisher interface {
	Publish(ev ReviewEvent)
}

type Multi []Publisher

func (m Multi) Publish(ev ReviewEvent) {
	for _, p := range m {
		if p != nil {
			p.Publish(ev)
		}
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(ReviewEvent) {}
