package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID         string    `json:"_id" bson:"_id"`
	Title      string    `json:"title" bson:"title"`
	Author     string    `json:"author" bson:"author"`
	Rating     int       `json:"rating" bson:"rating"`
	ReviewText string    `json:"reviewText" bson:"reviewText"`
	UserID     string    `json:"userId" bson:"userId"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}
