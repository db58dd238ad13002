package models

import "time"

// User is a registered account. PasswordHash never leaves the server:
// it is skipped by the JSON encoder.
type User struct {
	ID           string    `json:"_id" bson:"_id"`
	FirstName    string    `json:"firstName" bson:"firstName"`
	LastName     string    `json:"lastName" bson:"lastName"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}
