package entity

import "time"

// User carries the slice of the account record this service touches.
// The credit balance is the only field the generation core mutates.
type User struct {
	ID        string    `json:"id" bson:"id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Credits   int       `json:"credits" bson:"credits"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
