package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Comment represents a user-authored comment on a movie.
// Email identifies the owner; only that user may update or delete the comment.
type Comment struct {
	ID      string        `bson:"_id"                json:"id"                 validate:"required"`
	Name    string        `bson:"name,omitempty"     json:"name,omitempty"`
	Email   string        `bson:"email"              json:"email"`
	MovieID bson.ObjectID `bson:"movie_id,omitempty" json:"movie_id,omitzero"`
	Text    string        `bson:"text"               json:"text"               validate:"required"`
	Date    time.Time     `bson:"date"               json:"date"`
}
