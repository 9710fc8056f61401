package model

import "go.mongodb.org/mongo-driver/v2/bson"

// Session represents the single active login of a user.
// UserID holds the user's email. The reference is kept by application logic only.
type Session struct {
	ID     bson.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID string        `bson:"user_id"       json:"user_id"`
	JWT    string        `bson:"jwt"           json:"jwt"`
}
