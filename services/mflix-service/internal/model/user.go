package model

// User represents a registered account. Email is the natural key; sessions and comments
// reference it by value.
type User struct {
	Email       string            `bson:"email"                 json:"email"`
	Name        string            `bson:"name"                  json:"name"`
	Password    string            `bson:"password"              json:"-"`
	Preferences map[string]string `bson:"preferences,omitempty" json:"preferences,omitempty"`
}
