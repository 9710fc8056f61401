package model

// Critic is a row of the most active commenters report. It is never persisted.
type Critic struct {
	Email        string `json:"email"`
	CommentCount int    `json:"comment_count"`
}
