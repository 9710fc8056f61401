package payload

type AddCommentRequest struct {
	MovieID string `json:"movie_id" validate:"omitempty,mongodb"`
	Text    string `json:"text"     validate:"required"`
}

type UpdateCommentRequest struct {
	Text string `json:"text" validate:"required"`
}
