package payload

// CreateSessionRequest is sent by the upstream auth service after it has minted a token.
type CreateSessionRequest struct {
	Email string `json:"email" validate:"required,email"`
	Token string `json:"token" validate:"required"`
}
