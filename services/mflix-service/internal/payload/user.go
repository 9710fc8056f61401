package payload

type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Name     string `json:"name"     validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdatePreferencesRequest struct {
	Preferences map[string]any `json:"preferences" validate:"required,min=1"`
}

type UserResponse struct {
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Preferences map[string]string `json:"preferences,omitempty"`
}
