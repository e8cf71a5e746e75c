package auth

// LoginPayload represents the login request body.
type LoginPayload struct {
	Username string `json:"username" mod:"trim" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8"`
}

// RegisterPayload represents the registration request body.
type RegisterPayload struct {
	Username string  `json:"username" mod:"trim" validate:"required,min=3,max=50,username"`
	Email    *string `json:"email" mod:"trim" validate:"omitempty,email"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
}

// MeResponse represents the current user response.
type MeResponse struct {
	ID       int     `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email,omitempty"`
}
