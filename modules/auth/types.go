package auth

// SignupRequest represents a user signup request.
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignupResponse represents a user signup response.
type SignupResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a user login response with the session token.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
	TokenType string `json:"token_type"`
}

// ChangePasswordRequest represents a password change request.
type ChangePasswordRequest struct {
	UserID      string `json:"user_id"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePasswordResponse represents a password change response.
type ChangePasswordResponse struct {
	Message string `json:"message"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid    bool   `json:"valid"`
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Error    string `json:"error,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUserResponse represents a get user response.
type GetUserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// DeleteUserRequest represents an account deletion request.
type DeleteUserRequest struct {
	UserID string `json:"user_id"`
}

// DeleteUserResponse represents an account deletion response.
type DeleteUserResponse struct {
	Message string `json:"message"`
}
