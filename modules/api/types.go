package api

// Envelope is the uniform response shape of every HTTP endpoint:
// {ok: true, data: ...} on success, {ok: false, error: {message}} on failure.
type Envelope struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody carries the error half of the envelope. Traceback is only
// populated in debug mode.
type ErrorBody struct {
	Message   string `json:"message"`
	Traceback string `json:"traceback,omitempty"`
}

// ok wraps data in a success envelope.
func ok(data any) Envelope {
	return Envelope{OK: true, Data: data}
}

// fail wraps a message in an error envelope.
func fail(message string) Envelope {
	return Envelope{OK: false, Error: &ErrorBody{Message: message}}
}

// SignupRequest is the API request to create an account.
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the API request to log in.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the API request to change the password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// SessionResponse is the data payload returned by login.
type SessionResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
	TokenType string `json:"token_type"`
}

// UserDetailResponse is the data payload returned by detail.
type UserDetailResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// MessageResponse is the data payload for endpoints that only confirm.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the data payload of the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}
