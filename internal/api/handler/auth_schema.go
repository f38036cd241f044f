package handler

// errorResponse documents the error envelope rendered by the API error handler.
type errorResponse struct {
	ErrorType string            `json:"error_type"       example:"auth_error"`
	Code      string            `json:"code"             example:"wrong_credentials"`
	Message   string            `json:"message"          example:"Wrong credentials"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// --- Request / Response types ---

// Field rules (length, charset, email shape) are enforced by the core so
// that failures carry their specific error code.

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type confirmResponse struct {
	Confirmed bool   `json:"confirmed"`
	DeepLink  string `json:"deep_link"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type changePasswordRequest struct {
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type messageResponse struct {
	Message string `json:"message"`
}
