package domain

import "errors"

// ErrorType groups client-facing errors.
type ErrorType string

const (
	AuthErrorType    ErrorType = "auth_error"
	ProfileErrorType ErrorType = "profile_error"
)

// Error is a client-facing failure with a stable machine-readable code.
// Values are sentinels; compare with errors.Is.
type Error struct {
	Type    ErrorType `json:"error_type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return string(e.Type) + ": " + e.Code
}

func authErr(code, msg string) *Error {
	return &Error{Type: AuthErrorType, Code: code, Message: msg}
}

func profileErr(code, msg string) *Error {
	return &Error{Type: ProfileErrorType, Code: code, Message: msg}
}

var (
	ErrWrongCredentials    = authErr("wrong_credentials", "Wrong credentials")
	ErrInvalidUsername     = authErr("invalid_username", "Invalid username")
	ErrInvalidEmail        = authErr("invalid_email", "Invalid email")
	ErrInvalidPassword     = authErr("invalid_password", "Invalid password")
	ErrInvalidToken        = authErr("invalid_token", "Invalid token")
	ErrUnavailableUsername = authErr("unavailable_username", "Unavailable username")
	ErrEmailInUse          = authErr("email_in_use", "Email already in use")
	ErrEmailNotExist       = authErr("email_not_exist", "Email does not exist")
	ErrUnconfirmedUser     = authErr("unconfirmed_user", "User is not confirmed")

	ErrInvalidFirstName = profileErr("invalid_first_name", "Invalid first name")
	ErrInvalidLastName  = profileErr("invalid_last_name", "Invalid last name")
	ErrInvalidCountry   = profileErr("invalid_country", "Invalid country")
	ErrInvalidBirthDate = profileErr("invalid_birth_date", "Invalid birth date")
)

// Internal sentinels. They never reach the client verbatim.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrCompanyNotFound    = errors.New("company not found")
	ErrCompanyExists      = errors.New("company already exists")
	ErrInvalidCompanyName = errors.New("invalid company name")
	ErrSessionNotFound    = errors.New("session not found")
	ErrTokenNotFound      = errors.New("token not found")
	ErrNotEnterpriseUser  = errors.New("user is not an enterprise user")
	ErrInvalidRoleCode    = errors.New("invalid role code")
	ErrInvalidUserType    = errors.New("invalid user type")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("access forbidden")
	ErrResetTargetMissing = errors.New("reset token points to a missing user")
)

// UniqueViolation is returned by storage when an insert hits a unique
// constraint. Constraint carries the constraint name.
type UniqueViolation struct {
	Constraint string
	Err        error
}

func (e *UniqueViolation) Error() string {
	return "unique violation on " + e.Constraint
}

func (e *UniqueViolation) Unwrap() error { return e.Err }

// Constraint names of the users table.
const (
	ConstraintUsersEmail    = "users_email_key"
	ConstraintUsersUsername = "users_username_key"
	ConstraintCompaniesName = "companies_name_key"
)
