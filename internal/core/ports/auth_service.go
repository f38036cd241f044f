package ports

import (
	"context"

	"github.com/platformkit/identity/internal/core/domain"
)

// SignupInput is the DTO passed from the transport layer to AuthService.
type SignupInput struct {
	Username string
	Email    string
	Password string
	ClientIP string
}

// AuthService covers signup, confirmation, login and password reset.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*domain.User, error)
	Confirm(ctx context.Context, token string) error
	// Login returns a session token.
	Login(ctx context.Context, email, password, clientIP string) (string, error)
	RequestPasswordReset(ctx context.Context, email, clientIP string) error
	ChangePassword(ctx context.Context, token, password, confirmation string) error
	// AppLink is the deep link shown after a successful confirmation.
	AppLink() string
}

// Authenticator resolves an Authorization header to a user.
type Authenticator interface {
	Resolve(ctx context.Context, authorization string) (*domain.User, error)
}

// RoleReader lists the global roles of a user.
type RoleReader interface {
	RolesOf(ctx context.Context, userID int64) ([]domain.Role, error)
}
