package ports

import (
	"context"

	"github.com/platformkit/identity/internal/core/domain"
)

// CreateUserInput is used by operators to provision accounts directly.
type CreateUserInput struct {
	Username  string
	Email     string
	Password  string
	Confirmed bool
	UserType  string
	Roles     []string
}

// UserWithRoles is a listing row.
type UserWithRoles struct {
	User  *domain.User
	Roles []domain.Role
}

// AdminService covers operator-level user, company and role management.
// Role code strings are validated before any write.
type AdminService interface {
	CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error)
	ListUsers(ctx context.Context) ([]UserWithRoles, error)
	DeleteUser(ctx context.Context, userID int64) error
	SetUserType(ctx context.Context, userID int64, userType string) error

	CreateCompany(ctx context.Context, c domain.NewCompany) (*domain.Company, error)
	ListCompanies(ctx context.Context) ([]*domain.Company, error)
	DeleteCompany(ctx context.Context, companyID int64) error

	AddRoles(ctx context.Context, userID int64, codes []string) error
	RemoveRoles(ctx context.Context, userID int64, codes []string) error
	SetCompanyRoles(ctx context.Context, companyID, userID int64, codes []string) error
}
