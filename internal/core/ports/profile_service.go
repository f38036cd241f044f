package ports

import (
	"context"

	"github.com/platformkit/identity/internal/core/domain"
)

// ProfileInput carries the raw PATCH fields. Nil means unchanged.
type ProfileInput struct {
	FirstName *string
	LastName  *string
	Country   *string
	BirthDate *string
}

// CompanyMembership is a company together with the user's roles there.
type CompanyMembership struct {
	Company domain.Company
	Roles   []domain.Role
}

// Profile is the view returned by GET /profile/me.
type Profile struct {
	User      *domain.User
	Roles     []domain.Role
	Companies []CompanyMembership
}

// ProfileService covers self-service account operations.
type ProfileService interface {
	Profile(ctx context.Context, user *domain.User) (*Profile, error)
	ChangePassword(ctx context.Context, user *domain.User, password, confirmation string) error
	UpdateProfile(ctx context.Context, user *domain.User, in ProfileInput) (*domain.User, error)
	DeleteAccount(ctx context.Context, user *domain.User) error
}
