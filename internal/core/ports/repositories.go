package ports

import (
	"context"

	"github.com/platformkit/identity/internal/core/domain"
)

// UserRepository persists identity records.
// Lookups that find nothing return domain.ErrUserNotFound.
type UserRepository interface {
	// Create inserts a user. A unique constraint hit is returned as
	// *domain.UniqueViolation carrying the constraint name.
	Create(ctx context.Context, u domain.NewUser) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Delete(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	Confirm(ctx context.Context, id int64) error
	UpdateProfile(ctx context.Context, id int64, p domain.ProfileUpdate) (*domain.User, error)
	SetUserType(ctx context.Context, id int64, t domain.UserType) error
}

// RoleRepository owns the role catalog and both grant tables.
type RoleRepository interface {
	// EnsureRole finds or creates the catalog row for code.
	EnsureRole(ctx context.Context, code domain.RoleCode) (*domain.Role, error)
	// GrantUserRole is insert-or-ignore.
	GrantUserRole(ctx context.Context, userID, roleID int64) error
	RevokeUserRole(ctx context.Context, userID, roleID int64) error
	// GrantCompanyRole is insert-or-ignore.
	GrantCompanyRole(ctx context.Context, userID, companyID, roleID int64) error
	// RevokeCompanyRoles removes the role from the user in every company.
	RevokeCompanyRoles(ctx context.Context, userID, roleID int64) error
	// RevokeAllCompanyRoles removes every company grant held by the user.
	RevokeAllCompanyRoles(ctx context.Context, userID int64) error
	// RevokeAll removes every global and company grant held by the user.
	RevokeAll(ctx context.Context, userID int64) error
	RolesOf(ctx context.Context, userID int64) ([]domain.Role, error)
	CompanyRolesOf(ctx context.Context, userID, companyID int64) ([]domain.Role, error)
}

// CompanyRepository persists tenants. Membership is derived from
// company-scoped grants.
type CompanyRepository interface {
	Create(ctx context.Context, c domain.NewCompany) (*domain.Company, error)
	FindByID(ctx context.Context, id int64) (*domain.Company, error)
	List(ctx context.Context) ([]*domain.Company, error)
	Delete(ctx context.Context, id int64) error
	// ListByUser returns every company where the user holds at least one grant.
	ListByUser(ctx context.Context, userID int64) ([]domain.Company, error)
}

// Repositories groups the relational repositories bound to one connection
// or one transaction.
type Repositories interface {
	Users() UserRepository
	Roles() RoleRepository
	Companies() CompanyRepository
}

// Store is the relational storage port.
type Store interface {
	Repositories
	// WithinTx runs fn in a single transaction. fn's error rolls back;
	// nil commits.
	WithinTx(ctx context.Context, fn func(tx Repositories) error) error
	Ping(ctx context.Context) error
}

// AuditRepository appends authentication outcomes to the audit trail.
type AuditRepository interface {
	Record(ctx context.Context, e domain.AuthEvent) error
}
