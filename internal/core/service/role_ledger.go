package service

import (
	"context"
	"fmt"

	"github.com/platformkit/identity/internal/core/domain"
	"github.com/platformkit/identity/internal/core/ports"
)

// RoleLedger keeps global and company-scoped grants consistent.
//
// Every mutation runs in one transaction and parses its role codes before
// the first write, so an unknown code leaves storage untouched.
//
// Removal is unconditional across companies while addition only
// propagates for enterprise users.
type RoleLedger struct {
	store ports.Store
}

func NewRoleLedger(store ports.Store) *RoleLedger {
	return &RoleLedger{store: store}
}

// AssignRoles grants codes globally without company propagation.
func (l *RoleLedger) AssignRoles(ctx context.Context, userID int64, codes []string) error {
	parsed, err := domain.ParseRoleCodes(codes)
	if err != nil {
		return err
	}
	return l.store.WithinTx(ctx, func(tx ports.Repositories) error {
		return assignRoles(ctx, tx, userID, parsed)
	})
}

// AddRoles grants codes globally and, for enterprise users, in every
// company the user currently belongs to.
func (l *RoleLedger) AddRoles(ctx context.Context, userID int64, codes []string) error {
	parsed, err := domain.ParseRoleCodes(codes)
	if err != nil {
		return err
	}
	return l.store.WithinTx(ctx, func(tx ports.Repositories) error {
		user, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		return addRoles(ctx, tx, user, parsed)
	})
}

// RemoveRoles revokes every held role whose code is in codes, globally and
// in all companies.
func (l *RoleLedger) RemoveRoles(ctx context.Context, userID int64, codes []string) error {
	parsed, err := domain.ParseRoleCodes(codes)
	if err != nil {
		return err
	}
	return l.store.WithinTx(ctx, func(tx ports.Repositories) error {
		if _, err := tx.Users().FindByID(ctx, userID); err != nil {
			return err
		}
		return removeRoles(ctx, tx, userID, func(c domain.RoleCode) bool { return containsCode(parsed, c) })
	})
}

// SetCompanyRoles makes codes the user's exact global role set and grants
// each of them in companyID. Only enterprise users qualify.
func (l *RoleLedger) SetCompanyRoles(ctx context.Context, companyID, userID int64, codes []string) error {
	parsed, err := domain.ParseRoleCodes(codes)
	if err != nil {
		return err
	}
	return l.store.WithinTx(ctx, func(tx ports.Repositories) error {
		user, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if !user.IsEnterprise() {
			return domain.ErrNotEnterpriseUser
		}
		if _, err := tx.Companies().FindByID(ctx, companyID); err != nil {
			return err
		}

		if err := removeRoles(ctx, tx, userID, func(c domain.RoleCode) bool { return !containsCode(parsed, c) }); err != nil {
			return err
		}
		for _, code := range parsed {
			role, err := tx.Roles().EnsureRole(ctx, code)
			if err != nil {
				return err
			}
			if err := tx.Roles().GrantUserRole(ctx, userID, role.ID); err != nil {
				return err
			}
			if err := tx.Roles().GrantCompanyRole(ctx, userID, companyID, role.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *RoleLedger) RolesOf(ctx context.Context, userID int64) ([]domain.Role, error) {
	return l.store.Roles().RolesOf(ctx, userID)
}

func (l *RoleLedger) CompaniesOf(ctx context.Context, userID int64) ([]domain.Company, error) {
	return l.store.Companies().ListByUser(ctx, userID)
}

func (l *RoleLedger) CompanyRolesOf(ctx context.Context, userID, companyID int64) ([]domain.Role, error) {
	return l.store.Roles().CompanyRolesOf(ctx, userID, companyID)
}

func assignRoles(ctx context.Context, tx ports.Repositories, userID int64, codes []domain.RoleCode) error {
	for _, code := range codes {
		role, err := tx.Roles().EnsureRole(ctx, code)
		if err != nil {
			return fmt.Errorf("ensure role %s: %w", code, err)
		}
		if err := tx.Roles().GrantUserRole(ctx, userID, role.ID); err != nil {
			return fmt.Errorf("grant role %s: %w", code, err)
		}
	}
	return nil
}

func addRoles(ctx context.Context, tx ports.Repositories, user *domain.User, codes []domain.RoleCode) error {
	var companies []domain.Company
	if user.IsEnterprise() {
		var err error
		companies, err = tx.Companies().ListByUser(ctx, user.ID)
		if err != nil {
			return err
		}
	}
	for _, code := range codes {
		role, err := tx.Roles().EnsureRole(ctx, code)
		if err != nil {
			return fmt.Errorf("ensure role %s: %w", code, err)
		}
		if err := tx.Roles().GrantUserRole(ctx, user.ID, role.ID); err != nil {
			return fmt.Errorf("grant role %s: %w", code, err)
		}
		for _, c := range companies {
			if err := tx.Roles().GrantCompanyRole(ctx, user.ID, c.ID, role.ID); err != nil {
				return fmt.Errorf("grant role %s in company %d: %w", code, c.ID, err)
			}
		}
	}
	return nil
}

// removeRoles revokes each held role selected by drop, globally and in
// every company.
func removeRoles(ctx context.Context, tx ports.Repositories, userID int64, drop func(domain.RoleCode) bool) error {
	current, err := tx.Roles().RolesOf(ctx, userID)
	if err != nil {
		return err
	}
	for _, role := range current {
		if !drop(role.Code) {
			continue
		}
		if err := tx.Roles().RevokeUserRole(ctx, userID, role.ID); err != nil {
			return fmt.Errorf("revoke role %s: %w", role.Code, err)
		}
		if err := tx.Roles().RevokeCompanyRoles(ctx, userID, role.ID); err != nil {
			return fmt.Errorf("revoke company role %s: %w", role.Code, err)
		}
	}
	return nil
}

// deleteAccount removes every grant and then the user row.
func deleteAccount(ctx context.Context, tx ports.Repositories, userID int64) error {
	if err := tx.Roles().RevokeAll(ctx, userID); err != nil {
		return err
	}
	return tx.Users().Delete(ctx, userID)
}

func containsCode(codes []domain.RoleCode, c domain.RoleCode) bool {
	for _, x := range codes {
		if x == c {
			return true
		}
	}
	return false
}
