package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/platformkit/identity/internal/core/domain"
)

// RoleRepository implements ports.RoleRepository using PostgreSQL.
type RoleRepository struct {
	q querier
}

func scanRole(row pgx.Row) (domain.Role, error) {
	var (
		role domain.Role
		code string
	)
	if err := row.Scan(&role.ID, &code, &role.Name, &role.CreatedAt); err != nil {
		return domain.Role{}, err
	}
	c, err := domain.ParseRoleCode(code)
	if err != nil {
		return domain.Role{}, fmt.Errorf("role %d: %w", role.ID, err)
	}
	role.Code = c
	return role, nil
}

// EnsureRole upserts the catalog row; the no-op update makes RETURNING
// yield the existing row on conflict.
func (r *RoleRepository) EnsureRole(ctx context.Context, code domain.RoleCode) (*domain.Role, error) {
	role, err := scanRole(r.q.QueryRow(ctx,
		`INSERT INTO roles (code, name) VALUES ($1, $2)
		 ON CONFLICT (code) DO UPDATE SET code = EXCLUDED.code
		 RETURNING id, code, name, created_at`,
		code.String(), code.String(),
	))
	if err != nil {
		return nil, fmt.Errorf("ensure role: %w", err)
	}
	return &role, nil
}

func (r *RoleRepository) GrantUserRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, roleID)
	return err
}

func (r *RoleRepository) RevokeUserRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	return err
}

func (r *RoleRepository) GrantCompanyRole(ctx context.Context, userID, companyID, roleID int64) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO user_company_roles (user_id, company_id, role_id) VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		userID, companyID, roleID)
	return err
}

func (r *RoleRepository) RevokeCompanyRoles(ctx context.Context, userID, roleID int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM user_company_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	return err
}

func (r *RoleRepository) RevokeAllCompanyRoles(ctx context.Context, userID int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM user_company_roles WHERE user_id = $1`, userID)
	return err
}

func (r *RoleRepository) RevokeAll(ctx context.Context, userID int64) error {
	if err := r.RevokeAllCompanyRoles(ctx, userID); err != nil {
		return err
	}
	_, err := r.q.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID)
	return err
}

func (r *RoleRepository) RolesOf(ctx context.Context, userID int64) ([]domain.Role, error) {
	return r.list(ctx,
		`SELECT r.id, r.code, r.name, r.created_at
		   FROM roles r
		   JOIN user_roles ur ON ur.role_id = r.id
		  WHERE ur.user_id = $1
		  ORDER BY r.id`,
		userID)
}

func (r *RoleRepository) CompanyRolesOf(ctx context.Context, userID, companyID int64) ([]domain.Role, error) {
	return r.list(ctx,
		`SELECT r.id, r.code, r.name, r.created_at
		   FROM roles r
		   JOIN user_company_roles ucr ON ucr.role_id = r.id
		  WHERE ucr.user_id = $1 AND ucr.company_id = $2
		  ORDER BY r.id`,
		userID, companyID)
}

func (r *RoleRepository) list(ctx context.Context, sql string, args ...any) ([]domain.Role, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var out []domain.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}
