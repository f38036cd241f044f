package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/platformkit/identity/internal/core/domain"
)

const companyColumns = `id, name, email, website, address, created_at, updated_at`

// CompanyRepository implements ports.CompanyRepository using PostgreSQL.
type CompanyRepository struct {
	q querier
}

func scanCompany(row pgx.Row) (*domain.Company, error) {
	var c domain.Company
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Website, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCompanyNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CompanyRepository) Create(ctx context.Context, nc domain.NewCompany) (*domain.Company, error) {
	c, err := scanCompany(r.q.QueryRow(ctx,
		`INSERT INTO companies (name, email, website, address)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+companyColumns,
		nc.Name, nc.Email, nc.Website, nc.Address,
	))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return c, nil
}

func (r *CompanyRepository) FindByID(ctx context.Context, id int64) (*domain.Company, error) {
	return scanCompany(r.q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
}

func (r *CompanyRepository) List(ctx context.Context) ([]*domain.Company, error) {
	rows, err := r.q.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var out []*domain.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes the company; grants inside it cascade.
func (r *CompanyRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCompanyNotFound
	}
	return nil
}

func (r *CompanyRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Company, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+companyColumns+`
		   FROM companies
		  WHERE id IN (SELECT company_id FROM user_company_roles WHERE user_id = $1)
		  ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list companies of user: %w", err)
	}
	defer rows.Close()

	var out []domain.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
