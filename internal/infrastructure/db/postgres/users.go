package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/platformkit/identity/internal/core/domain"
)

const userColumns = `id, username, email, password, first_name, last_name, country,
	birth_date, confirmed, user_type, created_at, updated_at`

// UserRepository implements ports.UserRepository using PostgreSQL.
type UserRepository struct {
	q querier
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u        domain.User
		userType string
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Country,
		&u.BirthDate,
		&u.Confirmed,
		&userType,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	t, err := domain.ParseUserType(userType)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", u.ID, err)
	}
	u.UserType = t
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	row := r.q.QueryRow(ctx,
		`INSERT INTO users (username, email, password, confirmed, user_type)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		nu.Username, nu.Email, nu.PasswordHash, nu.Confirmed, nu.UserType.String(),
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.execOne(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.execOne(ctx, `UPDATE users SET password = $2, updated_at = now() WHERE id = $1`, id, hash)
}

func (r *UserRepository) Confirm(ctx context.Context, id int64) error {
	return r.execOne(ctx, `UPDATE users SET confirmed = TRUE, updated_at = now() WHERE id = $1`, id)
}

func (r *UserRepository) SetUserType(ctx context.Context, id int64, t domain.UserType) error {
	return r.execOne(ctx, `UPDATE users SET user_type = $2, updated_at = now() WHERE id = $1`, id, t.String())
}

// UpdateProfile writes only the non-nil fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, p domain.ProfileUpdate) (*domain.User, error) {
	row := r.q.QueryRow(ctx,
		`UPDATE users SET
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			country    = COALESCE($4, country),
			birth_date = COALESCE($5, birth_date),
			updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, p.FirstName, p.LastName, p.Country, p.BirthDate,
	)
	return scanUser(row)
}

func (r *UserRepository) execOne(ctx context.Context, sql string, args ...any) error {
	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
