package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied statement by statement; every statement is idempotent.
// Constraint names are part of the contract: unique violations are
// reported to callers by name.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id          BIGSERIAL PRIMARY KEY,
		username    VARCHAR(64)  NOT NULL CONSTRAINT users_username_key UNIQUE,
		email       VARCHAR(255) NOT NULL CONSTRAINT users_email_key UNIQUE,
		password    VARCHAR(255) NOT NULL,
		first_name  VARCHAR(64),
		last_name   VARCHAR(64),
		country     VARCHAR(64),
		birth_date  DATE,
		confirmed   BOOLEAN      NOT NULL DEFAULT FALSE,
		user_type   VARCHAR(16)  NOT NULL DEFAULT 'regular',
		created_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS roles (
		id          BIGSERIAL PRIMARY KEY,
		code        VARCHAR(16) NOT NULL CONSTRAINT roles_code_key UNIQUE,
		name        VARCHAR(64) NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		id       BIGSERIAL PRIMARY KEY,
		user_id  BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role_id  BIGINT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
		CONSTRAINT user_roles_user_id_role_id_key UNIQUE (user_id, role_id)
	)`,
	`CREATE TABLE IF NOT EXISTS companies (
		id          BIGSERIAL PRIMARY KEY,
		name        VARCHAR(128) NOT NULL CONSTRAINT companies_name_key UNIQUE,
		email       VARCHAR(255),
		website     VARCHAR(255),
		address     VARCHAR(255),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS user_company_roles (
		id          BIGSERIAL PRIMARY KEY,
		user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		company_id  BIGINT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		role_id     BIGINT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
		CONSTRAINT user_company_roles_user_id_company_id_role_id_key UNIQUE (user_id, company_id, role_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_company_roles_company ON user_company_roles (company_id)`,
}

// EnsureSchema creates the tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema (statement %d): %w", i, err)
		}
	}
	return nil
}
