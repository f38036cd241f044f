package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/platformkit/identity/internal/core/domain"
	"github.com/platformkit/identity/internal/core/ports"
)

// AdminService backs the admin HTTP routes and the operator CLI.
type AdminService struct {
	store  ports.Store
	ledger *RoleLedger
	hasher ports.PasswordHasher
	audit  auditTrail
	log    zerolog.Logger
}

func NewAdminService(store ports.Store, ledger *RoleLedger, hasher ports.PasswordHasher, audit ports.AuditRepository, log zerolog.Logger) *AdminService {
	return &AdminService{
		store:  store,
		ledger: ledger,
		hasher: hasher,
		audit:  auditTrail{repo: audit, log: log, now: time.Now},
		log:    log,
	}
}

// CreateUser provisions an account directly, optionally pre-confirmed.
// No roles means the signup defaults.
func (s *AdminService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	if err := domain.ValidateSignup(in.Username, in.Email, in.Password); err != nil {
		return nil, err
	}

	userType := domain.UserTypeRegular
	if in.UserType != "" {
		t, err := domain.ParseUserType(in.UserType)
		if err != nil {
			return nil, err
		}
		userType = t
	}

	codes := domain.DefaultRoles
	if len(in.Roles) > 0 {
		parsed, err := domain.ParseRoleCodes(in.Roles)
		if err != nil {
			return nil, err
		}
		codes = parsed
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var created *domain.User
	err = s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		u, err := tx.Users().Create(ctx, domain.NewUser{
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: hash,
			Confirmed:    in.Confirmed,
			UserType:     userType,
		})
		if err != nil {
			return err
		}
		if err := assignRoles(ctx, tx, u.ID, codes); err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, mapCreateUserError(err)
	}
	s.log.Info().Int64("user_id", created.ID).Str("user_type", userType.String()).Msg("user created by operator")
	return created, nil
}

func (s *AdminService) ListUsers(ctx context.Context) ([]ports.UserWithRoles, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]ports.UserWithRoles, 0, len(users))
	for _, u := range users {
		roles, err := s.ledger.RolesOf(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("roles of user %d: %w", u.ID, err)
		}
		out = append(out, ports.UserWithRoles{User: u, Roles: roles})
	}
	return out, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, userID int64) error {
	err := s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		if _, err := tx.Users().FindByID(ctx, userID); err != nil {
			return err
		}
		return deleteAccount(ctx, tx, userID)
	})
	s.audit.outcome(ctx, domain.EventAccountDelete, userID, "", "", err)
	return err
}

func (s *AdminService) SetUserType(ctx context.Context, userID int64, userType string) error {
	t, err := domain.ParseUserType(userType)
	if err != nil {
		return err
	}
	return s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		if err := tx.Users().SetUserType(ctx, userID, t); err != nil {
			return err
		}
		// Company grants exist only for enterprise users.
		if t != domain.UserTypeEnterprise {
			return tx.Roles().RevokeAllCompanyRoles(ctx, userID)
		}
		return nil
	})
}

func (s *AdminService) CreateCompany(ctx context.Context, c domain.NewCompany) (*domain.Company, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, domain.ErrInvalidCompanyName
	}
	created, err := s.store.Companies().Create(ctx, c)
	if err != nil {
		var uv *domain.UniqueViolation
		if errors.As(err, &uv) {
			return nil, domain.ErrCompanyExists
		}
		return nil, fmt.Errorf("create company: %w", err)
	}
	return created, nil
}

func (s *AdminService) ListCompanies(ctx context.Context) ([]*domain.Company, error) {
	return s.store.Companies().List(ctx)
}

func (s *AdminService) DeleteCompany(ctx context.Context, companyID int64) error {
	return s.store.Companies().Delete(ctx, companyID)
}

func (s *AdminService) AddRoles(ctx context.Context, userID int64, codes []string) error {
	err := s.ledger.AddRoles(ctx, userID, codes)
	s.recordRoleChange(ctx, userID, "add "+strings.Join(codes, ","), err)
	return err
}

func (s *AdminService) RemoveRoles(ctx context.Context, userID int64, codes []string) error {
	err := s.ledger.RemoveRoles(ctx, userID, codes)
	s.recordRoleChange(ctx, userID, "remove "+strings.Join(codes, ","), err)
	return err
}

func (s *AdminService) SetCompanyRoles(ctx context.Context, companyID, userID int64, codes []string) error {
	err := s.ledger.SetCompanyRoles(ctx, companyID, userID, codes)
	s.recordRoleChange(ctx, userID, fmt.Sprintf("set company %d: %s", companyID, strings.Join(codes, ",")), err)
	return err
}

func (s *AdminService) recordRoleChange(ctx context.Context, userID int64, detail string, err error) {
	e := domain.AuthEvent{Kind: domain.EventRoleChange, UserID: userID, Outcome: outcomeSuccess, Detail: detail}
	if err != nil {
		e.Outcome = outcomeFailure
		e.Detail = detail + ": " + err.Error()
	}
	s.audit.record(ctx, e)
}
