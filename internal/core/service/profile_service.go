package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/platformkit/identity/internal/core/domain"
	"github.com/platformkit/identity/internal/core/ports"
)

// ProfileService implements self-service account operations for an
// authenticated user.
type ProfileService struct {
	store  ports.Store
	ledger *RoleLedger
	hasher ports.PasswordHasher
	audit  auditTrail
	log    zerolog.Logger
}

func NewProfileService(store ports.Store, ledger *RoleLedger, hasher ports.PasswordHasher, audit ports.AuditRepository, log zerolog.Logger) *ProfileService {
	return &ProfileService{
		store:  store,
		ledger: ledger,
		hasher: hasher,
		audit:  auditTrail{repo: audit, log: log, now: time.Now},
		log:    log,
	}
}

func (s *ProfileService) Profile(ctx context.Context, user *domain.User) (*ports.Profile, error) {
	roles, err := s.ledger.RolesOf(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("roles of user: %w", err)
	}
	companies, err := s.ledger.CompaniesOf(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("companies of user: %w", err)
	}

	out := &ports.Profile{User: user, Roles: roles, Companies: make([]ports.CompanyMembership, 0, len(companies))}
	for _, c := range companies {
		cr, err := s.ledger.CompanyRolesOf(ctx, user.ID, c.ID)
		if err != nil {
			return nil, fmt.Errorf("company roles of user: %w", err)
		}
		out.Companies = append(out.Companies, ports.CompanyMembership{Company: c, Roles: cr})
	}
	return out, nil
}

func (s *ProfileService) ChangePassword(ctx context.Context, user *domain.User, password, confirmation string) error {
	err := s.changePassword(ctx, user, password, confirmation)
	s.audit.outcome(ctx, domain.EventPasswordChange, user.ID, user.Email, "", err)
	return err
}

func (s *ProfileService) changePassword(ctx context.Context, user *domain.User, password, confirmation string) error {
	if password != confirmation || !domain.IsPasswordValid(password) {
		return domain.ErrInvalidPassword
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateProfile validates every submitted field before writing any.
// Names are stored trimmed.
func (s *ProfileService) UpdateProfile(ctx context.Context, user *domain.User, in ports.ProfileInput) (*domain.User, error) {
	var upd domain.ProfileUpdate

	fields := []struct {
		raw *string
		dst **string
		bad error
	}{
		{in.FirstName, &upd.FirstName, domain.ErrInvalidFirstName},
		{in.LastName, &upd.LastName, domain.ErrInvalidLastName},
		{in.Country, &upd.Country, domain.ErrInvalidCountry},
	}
	for _, f := range fields {
		if f.raw == nil {
			continue
		}
		v, ok := domain.NormalizeProfileName(*f.raw)
		if !ok {
			return nil, f.bad
		}
		*f.dst = &v
	}

	if in.BirthDate != nil {
		d, err := domain.ParseBirthDate(*in.BirthDate)
		if err != nil {
			return nil, err
		}
		upd.BirthDate = &d
	}

	updated, err := s.store.Users().UpdateProfile(ctx, user.ID, upd)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return updated, nil
}

// DeleteAccount removes the user and all of their grants.
func (s *ProfileService) DeleteAccount(ctx context.Context, user *domain.User) error {
	err := s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		return deleteAccount(ctx, tx, user.ID)
	})
	if err != nil {
		err = fmt.Errorf("delete account: %w", err)
	}
	s.audit.outcome(ctx, domain.EventAccountDelete, user.ID, user.Email, "", err)
	return err
}
