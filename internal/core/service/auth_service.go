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
	"github.com/platformkit/identity/internal/pkg/token"
	"github.com/platformkit/identity/pkg/logger"
)

const (
	confirmPath       = "confirm"
	resetPasswordPath = "reset_password"
)

// Links builds the URLs embedded in outbound mail.
type Links struct {
	BaseURL        string
	DeepLinkScheme string
	DeepLinkHost   string
}

// App is the bare deep link that opens the mobile client.
func (l Links) App() string {
	return l.DeepLinkScheme + "://" + l.DeepLinkHost
}

func (l Links) confirm(tok string) string {
	return strings.TrimRight(l.BaseURL, "/") + "/" + confirmPath + "/" + tok
}

func (l Links) reset(tok string) string {
	return l.App() + "/" + resetPasswordPath + "/" + tok
}

// AuthDeps wires AuthService. Audit and Geo may be nil.
type AuthDeps struct {
	Store    ports.Store
	Sessions *SessionStore
	Tokens   *TemporaryTokenStore
	Hasher   ports.PasswordHasher
	Mail     ports.MailQueue
	Geo      ports.GeoLocator
	Audit    ports.AuditRepository
	Links    Links
	Log      zerolog.Logger
	Now      func() time.Time
}

// AuthService implements signup, confirmation, login and password reset.
type AuthService struct {
	store    ports.Store
	sessions *SessionStore
	tokens   *TemporaryTokenStore
	hasher   ports.PasswordHasher
	mail     ports.MailQueue
	geo      ports.GeoLocator
	links    Links
	audit    auditTrail
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(d AuthDeps) *AuthService {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		store:    d.Store,
		sessions: d.Sessions,
		tokens:   d.Tokens,
		hasher:   d.Hasher,
		mail:     d.Mail,
		geo:      d.Geo,
		links:    d.Links,
		audit:    auditTrail{repo: d.Audit, log: d.Log, now: now},
		log:      d.Log,
		now:      now,
	}
}

// Signup creates an unconfirmed regular user with the default roles and
// mails a confirmation link.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
	user, err := s.signup(ctx, in)
	var id int64
	if user != nil {
		id = user.ID
	}
	s.audit.outcome(ctx, domain.EventSignup, id, in.Email, in.ClientIP, err)
	return user, err
}

func (s *AuthService) signup(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
	if err := domain.ValidateSignup(in.Username, in.Email, in.Password); err != nil {
		return nil, err
	}
	if err := s.reclaimStaleSignup(ctx, in.Email); err != nil {
		return nil, err
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
			UserType:     domain.UserTypeRegular,
		})
		if err != nil {
			return err
		}
		if err := assignRoles(ctx, tx, u.ID, domain.DefaultRoles); err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, mapCreateUserError(err)
	}

	tok, err := s.tokens.Issue(ctx, created.ID, PurposeConfirm)
	if err != nil {
		return nil, err
	}
	s.enqueueMail(ctx, ports.MailConfirmation, created, s.links.confirm(tok), in.ClientIP)

	s.log.Info().Int64("user_id", created.ID).Msg("user signed up")
	return created, nil
}

// reclaimStaleSignup deletes an unconfirmed account whose confirmation
// window has passed. A fresh unconfirmed account blocks the email.
func (s *AuthService) reclaimStaleSignup(ctx context.Context, email string) error {
	existing, err := s.store.Users().FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find user by email: %w", err)
	}
	if existing.Confirmed {
		return nil
	}
	if !s.now().After(existing.CreatedAt.Add(ConfirmTokenTTL)) {
		return domain.ErrUnconfirmedUser
	}

	err = s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		return deleteAccount(ctx, tx, existing.ID)
	})
	if err != nil {
		return fmt.Errorf("reclaim stale signup %d: %w", existing.ID, err)
	}
	s.log.Info().Int64("user_id", existing.ID).Msg("stale unconfirmed signup removed")
	return nil
}

// Confirm marks the token's user as confirmed. Confirming twice succeeds.
func (s *AuthService) Confirm(ctx context.Context, tok string) error {
	id, err := s.confirm(ctx, tok)
	s.audit.outcome(ctx, domain.EventConfirm, id, "", "", err)
	return err
}

func (s *AuthService) confirm(ctx context.Context, tok string) (int64, error) {
	userID, err := s.tokens.Lookup(ctx, tok, PurposeConfirm)
	if err != nil {
		return 0, err
	}

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return userID, domain.ErrInvalidToken
		}
		return userID, fmt.Errorf("find user: %w", err)
	}

	if !user.Confirmed {
		if err := s.store.Users().Confirm(ctx, user.ID); err != nil {
			return userID, fmt.Errorf("confirm user: %w", err)
		}
	}

	if err := s.tokens.Discard(ctx, tok, PurposeConfirm); err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("confirm token discard failed")
	}
	return userID, nil
}

// Login verifies credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password, clientIP string) (string, error) {
	tok, id, err := s.login(ctx, email, password)
	s.audit.outcome(ctx, domain.EventLogin, id, email, clientIP, err)
	return tok, err
}

func (s *AuthService) login(ctx context.Context, email, password string) (string, int64, error) {
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", 0, domain.ErrEmailNotExist
		}
		return "", 0, fmt.Errorf("find user by email: %w", err)
	}

	if !user.Confirmed {
		return "", user.ID, domain.ErrUnconfirmedUser
	}
	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		return "", user.ID, domain.ErrWrongCredentials
	}

	tok, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return "", user.ID, err
	}
	return tok, user.ID, nil
}

// RequestPasswordReset mails a single-use reset deep link.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, clientIP string) error {
	id, err := s.requestReset(ctx, email, clientIP)
	s.audit.outcome(ctx, domain.EventResetRequest, id, email, clientIP, err)
	return err
}

func (s *AuthService) requestReset(ctx context.Context, email, clientIP string) (int64, error) {
	if !domain.IsEmailValid(email) {
		return 0, domain.ErrInvalidEmail
	}

	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return 0, domain.ErrEmailNotExist
		}
		return 0, fmt.Errorf("find user by email: %w", err)
	}

	tok, err := s.tokens.Issue(ctx, user.ID, PurposeReset)
	if err != nil {
		return user.ID, err
	}
	s.enqueueMail(ctx, ports.MailPasswordReset, user, s.links.reset(tok), clientIP)
	return user.ID, nil
}

// ChangePassword redeems a reset token and stores the new password.
// The token is consumed even if the final write fails.
func (s *AuthService) ChangePassword(ctx context.Context, tok, password, confirmation string) error {
	id, err := s.changePassword(ctx, tok, password, confirmation)
	s.audit.outcome(ctx, domain.EventPasswordChange, id, "", "", err)
	return err
}

func (s *AuthService) changePassword(ctx context.Context, tok, password, confirmation string) (int64, error) {
	if !token.HasValidLength(tok) {
		return 0, domain.ErrInvalidToken
	}
	if password != confirmation || !domain.IsPasswordValid(password) {
		return 0, domain.ErrInvalidPassword
	}

	userID, err := s.tokens.Redeem(ctx, tok, PurposeReset)
	if err != nil {
		return 0, err
	}

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return userID, fmt.Errorf("%w: user %d", domain.ErrResetTargetMissing, userID)
		}
		return userID, fmt.Errorf("find user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user.ID, fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
		return user.ID, fmt.Errorf("update password: %w", err)
	}
	return user.ID, nil
}

// AppLink is the deep link shown after a successful confirmation.
func (s *AuthService) AppLink() string {
	return s.links.App()
}

func (s *AuthService) enqueueMail(ctx context.Context, kind ports.MailKind, user *domain.User, link, clientIP string) {
	if s.mail == nil {
		return
	}
	s.mail.Enqueue(ports.MailMessage{
		Kind:       kind,
		To:         user.Email,
		Username:   user.Username,
		Link:       link,
		ClientInfo: s.describeClient(ctx, clientIP),
		QueuedAt:   s.now().UTC(),
	})
	s.log.Debug().Str("kind", string(kind)).Str("to", logger.MaskEmail(user.Email)).Msg("mail queued")
}

func (s *AuthService) describeClient(ctx context.Context, ip string) string {
	if s.geo == nil {
		return domain.DescribeClient(ip, "", "", s.now())
	}
	return s.geo.Describe(ctx, ip)
}

// mapCreateUserError turns unique violations into client-facing errors.
func mapCreateUserError(err error) error {
	var uv *domain.UniqueViolation
	if !errors.As(err, &uv) {
		return fmt.Errorf("create user: %w", err)
	}
	switch uv.Constraint {
	case domain.ConstraintUsersEmail:
		return domain.ErrEmailInUse
	case domain.ConstraintUsersUsername:
		return domain.ErrUnavailableUsername
	default:
		return domain.ErrWrongCredentials
	}
}
