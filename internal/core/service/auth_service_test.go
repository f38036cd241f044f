package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/platformkit/identity/internal/core/domain"
	"github.com/platformkit/identity/internal/core/ports"
	"github.com/platformkit/identity/internal/pkg/token"
)

func signupInput(username, email, password string) ports.SignupInput {
	return ports.SignupInput{Username: username, Email: email, Password: password, ClientIP: "10.0.0.7"}
}

func tokenFromLink(link string) string {
	return link[strings.LastIndex(link, "/")+1:]
}

func TestAuthService_Signup_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := []struct {
		in   ports.SignupInput
		want error
	}{
		{signupInput("ab", "a@b.co", "Secret1"), domain.ErrInvalidUsername},
		{signupInput("alice", "nodomain", "Secret1"), domain.ErrInvalidEmail},
		{signupInput("alice", "alice@example.com", "abcdef"), domain.ErrInvalidPassword},
		// First failure wins.
		{signupInput("a!", "bad", "x"), domain.ErrInvalidUsername},
	}
	for _, tc := range cases {
		if _, err := f.auth.Signup(ctx, tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("signup %+v: expected %v, got %v", tc.in, tc.want, err)
		}
	}
	if len(f.store.st.users) != 0 {
		t.Fatalf("expected no users created")
	}
}

func TestAuthService_Signup_CreatesUserWithViewerAndMailsLink(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	user, err := f.auth.Signup(ctx, signupInput("alice", "alice@example.com", "Secret1"))
	if err != nil {
		t.Fatalf("Signup error: %v", err)
	}
	if user.Confirmed {
		t.Fatalf("expected unconfirmed user")
	}
	if user.PasswordHash == "Secret1" || !strings.HasPrefix(user.PasswordHash, "$argon2id$") {
		t.Fatalf("expected argon2id hash, got %q", user.PasswordHash)
	}

	roles, _ := f.ledger.RolesOf(ctx, user.ID)
	if got := roleCodes(roles); !equalStrings(got, []string{"viewer"}) {
		t.Fatalf("expected {viewer}, got %v", got)
	}

	m := f.mail.last()
	if m.Kind != ports.MailConfirmation || m.To != "alice@example.com" {
		t.Fatalf("unexpected mail: %+v", m)
	}
	if !strings.HasPrefix(m.Link, "http://localhost:8000/confirm/") {
		t.Fatalf("unexpected confirm link: %s", m.Link)
	}
	if len(tokenFromLink(m.Link)) != token.Length {
		t.Fatalf("expected %d-char token in link", token.Length)
	}
	if len(f.geo.calls) != 1 || f.geo.calls[0] != "10.0.0.7" {
		t.Fatalf("expected geolocation of client ip, got %v", f.geo.calls)
	}
}

func TestAuthService_Signup_UniqueViolations(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedUser("taken", domain.UserTypeRegular, true)

	if _, err := f.auth.Signup(ctx, signupInput("fresh", "taken@example.com", "Secret1")); !errors.Is(err, domain.ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}
	if _, err := f.auth.Signup(ctx, signupInput("taken", "other@example.com", "Secret1")); !errors.Is(err, domain.ErrUnavailableUsername) {
		t.Fatalf("expected ErrUnavailableUsername, got %v", err)
	}
}

func TestAuthService_Signup_UnconfirmedEmailWithinWindow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.auth.Signup(ctx, signupInput("alice", "alice@example.com", "Secret1")); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	f.clock.Advance(23 * time.Hour)
	if _, err := f.auth.Signup(ctx, signupInput("alice2", "alice@example.com", "Secret1")); !errors.Is(err, domain.ErrUnconfirmedUser) {
		t.Fatalf("expected ErrUnconfirmedUser, got %v", err)
	}
}

func TestAuthService_Signup_ReclaimsStaleUnconfirmed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	old, err := f.auth.Signup(ctx, signupInput("alice", "alice@example.com", "Secret1"))
	if err != nil {
		t.Fatalf("first signup: %v", err)
	}
	f.clock.Advance(25 * time.Hour)

	fresh, err := f.auth.Signup(ctx, signupInput("alice", "alice@example.com", "Secret2"))
	if err != nil {
		t.Fatalf("expected stale account reclaimed, got %v", err)
	}
	if fresh.ID == old.ID {
		t.Fatalf("expected a new account")
	}
	if _, err := f.store.Users().FindByID(ctx, old.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected old account deleted, got %v", err)
	}
}

func TestAuthService_Signup_ReclaimFailureIsReturned(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	old, err := f.auth.Signup(ctx, signupInput("alice", "alice@example.com", "Secret1"))
	if err != nil {
		t.Fatalf("first signup: %v", err)
	}
	f.clock.Advance(25 * time.Hour)
	dbErr := errors.New("connection reset")
	f.store.failDeleteUser = dbErr

	_, err = f.auth.Signup(ctx, signupInput("alice", "alice@example.com", "Secret2"))
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected reclaim failure to surface, got %v", err)
	}
	var de *domain.Error
	if errors.As(err, &de) {
		t.Fatalf("expected an internal error, got domain error %v", de)
	}
	if _, err := f.store.Users().FindByID(ctx, old.ID); err != nil {
		t.Fatalf("expected stale account kept after rollback, got %v", err)
	}
}

func TestAuthService_SignupConfirmLoginFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.auth.Signup(ctx, signupInput("alice", "alice@example.com", "Secret1")); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if _, err := f.auth.Login(ctx, "alice@example.com", "Secret1", ""); !errors.Is(err, domain.ErrUnconfirmedUser) {
		t.Fatalf("expected ErrUnconfirmedUser before confirmation, got %v", err)
	}

	confirm := tokenFromLink(f.mail.last().Link)
	if err := f.auth.Confirm(ctx, confirm); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	tok, err := f.auth.Login(ctx, "alice@example.com", "Secret1", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if len(tok) != token.Length {
		t.Fatalf("expected %d-char session token, got %d", token.Length, len(tok))
	}

	user, err := f.gate.Resolve(ctx, "Bearer "+tok)
	if err != nil || user.Email != "alice@example.com" {
		t.Fatalf("expected session to resolve to alice, got %+v, %v", user, err)
	}

	want := []string{"signup:success", "login:failure", "confirm:success", "login:success"}
	if got := f.audit.kinds(); !equalStrings(got, want) {
		t.Fatalf("unexpected audit trail: %v", got)
	}
}

func TestAuthService_Confirm_TokenDiscardedAfterUse(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, _ = f.auth.Signup(ctx, signupInput("alice", "alice@example.com", "Secret1"))
	confirm := tokenFromLink(f.mail.last().Link)

	if err := f.auth.Confirm(ctx, confirm); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := f.auth.Confirm(ctx, confirm); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken on reuse, got %v", err)
	}
}

func TestAuthService_Confirm_AlreadyConfirmedIsNoop(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.seedUser("alice", domain.UserTypeRegular, true)
	tok, _ := f.tokens.Issue(ctx, u.ID, PurposeConfirm)

	if err := f.auth.Confirm(ctx, tok); err != nil {
		t.Fatalf("expected success for confirmed user, got %v", err)
	}
}

func TestAuthService_Confirm_InvalidTokens(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.auth.Confirm(ctx, "short"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for short token, got %v", err)
	}
	unknown := strings.Repeat("A", token.Length)
	if err := f.auth.Confirm(ctx, unknown); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for unknown token, got %v", err)
	}

	orphan, _ := f.tokens.Issue(ctx, 404, PurposeConfirm)
	if err := f.auth.Confirm(ctx, orphan); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for missing user, got %v", err)
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedUser("alice", domain.UserTypeRegular, true)
	f.seedUser("bob", domain.UserTypeRegular, false)

	if _, err := f.auth.Login(ctx, "ghost@example.com", "Secret1", ""); !errors.Is(err, domain.ErrEmailNotExist) {
		t.Fatalf("expected ErrEmailNotExist, got %v", err)
	}
	if _, err := f.auth.Login(ctx, "alice@example.com", "Wrong1", ""); !errors.Is(err, domain.ErrWrongCredentials) {
		t.Fatalf("expected ErrWrongCredentials, got %v", err)
	}
	// Unconfirmed is reported before the password is checked.
	if _, err := f.auth.Login(ctx, "bob@example.com", "Wrong1", ""); !errors.Is(err, domain.ErrUnconfirmedUser) {
		t.Fatalf("expected ErrUnconfirmedUser, got %v", err)
	}
}

func TestAuthService_Login_CorruptHashIsWrongCredentials(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.seedUser("alice", domain.UserTypeRegular, true)
	_ = f.store.Users().UpdatePassword(ctx, u.ID, "garbage")

	if _, err := f.auth.Login(ctx, "alice@example.com", "Secret1", ""); !errors.Is(err, domain.ErrWrongCredentials) {
		t.Fatalf("expected ErrWrongCredentials, got %v", err)
	}
}

func TestAuthService_PasswordResetFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seedUser("alice", domain.UserTypeRegular, true)

	if err := f.auth.RequestPasswordReset(ctx, "alice@example.com", "10.1.1.1"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	m := f.mail.last()
	if m.Kind != ports.MailPasswordReset {
		t.Fatalf("expected reset mail, got %s", m.Kind)
	}
	if !strings.HasPrefix(m.Link, "https://template.softteco.com.deep_link/reset_password/") {
		t.Fatalf("unexpected deep link: %s", m.Link)
	}
	if !strings.HasPrefix(m.ClientInfo, "10.1.1.1, ") {
		t.Fatalf("unexpected client info: %s", m.ClientInfo)
	}

	reset := tokenFromLink(m.Link)
	if err := f.auth.ChangePassword(ctx, reset, "NewPass1", "NewPass1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if err := f.auth.ChangePassword(ctx, reset, "NewPass2", "NewPass2"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken on reuse, got %v", err)
	}

	if _, err := f.auth.Login(ctx, "alice@example.com", "Secret1", ""); !errors.Is(err, domain.ErrWrongCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
	if _, err := f.auth.Login(ctx, "alice@example.com", "NewPass1", ""); err != nil {
		t.Fatalf("expected new password accepted, got %v", err)
	}
}

func TestAuthService_RequestPasswordReset_Failures(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.auth.RequestPasswordReset(ctx, "nodomain", ""); !errors.Is(err, domain.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if err := f.auth.RequestPasswordReset(ctx, "ghost@example.com", ""); !errors.Is(err, domain.ErrEmailNotExist) {
		t.Fatalf("expected ErrEmailNotExist, got %v", err)
	}
	if len(f.mail.sent) != 0 {
		t.Fatalf("expected no mail sent")
	}
}

func TestAuthService_ChangePassword_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.seedUser("alice", domain.UserTypeRegular, true)
	tok, _ := f.tokens.Issue(ctx, u.ID, PurposeReset)

	if err := f.auth.ChangePassword(ctx, "short", "NewPass1", "NewPass1"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if err := f.auth.ChangePassword(ctx, tok, "NewPass1", "NewPass2"); !errors.Is(err, domain.ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword for mismatch, got %v", err)
	}
	if err := f.auth.ChangePassword(ctx, tok, "weakpw", "weakpw"); !errors.Is(err, domain.ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword for weak password, got %v", err)
	}
	// Validation failures must not consume the token.
	if err := f.auth.ChangePassword(ctx, tok, "NewPass1", "NewPass1"); err != nil {
		t.Fatalf("expected token still valid, got %v", err)
	}
}

func TestAuthService_ChangePassword_MissingUserIsInternal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tok, _ := f.tokens.Issue(ctx, 404, PurposeReset)

	err := f.auth.ChangePassword(ctx, tok, "NewPass1", "NewPass1")
	if !errors.Is(err, domain.ErrResetTargetMissing) {
		t.Fatalf("expected ErrResetTargetMissing, got %v", err)
	}
	var de *domain.Error
	if errors.As(err, &de) {
		t.Fatalf("expected a non-client error, got %v", de)
	}
}

func TestAuthService_AuditFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.audit.err = errBoom

	if _, err := f.auth.Signup(context.Background(), signupInput("alice", "alice@example.com", "Secret1")); err != nil {
		t.Fatalf("expected signup to succeed despite audit failure, got %v", err)
	}
}
