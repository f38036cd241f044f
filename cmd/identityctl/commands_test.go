package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/platformkit/identity/internal/core/domain"
	"github.com/platformkit/identity/internal/core/ports"
)

type stubAdmin struct {
	ports.AdminService

	created      ports.CreateUserInput
	deletedUser  int64
	company      domain.NewCompany
	companyRoles []string
	companyID    int64
	userID       int64
	err          error
}

func (s *stubAdmin) CreateUser(_ context.Context, in ports.CreateUserInput) (*domain.User, error) {
	s.created = in
	if s.err != nil {
		return nil, s.err
	}
	return &domain.User{ID: 7, Username: in.Username}, nil
}

func (s *stubAdmin) ListUsers(context.Context) ([]ports.UserWithRoles, error) {
	return []ports.UserWithRoles{{
		User:  &domain.User{ID: 1, Username: "jane", Email: "jane@example.com", Confirmed: true},
		Roles: []domain.Role{{Code: domain.RoleAdmin}, {Code: domain.RoleViewer}},
	}}, nil
}

func (s *stubAdmin) DeleteUser(_ context.Context, id int64) error {
	s.deletedUser = id
	return s.err
}

func (s *stubAdmin) CreateCompany(_ context.Context, c domain.NewCompany) (*domain.Company, error) {
	s.company = c
	return &domain.Company{ID: 3, Name: c.Name}, nil
}

func (s *stubAdmin) SetCompanyRoles(_ context.Context, companyID, userID int64, codes []string) error {
	s.companyID, s.userID, s.companyRoles = companyID, userID, codes
	return s.err
}

type stubAudit struct{ events []domain.AuthEvent }

func (s stubAudit) RecentByUser(context.Context, int64, int64) ([]domain.AuthEvent, error) {
	return s.events, nil
}

func newTestCLI(admin *stubAdmin) (*cli, *bytes.Buffer) {
	var out bytes.Buffer
	return &cli{admin: admin, audit: stubAudit{}, out: &out}, &out
}

func TestCreateUser_PassesFlags(t *testing.T) {
	admin := &stubAdmin{}
	c, out := newTestCLI(admin)

	err := c.dispatch(context.Background(), []string{
		"create-user", "-username", "jane", "-email", "jane@example.com",
		"-password", "secret1", "-roles", "admin, viewer", "-type", "enterprise",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if admin.created.UserType != "enterprise" || !admin.created.Confirmed {
		t.Fatalf("unexpected input %+v", admin.created)
	}
	if got := strings.Join(admin.created.Roles, "|"); got != "admin|viewer" {
		t.Fatalf("expected trimmed roles, got %q", got)
	}
	if !strings.Contains(out.String(), "created user 7") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestCreateUser_MissingFlags(t *testing.T) {
	c, _ := newTestCLI(&stubAdmin{})
	err := c.dispatch(context.Background(), []string{"create-user", "-username", "jane"})
	if !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestCreateUser_ServiceError(t *testing.T) {
	c, _ := newTestCLI(&stubAdmin{err: domain.ErrEmailInUse})
	err := c.dispatch(context.Background(), []string{
		"create-user", "-username", "jane", "-email", "jane@example.com", "-password", "secret1",
	})
	if !errors.Is(err, domain.ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}
}

func TestListUsers_PrintsRoles(t *testing.T) {
	c, out := newTestCLI(&stubAdmin{})
	if err := c.dispatch(context.Background(), []string{"list-users"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "admin,viewer") {
		t.Fatalf("expected roles column, got %q", out.String())
	}
}

func TestDeleteUser_PositionalID(t *testing.T) {
	admin := &stubAdmin{}
	c, _ := newTestCLI(admin)
	if err := c.dispatch(context.Background(), []string{"delete-user", "42"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if admin.deletedUser != 42 {
		t.Fatalf("expected user 42 deleted, got %d", admin.deletedUser)
	}
}

func TestDeleteUser_BadID(t *testing.T) {
	c, _ := newTestCLI(&stubAdmin{})
	if err := c.dispatch(context.Background(), []string{"delete-user", "abc"}); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestCreateCompany_OptionalFields(t *testing.T) {
	admin := &stubAdmin{}
	c, _ := newTestCLI(admin)
	if err := c.dispatch(context.Background(), []string{"create-company", "-name", "Acme", "-website", "https://acme.io"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if admin.company.Email != nil {
		t.Fatalf("empty email should stay nil")
	}
	if admin.company.Website == nil || *admin.company.Website != "https://acme.io" {
		t.Fatalf("unexpected website %v", admin.company.Website)
	}
}

func TestAddUserToCompany(t *testing.T) {
	admin := &stubAdmin{}
	c, _ := newTestCLI(admin)
	err := c.dispatch(context.Background(), []string{"add-user-to-company", "-company", "3", "-user", "9", "-roles", "editor"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if admin.companyID != 3 || admin.userID != 9 || len(admin.companyRoles) != 1 || admin.companyRoles[0] != "editor" {
		t.Fatalf("unexpected call %d %d %v", admin.companyID, admin.userID, admin.companyRoles)
	}
}

func TestAudit_PrintsEvents(t *testing.T) {
	var out bytes.Buffer
	c := &cli{admin: &stubAdmin{}, out: &out, audit: stubAudit{events: []domain.AuthEvent{{
		Kind:      domain.EventLogin,
		Outcome:   "wrong_credentials",
		ClientIP:  "203.0.113.9",
		Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}}}}

	if err := c.dispatch(context.Background(), []string{"audit", "-user", "1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "2024-05-01T10:00:00Z") || !strings.Contains(out.String(), "wrong_credentials") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestDispatch_UnknownCommand(t *testing.T) {
	c, out := newTestCLI(&stubAdmin{})
	if err := c.dispatch(context.Background(), []string{"frobnicate"}); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(out.String(), "add-user-to-company") {
		t.Fatalf("expected usage listing, got %q", out.String())
	}
}
