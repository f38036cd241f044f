package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/platformkit/identity/internal/core/domain"
	"github.com/platformkit/identity/internal/core/ports"
)

var errUsage = errors.New("invalid arguments")

type auditReader interface {
	RecentByUser(ctx context.Context, userID int64, limit int64) ([]domain.AuthEvent, error)
}

type cli struct {
	admin ports.AdminService
	audit auditReader
	out   io.Writer
}

type command struct {
	name    string
	summary string
	run     func(c *cli, ctx context.Context, args []string) error
}

var commands = []command{
	{"create-user", "create a user with global roles", (*cli).createUser},
	{"list-users", "list users and their global roles", (*cli).listUsers},
	{"delete-user", "delete a user and every grant it holds", (*cli).deleteUser},
	{"create-company", "create a company", (*cli).createCompany},
	{"list-companies", "list companies", (*cli).listCompanies},
	{"delete-company", "delete a company", (*cli).deleteCompany},
	{"add-user-to-company", "replace a user's roles inside a company", (*cli).addUserToCompany},
	{"audit", "show recent auth events of a user", (*cli).showAudit},
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: identityctl <command> [flags]")
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, cmd := range commands {
		fmt.Fprintf(tw, "  %s\t%s\n", cmd.name, cmd.summary)
	}
	_ = tw.Flush()
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(c, ctx, args[1:])
		}
	}
	usage(c.out)
	return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	return fs
}

func (c *cli) createUser(ctx context.Context, args []string) error {
	fs := c.flags("create-user")
	username := fs.String("username", "", "username (required)")
	email := fs.String("email", "", "email (required)")
	password := fs.String("password", "", "password (required)")
	roles := fs.String("roles", "viewer", "comma separated role codes")
	userType := fs.String("type", domain.UserTypeRegular.String(), "regular or enterprise")
	confirmed := fs.Bool("confirmed", true, "mark the account as confirmed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *email == "" || *password == "" {
		fs.Usage()
		return fmt.Errorf("%w: -username, -email and -password are required", errUsage)
	}

	u, err := c.admin.CreateUser(ctx, ports.CreateUserInput{
		Username:  *username,
		Email:     *email,
		Password:  *password,
		Confirmed: *confirmed,
		UserType:  *userType,
		Roles:     splitCodes(*roles),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "created user %d (%s)\n", u.ID, u.Username)
	return nil
}

func (c *cli) listUsers(ctx context.Context, args []string) error {
	if err := c.flags("list-users").Parse(args); err != nil {
		return err
	}
	rows, err := c.admin.ListUsers(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tTYPE\tCONFIRMED\tROLES")
	for _, r := range rows {
		codes := make([]string, 0, len(r.Roles))
		for _, role := range r.Roles {
			codes = append(codes, role.Code.String())
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%s\n",
			r.User.ID, r.User.Username, r.User.Email, r.User.UserType, r.User.Confirmed, strings.Join(codes, ","))
	}
	return tw.Flush()
}

func (c *cli) deleteUser(ctx context.Context, args []string) error {
	fs := c.flags("delete-user")
	id := fs.Int64("id", 0, "user id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	target, err := idArg(fs, *id)
	if err != nil {
		return err
	}
	if err := c.admin.DeleteUser(ctx, target); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "deleted user %d\n", target)
	return nil
}

func (c *cli) createCompany(ctx context.Context, args []string) error {
	fs := c.flags("create-company")
	name := fs.String("name", "", "company name (required)")
	email := fs.String("email", "", "contact email")
	website := fs.String("website", "", "website URL")
	address := fs.String("address", "", "postal address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("%w: -name is required", errUsage)
	}

	co, err := c.admin.CreateCompany(ctx, domain.NewCompany{
		Name:    *name,
		Email:   optional(*email),
		Website: optional(*website),
		Address: optional(*address),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "created company %d (%s)\n", co.ID, co.Name)
	return nil
}

func (c *cli) listCompanies(ctx context.Context, args []string) error {
	if err := c.flags("list-companies").Parse(args); err != nil {
		return err
	}
	companies, err := c.admin.ListCompanies(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tWEBSITE")
	for _, co := range companies {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", co.ID, co.Name, deref(co.Email), deref(co.Website))
	}
	return tw.Flush()
}

func (c *cli) deleteCompany(ctx context.Context, args []string) error {
	fs := c.flags("delete-company")
	id := fs.Int64("id", 0, "company id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	target, err := idArg(fs, *id)
	if err != nil {
		return err
	}
	if err := c.admin.DeleteCompany(ctx, target); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "deleted company %d\n", target)
	return nil
}

func (c *cli) addUserToCompany(ctx context.Context, args []string) error {
	fs := c.flags("add-user-to-company")
	companyID := fs.Int64("company", 0, "company id (required)")
	userID := fs.Int64("user", 0, "user id (required)")
	roles := fs.String("roles", "viewer", "comma separated role codes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *companyID <= 0 || *userID <= 0 {
		return fmt.Errorf("%w: -company and -user are required", errUsage)
	}
	if err := c.admin.SetCompanyRoles(ctx, *companyID, *userID, splitCodes(*roles)); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "user %d now holds [%s] in company %d\n", *userID, *roles, *companyID)
	return nil
}

func (c *cli) showAudit(ctx context.Context, args []string) error {
	fs := c.flags("audit")
	userID := fs.Int64("user", 0, "user id (required)")
	limit := fs.Int64("limit", 20, "number of events")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID <= 0 {
		return fmt.Errorf("%w: -user is required", errUsage)
	}
	events, err := c.audit.RecentByUser(ctx, *userID, *limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tKIND\tOUTCOME\tCLIENT\tDETAIL")
	for _, ev := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			ev.Timestamp.UTC().Format(time.RFC3339), ev.Kind, ev.Outcome, ev.ClientIP, ev.Detail)
	}
	return tw.Flush()
}

func splitCodes(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

// idArg accepts either -id N or a single positional N.
func idArg(fs *flag.FlagSet, flagged int64) (int64, error) {
	if flagged > 0 {
		return flagged, nil
	}
	if fs.NArg() != 1 {
		return 0, fmt.Errorf("%w: an id is required", errUsage)
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad id %q", errUsage, fs.Arg(0))
	}
	return id, nil
}
