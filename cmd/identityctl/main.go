// Command identityctl is the operator CLI for user, company and role
// administration. It talks to the same stores and services as the server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/platformkit/identity/internal/app"
	"github.com/platformkit/identity/internal/pkg/config"
	"github.com/platformkit/identity/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "identityctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" {
		usage(os.Stdout)
		return nil
	}

	cfg := config.Load()
	logger.Init(logger.Options{Level: "warn", Pretty: true, Output: os.Stderr, Service: "identityctl"})

	a, err := app.New(ctx, cfg, logger.For("cli"))
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	c := &cli{admin: a.Admin, audit: a.Audit, out: os.Stdout}
	return c.dispatch(ctx, args)
}
