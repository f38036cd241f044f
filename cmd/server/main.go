// Command server runs the identity HTTP API.
//
//	@title						Identity API
//	@version					1.0
//	@description				Signup, login, password reset, profile and tenant role administration.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platformkit/identity/internal/api"
	"github.com/platformkit/identity/internal/api/handler"
	"github.com/platformkit/identity/internal/app"
	"github.com/platformkit/identity/internal/core/service"
	"github.com/platformkit/identity/internal/infrastructure/geo"
	"github.com/platformkit/identity/internal/infrastructure/queue"
	"github.com/platformkit/identity/internal/pkg/config"
	"github.com/platformkit/identity/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "identity: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.Load()
	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "identity",
	})
	log := logger.For("server")

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	publisher := queue.NewMailPublisher(cfg.Mail.AMQPURL, cfg.Mail.Queue, logger.For("mail_publisher"))
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("mail publisher close failed")
		}
	}()

	// Workers outlive the request context so queued mail drains on shutdown.
	dispatcher := queue.NewMailDispatcher(cfg.Mail.Workers, publisher, logger.For("mail_dispatcher"))
	dispatcher.Start(context.Background())
	defer dispatcher.Close()

	auth := service.NewAuthService(service.AuthDeps{
		Store:    a.Store,
		Sessions: a.Sessions,
		Tokens:   a.Tokens,
		Hasher:   a.Hasher,
		Mail:     dispatcher,
		Geo:      geo.NewLocator(geo.Config{APIURI: cfg.Geo.APIURI, Timeout: cfg.Geo.Timeout}, logger.For("geo")),
		Audit:    a.Audit,
		Links: service.Links{
			BaseURL:        cfg.BaseURL,
			DeepLinkScheme: cfg.DeepLink.Scheme,
			DeepLinkHost:   cfg.DeepLink.Host,
		},
		Log: logger.For("auth"),
	})

	e := api.NewRouter(api.Deps{
		Auth:    auth,
		Profile: a.Profile,
		Admin:   a.Admin,
		Authn:   a.Gate,
		Roles:   a.Ledger,
		Checks: map[string]handler.Check{
			"postgres": a.Store.Ping,
			"redis":    a.Cache.Ping,
			"mongodb":  func(ctx context.Context) error { return a.Mongo.Ping(ctx, nil) },
		},
		Log: logger.For("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
