// Package app connects the storage backends and builds the core services
// shared by the HTTP server and the operator CLI.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/platformkit/identity/internal/core/service"
	"github.com/platformkit/identity/internal/infrastructure/db/mongo"
	"github.com/platformkit/identity/internal/infrastructure/db/postgres"
	"github.com/platformkit/identity/internal/infrastructure/db/redis"
	"github.com/platformkit/identity/internal/pkg/config"
	"github.com/platformkit/identity/internal/pkg/credential"
)

// App owns the connections. Close releases them in reverse order.
type App struct {
	Config *config.Config

	Pool  *pgxpool.Pool
	Redis *goredis.Client
	Mongo *mongodriver.Client

	Store    *postgres.Store
	Cache    *redis.TokenCache
	Audit    *mongo.AuditRepository
	Hasher   *credential.Codec
	Sessions *service.SessionStore
	Tokens   *service.TemporaryTokenStore
	Ledger   *service.RoleLedger
	Gate     *service.Gate

	Profile *service.ProfileService
	Admin   *service.AdminService

	log zerolog.Logger
}

// New connects PostgreSQL, Redis and MongoDB, applies the schema and
// builds every service that does not need the mail pipeline.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, log: log}

	pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL})
	if err != nil {
		return nil, err
	}
	a.Pool = pool
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Redis = rdb

	mc, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Mongo = mc

	a.Audit = mongo.NewAuditRepository(db)
	if err := a.Audit.EnsureIndexes(ctx); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("audit indexes: %w", err)
	}

	a.Store = postgres.NewStore(pool)
	a.Cache = redis.NewTokenCache(rdb)
	a.Hasher = credential.New(hashParams(cfg.Argon2))
	a.Sessions = service.NewSessionStore(a.Cache)
	a.Tokens = service.NewTemporaryTokenStore(a.Cache)
	a.Ledger = service.NewRoleLedger(a.Store)
	a.Gate = service.NewGate(a.Sessions, a.Store)
	a.Profile = service.NewProfileService(a.Store, a.Ledger, a.Hasher, a.Audit, log.With().Str("component", "profile").Logger())
	a.Admin = service.NewAdminService(a.Store, a.Ledger, a.Hasher, a.Audit, log.With().Str("component", "admin").Logger())

	return a, nil
}

// Close is safe on a partially built App.
func (a *App) Close(ctx context.Context) {
	if a.Mongo != nil {
		if err := a.Mongo.Disconnect(ctx); err != nil {
			a.log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("redis close failed")
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// hashParams maps the env overrides; zero fields keep the codec defaults.
func hashParams(c config.Argon2Config) credential.Params {
	return credential.Params{
		MemoryKiB:   c.MemoryKiB,
		Iterations:  c.Iterations,
		Parallelism: c.Parallelism,
	}
}
