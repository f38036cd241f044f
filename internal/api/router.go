package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/platformkit/identity/docs"
	"github.com/platformkit/identity/internal/api/handler"
	"github.com/platformkit/identity/internal/api/middleware"
	"github.com/platformkit/identity/internal/core/domain"
	"github.com/platformkit/identity/internal/core/ports"
)

// Deps are the services and probes the router mounts.
type Deps struct {
	Auth    ports.AuthService
	Profile ports.ProfileService
	Admin   ports.AdminService
	Authn   ports.Authenticator
	Roles   ports.RoleReader
	Checks  map[string]handler.Check
	Log     zerolog.Logger
	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: d.Registerer,
	}))

	authn := middleware.Auth(d.Authn)
	adminOnly := []echo.MiddlewareFunc{authn, middleware.RBAC(d.Roles, domain.RoleAdmin)}

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth)
	e.POST("/signup", authHandler.Signup)
	e.GET("/confirm/:token", authHandler.Confirm)
	e.POST("/login", authHandler.Login)
	e.POST("/password_reset", authHandler.RequestPasswordReset)
	e.PUT("/password/:token", authHandler.ChangePassword)

	// --- Profile routes (bearer token required) ---
	profileHandler := handler.NewProfileHandler(d.Profile)
	profile := e.Group("/profile", authn)
	profile.GET("/me", profileHandler.Me)
	profile.PUT("/password", profileHandler.ChangePassword)
	profile.PATCH("/user", profileHandler.Update)
	profile.DELETE("/user", profileHandler.Delete)

	// --- Administration (admin role required) ---
	adminHandler := handler.NewAdminHandler(d.Admin)
	e.GET("/users", adminHandler.ListUsers, adminOnly...)
	e.PUT("/users/:id/type", adminHandler.SetUserType, adminOnly...)
	e.POST("/users/:id/roles", adminHandler.AddRoles, adminOnly...)
	e.DELETE("/users/:id/roles", adminHandler.RemoveRoles, adminOnly...)
	e.POST("/companies", adminHandler.CreateCompany, adminOnly...)
	e.GET("/companies", adminHandler.ListCompanies, adminOnly...)
	e.DELETE("/companies/:id", adminHandler.DeleteCompany, adminOnly...)
	e.PUT("/companies/:id/users/:user_id", adminHandler.SetCompanyRoles, adminOnly...)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
