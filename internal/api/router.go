package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/ourpoint/fisher-accounts/docs"
	"github.com/ourpoint/fisher-accounts/internal/api/handler"
	"github.com/ourpoint/fisher-accounts/internal/api/middleware"
	"github.com/ourpoint/fisher-accounts/internal/core/domain"
	"github.com/ourpoint/fisher-accounts/internal/core/ports"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Accounts        ports.AccountService
	Auth            ports.AuthService
	JWTSecret       string
	ReadinessChecks map[string]handler.Check
	Log             zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("accounts_http"))

	// --- Dependencies ---
	accountHandler := handler.NewAccountHandler(deps.Accounts)
	authHandler := handler.NewAuthHandler(deps.Auth)
	authMiddleware := middleware.Auth(deps.JWTSecret)

	v1 := e.Group("/v1")

	// --- Public routes ---
	v1.POST("/accounts", accountHandler.Register)
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/refresh", authHandler.Refresh)
	v1.POST("/auth/logout", authHandler.Logout)

	// --- Authenticated routes ---
	accounts := v1.Group("/accounts", authMiddleware)
	accounts.GET("", accountHandler.Lookup)
	accounts.PATCH("/me/name", accountHandler.Rename)
	accounts.PATCH("/me/password", accountHandler.ChangePassword)
	accounts.DELETE("/me", accountHandler.Remove)
	accounts.GET("/:id", accountHandler.Get)

	admin := v1.Group("/admin", authMiddleware, middleware.RequireRole(domain.RoleAdmin))
	admin.PUT("/accounts/:name/role", accountHandler.ElevateRole)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.ReadinessChecks)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
