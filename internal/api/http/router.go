package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repeat-complaints/internal/api/http/handlers"
	"github.com/spec-kit/repeat-complaints/internal/auth"
	"github.com/spec-kit/repeat-complaints/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Auth           *handlers.AuthHandler
	Analyses       *handlers.AnalysesHandler
	Consensus      *handlers.ConsensusHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Get)

	app.Post("/auth/token", cfg.Auth.Token)

	analyses := app.Group("/analyses", cfg.AuthMiddleware.Handle, auth.RequireRole())
	analyses.Post("/", cfg.Analyses.Create)
	analyses.Post("/upload", cfg.Analyses.Upload)
	analyses.Post("/source", auth.RequireRole(domain.RoleOperator), cfg.Analyses.CreateFromSource)
	analyses.Get("/:id", cfg.Analyses.Get)

	app.Post("/consensus", cfg.AuthMiddleware.Handle, auth.RequireRole(), cfg.Consensus.Resolve)
}
