package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/officeflow/attendance-bot/internal/api/http/handlers"
	"github.com/officeflow/attendance-bot/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Auth           *handlers.AuthHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Snapshot)

	app.Post("/auth/token", cfg.Auth.IssueToken)

	reports := app.Group("/reports", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	reports.Get("/:period", cfg.Reports.GetReport)
}
