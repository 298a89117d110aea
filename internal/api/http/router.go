package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/kheyma/kheyma-service/internal/api/http/handlers"
	"github.com/kheyma/kheyma-service/internal/auth"
	"github.com/kheyma/kheyma-service/internal/domain"
	"github.com/kheyma/kheyma-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Admin   *handlers.AdminHandler
	Metrics *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Authentication already ran in the
// global chain; groups only declare the role they require.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", auth.RequireAuthenticated(), cfg.Auth.Me)
	authGroup.Put("/me", auth.RequireAuthenticated(), cfg.Auth.UpdateMe)

	admin := api.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Get("/users/:id", cfg.Admin.GetUser)
	admin.Put("/users/:id", cfg.Admin.UpdateUser)
	admin.Delete("/users/:id", cfg.Admin.DeleteUser)
	admin.Patch("/users/:id/package", cfg.Admin.UpdatePackage)
	admin.Patch("/users/:id/toggle-status", cfg.Admin.ToggleStatus)
	admin.Patch("/users/:id/make-admin", cfg.Admin.MakeAdmin)
}
