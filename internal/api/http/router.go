package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kidsact/admin-console/internal/api/http/handlers"
	"github.com/kidsact/admin-console/internal/auth"
	"github.com/kidsact/admin-console/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	AdminTickets   *handlers.AdminTicketsHandler
	Users          *handlers.UsersHandler
	Reference      *handlers.ReferenceHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	authenticated := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAnyRole()}
	app.Get("/me", append(authenticated, cfg.Users.Me)...)
	app.Post("/tickets", append(authenticated, cfg.Tickets.SubmitTicket)...)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/tickets", cfg.AdminTickets.ListTickets)
	admin.Get("/tickets/:id", cfg.AdminTickets.GetTicket)
	admin.Post("/tickets/:id/review", cfg.AdminTickets.ReviewTicket)
	admin.Get("/tickets/:id/history", cfg.AdminTickets.History)
	admin.Get("/organizations", cfg.Reference.Organizations)
	admin.Get("/feedback-labels", cfg.Reference.FeedbackLabels)
	admin.Get("/users", cfg.Users.Lookup)
	admin.Patch("/users/:id/role", cfg.Users.ChangeRole)
}
