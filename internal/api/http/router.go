package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-hub/internal/api/http/handlers"
	"github.com/spec-kit/ticket-hub/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Lookups        *handlers.LookupsHandler
	Tickets        *handlers.TicketsHandler
	Metrics        fiber.Handler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	app.Post("/auth/agents/login", cfg.Auth.Login)

	lookups := app.Group("/lookups", cfg.AuthMiddleware.Handle)
	lookups.Get("/statuses", cfg.Lookups.ListStatuses)
	lookups.Post("/statuses", cfg.Lookups.CreateStatus)
	lookups.Get("/priorities", cfg.Lookups.ListPriorities)
	lookups.Post("/priorities", cfg.Lookups.CreatePriority)

	workspace := app.Group("/workspaces/:workspaceID",
		cfg.AuthMiddleware.Handle, auth.RequireWorkspace())
	workspace.Get("/tickets", cfg.Tickets.ListTickets)
	workspace.Post("/tickets", cfg.Tickets.CreateTicket)
	workspace.Post("/tickets/materialize", cfg.Tickets.MaterializeTicket)
	workspace.Get("/tickets/:ticketID", cfg.Tickets.GetTicket)
	workspace.Delete("/tickets/:ticketID", cfg.Tickets.DeleteTicket)
	workspace.Post("/tickets/:ticketID/comments", cfg.Tickets.AddComment)
	workspace.Put("/tickets/:ticketID/assignment", cfg.Tickets.UpdateAssignment)
	workspace.Post("/tickets/:ticketID/summarize", cfg.Tickets.SummarizeTicket)
}
