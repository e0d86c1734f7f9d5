package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/groovoo/service-desk/internal/api/http/handlers"
	"github.com/groovoo/service-desk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Dashboard      *handlers.DashboardHandler
	Tickets        *handlers.TicketsHandler
	Export         *handlers.ExportHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Users.Logout)

	app.Get("/dashboard", cfg.AuthMiddleware.Handle, cfg.Dashboard.Dashboard)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/archived", cfg.Tickets.ListArchived)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id", cfg.Tickets.UpdateTicket)
	tickets.Put("/:id", cfg.Tickets.EditTicket)
	tickets.Post("/:id/archive", cfg.Tickets.ArchiveTicket)
	tickets.Post("/:id/reopen", cfg.Tickets.ReopenTicket)
	tickets.Get("/:id/attachments/:attachmentID", cfg.Tickets.DownloadAttachment)

	exports := app.Group("/export", cfg.AuthMiddleware.Handle)
	exports.Get("/csv", cfg.Export.CSV)
	exports.Get("/markdown", cfg.Export.Markdown)
}
