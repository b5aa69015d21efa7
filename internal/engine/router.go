package engine

import "github.com/gofiber/fiber/v2"

// RegisterMatchRoutes mounts chart matching and rule preview. Both need
// a valid token, not an admin role, so callers pass the auth middleware
// only. Must be registered before any admin-gated /api/rules group so
// preview is not shadowed by the admin middleware.
func RegisterMatchRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	api := app.Group("/api", middleware...)

	api.Post("/charts/match", h.MatchCharts)
	api.Post("/rules/preview", h.PreviewRule)
}
