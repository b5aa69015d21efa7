package engine

import (
	"github.com/gofiber/fiber/v2"

	"bazi-backend/internal/bazi"
	"bazi-backend/internal/compiler"
	"bazi-backend/internal/instrument"
	"bazi-backend/internal/rules"
)

type Handler struct {
	registry *rules.Registry
}

func NewHandler(reg *rules.Registry) *Handler {
	return &Handler{registry: reg}
}

type matchRequest struct {
	Chart      bazi.Chart `json:"chart"`
	Categories []string   `json:"categories"`
}

// MatchCharts handles POST /api/charts/match
func (h *Handler) MatchCharts(c *fiber.Ctx) error {
	var req matchRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, InvalidPayloadError("Invalid JSON body"))
	}

	if err := req.Chart.Complete(); err != nil {
		return respondError(c, ValidationError([]ErrorDetail{
			{Field: "chart", Message: err.Error()},
		}))
	}

	ctx := c.UserContext()
	_, span := instrument.GetInstrumenter(ctx).StartSpan(ctx, "engine", "matcher", "charts.match")
	defer span.End()
	span.SetMetadata("categories", req.Categories)
	span.SetMetadata("rule_version", h.registry.Version())

	matches, err := MatchChart(h.registry, &req.Chart, req.Categories...)
	if err != nil {
		span.SetStatus("error")
		return err
	}
	span.SetMetadata("matches", len(matches))
	span.SetStatus("ok")

	grouped := make(map[string][]Match)
	for _, m := range matches {
		grouped[m.Category] = append(grouped[m.Category], m)
	}

	return c.JSON(fiber.Map{
		"rule_version": h.registry.Version(),
		"total":        len(matches),
		"matches":      grouped,
	})
}

// PreviewRule handles POST /api/rules/preview. It compiles one row and
// returns the outcome without touching the store; a row that fails to
// compile is a normal 200 answer with ok=false, not an HTTP error.
func (h *Handler) PreviewRule(c *fiber.Ctx) error {
	var row compiler.Row
	if err := c.BodyParser(&row); err != nil {
		return respondError(c, InvalidPayloadError("Invalid JSON body"))
	}

	res := compiler.Compile(row)
	if !res.OK {
		return c.JSON(fiber.Map{"ok": false, "reason": res.Reason})
	}
	return c.JSON(fiber.Map{"ok": true, "conditions": res.Tree})
}

func respondError(c *fiber.Ctx, appErr *AppError) error {
	return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
}
