// Package admin holds the rule administration endpoints: import, list,
// inspect and disable. Everything here runs behind auth; the mutating
// routes need the admin role on top.
package admin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"bazi-backend/internal/compiler"
	"bazi-backend/internal/engine"
	"bazi-backend/internal/importer"
	"bazi-backend/internal/instrument"
	"bazi-backend/internal/logging"
	"bazi-backend/internal/rules"
	"bazi-backend/internal/storage"
	"bazi-backend/internal/store"
)

type Handler struct {
	store    *store.Store
	registry *rules.Registry
	importer *importer.Importer
	archive  *storage.LocalStorage
}

func NewHandler(s *store.Store, reg *rules.Registry, im *importer.Importer, archive *storage.LocalStorage) *Handler {
	return &Handler{store: s, registry: reg, importer: im, archive: archive}
}

// RegisterRuleRoutes mounts the rule admin surface. Version and single
// rule reads take any valid token; list, import and disable sit behind
// the admin middleware. Registration order matters: the token-only
// routes must precede the admin group or its middleware swallows them.
func RegisterRuleRoutes(app *fiber.App, h *Handler, authMW, adminMW fiber.Handler) {
	api := app.Group("/api/rules", authMW)
	api.Get("/version", h.RuleVersion)
	api.Get("/:code", h.GetRule)

	admin := app.Group("/api/rules", authMW, adminMW)
	admin.Get("/", h.ListRules)
	admin.Post("/import", h.ImportRules)
	admin.Delete("/:code", h.DisableRule)
}

// ListRules handles GET /api/rules?category=&enabled=&filter=
func (h *Handler) ListRules(c *fiber.Ctx) error {
	category := c.Query("category")
	enabled := c.Query("enabled")

	recs, err := h.store.ListRules(c.Context(), category, enabled == "true")
	if err != nil {
		return fmt.Errorf("list rules: %w", err)
	}
	if enabled == "false" {
		disabled := make([]rules.Record, 0, len(recs))
		for _, r := range recs {
			if !r.Enabled {
				disabled = append(disabled, r)
			}
		}
		recs = disabled
	}

	if filter := c.Query("filter"); filter != "" {
		recs, err = engine.FilterRules(filter, recs)
		if err != nil {
			var appErr *engine.AppError
			if errors.As(err, &appErr) {
				return respondError(c, appErr)
			}
			return err
		}
	}

	if recs == nil {
		recs = []rules.Record{}
	}
	return c.JSON(fiber.Map{
		"data": recs,
		"meta": fiber.Map{"total": len(recs)},
	})
}

// RuleVersion handles GET /api/rules/version
func (h *Handler) RuleVersion(c *fiber.Ctx) error {
	version, err := h.store.RuleVersion(c.Context())
	if err != nil {
		return fmt.Errorf("rule version: %w", err)
	}
	return c.JSON(fiber.Map{"version": version})
}

// GetRule handles GET /api/rules/:code
func (h *Handler) GetRule(c *fiber.Ctx) error {
	code := c.Params("code")
	rec, err := h.store.GetRule(c.Context(), code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return respondError(c, engine.NotFoundError("rule", code))
		}
		return fmt.Errorf("get rule %s: %w", code, err)
	}
	return c.JSON(fiber.Map{"data": rec})
}

// DisableRule handles DELETE /api/rules/:code. Rules are disabled in
// place, never deleted; the version bump pushes the change to every
// registry replica.
func (h *Handler) DisableRule(c *fiber.Ctx) error {
	code := c.Params("code")
	if err := h.store.SetRuleEnabled(c.Context(), code, false); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return respondError(c, engine.NotFoundError("rule", code))
		}
		return fmt.Errorf("disable rule %s: %w", code, err)
	}
	version, err := h.store.BumpRuleVersion(c.Context())
	if err != nil {
		return fmt.Errorf("bump rule version: %w", err)
	}
	if err := rules.LoadAll(c.Context(), h.store, h.registry); err != nil {
		return fmt.Errorf("reload registry: %w", err)
	}

	ctx := c.UserContext()
	instrument.GetInstrumenter(ctx).EmitBusinessEvent(ctx, "rule.disabled", "", code,
		map[string]any{"version": version})

	return c.JSON(fiber.Map{
		"data": fiber.Map{"code": code, "enabled": false, "version": version},
	})
}

type importRequest struct {
	Rows   []compiler.Row `json:"rows"`
	DryRun bool           `json:"dry_run"`
}

// ImportRules handles POST /api/rules/import. A JSON body carries rows
// inline; a multipart body carries a workbook or yaml file, which is
// archived before parsing. Rows persist unless dry_run is set.
func (h *Handler) ImportRules(c *fiber.Ctx) error {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), "multipart/form-data") {
		return h.importUpload(c)
	}

	var req importRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, engine.InvalidPayloadError("Invalid JSON body"))
	}
	if len(req.Rows) == 0 {
		return respondError(c, engine.InvalidPayloadError("no rows to import"))
	}

	report, err := h.importer.Run(c.Context(), req.Rows, req.DryRun)
	if err != nil {
		return fmt.Errorf("import batch: %w", err)
	}
	h.emitImportEvent(c, report)
	return c.JSON(report)
}

func (h *Handler) importUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return respondError(c, engine.InvalidPayloadError("missing file field"))
	}
	src, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	path, err := h.archive.Save(c.Context(), uuid.New().String(), fileHeader.Filename, src)
	if err != nil {
		return fmt.Errorf("archive upload: %w", err)
	}
	logging.WithContext(c.UserContext()).Info("rule upload archived", "file", fileHeader.Filename, "path", path)

	rows, err := importer.ReadRows(path)
	if err != nil {
		return respondError(c, engine.InvalidPayloadError(err.Error()))
	}
	if len(rows) == 0 {
		return respondError(c, engine.InvalidPayloadError("no rows in file"))
	}

	report, err := h.importer.Run(c.Context(), rows, c.FormValue("dry_run") == "true")
	if err != nil {
		return fmt.Errorf("import batch: %w", err)
	}
	h.emitImportEvent(c, report)
	return c.JSON(report)
}

func (h *Handler) emitImportEvent(c *fiber.Ctx, report importer.Report) {
	ctx := c.UserContext()
	instrument.GetInstrumenter(ctx).EmitBusinessEvent(ctx, "rules.imported", "", "", map[string]any{
		"batch_id":  report.BatchID,
		"total":     report.Total,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"dry_run":   report.DryRun,
	})
}

func respondError(c *fiber.Ctx, appErr *engine.AppError) error {
	return c.Status(appErr.Status).JSON(engine.ErrorResponse{Error: appErr})
}
