package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"bazi-backend/internal/admin"
	"bazi-backend/internal/auth"
	"bazi-backend/internal/config"
	"bazi-backend/internal/engine"
	"bazi-backend/internal/importer"
	"bazi-backend/internal/instrument"
	"bazi-backend/internal/logging"
	"bazi-backend/internal/rules"
	"bazi-backend/internal/storage"
	"bazi-backend/internal/store"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	// 2. Install the configured logger
	handler, err := logging.CreateHandlerWithStrings(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		slog.Error("log setup failed", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("config loaded", "port", cfg.Server.Port, "driver", cfg.Database.Driver, "db", cfg.Database.Name)

	// 3. Connect to database
	s, err := store.New(ctx, cfg.Database)
	if err != nil {
		slog.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	// 4. Bootstrap system tables and the admin account
	if err := s.Bootstrap(ctx); err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	if err := s.SeedAdminUser(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		slog.Error("admin seed failed", "error", err)
		os.Exit(1)
	}

	// 5. Load the rule registry. An empty store is fine; rules arrive
	// through the importer later.
	reg := rules.NewRegistry()
	if err := rules.LoadAll(ctx, s, reg); err != nil {
		slog.Error("rule load failed", "error", err)
		os.Exit(1)
	}
	slog.Info("rules loaded", "count", reg.Len(), "version", reg.Version())

	// 6. Create Fiber app. The body limit must admit a full rule
	// workbook upload.
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	// 7. Request instrumentation
	var buffer *instrument.EventBuffer
	if cfg.Instrumentation.Enabled {
		buffer = instrument.NewEventBuffer(s.DB, s.Dialect, cfg.Instrumentation.BufferSize, cfg.Instrumentation.FlushIntervalMs)
		defer buffer.Stop()
	}
	app.Use(instrument.Middleware(cfg.Instrumentation, buffer, func(c *fiber.Ctx) string {
		if u := auth.GetUser(c); u != nil {
			return u.ID
		}
		return ""
	}))

	// 8. Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "rule_version": reg.Version()})
	})

	// 9. Auth routes (before middleware, no token required)
	authHandler := auth.NewHandler(s, cfg.Auth.JWTSecret)
	auth.RegisterRoutes(app, authHandler)

	authMW := auth.Require(cfg.Auth.JWTSecret)
	adminMW := auth.RequireAdmin()

	// 10. Chart matching routes (token required). Registered before the
	// admin rule group so /api/rules/preview stays token-scoped.
	engineHandler := engine.NewHandler(reg)
	engine.RegisterMatchRoutes(app, engineHandler, authMW)

	// 11. Rule administration routes (admin required)
	im := importer.New(s, reg, cfg.Import.Workers, cfg.Import.ChunkSize, cfg.Import.DefaultPriority)
	archive := storage.NewLocalStorage(cfg.Storage.LocalPath)
	adminHandler := admin.NewHandler(s, reg, im, archive)
	admin.RegisterRuleRoutes(app, adminHandler, authMW, adminMW)

	// 12. Event routes
	eventHandler := instrument.NewEventHandler(s.DB, s.Dialect)
	instrument.RegisterEventRoutes(app, eventHandler, authMW, adminMW)

	// 13. Start the rule refresher
	refresher := engine.NewRefresher(s, reg, 0)
	refresher.Start()
	defer refresher.Stop()

	// 14. Start event retention cleanup
	if cfg.Instrumentation.Enabled {
		cleanup := instrument.NewCleanupScheduler(s.DB, s.Dialect, cfg.Instrumentation.RetentionDays)
		cleanup.Start()
		defer cleanup.Stop()
	}

	// 15. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("server listening", "addr", addr)
	if err := app.Listen(addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	var appErr *engine.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(engine.ErrorResponse{Error: appErr})
	}

	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	if code >= fiber.StatusInternalServerError {
		logging.WithContext(c.UserContext()).Error("request failed", "error", err, "method", c.Method(), "path", c.Path())
	}
	return c.Status(code).JSON(engine.ErrorResponse{
		Error: &engine.AppError{
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		},
	})
}
