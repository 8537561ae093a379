package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"wardrobe/internal/bgremoval"
	"wardrobe/internal/cache"
	"wardrobe/internal/config"
	"wardrobe/internal/database"
	"wardrobe/internal/database/migration"
	handlers "wardrobe/internal/http/handler"
	"wardrobe/internal/http/middleware"
	"wardrobe/internal/logging"
	appotel "wardrobe/internal/otel"
	"wardrobe/internal/repository/postgres"
	"wardrobe/internal/service"
	"wardrobe/internal/session"
	"wardrobe/internal/storage"
	"wardrobe/internal/upload"
)

// @title Wardrobe API
// @version 1.0
// @BasePath /
func main() {
	boot := logging.New(os.Stdout, time.UTC).With("main")

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg, err := config.Load()
	if err != nil {
		fatal(boot, "config_load_failed", err)
	}
	logger := logging.New(os.Stdout, cfg.Location())
	log := logger.With("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := appotel.Init(ctx, logger)
	if err != nil {
		fatal(log, "tracing_init_failed", err)
	}

	db, err := database.NewPostgres(ctx, cfg.Database, logger)
	if err != nil {
		fatal(log, "db_connect_failed", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
		fatal(log, "db_migration_failed", err)
	}

	objStore, err := storage.New(ctx, cfg)
	if err != nil {
		fatal(log, "storage_init_failed", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	queryCache := cache.New(reg)

	itemRepo := postgres.NewClothingItemPostgres(db)
	userRepo := postgres.NewUserPostgres(db)
	authSvc := service.NewAuthService(userRepo, logger)

	tokens, err := session.NewTokenStore(cfg.Session)
	if err != nil {
		fatal(log, "session_store_init_failed", err)
	}
	holder, err := session.NewHolder(tokens, authSvc, cfg.Session, logger)
	if err != nil {
		fatal(log, "session_init_failed", err)
	}
	// Another user's cached views must never be served after a switch.
	holder.Subscribe(func(session.Session) { queryCache.InvalidateAll() })
	if _, err := holder.Restore(ctx); err != nil {
		log.Warn("session_restore_failed", map[string]any{"error": err})
	}

	pipeline := upload.NewPipeline(objStore, cfg.Upload, logger)
	remover := bgremoval.NewClient(cfg.BackgroundRemoval, nil)
	itemSvc := service.NewClothingService(itemRepo, pipeline, objStore, remover, queryCache, logger)

	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		fatal(log, "metrics_init_failed", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger))
	app.Use(promMW.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:       db,
		Items:    itemSvc,
		Auth:     authSvc,
		Sessions: holder,
		Remover:  remover,
		Metrics:  reg,
		Log:      logger,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", handlers.SwaggerDocs(cfg.AppHost))

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("server_shutdown_failed", map[string]any{"error": err})
		}
	}()

	addr := ":" + cfg.Port
	log.Info("server_starting", map[string]any{"addr": addr, "storage_driver": cfg.Storage.Driver, "session_store": cfg.Session.Store})
	if err := app.Listen(addr); err != nil {
		fatal(log, "server_start_failed", err)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Error("tracing_shutdown_failed", map[string]any{"error": err})
	}
	log.Info("server_stopped", nil)
}

func fatal(log *logging.Logger, event string, err error) {
	log.Error(event, map[string]any{"error": err})
	os.Exit(1)
}
