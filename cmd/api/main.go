package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/ghuser/supplytrack/docs/swagger"
	itemMigrations "github.com/ghuser/supplytrack/migrations/item"
	"github.com/ghuser/supplytrack/pkg/app"
	"github.com/ghuser/supplytrack/pkg/cache"
	"github.com/ghuser/supplytrack/pkg/config"
	"github.com/ghuser/supplytrack/pkg/database"
	"github.com/ghuser/supplytrack/pkg/events"
	"github.com/ghuser/supplytrack/pkg/httpx"
	"github.com/ghuser/supplytrack/pkg/logger"
	"github.com/ghuser/supplytrack/pkg/migrator"
	"github.com/ghuser/supplytrack/pkg/telemetry"
	itemApi "github.com/ghuser/supplytrack/services/item/application/api"
	itemSubscribers "github.com/ghuser/supplytrack/services/item/application/subscribers"
	"github.com/ghuser/supplytrack/services/item/infrastructure/persistence"
)

// @title			Supply Chain Item Tracker API
// @version		1.0
// @description	Tracks supply-chain items and their append-only event history.
// @contact.name	API Support
// @license.name	MIT
// @license.url	https://opensource.org/licenses/MIT
// @host			localhost:3000
// @BasePath		/api
// @schemes		http https
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)

	// Telemetry: OTel tracing + metrics
	ctx := context.Background()
	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(ctx) //nolint:errcheck

	// Crash reporting: Sentry (optional, log and continue on failure)
	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	var db *database.Database
	if cfg.SnapshotDriver == config.SnapshotDriverPostgres {
		db, err = database.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			os.Exit(1) //nolint:gocritic // intentional: startup failure, deferred flushes are best-effort
		}
		defer db.Close() //nolint:errcheck
		log.Info("database pool connected")

		if cfg.AutoMigrate {
			if err := migrator.Up(ctx, db.DB(), itemMigrations.FS); err != nil {
				log.Error("failed to apply migrations", "error", err)
				os.Exit(1) //nolint:gocritic
			}
			log.Info("migrations applied")
		}
	}

	store, err := persistence.OpenStore(ctx, cfg, db, log)
	if err != nil {
		log.Error("failed to open item store", "driver", cfg.SnapshotDriver, "error", err)
		os.Exit(1) //nolint:gocritic
	}
	log.Info("item store ready", "driver", store.Driver(), "items", store.Len())

	if err := telemetry.RegisterItemGauge(cfg.ServiceName, store); err != nil {
		log.Warn("item gauge not registered", "error", err)
	}

	eventBus, err := events.NewEventBus(cfg, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	redisClient, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer redisClient.Close() //nolint:errcheck
	if redisClient != nil {
		log.Info("redis connected")
	}

	appConfig := &app.Application{
		Config:   cfg,
		Store:    store,
		Db:       db,
		Logger:   log,
		EventBus: eventBus,
		Redis:    redisClient,
	}

	// With the in-process bus nothing outside this process can consume the
	// events, so the subscribers run here. The postgres bus leaves them to cmd/worker.
	subCtx, cancelSubs := context.WithCancel(ctx)
	defer cancelSubs()
	if eventBus.Driver() == config.EventsDriverChannel {
		if err := itemSubscribers.Register(subCtx, appConfig); err != nil {
			log.Error("failed to register subscribers", "error", err)
			os.Exit(1) //nolint:gocritic
		}
	}

	r := httpx.NewRouter(
		httpx.ServerConfig{
			ServiceName:        cfg.ServiceName,
			IsDevelopment:      cfg.Environment == config.EnvDevelopment,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		},
		httpx.Middlewares{
			Recovery: logger.Recovery(log),
			Sentry:   telemetry.SentryMiddleware(),
			Otel:     otelhttp.NewMiddleware(cfg.ServiceName),
			Logger:   logger.Middleware(log),
		},
	)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		httpx.Text(w, http.StatusOK, "Supply Chain Item Tracker API")
	})
	r.Get("/health", httpx.HealthHandler(healthChecks(appConfig)...))
	r.Get("/metrics", metricsHandler.ServeHTTP)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Route("/api", func(r chi.Router) {
		registerRoutes(r, appConfig)
	})

	srv := httpx.NewServer(cfg.HTTPAddr, r)

	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// healthChecks lists the dependencies probed by /health. Optional ones that
// are not configured are reported as disabled.
func healthChecks(a *app.Application) []httpx.HealthCheck {
	checks := []httpx.HealthCheck{
		{Name: "store", Checker: a.Store},
		{Name: "event_bus", Checker: a.EventBus},
		{Name: "redis"},
		{Name: "database"},
	}
	if a.Redis != nil {
		checks[2].Checker = a.Redis
	}
	if a.Db != nil {
		checks[3].Checker = a.Db
	}
	return checks
}

// registerRoutes mounts all service routes under /api.
// Add each new service's route function here.
func registerRoutes(r chi.Router, a *app.Application) {
	itemApi.ItemRoutes(r, a)
}
