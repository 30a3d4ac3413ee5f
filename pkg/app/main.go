package app

import (
	"github.com/ghuser/supplytrack/pkg/cache"
	"github.com/ghuser/supplytrack/pkg/config"
	"github.com/ghuser/supplytrack/pkg/database"
	"github.com/ghuser/supplytrack/pkg/events"
	"github.com/ghuser/supplytrack/pkg/logger"
	"github.com/ghuser/supplytrack/services/item/infrastructure/persistence/snapshot"
)

// Application holds shared infrastructure dependencies for all services.
// Pass to all service route and subscriber registrations during startup.
//
// Store is the single item store for the process: open it once in main and
// hand this struct around. Nothing else may construct a second one.
//
// Logging: app.Logger is backed by a trace-aware handler; use slog's context methods
// and trace_id, span_id, and request_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "processing item", "item_id", id)
//	app.Logger.ErrorContext(ctx, "failed to save", "error", err)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Config   *config.Config
	Store    *snapshot.Store
	Db       *database.Database // nil unless a postgres driver is configured
	Logger   logger.Logger
	EventBus *events.EventBus
	Redis    *cache.RedisClient // nil when REDIS_URL is empty
}

// IsProduction reports whether the process runs with ENVIRONMENT=production.
func (a *Application) IsProduction() bool {
	return a.Config != nil && a.Config.Environment == config.EnvProduction
}
