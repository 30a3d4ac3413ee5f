// Package persistence selects and opens the item snapshot store for the
// configured driver.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/ghuser/supplytrack/pkg/config"
	"github.com/ghuser/supplytrack/pkg/database"
	"github.com/ghuser/supplytrack/pkg/logger"
	"github.com/ghuser/supplytrack/services/item/infrastructure/persistence/postgres"
	"github.com/ghuser/supplytrack/services/item/infrastructure/persistence/s3"
	"github.com/ghuser/supplytrack/services/item/infrastructure/persistence/snapshot"
)

// NewBackend returns the snapshot backend named by cfg.SnapshotDriver.
// db is required only by the postgres driver.
func NewBackend(ctx context.Context, cfg *config.Config, db *database.Database) (snapshot.Backend, error) {
	switch cfg.SnapshotDriver {
	case config.SnapshotDriverFile, "":
		return snapshot.NewFileBackend(cfg.SnapshotPath), nil
	case config.SnapshotDriverPostgres:
		if db == nil {
			return nil, errors.New("postgres snapshot driver requires a database connection")
		}
		return postgres.NewSnapshotBackend(db), nil
	case config.SnapshotDriverS3:
		b, err := s3.New(ctx, s3.Config{
			Bucket:          cfg.S3Bucket,
			Key:             cfg.S3Key,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 snapshot backend: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown snapshot driver %q", cfg.SnapshotDriver)
	}
}

// OpenStore builds the configured backend and opens the item store on it.
// The returned store is the single instance for the process.
func OpenStore(ctx context.Context, cfg *config.Config, db *database.Database, log logger.Logger) (*snapshot.Store, error) {
	backend, err := NewBackend(ctx, cfg, db)
	if err != nil {
		return nil, err
	}
	return snapshot.Open(ctx, backend,
		snapshot.WithLogger(log),
		snapshot.WithMeter(otel.Meter(cfg.ServiceName)),
	)
}
