package snapshot

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/ghuser/supplytrack/services/item/snapshot"

type storeMetrics struct {
	persists      metric.Int64Counter
	failures      metric.Int64Counter
	snapshotBytes metric.Int64Histogram
	saveLatency   metric.Float64Histogram
}

// newStoreMetrics registers the store instruments on meter. Registration
// errors fall back to no-op instruments; metrics never block persistence.
func newStoreMetrics(meter metric.Meter) *storeMetrics {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	m := &storeMetrics{}
	var err error
	if m.persists, err = meter.Int64Counter("item_store.persist.count",
		metric.WithDescription("Snapshots successfully persisted")); err != nil {
		m.persists = noop.Int64Counter{}
	}
	if m.failures, err = meter.Int64Counter("item_store.persist.failures",
		metric.WithDescription("Snapshot saves that failed")); err != nil {
		m.failures = noop.Int64Counter{}
	}
	if m.snapshotBytes, err = meter.Int64Histogram("item_store.snapshot.bytes",
		metric.WithDescription("Size of each persisted snapshot"),
		metric.WithUnit("By")); err != nil {
		m.snapshotBytes = noop.Int64Histogram{}
	}
	if m.saveLatency, err = meter.Float64Histogram("item_store.persist.duration",
		metric.WithDescription("Time spent in Backend.Save"),
		metric.WithUnit("ms")); err != nil {
		m.saveLatency = noop.Float64Histogram{}
	}
	return m
}

func (m *storeMetrics) record(ctx context.Context, op, driver string, size int, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("driver", driver),
	)
	m.saveLatency.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	if err != nil {
		m.failures.Add(ctx, 1, attrs)
		return
	}
	m.persists.Add(ctx, 1, attrs)
	m.snapshotBytes.Record(ctx, int64(size), attrs)
}
