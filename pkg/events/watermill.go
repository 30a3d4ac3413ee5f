// Package events provides the domain-event EventBus built on Watermill.
//
// Two transports are supported:
//   - channel (default): an in-process gochannel pub/sub. Subscribers run in
//     the API process; nothing survives a restart.
//   - postgres: Watermill's SQL transport. Subscribers share a ConsumerGroup
//     (<service>-consumer), so each message is processed by one instance; the
//     worker binary consumes from here.
//
// Handlers should be idempotent. On failure a message is retried up to 3 times
// with exponential backoff and then Nacked.
//
// OTel context propagation: trace context is injected into message metadata on Publish
// and extracted in Subscribe, so handler spans join the publishing request's trace.
package events

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ghuser/supplytrack/pkg/config"
	"github.com/ghuser/supplytrack/pkg/logger"
)

const (
	maxRetries      = 3
	retryBaseDelay  = time.Second
	shutdownTimeout = 30 * time.Second
	channelBuffer   = 256
)

// EventBus publishes and delivers domain events over the configured transport.
type EventBus struct {
	driver     string
	publisher  message.Publisher
	subscriber message.Subscriber
	db         *sql.DB // nil for the channel driver
	log        logger.Logger
	metrics    *busMetrics
	wg         sync.WaitGroup
}

type busMetrics struct {
	published metric.Int64Counter
	failed    metric.Int64Counter
}

// newBusMetrics registers the bus counters on the global meter provider,
// falling back to no-ops if registration fails.
func newBusMetrics() *busMetrics {
	meter := otel.Meter("github.com/ghuser/supplytrack/pkg/events")
	m := &busMetrics{}
	var err error
	if m.published, err = meter.Int64Counter("events.published",
		metric.WithDescription("Messages handed to the transport")); err != nil {
		m.published = noop.Int64Counter{}
	}
	if m.failed, err = meter.Int64Counter("events.handler_failures",
		metric.WithDescription("Messages Nacked after exhausting retries")); err != nil {
		m.failed = noop.Int64Counter{}
	}
	return m
}

// NewEventBus builds the bus named by cfg.EventsDriver.
func NewEventBus(cfg *config.Config, log logger.Logger) (*EventBus, error) {
	switch cfg.EventsDriver {
	case config.EventsDriverChannel, "":
		return NewChannelEventBus(log), nil
	case config.EventsDriverPostgres:
		return newSQLEventBus(cfg, log)
	default:
		return nil, fmt.Errorf("events: unknown driver %q", cfg.EventsDriver)
	}
}

// NewChannelEventBus returns an in-process bus. Messages published before a
// topic has subscribers are dropped.
func NewChannelEventBus(log logger.Logger) *EventBus {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: channelBuffer,
	}, watermill.NewSlogLogger(log.ToSlog()))
	return &EventBus{
		driver:     config.EventsDriverChannel,
		publisher:  pubSub,
		subscriber: pubSub,
		log:        log,
		metrics:    newBusMetrics(),
	}
}

// newSQLEventBus opens a database connection from cfg.DatabaseURL and
// initializes a Watermill SQL publisher and subscriber. Schema tables are
// created automatically on first use.
func newSQLEventBus(cfg *config.Config, log logger.Logger) (*EventBus, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("events: open db: %w", err)
	}

	wlog := watermill.NewSlogLogger(log.ToSlog())

	pub, err := watermillsql.NewPublisher(
		db,
		watermillsql.PublisherConfig{
			SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
			AutoInitializeSchema: true,
		},
		wlog,
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("events: new publisher: %w", err)
	}

	sub, err := watermillsql.NewSubscriber(
		db,
		watermillsql.SubscriberConfig{
			SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
			OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
			InitializeSchema: true,
			ConsumerGroup:    cfg.ServiceName + "-consumer",
		},
		wlog,
	)
	if err != nil {
		_ = pub.Close()
		_ = db.Close()
		return nil, fmt.Errorf("events: new subscriber: %w", err)
	}

	return &EventBus{
		driver:     config.EventsDriverPostgres,
		publisher:  pub,
		subscriber: sub,
		db:         db,
		log:        log,
		metrics:    newBusMetrics(),
	}, nil
}

// Driver names the transport in use.
func (q *EventBus) Driver() string {
	return q.driver
}

// Publish sends one or more messages to the given topic.
// OTel trace context from ctx is injected into each message's metadata so
// the receiving subscriber can restore the trace and continue the span tree.
func (q *EventBus) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for _, msg := range msgs {
		for k, v := range carrier {
			msg.Metadata.Set(k, v)
		}
	}
	if err := q.publisher.Publish(topic, msgs...); err != nil { //nolint:contextcheck
		return fmt.Errorf("events: publish to %s: %w", topic, err)
	}
	q.metrics.published.Add(ctx, int64(len(msgs)), metric.WithAttributes(attribute.String("topic", topic)))
	return nil
}

// Subscribe registers handler to process messages from topic asynchronously.
// The handler receives a context with the publisher's OTel trace restored from
// message metadata.
//
// Ack/Nack is managed by the bus:
//   - handler returns nil   → Ack (message consumed)
//   - handler returns error → retried up to 3× with exponential backoff (1s, 2s, 4s)
//   - all retries exhausted → Nack + error forwarded to the returned channel
//
// The returned error channel is buffered (capacity 100). Callers must drain it.
// All in-flight handlers complete before Close() returns.
func (q *EventBus) Subscribe(ctx context.Context, topic string, handler func(context.Context, *message.Message) error) (<-chan error, error) {
	ch, err := q.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe to %s: %w", topic, err)
	}

	errCh := make(chan error, 100)
	propagator := otel.GetTextMapPropagator()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer close(errCh)

		for msg := range ch {
			carrier := propagation.MapCarrier{}
			for k, v := range msg.Metadata {
				carrier[k] = v
			}
			msgCtx := propagator.Extract(ctx, carrier)

			if err := retryWithBackoff(msgCtx, msg, handler, maxRetries, retryBaseDelay, q.log); err != nil {
				msg.Nack()
				q.metrics.failed.Add(msgCtx, 1, metric.WithAttributes(attribute.String("topic", topic)))
				select {
				case errCh <- err:
				default:
					q.log.ErrorContext(msgCtx, "events: error channel full, dropping error",
						"error", err, "topic", topic)
				}
			} else {
				msg.Ack()
			}
		}
	}()

	return errCh, nil
}

// retryWithBackoff calls handler up to maxRetries times with exponential backoff.
// Returns nil on first success; returns the last error after all retries exhaust.
func retryWithBackoff(
	ctx context.Context,
	msg *message.Message,
	handler func(context.Context, *message.Message) error,
	maxRetries int,
	baseDelay time.Duration,
	log logger.Logger,
) error {
	delay := baseDelay
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		if attempt < maxRetries {
			log.WarnContext(ctx, "events: handler failed, retrying",
				"attempt", attempt,
				"max_retries", maxRetries,
				"next_delay", delay,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return fmt.Errorf("events: handler failed after %d retries: %w", maxRetries, err)
}

// Ping checks the transport's health. The channel driver is always healthy.
func (q *EventBus) Ping(ctx context.Context) error {
	if q.db == nil {
		return nil
	}
	if err := q.db.PingContext(ctx); err != nil {
		return fmt.Errorf("events: ping db: %w", err)
	}
	return nil
}

// Close gracefully shuts down the EventBus.
// Shutdown order: stop subscriber → wait for in-flight handlers (30 s max)
// → close publisher → close database connection.
func (q *EventBus) Close() error {
	if err := q.subscriber.Close(); err != nil {
		return fmt.Errorf("events: close subscriber: %w", err)
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	select {
	case <-done:
	case <-ctx.Done():
		q.log.Error("events: timed out waiting for in-flight handlers to complete")
	}

	// gochannel uses one value for both sides; closing it twice is a no-op.
	if err := q.publisher.Close(); err != nil {
		return fmt.Errorf("events: close publisher: %w", err)
	}
	if q.db == nil {
		return nil
	}
	return q.db.Close()
}
