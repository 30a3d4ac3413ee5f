// Package subscribers holds the item context's domain event consumers. The
// API process registers them in-process on the channel bus; cmd/worker
// registers them against the Postgres bus.
package subscribers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/supplytrack/pkg/app"
	"github.com/ghuser/supplytrack/pkg/cache"
	"github.com/ghuser/supplytrack/pkg/logger"
	itemEvents "github.com/ghuser/supplytrack/services/item/domain/events"
)

// Register subscribes the item handlers to every item topic. Subscriptions
// end when ctx is cancelled or the bus is closed.
func Register(ctx context.Context, a *app.Application) error {
	handler := HandleItemChanged(a.Logger, cache.NewItemCache(a.Redis))

	for _, topic := range itemEvents.Topics {
		errCh, err := a.EventBus.Subscribe(ctx, topic, handler)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}

		// Drain subscriber errors in background so the channel never blocks.
		go func(topic string) {
			for err := range errCh {
				a.Logger.ErrorContext(ctx, "subscriber error",
					"topic", topic,
					"error", err,
				)
			}
		}(topic)
	}

	a.Logger.Info("event subscribers registered", "topics", itemEvents.Topics, "driver", a.EventBus.Driver())
	return nil
}

// HandleItemChanged returns a handler for every item topic. It writes one
// audit line per event and refreshes the Redis read model from the item
// carried in the payload. itemCache may be nil.
//
// Handlers must be idempotent: EventBus retries up to 3x on failure.
func HandleItemChanged(log logger.Logger, itemCache *cache.ItemCache) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var evt itemEvents.ItemChangedEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			// A payload that does not decode never will; retrying is pointless.
			log.ErrorContext(ctx, "discarding undecodable item event",
				"message_uuid", msg.UUID, "error", err)
			return nil
		}

		log.InfoContext(ctx, "item audit",
			"topic", evt.Topic,
			"event_id", evt.EventID,
			"item_id", evt.ItemID,
			"event_type", evt.EventType,
			"event_count", evt.EventCount,
			"occurred_at", evt.OccurredAt,
		)

		if itemCache == nil || evt.Item.ID == "" {
			return nil
		}
		// Topics are delivered independently, so an older event can arrive
		// after a newer one. SetIfNewer keeps the fresher cached copy.
		if _, err := itemCache.SetIfNewer(ctx, evt.Item.ID, evt.Item.UpdatedAt, evt.Item); err != nil {
			// Cache warming is best-effort; log but do not fail the handler.
			log.WarnContext(ctx, "cache warm failed", "item_id", evt.ItemID, "error", err)
		}
		return nil
	}
}
