package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	pkgcache "github.com/ghuser/supplytrack/pkg/cache"
	"github.com/ghuser/supplytrack/pkg/logger"
	itemdomain "github.com/ghuser/supplytrack/services/item/domain"
	domainevents "github.com/ghuser/supplytrack/services/item/domain/events"
	"github.com/ghuser/supplytrack/services/item/domain/models"
	"github.com/ghuser/supplytrack/services/item/domain/repositories"
	domainsvcs "github.com/ghuser/supplytrack/services/item/domain/services"
)

// EventPublisher is the slice of events.EventBus the item service needs.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// ListOpts filters and pages List.
type ListOpts = repositories.QueryOpts

// ItemService orchestrates item use cases on top of the item store.
//
// The store is authoritative. Cache refreshes and event publishing happen
// after a mutation is durable and are best-effort: failures are logged and
// never turn a successful mutation into an error.
type ItemService struct {
	repo   repositories.ItemRepository
	cache  *pkgcache.ItemCache
	bus    EventPublisher
	log    logger.Logger
	tracer trace.Tracer
}

// NewItemService returns an ItemService. cache and bus may be nil.
func NewItemService(repo repositories.ItemRepository, itemCache *pkgcache.ItemCache, bus EventPublisher, log logger.Logger) *ItemService {
	if log == nil {
		log = logger.Discard()
	}
	return &ItemService{
		repo:   repo,
		cache:  itemCache,
		bus:    bus,
		log:    log,
		tracer: otel.Tracer("github.com/ghuser/supplytrack/services/item"),
	}
}

// Create validates draft and stores a new item.
func (s *ItemService) Create(ctx context.Context, draft models.ItemDraft) (models.Item, error) {
	ctx, span := s.tracer.Start(ctx, "ItemService.Create")
	defer span.End()

	if err := domainsvcs.ValidateItemDraft(draft); err != nil {
		return models.Item{}, err
	}

	item, err := s.repo.Create(ctx, draft)
	if err != nil {
		return models.Item{}, s.fail(span, fmt.Errorf("create item: %w", err))
	}
	span.SetAttributes(attribute.String("item.id", item.ID))

	s.refreshCache(ctx, item)
	s.publish(ctx, domainevents.TopicItemCreated, item, nil)
	return item, nil
}

// GetByID retrieves an Item using a read-through cache pattern:
//  1. Check Redis cache first.
//  2. On cache miss (or cache error), read the store.
//  3. Warm the cache with the store result, unless a concurrent mutation
//     has already cached something newer.
func (s *ItemService) GetByID(ctx context.Context, id string) (models.Item, error) {
	ctx, span := s.tracer.Start(ctx, "ItemService.GetByID", trace.WithAttributes(attribute.String("item.id", id)))
	defer span.End()

	if s.cache != nil {
		var cached models.Item
		err := s.cache.Get(ctx, id, &cached)
		if err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
		if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "item cache read failed", "item_id", id, "error", err)
		}
	}

	item, ok := s.repo.Get(id)
	if !ok {
		return models.Item{}, fmt.Errorf("get item %s: %w", id, itemdomain.ErrItemNotFound)
	}
	s.refreshCache(ctx, item)
	return item, nil
}

// List returns the page of items selected by opts plus the total number of
// matches before paging. Items are in creation order.
func (s *ItemService) List(ctx context.Context, opts ListOpts) ([]models.Item, int, error) {
	_, span := s.tracer.Start(ctx, "ItemService.List")
	defer span.End()

	items := s.repo.Search(opts.Name)
	total := len(items)
	span.SetAttributes(attribute.Int("items.total", total))
	return paginate(items, opts.Offset, opts.Limit), total, nil
}

// Update merges patch into the item with id.
func (s *ItemService) Update(ctx context.Context, id string, patch models.ItemPatch) (models.Item, error) {
	ctx, span := s.tracer.Start(ctx, "ItemService.Update", trace.WithAttributes(attribute.String("item.id", id)))
	defer span.End()

	if err := domainsvcs.ValidateItemPatch(patch); err != nil {
		return models.Item{}, err
	}

	item, ok, err := s.repo.Update(ctx, id, patch)
	if !ok {
		return models.Item{}, fmt.Errorf("update item %s: %w", id, itemdomain.ErrItemNotFound)
	}
	if err != nil {
		return models.Item{}, s.fail(span, fmt.Errorf("update item %s: %w", id, err))
	}

	s.refreshCache(ctx, item)
	s.publish(ctx, domainevents.TopicItemUpdated, item, nil)
	return item, nil
}

// AddEvent appends an event built from draft to the item with id and returns
// the full updated item.
func (s *ItemService) AddEvent(ctx context.Context, id string, draft models.EventDraft) (models.Item, error) {
	ctx, span := s.tracer.Start(ctx, "ItemService.AddEvent", trace.WithAttributes(
		attribute.String("item.id", id),
		attribute.String("event.type", string(draft.Type)),
	))
	defer span.End()

	if err := domainsvcs.ValidateEventDraft(draft); err != nil {
		return models.Item{}, err
	}

	item, ok, err := s.repo.AddEvent(ctx, id, draft)
	if !ok {
		return models.Item{}, fmt.Errorf("add event to %s: %w", id, itemdomain.ErrItemNotFound)
	}
	if err != nil {
		return models.Item{}, s.fail(span, fmt.Errorf("add event to %s: %w", id, err))
	}

	s.refreshCache(ctx, item)
	ev, _ := item.LastEvent()
	s.publish(ctx, domainevents.TopicItemEventAdded, item, &ev)
	return item, nil
}

// ListEvents returns the item's history, oldest first.
func (s *ItemService) ListEvents(ctx context.Context, id string) ([]models.Event, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return item.Events, nil
}

// LastEvent returns the most recent event of the item with id.
// Returns ErrEventNotFound when the item has no events.
func (s *ItemService) LastEvent(ctx context.Context, id string) (models.Event, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Event{}, err
	}
	ev, ok := item.LastEvent()
	if !ok {
		return models.Event{}, fmt.Errorf("item %s: %w", id, itemdomain.ErrEventNotFound)
	}
	return ev, nil
}

func (s *ItemService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// refreshCache writes item unless the cache already holds a copy at least as
// recent. UpdatedAt strictly advances on every mutation, so it serves as the
// entry version and a slow reader can never replace a newer write.
func (s *ItemService) refreshCache(ctx context.Context, item models.Item) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.SetIfNewer(ctx, item.ID, item.UpdatedAt, item); err != nil {
		s.log.WarnContext(ctx, "item cache write failed", "item_id", item.ID, "error", err)
		// A stale entry is worse than none.
		_ = s.cache.Delete(ctx, item.ID)
	}
}

func (s *ItemService) publish(ctx context.Context, topic string, item models.Item, ev *models.Event) {
	if s.bus == nil {
		return
	}
	evt := domainevents.ItemChangedEvent{
		EventID:    uuid.New(),
		Version:    domainevents.SchemaVersion,
		Topic:      topic,
		ItemID:     item.ID,
		Name:       item.Name,
		EventCount: len(item.Events),
		OccurredAt: item.UpdatedAt,
		Item:       item,
	}
	if ev != nil {
		evt.EventType = string(ev.Type)
		evt.ItemEvent = ev.ID
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		s.log.ErrorContext(ctx, "marshal domain event", "topic", topic, "error", err)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_id", evt.EventID.String())
	msg.Metadata.Set("event_version", strconv.Itoa(evt.Version))
	if err := s.bus.Publish(ctx, topic, msg); err != nil {
		s.log.ErrorContext(ctx, "publish domain event failed", "topic", topic, "item_id", item.ID, "error", err)
	}
}

func paginate(items []models.Item, offset, limit int) []models.Item {
	if offset >= len(items) {
		return []models.Item{}
	}
	if offset > 0 {
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
