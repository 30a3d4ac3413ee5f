package snapshot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/supplytrack/pkg/logger"
	"github.com/ghuser/supplytrack/services/item/domain/models"
	"github.com/ghuser/supplytrack/services/item/domain/repositories"
)

// Operation names carried by PersistenceError.Op and the op metric attribute.
const (
	OpInit     = "init"
	OpLoad     = "load"
	OpDecode   = "decode"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpAddEvent = "add_event"
)

var _ repositories.ItemRepository = (*Store)(nil)

// Store is the single authoritative holder of all items. Every mutation
// persists the complete candidate state through the Backend before it
// becomes visible in memory.
//
// A Store is safe for concurrent use. All operations, reads included,
// serialize on one mutex.
type Store struct {
	mu      sync.Mutex
	state   Snapshot
	backend Backend
	// eventIDs indexes every committed event ID across all items.
	eventIDs map[string]struct{}

	now     func() time.Time
	newID   func() string
	log     logger.Logger
	tracer  trace.Tracer
	metrics *storeMetrics
}

// Option configures a Store at Open.
type Option func(*Store)

// WithClock replaces time.Now as the source of timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDSource replaces uuid.NewString as the generator of item and event IDs.
func WithIDSource(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithLogger sets the logger used for load and persistence events.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithMeter registers the store instruments on m instead of the global meter provider.
func WithMeter(m metric.Meter) Option {
	return func(s *Store) { s.metrics = newStoreMetrics(m) }
}

// Open loads the persisted snapshot from backend and returns a ready Store.
// When nothing has been persisted yet the store starts empty and writes an
// empty snapshot immediately. Any other load or decode failure is returned
// as a *PersistenceError.
func Open(ctx context.Context, backend Backend, opts ...Option) (*Store, error) {
	s := &Store{
		backend: backend,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
		tracer:  otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	if s.metrics == nil {
		s.metrics = newStoreMetrics(nil)
	}
	s.log = s.log.With("component", "item_store", "driver", backend.Driver())

	data, err := backend.Load(ctx)
	switch {
	case errors.Is(err, ErrSnapshotNotFound):
		empty := Snapshot{items: map[string]models.Item{}}
		if err := s.commit(ctx, OpInit, empty); err != nil {
			return nil, err
		}
		s.eventIDs = map[string]struct{}{}
		s.log.InfoContext(ctx, "initialized empty item snapshot")
		return s, nil
	case err != nil:
		return nil, &PersistenceError{Op: OpLoad, Err: err}
	}

	state, err := Decode(data)
	if err != nil {
		return nil, &PersistenceError{Op: OpDecode, Err: err}
	}
	s.state = state
	s.eventIDs = indexEvents(state)
	s.log.InfoContext(ctx, "loaded item snapshot", "items", state.Len(), "bytes", len(data))
	return s, nil
}

// Create stores a new item built from draft and returns it.
func (s *Store) Create(ctx context.Context, draft models.ItemDraft) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := models.NewItem(draft, s.now())
	item.ID = s.freshID(func(id string) bool {
		_, taken := s.state.get(id)
		return taken
	})

	if err := s.commit(ctx, OpCreate, s.state.put(item)); err != nil {
		return models.Item{}, err
	}
	s.log.DebugContext(ctx, "item created", "item_id", item.ID)
	return item.Clone(), nil
}

// Get returns a copy of the item with id. The boolean is false when no
// such item exists.
func (s *Store) Get(id string) (models.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.state.get(id)
	if !ok {
		return models.Item{}, false
	}
	return item.Clone(), true
}

// GetAll returns every item in insertion order.
func (s *Store) GetAll() []models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Items()
}

// Search returns items whose name contains query, case-insensitively, in
// insertion order. An empty query matches everything.
func (s *Store) Search(query string) []models.Item {
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.Lock()
	defer s.mu.Unlock()
	if q == "" {
		return s.state.Items()
	}
	return s.state.filter(func(it models.Item) bool {
		return strings.Contains(strings.ToLower(it.Name), q)
	})
}

// Update merges patch over the item with id and persists the result.
// Fields absent from the patch keep their values; ID and CreatedAt never change.
func (s *Store) Update(ctx context.Context, id string, patch models.ItemPatch) (models.Item, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.state.get(id)
	if !ok {
		return models.Item{}, false, nil
	}
	next := current.Clone()
	next.Apply(patch, s.tick(current.UpdatedAt))

	if err := s.commit(ctx, OpUpdate, s.state.put(next)); err != nil {
		return models.Item{}, true, err
	}
	s.log.DebugContext(ctx, "item updated", "item_id", id)
	return next.Clone(), true, nil
}

// AddEvent appends a new event built from draft to the item with id and
// returns the full updated item.
func (s *Store) AddEvent(ctx context.Context, id string, draft models.EventDraft) (models.Item, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.state.get(id)
	if !ok {
		return models.Item{}, false, nil
	}
	now := s.tick(current.UpdatedAt)
	ev := models.NewEvent(id, draft, now)
	ev.ID = s.freshID(func(cand string) bool {
		_, taken := s.eventIDs[cand]
		return taken
	})
	next := current.Clone()
	next.AppendEvent(ev, now)

	if err := s.commit(ctx, OpAddEvent, s.state.put(next)); err != nil {
		return models.Item{}, true, err
	}
	s.eventIDs[ev.ID] = struct{}{}
	s.log.DebugContext(ctx, "event added", "item_id", id, "events", len(next.Events))
	return next.Clone(), true, nil
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Len()
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Driver names the backend in use.
func (s *Store) Driver() string {
	return s.backend.Driver()
}

// freshID draws IDs until one is not taken. s.mu must be held.
func (s *Store) freshID(taken func(string) bool) string {
	for {
		if id := s.newID(); !taken(id) {
			return id
		}
	}
}

func indexEvents(state Snapshot) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, item := range state.items {
		for _, ev := range item.Events {
			ids[ev.ID] = struct{}{}
		}
	}
	return ids
}

// tick returns the current time, nudged forward when the clock has not
// advanced past prev so that every mutation strictly increases UpdatedAt.
func (s *Store) tick(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		return prev.Add(time.Nanosecond)
	}
	return now
}

// commit persists next and swaps it in. s.mu must be held, except during Open.
func (s *Store) commit(ctx context.Context, op string, next Snapshot) error {
	ctx, span := s.tracer.Start(ctx, "snapshot.save", trace.WithAttributes(
		attribute.String("snapshot.op", op),
		attribute.String("snapshot.driver", s.backend.Driver()),
		attribute.Int("snapshot.items", next.Len()),
	))
	defer span.End()

	data, err := Encode(next)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode")
		return &PersistenceError{Op: op, Err: err}
	}

	start := time.Now()
	err = s.backend.Save(ctx, data)
	s.metrics.record(ctx, op, s.backend.Driver(), len(data), time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save")
		s.log.ErrorContext(ctx, "snapshot save failed", "op", op, "bytes", len(data), "error", err)
		return &PersistenceError{Op: op, Err: err}
	}
	span.SetAttributes(attribute.Int("snapshot.bytes", len(data)))

	s.state = next
	return nil
}
