package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/supplytrack/pkg/cache"
	"github.com/ghuser/supplytrack/pkg/config"
	"github.com/ghuser/supplytrack/services/item/domain/models"
	"github.com/ghuser/supplytrack/services/item/domain/repositories"
	"github.com/ghuser/supplytrack/services/item/infrastructure/persistence/snapshot"
)

// pausingRepo blocks the next Get after it has read the store, until release
// is closed. It lets a test interleave a mutation with a cache refill.
type pausingRepo struct {
	repositories.ItemRepository

	mu      sync.Mutex
	armed   bool
	read    chan struct{}
	release chan struct{}
}

func (r *pausingRepo) arm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = true
	r.read = make(chan struct{})
	r.release = make(chan struct{})
}

func (r *pausingRepo) Get(id string) (models.Item, bool) {
	item, ok := r.ItemRepository.Get(id)

	r.mu.Lock()
	armed := r.armed
	r.armed = false
	r.mu.Unlock()

	if armed {
		close(r.read)
		<-r.release
	}
	return item, ok
}

type cachedFixture struct {
	svc   *ItemService
	cache *cache.ItemCache
	redis *miniredis.Miniredis
	repo  *pausingRepo
}

func newCachedService(t *testing.T) cachedFixture {
	t.Helper()
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rc, err := cache.NewRedisClient(ctx, &config.Config{RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	store, err := snapshot.Open(ctx, snapshot.NewMemoryBackend())
	require.NoError(t, err)

	repo := &pausingRepo{ItemRepository: store}
	itemCache := cache.NewItemCache(rc)
	return cachedFixture{
		svc:   NewItemService(repo, itemCache, nil, nil),
		cache: itemCache,
		redis: mr,
		repo:  repo,
	}
}

func cacheKey(id string) string { return "item:v2:" + id }

func (f cachedFixture) cached(t *testing.T, id string) models.Item {
	t.Helper()
	var item models.Item
	require.NoError(t, f.cache.Get(context.Background(), id, &item))
	return item
}

func TestItemService_CacheHitServesCachedItem(t *testing.T) {
	f := newCachedService(t)
	ctx := context.Background()

	item, err := f.svc.Create(ctx, models.ItemDraft{Name: "Widget"})
	require.NoError(t, err)

	marked := item
	marked.Name = "served from cache"
	marked.UpdatedAt = item.UpdatedAt.Add(time.Second)
	written, err := f.cache.SetIfNewer(ctx, item.ID, marked.UpdatedAt, marked)
	require.NoError(t, err)
	require.True(t, written)

	got, err := f.svc.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "served from cache", got.Name)
}

func TestItemService_CacheMissWarmsCache(t *testing.T) {
	f := newCachedService(t)
	ctx := context.Background()

	item, err := f.svc.Create(ctx, models.ItemDraft{Name: "Widget", Color: strPtr("blue")})
	require.NoError(t, err)
	f.redis.FlushAll()
	require.False(t, f.redis.Exists(cacheKey(item.ID)))

	got, err := f.svc.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)

	require.True(t, f.redis.Exists(cacheKey(item.ID)))
	cached := f.cached(t, item.ID)
	assert.Equal(t, "Widget", cached.Name)
	assert.Equal(t, "blue", *cached.Color)
	assert.True(t, cached.UpdatedAt.Equal(item.UpdatedAt))
}

func TestItemService_MutationsRefreshCache(t *testing.T) {
	f := newCachedService(t)
	ctx := context.Background()

	item, err := f.svc.Create(ctx, models.ItemDraft{Name: "Widget"})
	require.NoError(t, err)
	assert.Equal(t, "Widget", f.cached(t, item.ID).Name)

	updated, err := f.svc.Update(ctx, item.ID, models.ItemPatch{Color: strPtr("green")})
	require.NoError(t, err)
	cached := f.cached(t, item.ID)
	require.NotNil(t, cached.Color)
	assert.Equal(t, "green", *cached.Color)
	assert.True(t, cached.UpdatedAt.Equal(updated.UpdatedAt))

	withEvent, err := f.svc.AddEvent(ctx, item.ID, models.EventDraft{Type: models.EventLocationUpdate, Location: "Dock 4"})
	require.NoError(t, err)
	cached = f.cached(t, item.ID)
	require.Len(t, cached.Events, 1)
	assert.Equal(t, withEvent.Events[0].ID, cached.Events[0].ID)
	assert.True(t, cached.UpdatedAt.Equal(withEvent.UpdatedAt))

	last, err := f.svc.LastEvent(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dock 4", last.Location)
}

func TestItemService_FailedCacheWriteDropsEntry(t *testing.T) {
	f := newCachedService(t)
	ctx := context.Background()

	item, err := f.svc.Create(ctx, models.ItemDraft{Name: "Widget"})
	require.NoError(t, err)

	// A value of the wrong type makes every cache write fail.
	require.NoError(t, f.redis.Set(cacheKey(item.ID), "garbage"))

	updated, err := f.svc.Update(ctx, item.ID, models.ItemPatch{Name: strPtr("Widget v2")})
	require.NoError(t, err, "cache failures never fail a durable mutation")
	assert.Equal(t, "Widget v2", updated.Name)
	assert.False(t, f.redis.Exists(cacheKey(item.ID)), "entry must be dropped after a failed write")

	got, err := f.svc.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", got.Name)
	assert.Equal(t, "Widget v2", f.cached(t, item.ID).Name)
}

func TestItemService_SlowRefillNeverOverwritesNewerWrite(t *testing.T) {
	f := newCachedService(t)
	ctx := context.Background()

	item, err := f.svc.Create(ctx, models.ItemDraft{Name: "Widget"})
	require.NoError(t, err)
	f.redis.FlushAll()

	f.repo.arm()
	type result struct {
		item models.Item
		err  error
	}
	done := make(chan result, 1)
	go func() {
		got, err := f.svc.GetByID(ctx, item.ID)
		done <- result{got, err}
	}()

	// The reader has the pre-update item in hand but has not cached it yet.
	<-f.repo.read
	updated, err := f.svc.Update(ctx, item.ID, models.ItemPatch{Color: strPtr("red")})
	require.NoError(t, err)
	close(f.repo.release)

	stale := <-done
	require.NoError(t, stale.err)
	assert.Nil(t, stale.item.Color)

	got, err := f.svc.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Color)
	assert.Equal(t, "red", *got.Color)
	assert.True(t, got.UpdatedAt.Equal(updated.UpdatedAt))

	events, err := f.svc.ListEvents(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}
