package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"courtbook/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memDayCache struct {
	mu      sync.Mutex
	days    map[domain.DateStamp][]domain.Booking
	gets    int
	hits    int
	failGet bool
}

func newMemDayCache() *memDayCache {
	return &memDayCache{days: map[domain.DateStamp][]domain.Booking{}}
}

func (c *memDayCache) Get(_ context.Context, date domain.DateStamp) ([]domain.Booking, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return nil, errors.New("redis down")
	}
	bs, ok := c.days[date]
	if !ok {
		return nil, ErrCacheMiss
	}
	c.hits++
	return bs, nil
}

func (c *memDayCache) Set(_ context.Context, date domain.DateStamp, bs []domain.Booking) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.days[date] = bs
	return nil
}

func (c *memDayCache) Invalidate(_ context.Context, dates ...domain.DateStamp) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range dates {
		delete(c.days, d)
	}
	return nil
}

func (c *memDayCache) cached(date domain.DateStamp) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.days[date]
	return ok
}

func TestCachedBookingStore_ReadThroughAndInvalidate(t *testing.T) {
	cache := newMemDayCache()
	store := NewCachedBookingStore(NewBookingRepository(newTestDB(t)), cache, zap.NewNop())
	ctx := context.Background()

	first := newBooking("2024-10-27", "10:00", "11:00", 1)
	require.NoError(t, store.Create(ctx, first))

	bs, err := store.ListByDate(ctx, "2024-10-27")
	require.NoError(t, err)
	assert.Len(t, bs, 1)
	assert.True(t, cache.cached("2024-10-27"))

	_, err = store.ListByDate(ctx, "2024-10-27")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	require.NoError(t, store.Create(ctx, newBooking("2024-10-27", "11:00", "12:00", 2)))
	assert.False(t, cache.cached("2024-10-27"), "create must drop the snapshot")

	bs, err = store.ListByDate(ctx, "2024-10-27")
	require.NoError(t, err)
	assert.Len(t, bs, 2)

	require.NoError(t, store.Delete(ctx, first.ID))
	assert.False(t, cache.cached("2024-10-27"), "delete must drop the snapshot")
}

func TestCachedBookingStore_ConflictStillEnforcedWithStaleCache(t *testing.T) {
	cache := newMemDayCache()
	store := NewCachedBookingStore(NewBookingRepository(newTestDB(t)), cache, zap.NewNop())
	ctx := context.Background()

	// A stale empty snapshot must not let an overlapping insert through.
	require.NoError(t, cache.Set(ctx, "2024-10-27", []domain.Booking{}))
	require.NoError(t, store.BookingStore.Create(ctx, newBooking("2024-10-27", "10:00", "11:00", 1)))

	err := store.Create(ctx, newBooking("2024-10-27", "10:30", "11:30", 2))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.False(t, cache.cached("2024-10-27"))
}

func TestCachedBookingStore_CacheFailureFallsBack(t *testing.T) {
	cache := newMemDayCache()
	cache.failGet = true
	store := NewCachedBookingStore(NewBookingRepository(newTestDB(t)), cache, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newBooking("2024-10-27", "10:00", "11:00", 1)))

	bs, err := store.ListByDate(ctx, "2024-10-27")
	require.NoError(t, err)
	assert.Len(t, bs, 1)
}

func TestCachedBookingStore_PurgeInvalidatesEveryDate(t *testing.T) {
	cache := newMemDayCache()
	store := NewCachedBookingStore(NewBookingRepository(newTestDB(t)), cache, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newBooking("2024-10-27", "10:00", "11:00", 5)))
	require.NoError(t, store.Create(ctx, newBooking("2024-10-29", "10:00", "11:00", 5)))
	_, _ = store.ListByDate(ctx, "2024-10-27")
	_, _ = store.ListByDate(ctx, "2024-10-29")

	removed, err := store.DeleteUpcomingByOwner(ctx, 5, "2024-10-26", "15:00")
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	assert.False(t, cache.cached("2024-10-27"))
	assert.False(t, cache.cached("2024-10-29"))
}

func TestCachedBookingStore_CompletePastInvalidatesTouchedDates(t *testing.T) {
	cache := newMemDayCache()
	store := NewCachedBookingStore(NewBookingRepository(newTestDB(t)), cache, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newBooking("2024-10-25", "10:00", "11:00", 5)))
	require.NoError(t, store.Create(ctx, newBooking("2024-10-26", "18:00", "19:00", 5)))
	_, _ = store.ListByDate(ctx, "2024-10-25")
	_, _ = store.ListByDate(ctx, "2024-10-26")

	done, err := store.CompletePast(ctx, "2024-10-26", "15:00", time.Now())
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.False(t, cache.cached("2024-10-25"))
	assert.True(t, cache.cached("2024-10-26"), "nothing finished today")
}

func TestDayKey(t *testing.T) {
	assert.Equal(t, "bookings:day:2024-10-27", dayKey("2024-10-27"))
}
