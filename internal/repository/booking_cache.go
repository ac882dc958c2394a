package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"courtbook/internal/domain"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// BookingStore is the persistence contract shared by the SQL and document
// stores. It matches the booking module's store interface plus completion.
type BookingStore interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByDate(ctx context.Context, date domain.DateStamp) ([]domain.Booking, error)
	List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, int64, error)
	Delete(ctx context.Context, id string) error
	Cancel(ctx context.Context, id, reason string, at time.Time) (*domain.Booking, error)
	CompletePast(ctx context.Context, today domain.DateStamp, now domain.TimeOfDay, at time.Time) ([]domain.Booking, error)
	DeleteUpcomingByOwner(ctx context.Context, ownerID int64, today domain.DateStamp, now domain.TimeOfDay) ([]domain.Booking, error)
}

var (
	_ BookingStore = (*BookingRepository)(nil)
	_ BookingStore = (*MongoBookingRepository)(nil)
	_ BookingStore = (*CachedBookingStore)(nil)
)

var ErrCacheMiss = errors.New("cache miss")

// DayCache stores same-date snapshots.
type DayCache interface {
	Get(ctx context.Context, date domain.DateStamp) ([]domain.Booking, error)
	Set(ctx context.Context, date domain.DateStamp, bookings []domain.Booking) error
	Invalidate(ctx context.Context, dates ...domain.DateStamp) error
}

type RedisDayCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDayCache(client *redis.Client, ttl time.Duration) *RedisDayCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisDayCache{client: client, ttl: ttl}
}

func dayKey(date domain.DateStamp) string {
	return "bookings:day:" + string(date)
}

func (c *RedisDayCache) Get(ctx context.Context, date domain.DateStamp) ([]domain.Booking, error) {
	raw, err := c.client.Get(ctx, dayKey(date)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var out []domain.Booking
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode cached day %s: %w", date, err)
	}
	return out, nil
}

func (c *RedisDayCache) Set(ctx context.Context, date domain.DateStamp, bookings []domain.Booking) error {
	raw, err := json.Marshal(bookings)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, dayKey(date), raw, c.ttl).Err()
}

func (c *RedisDayCache) Invalidate(ctx context.Context, dates ...domain.DateStamp) error {
	if len(dates) == 0 {
		return nil
	}
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, dayKey(d))
	}
	return c.client.Del(ctx, keys...).Err()
}

// CachedBookingStore serves ListByDate from a DayCache and invalidates the
// affected dates after every write. Writes always reach the wrapped store.
type CachedBookingStore struct {
	BookingStore
	cache DayCache
	log   *zap.Logger
}

func NewCachedBookingStore(store BookingStore, cache DayCache, log *zap.Logger) *CachedBookingStore {
	return &CachedBookingStore{BookingStore: store, cache: cache, log: log}
}

func (s *CachedBookingStore) ListByDate(ctx context.Context, date domain.DateStamp) ([]domain.Booking, error) {
	cached, err := s.cache.Get(ctx, date)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		s.log.Warn("day cache read failed", zap.String("date", string(date)), zap.Error(err))
	}

	bookings, err := s.BookingStore.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, date, bookings); err != nil {
		s.log.Warn("day cache write failed", zap.String("date", string(date)), zap.Error(err))
	}
	return bookings, nil
}

func (s *CachedBookingStore) Create(ctx context.Context, b *domain.Booking) error {
	err := s.BookingStore.Create(ctx, b)
	// A conflict means the cached snapshot is stale too.
	if err == nil || errors.Is(err, domain.ErrConflict) {
		s.invalidate(ctx, b.Date)
	}
	return err
}

func (s *CachedBookingStore) Delete(ctx context.Context, id string) error {
	b, err := s.BookingStore.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.BookingStore.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, b.Date)
	return nil
}

func (s *CachedBookingStore) Cancel(ctx context.Context, id, reason string, at time.Time) (*domain.Booking, error) {
	b, err := s.BookingStore.Cancel(ctx, id, reason, at)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, b.Date)
	return b, nil
}

func (s *CachedBookingStore) CompletePast(ctx context.Context, today domain.DateStamp, now domain.TimeOfDay, at time.Time) ([]domain.Booking, error) {
	done, err := s.BookingStore.CompletePast(ctx, today, now, at)
	s.invalidate(ctx, datesOf(done)...)
	return done, err
}

func (s *CachedBookingStore) DeleteUpcomingByOwner(ctx context.Context, ownerID int64, today domain.DateStamp, now domain.TimeOfDay) ([]domain.Booking, error) {
	removed, err := s.BookingStore.DeleteUpcomingByOwner(ctx, ownerID, today, now)
	s.invalidate(ctx, datesOf(removed)...)
	return removed, err
}

func datesOf(bs []domain.Booking) []domain.DateStamp {
	dates := make([]domain.DateStamp, 0, len(bs))
	seen := map[domain.DateStamp]bool{}
	for _, b := range bs {
		if !seen[b.Date] {
			seen[b.Date] = true
			dates = append(dates, b.Date)
		}
	}
	return dates
}

func (s *CachedBookingStore) invalidate(ctx context.Context, dates ...domain.DateStamp) {
	if err := s.cache.Invalidate(ctx, dates...); err != nil {
		s.log.Warn("day cache invalidation failed", zap.Error(err))
	}
}
