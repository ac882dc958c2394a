package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"courtbook/internal/database"
	"courtbook/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(":memory:", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newBooking(date, start, end string, owner int64) *domain.Booking {
	now := time.Now().UTC()
	return &domain.Booking{
		ID:        uuid.NewString(),
		Date:      domain.DateStamp(date),
		StartTime: domain.TimeOfDay(start),
		EndTime:   domain.TimeOfDay(end),
		OwnerID:   owner,
		OwnerName: "player",
		Price:     20,
		Status:    domain.BookingActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestBookingRepository_CreateAndList(t *testing.T) {
	repo := NewBookingRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newBooking("2024-10-27", "18:00", "19:00", 1)))
	require.NoError(t, repo.Create(ctx, newBooking("2024-10-27", "10:00", "11:00", 2)))
	require.NoError(t, repo.Create(ctx, newBooking("2024-10-28", "10:00", "11:00", 1)))

	day, err := repo.ListByDate(ctx, "2024-10-27")
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, domain.TimeOfDay("10:00"), day[0].StartTime)
	assert.Equal(t, domain.TimeOfDay("18:00"), day[1].StartTime)

	mine, total, err := repo.List(ctx, domain.BookingFilter{OwnerID: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, domain.DateStamp("2024-10-27"), mine[0].Date)
	assert.Equal(t, domain.DateStamp("2024-10-28"), mine[1].Date)

	page, total, err := repo.List(ctx, domain.BookingFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, domain.TimeOfDay("18:00"), page[0].StartTime)
}

func TestBookingRepository_CreateRejectsOverlap(t *testing.T) {
	repo := NewBookingRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newBooking("2024-10-27", "16:00", "17:00", 1)))

	err := repo.Create(ctx, newBooking("2024-10-27", "16:30", "17:30", 2))
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = repo.Create(ctx, newBooking("2024-10-27", "16:00", "16:30", 2))
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Touching boundaries and other dates are fine.
	assert.NoError(t, repo.Create(ctx, newBooking("2024-10-27", "17:00", "18:00", 2)))
	assert.NoError(t, repo.Create(ctx, newBooking("2024-10-28", "16:30", "17:30", 2)))

	day, err := repo.ListByDate(ctx, "2024-10-27")
	require.NoError(t, err)
	assert.Len(t, day, 2)
}

func TestBookingRepository_CancelledSlotCanBeRebooked(t *testing.T) {
	repo := NewBookingRepository(newTestDB(t))
	ctx := context.Background()

	first := newBooking("2024-10-27", "16:00", "17:00", 1)
	require.NoError(t, repo.Create(ctx, first))

	at := time.Date(2024, 10, 26, 12, 0, 0, 0, time.UTC)
	cancelled, err := repo.Cancel(ctx, first.ID, "court maintenance", at)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, cancelled.Status)
	assert.Equal(t, "court maintenance", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)

	_, err = repo.Cancel(ctx, first.ID, "", at)
	assert.ErrorIs(t, err, domain.ErrNotActive)

	assert.NoError(t, repo.Create(ctx, newBooking("2024-10-27", "16:00", "17:00", 2)))
}

func TestBookingRepository_ConcurrentCreate(t *testing.T) {
	repo := NewBookingRepository(newTestDB(t))
	ctx := context.Background()

	const workers = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
		other     []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := newBooking("2024-10-27", "18:00", "19:30", int64(i+1))
			if i%3 == 0 {
				b = newBooking("2024-10-27", "19:00", "20:00", int64(i+1))
			}
			err := repo.Create(ctx, b)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrConflict):
				conflicts++
			default:
				other = append(other, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)
}

func TestBookingRepository_GetAndDelete(t *testing.T) {
	repo := NewBookingRepository(newTestDB(t))
	ctx := context.Background()

	b := newBooking("2024-10-27", "09:00", "10:00", 1)
	require.NoError(t, repo.Create(ctx, b))

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.OwnerID, got.OwnerID)

	require.NoError(t, repo.Delete(ctx, b.ID))
	assert.ErrorIs(t, repo.Delete(ctx, b.ID), domain.ErrNotFound)

	_, err = repo.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookingRepository_CompletePast(t *testing.T) {
	repo := NewBookingRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newBooking("2024-10-25", "10:00", "11:00", 1)))
	require.NoError(t, repo.Create(ctx, newBooking("2024-10-26", "13:00", "14:00", 1)))
	require.NoError(t, repo.Create(ctx, newBooking("2024-10-26", "14:30", "15:30", 1)))
	require.NoError(t, repo.Create(ctx, newBooking("2024-10-27", "10:00", "11:00", 1)))

	at := time.Date(2024, 10, 26, 13, 0, 0, 0, time.UTC)
	done, err := repo.CompletePast(ctx, "2024-10-26", "15:00", at)
	require.NoError(t, err)
	require.Len(t, done, 2)
	assert.Equal(t, domain.DateStamp("2024-10-25"), done[0].Date)
	assert.Equal(t, domain.TimeOfDay("13:00"), done[1].StartTime)
	for _, b := range done {
		assert.Equal(t, domain.BookingCompleted, b.Status)
		assert.True(t, at.Equal(b.UpdatedAt))
	}

	stored, err := repo.GetByID(ctx, done[1].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, stored.Status)
	assert.True(t, at.Equal(stored.UpdatedAt), "updated_at comes from the caller's clock")

	active, total, err := repo.List(ctx, domain.BookingFilter{Status: domain.BookingActive})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, domain.TimeOfDay("14:30"), active[0].StartTime)

	done, err = repo.CompletePast(ctx, "2024-10-26", "15:00", at)
	require.NoError(t, err)
	assert.Empty(t, done)
}

func TestBookingRepository_DeleteUpcomingByOwner(t *testing.T) {
	repo := NewBookingRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newBooking("2024-10-25", "10:00", "11:00", 7)))
	require.NoError(t, repo.Create(ctx, newBooking("2024-10-26", "14:00", "15:00", 7)))
	require.NoError(t, repo.Create(ctx, newBooking("2024-10-26", "16:00", "17:00", 7)))
	require.NoError(t, repo.Create(ctx, newBooking("2024-10-30", "10:00", "11:00", 7)))
	require.NoError(t, repo.Create(ctx, newBooking("2024-10-30", "12:00", "13:00", 8)))

	removed, err := repo.DeleteUpcomingByOwner(ctx, 7, "2024-10-26", "15:00")
	require.NoError(t, err)
	require.Len(t, removed, 2)
	assert.Equal(t, domain.DateStamp("2024-10-26"), removed[0].Date)
	assert.Equal(t, domain.DateStamp("2024-10-30"), removed[1].Date)

	left, total, err := repo.List(ctx, domain.BookingFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, left, 3)
}

func TestBookingRepository_DeleteUpcomingByOwner_InProgress(t *testing.T) {
	repo := NewBookingRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newBooking("2024-10-26", "13:00", "14:00", 7)))
	require.NoError(t, repo.Create(ctx, newBooking("2024-10-26", "14:30", "15:30", 7)))

	removed, err := repo.DeleteUpcomingByOwner(ctx, 7, "2024-10-26", "15:00")
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, domain.TimeOfDay("14:30"), removed[0].StartTime)

	left, err := repo.ListByDate(ctx, "2024-10-26")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, domain.TimeOfDay("13:00"), left[0].StartTime)
}
