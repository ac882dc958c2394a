package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/modules/booking"
	"courtbook/internal/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCompleter struct {
	mu    sync.Mutex
	calls int
	date  domain.DateStamp
	now   domain.TimeOfDay
	at    time.Time
	done  []domain.Booking
	err   error
}

func (f *fakeCompleter) CompletePast(_ context.Context, today domain.DateStamp, now domain.TimeOfDay, at time.Time) ([]domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.date, f.now, f.at = today, now, at
	return f.done, f.err
}

func (f *fakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []booking.Event
}

func (p *recordingPublisher) Publish(evt booking.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func fixedToday() (domain.DateStamp, domain.TimeOfDay) { return "2024-10-26", "15:00" }

func completed(date, start, end string) domain.Booking {
	return domain.Booking{
		ID:        date + "-" + start,
		Date:      domain.DateStamp(date),
		StartTime: domain.TimeOfDay(start),
		EndTime:   domain.TimeOfDay(end),
		Status:    domain.BookingCompleted,
	}
}

func TestCompletionJob_RunOnce(t *testing.T) {
	store := &fakeCompleter{done: []domain.Booking{
		completed("2024-10-25", "10:00", "11:00"),
		completed("2024-10-26", "13:00", "14:00"),
		completed("2024-10-26", "14:00", "15:00"),
	}}
	clk := clock.NewFixed(time.Date(2024, 10, 26, 13, 0, 0, 0, time.UTC))
	pub := &recordingPublisher{}
	job := NewCompletionJob(store, fixedToday, clk, pub, "", zap.NewNop())

	n, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Equal(t, domain.DateStamp("2024-10-26"), store.date)
	assert.Equal(t, domain.TimeOfDay("15:00"), store.now)
	assert.True(t, clk.Now().Equal(store.at))

	require.Len(t, pub.events, 3)
	for _, evt := range pub.events {
		assert.Equal(t, booking.EventBookingCompleted, evt.Type)
		assert.Equal(t, evt.Booking.Date, evt.Date)
		assert.True(t, clk.Now().Equal(evt.At))
	}
	assert.Equal(t, domain.DateStamp("2024-10-25"), pub.events[0].Date)
}

func TestCompletionJob_NothingToPublish(t *testing.T) {
	pub := &recordingPublisher{}
	job := NewCompletionJob(&fakeCompleter{}, fixedToday, nil, pub, "", zap.NewNop())

	n, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, pub.events)
}

func TestCompletionJob_RunOnceError(t *testing.T) {
	store := &fakeCompleter{err: errors.New("db gone")}
	pub := &recordingPublisher{}
	job := NewCompletionJob(store, fixedToday, nil, pub, "", zap.NewNop())

	_, err := job.RunOnce(context.Background())
	assert.ErrorIs(t, err, store.err)
	assert.Empty(t, pub.events)
}

func TestCompletionJob_StartRunsImmediately(t *testing.T) {
	store := &fakeCompleter{}
	job := NewCompletionJob(store, fixedToday, nil, nil, "@every 1h", zap.NewNop())

	require.NoError(t, job.Start())
	defer job.Stop()

	assert.Eventually(t, func() bool { return store.Calls() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestCompletionJob_InvalidSchedule(t *testing.T) {
	job := NewCompletionJob(&fakeCompleter{}, fixedToday, nil, nil, "every now and then", zap.NewNop())
	assert.Error(t, job.Start())
}
