package jobs

import (
	"context"
	"fmt"
	"time"

	"courtbook/internal/domain"
	"courtbook/internal/modules/booking"
	"courtbook/internal/pkg/clock"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultCompletionSchedule = "@every 5m"

type Completer interface {
	CompletePast(ctx context.Context, today domain.DateStamp, now domain.TimeOfDay, at time.Time) ([]domain.Booking, error)
}

// Today returns the club's current date and minute.
type Today func() (domain.DateStamp, domain.TimeOfDay)

// CompletionJob marks ACTIVE bookings whose end has passed as COMPLETED.
type CompletionJob struct {
	cron     *cron.Cron
	store    Completer
	today    Today
	clock    clock.Clock
	events   booking.EventPublisher
	schedule string
	timeout  time.Duration
	log      *zap.Logger
}

// NewCompletionJob builds the job. Every completed booking is announced on
// events so live viewers refresh their day; events may be nil.
func NewCompletionJob(store Completer, today Today, clk clock.Clock, events booking.EventPublisher, schedule string, log *zap.Logger) *CompletionJob {
	if schedule == "" {
		schedule = DefaultCompletionSchedule
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &CompletionJob{
		cron:     cron.New(),
		store:    store,
		today:    today,
		clock:    clk,
		events:   events,
		schedule: schedule,
		timeout:  30 * time.Second,
		log:      log,
	}
}

// RunOnce completes finished bookings and returns how many changed.
func (j *CompletionJob) RunOnce(ctx context.Context) (int64, error) {
	date, now := j.today()
	at := j.clock.Now()

	done, err := j.store.CompletePast(ctx, date, now, at)
	if err != nil {
		return 0, fmt.Errorf("complete bookings before %s %s: %w", date, now, err)
	}
	if j.events != nil {
		for _, b := range done {
			j.events.Publish(booking.Event{Type: booking.EventBookingCompleted, Date: b.Date, Booking: b, At: at})
		}
	}
	if len(done) > 0 {
		j.log.Info("bookings completed", zap.Int("count", len(done)), zap.String("date", string(date)), zap.String("now", string(now)))
	}
	return int64(len(done)), nil
}

// Start schedules the job and runs it once right away.
func (j *CompletionJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.tick); err != nil {
		return fmt.Errorf("invalid completion schedule %q: %w", j.schedule, err)
	}

	go j.tick()

	j.cron.Start()
	j.log.Info("completion job started", zap.String("schedule", j.schedule))
	return nil
}

// Stop waits for a running tick to finish.
func (j *CompletionJob) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.log.Info("completion job stopped")
}

func (j *CompletionJob) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.RunOnce(ctx); err != nil {
		j.log.Error("completion job failed", zap.Error(err))
	}
}
