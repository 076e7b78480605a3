// Package sweeper periodically scores sessions whose timer ran out.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// DefaultInterval is how often expired sessions are collected.
const DefaultInterval = time.Minute

// Expirer scores every session that expired before now.
type Expirer interface {
	Expire(ctx context.Context, now time.Time) (int, error)
}

// Sweeper runs an Expirer on a schedule.
type Sweeper struct {
	scheduler *gocron.Scheduler
	expirer   Expirer
	interval  time.Duration
	now       func() time.Time
	log       *slog.Logger
}

// New creates a Sweeper. interval <= 0 means DefaultInterval.
func New(expirer Expirer, interval time.Duration, log *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{
		scheduler: gocron.NewScheduler(time.UTC),
		expirer:   expirer,
		interval:  interval,
		now:       time.Now,
		log:       log,
	}
}

// Start schedules the sweep and returns without blocking. Overlapping runs
// are skipped.
func (s *Sweeper) Start() error {
	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.Sweep, context.Background())
	if err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	s.scheduler.StartAsync()
	s.log.Info("session sweeper started", "interval", s.interval)
	return nil
}

// Stop cancels the schedule and waits for a running sweep.
func (s *Sweeper) Stop() {
	s.scheduler.Stop()
}

// Sweep runs one collection pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	n, err := s.expirer.Expire(ctx, s.now())
	if err != nil {
		s.log.Error("expire sessions", "expired", n, "err", err)
		return
	}
	if n > 0 {
		s.log.Info("expired sessions", "count", n)
	}
}
