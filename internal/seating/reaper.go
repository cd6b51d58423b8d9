package seating

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

type ReaperConfig struct {
	// Interval between sweeps. Zero disables the periodic reaper.
	Interval time.Duration
	// Timeout after which a called party that has not confirmed is removed.
	Timeout time.Duration
}

// Reaper periodically clears called parties that never showed up.
type Reaper struct {
	queue     *Queue
	cfg       ReaperConfig
	clock     clockwork.Clock
	logger    apt.Logger
	scheduler gocron.Scheduler
}

func NewReaper(queue *Queue, cfg ReaperConfig, clock clockwork.Clock, logger apt.Logger) *Reaper {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultStaleCallTimeout
	}
	return &Reaper{
		queue:  queue,
		cfg:    cfg,
		clock:  clock,
		logger: logger,
	}
}

func (r *Reaper) Start(ctx context.Context) error {
	if r.cfg.Interval <= 0 {
		r.logger.Info("stale queue reaper disabled")
		return nil
	}

	s, err := gocron.NewScheduler(gocron.WithClock(r.clock))
	if err != nil {
		return fmt.Errorf("cannot create reaper scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(r.cfg.Interval),
		gocron.NewTask(func() {
			r.RunOnce(context.Background())
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("queue-reap-stale"),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("cannot schedule stale queue reaper: %w", err)
	}

	s.Start()
	r.scheduler = s
	r.logger.Info("stale queue reaper started", "interval", r.cfg.Interval.String(), "timeout", r.cfg.Timeout.String())
	return nil
}

func (r *Reaper) Stop(ctx context.Context) error {
	if r.scheduler == nil {
		return nil
	}
	if err := r.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("cannot stop stale queue reaper: %w", err)
	}
	r.scheduler = nil
	return nil
}

// RunOnce performs a single sweep and returns the removed entries.
func (r *Reaper) RunOnce(ctx context.Context) []*QueueEntry {
	reaped, err := r.queue.ReapStale(ctx, r.cfg.Timeout)
	if err != nil {
		r.logger.Error("stale queue sweep failed", "error", err)
	}
	return reaped
}
