package scheduler

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Sweeper is anything that can drop stale entries and report how many it removed.
type Sweeper interface {
	Sweep() int
}

// Scheduler periodically evicts idle sessions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	target    Sweeper
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(target Sweeper, interval time.Duration, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		target:    target,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	_, err := s.scheduler.Every(interval).WaitForSchedule().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("session sweeper started", "interval", interval)
	return nil
}

func (s *Scheduler) run() {
	if n := s.target.Sweep(); n > 0 {
		s.logger.Info("evicted idle sessions", "count", n)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
