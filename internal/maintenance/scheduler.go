// Package maintenance runs the periodic background work of the engine:
// cache sweeps and status logging.
package maintenance

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Sweeper evicts expired entries from a cache, returning the eviction count.
// The key manager and certificate authority caches implement it.
type Sweeper interface {
	SweepExpired(now time.Time) int
}

// StatusFunc supplies the fields for the periodic status log entry.
type StatusFunc func() []slog.Attr

// Config holds the scheduler intervals.
type Config struct {
	SweepInterval  time.Duration
	StatusInterval time.Duration
}

// Scheduler runs cache sweeps and status logs on their own tickers until its
// context is cancelled. Sweeps go through a singleflight group so at most one
// sweep is in flight at a time, regardless of how it was triggered.
type Scheduler struct {
	cfg    Config
	logger *slog.Logger
	status StatusFunc

	mu       sync.Mutex
	sweepers map[string]Sweeper

	group  singleflight.Group
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a Scheduler. Register sweepers before calling Start.
func NewScheduler(cfg Config, logger *slog.Logger, status StatusFunc) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		logger:   logger,
		status:   status,
		sweepers: make(map[string]Sweeper),
	}
}

// Register adds a named sweeper. The name appears in sweep log entries.
func (s *Scheduler) Register(name string, sweeper Sweeper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepers[name] = sweeper
}

// Start launches the scheduler loop in a goroutine. It returns immediately;
// call Shutdown to stop the loop and wait for it to exit.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.run(ctx)
	}()
}

// Shutdown stops the scheduler and waits for the loop to exit or the context
// to expire.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SweepNow triggers an immediate sweep, coalescing with any sweep already in
// flight. Returns the total eviction count of the sweep that ran.
func (s *Scheduler) SweepNow() int {
	total, _, _ := s.group.Do("sweep", func() (any, error) {
		return s.sweep(time.Now().UTC()), nil
	})
	return total.(int)
}

func (s *Scheduler) run(ctx context.Context) {
	sweepTicker := time.NewTicker(s.cfg.SweepInterval)
	defer sweepTicker.Stop()

	statusTicker := time.NewTicker(s.cfg.StatusInterval)
	defer statusTicker.Stop()

	s.logger.Info("maintenance scheduler started",
		slog.Duration("sweep_interval", s.cfg.SweepInterval),
		slog.Duration("status_interval", s.cfg.StatusInterval),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("maintenance scheduler stopped")
			return
		case <-sweepTicker.C:
			s.SweepNow()
		case <-statusTicker.C:
			s.logStatus()
		}
	}
}

// sweep runs every registered sweeper and logs the result when anything was
// evicted.
func (s *Scheduler) sweep(now time.Time) int {
	s.mu.Lock()
	sweepers := make(map[string]Sweeper, len(s.sweepers))
	for name, sweeper := range s.sweepers {
		sweepers[name] = sweeper
	}
	s.mu.Unlock()

	total := 0
	for name, sweeper := range sweepers {
		evicted := sweeper.SweepExpired(now)
		total += evicted
		if evicted > 0 {
			s.logger.Info("cache sweep",
				slog.String("cache", name),
				slog.Int("evicted", evicted),
			)
		}
	}
	return total
}

func (s *Scheduler) logStatus() {
	if s.status == nil {
		return
	}
	attrs := s.status()
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	s.logger.Info("engine status", args...)
}
