package scheduler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"sensor-dashboard-backend/internal/collector"
	"sensor-dashboard-backend/internal/store"
)

// retentionInterval is how often the reaper sweeps. Fixed; not an
// operator-tunable setting (the window it enforces is).
const retentionInterval = time.Hour

// Collector runs one poll-and-persist cycle.
type Collector interface {
	CollectOnce(ctx context.Context) (collector.CycleResult, error)
}

// Sweeper runs one retention sweep.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Expirer completes measurements whose duration cap has elapsed.
type Expirer interface {
	ExpireOverdue(ctx context.Context) error
}

// Scheduler owns the two process-lifetime timers: the poll timer driving
// collection cycles and the coarse timer driving retention sweeps. It is
// an explicit object rather than package-level state so shutdown hooks
// hold a handle and tests can drive it directly.
type Scheduler struct {
	store     store.Store
	collector Collector
	reaper    Sweeper
	sessions  Expirer

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// Single-flight guard: a tick arriving while the previous cycle is
	// still in flight is skipped, never overlapped.
	inFlight atomic.Bool
}

// New creates a scheduler. sessions may be nil if duration expiry is
// handled elsewhere.
func New(s store.Store, c Collector, r Sweeper, sessions Expirer) *Scheduler {
	return &Scheduler{store: s, collector: c, reaper: r, sessions: sessions}
}

// Start begins both timers. Idempotent: calling Start while running has no
// additional effect, so hot reloads cannot stack duplicate timers.
func (s *Scheduler) Start(pollInterval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		log.Println("Scheduler already running, ignoring duplicate start")
		return
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true

	s.wg.Add(2)
	go s.runCollection(ctx, pollInterval)
	go s.runRetention(ctx)
	log.Printf("Scheduler started: collection every %s, retention sweep every %s", pollInterval, retentionInterval)
}

// Stop cancels both timers. Safe to call multiple times. In-flight cycles
// are allowed to finish; only the timers stop firing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	s.running = false
	s.wg.Wait()
	log.Println("Scheduler stopped")
}

// runCollection drives collection cycles. The timer is re-armed after each
// tick with the interval currently configured in the database, so operators
// can change the cadence without a restart.
func (s *Scheduler) runCollection(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	// Cancellation stops the timer loop, never the cycle in flight.
	cycleCtx := context.WithoutCancel(ctx)

	s.tick(cycleCtx)

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.tick(cycleCtx)
			interval = s.currentInterval(cycleCtx, interval)
			timer.Reset(interval)
		}
	}
}

// tick runs one collection cycle unless the previous one is still going.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		log.Println("Warning: collection cycle overrun, skipping this tick")
		return
	}
	defer s.inFlight.Store(false)

	if s.sessions != nil {
		if err := s.sessions.ExpireOverdue(ctx); err != nil {
			log.Printf("Error checking measurement expiry: %v", err)
		}
	}
	if _, err := s.collector.CollectOnce(ctx); err != nil {
		// A failed cycle must never take the timer down with it.
		log.Printf("Error: collection cycle failed: %v", err)
	}
}

// currentInterval re-reads the configured poll period, keeping the
// previous value when the config row is unreadable.
func (s *Scheduler) currentInterval(ctx context.Context, previous time.Duration) time.Duration {
	cfg, err := s.store.HardwareConfig(ctx)
	if err != nil {
		log.Printf("Warning: could not re-read poll interval, keeping %s: %v", previous, err)
		return previous
	}
	next := cfg.UpdateInterval()
	if next <= 0 {
		return previous
	}
	if next != previous {
		log.Printf("Poll interval changed: %s -> %s", previous, next)
	}
	return next
}

// runRetention drives hourly retention sweeps.
func (s *Scheduler) runRetention(ctx context.Context) {
	defer s.wg.Done()

	sweepCtx := context.WithoutCancel(ctx)
	ticker := time.NewTicker(retentionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.reaper.Sweep(sweepCtx); err != nil {
				log.Printf("Error: retention sweep failed: %v", err)
			}
		}
	}
}
