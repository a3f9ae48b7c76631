package conversation

import (
	"context"
	"time"

	"github.com/wolfman30/aurora-whatsapp-relay/pkg/logging"
)

const (
	defaultSweepInterval = time.Hour
	defaultMaxIdle       = 24 * time.Hour
)

// SweepObserver receives the outcome of each sweep.
type SweepObserver interface {
	ObserveSweep(removed int)
}

// Sweeper periodically evicts idle conversations from a Store.
type Sweeper struct {
	store    *Store
	interval time.Duration
	maxIdle  time.Duration
	observer SweepObserver
	logger   *logging.Logger
	done     chan struct{}
}

// NewSweeper builds a sweeper; zero durations fall back to hourly / 24h.
func NewSweeper(store *Store, interval, maxIdle time.Duration, observer SweepObserver, logger *logging.Logger) *Sweeper {
	if store == nil {
		panic("conversation: store cannot be nil")
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdle
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		maxIdle:  maxIdle,
		observer: observer,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop in a goroutine until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

// Wait blocks until the sweep loop has exited.
func (s *Sweeper) Wait() {
	<-s.done
}

// RunOnce performs a single sweep and returns the removal count.
func (s *Sweeper) RunOnce() int {
	removed := s.store.Sweep(s.maxIdle)
	if s.observer != nil {
		s.observer.ObserveSweep(removed)
	}
	if removed > 0 {
		s.logger.Info("idle conversations removed",
			"removed", removed,
			"remaining", s.store.Len(),
			"max_idle", s.maxIdle.String(),
		)
	}
	return removed
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Debug("conversation sweeper started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("conversation sweeper stopping")
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}
