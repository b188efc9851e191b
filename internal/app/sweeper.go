package app

import (
	"context"
	"time"

	"github.com/campuskit/reservas/internal/service"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Sweeper periodically applies the time-driven reservation transitions.
// It is the only code path that moves reservations into IN_PROGRESS and
// FINISHED, so an auto-transition is always traceable to one sweep run and
// one history entry.
type Sweeper struct {
	reservations *service.ReservationService
	interval     time.Duration
	logger       *zap.Logger
	stopChan     chan struct{}
}

func NewSweeper(reservations *service.ReservationService, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		reservations: reservations,
		interval:     interval,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start launches the sweep loop in the background.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting time sweeper", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

// Stop terminates the loop after the current sweep, if one is running.
func (s *Sweeper) Stop() {
	s.logger.Info("Stopping time sweeper")
	close(s.stopChan)
}

func (s *Sweeper) run(ctx context.Context) {
	// first pass right away so a restart catches up immediately
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Time sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Time sweeper cancelled")
			return
		}
	}
}

// sweep runs one pass. Store failures are transient by policy, so the pass
// is retried with exponential backoff before giving up until the next tick.
// The sweep itself is idempotent; retrying a half-applied pass is safe.
func (s *Sweeper) sweep(ctx context.Context) {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, err := s.reservations.RunTimeSweep(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		if result.Started > 0 || result.Finished > 0 {
			s.logger.Info("Sweep pass completed",
				zap.Int("started", result.Started),
				zap.Int("finished", result.Finished),
			)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Sweep pass failed", zap.Error(err))
	}
}
