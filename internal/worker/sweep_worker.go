package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const DefaultSweepInterval = 30 * time.Second

// OverdueSweeper settles IN_PROGRESS responses whose deadline passed.
type OverdueSweeper interface {
	SweepOverdue(ctx context.Context) (int, error)
}

// SweepWorker periodically force-submits or abandons overdue attempts
// so that a student who walks away cannot hold a response IN_PROGRESS
// forever. The underlying sweep is idempotent, so running several
// instances is safe.
type SweepWorker struct {
	sweeper  OverdueSweeper
	interval time.Duration
	log      zerolog.Logger
}

func NewSweepWorker(sweeper OverdueSweeper, interval time.Duration, log zerolog.Logger) *SweepWorker {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &SweepWorker{
		sweeper:  sweeper,
		interval: interval,
		log:      log.With().Str("component", "sweep_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop
// ----------------------------------------------------------------

func (w *SweepWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("SweepWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Running final sweep...")
			w.sweepSafe(context.Background())
			return
		case <-ticker.C:
			w.sweepSafe(ctx)
		}
	}
}

func (w *SweepWorker) sweepSafe(ctx context.Context) {
	acted, err := w.sweeper.SweepOverdue(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("Sweep failed")
		return
	}
	if acted > 0 {
		w.log.Debug().Int("settled", acted).Msg("Sweep pass complete")
	}
}
