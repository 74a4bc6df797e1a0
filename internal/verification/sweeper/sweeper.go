// Package sweeper periodically removes verification tokens that can no longer be used.
package sweeper

import (
	"context"
	"log/slog"
	"time"
)

const defaultInterval = time.Minute

// TokenSweeper deletes expired tokens and reports how many were removed.
type TokenSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Worker runs SweepExpired on a fixed interval. Sweeps are housekeeping only; a
// failed sweep is logged and retried on the next tick.
type Worker struct {
	sweeper  TokenSweeper
	interval time.Duration
	logger   *slog.Logger
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func New(sweeper TokenSweeper, interval time.Duration, opts ...Option) *Worker {
	if interval <= 0 {
		interval = defaultInterval
	}
	w := &Worker{
		sweeper:  sweeper,
		interval: interval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run sweeps every interval until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.InfoContext(ctx, "token sweeper started", "interval", w.interval)
	for {
		select {
		case <-ticker.C:
			w.sweepOnce(ctx)
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "token sweeper stopped")
			return nil
		}
	}
}

func (w *Worker) sweepOnce(ctx context.Context) {
	deleted, err := w.sweeper.SweepExpired(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "token sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		w.logger.DebugContext(ctx, "token sweep completed", "deleted", deleted)
	}
}
