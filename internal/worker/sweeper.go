// Package worker holds background maintenance loops. The only one today is
// the orphan sweep: checkout commits its local order before calling the
// gateway, so a crash or gateway outage in between leaves CREATED rows with
// no gateway reference that nothing will ever confirm.
package worker

import (
	"context"
	"errors"
	"time"

	"marketplace-checkout/internal/repository"

	"go.uber.org/zap"
)

type OrphanSweeper struct {
	orderRepo repository.OrderRepository
	interval  time.Duration
	maxAge    time.Duration
	logger    *zap.Logger
}

func NewOrphanSweeper(orderRepo repository.OrderRepository, interval, maxAge time.Duration, logger *zap.Logger) *OrphanSweeper {
	return &OrphanSweeper{
		orderRepo: orderRepo,
		interval:  interval,
		maxAge:    maxAge,
		logger:    logger,
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (w *OrphanSweeper) Start(ctx context.Context) {
	w.logger.Info("starting orphan sweeper",
		zap.Duration("interval", w.interval),
		zap.Duration("max_age", w.maxAge))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("orphan sweeper stopped")
			return
		case <-ticker.C:
			if n, err := w.Sweep(ctx); err != nil {
				w.logger.Error("orphan sweep failed", zap.Error(err))
			} else if n > 0 {
				w.logger.Info("cancelled orphaned orders", zap.Int("count", n))
			}
		}
	}
}

// Sweep cancels stale CREATED orders that never received a gateway
// reference. Cancelling frees any coupon the order had bound, since the
// exclusivity check skips terminal statuses. Each cancel re-checks status
// and reference, so an order completing concurrently is left alone.
func (w *OrphanSweeper) Sweep(ctx context.Context) (int, error) {
	orphans, err := w.orderRepo.FindOrphans(ctx, time.Now().Add(-w.maxAge))
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, order := range orphans {
		if err := w.orderRepo.CancelOrphan(ctx, order.ID); err != nil {
			if errors.Is(err, repository.ErrStaleStatus) {
				continue
			}
			return cancelled, err
		}
		cancelled++
	}

	return cancelled, nil
}
