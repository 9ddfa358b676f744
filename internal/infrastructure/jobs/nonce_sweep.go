package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chat-ledger.backend/pkg/logger"
)

type nonceSweeper interface {
	Sweep(ctx context.Context) int
}

// NonceSweepJob periodically drops expired authentication nonces
type NonceSweepJob struct {
	store    nonceSweeper
	interval time.Duration
	stop     chan struct{}
}

func NewNonceSweepJob(store nonceSweeper, interval time.Duration) *NonceSweepJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &NonceSweepJob{
		store:    store,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (j *NonceSweepJob) Start(ctx context.Context) {
	logger.Info(ctx, "starting nonce sweep job", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "nonce sweep job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "nonce sweep job stopped")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *NonceSweepJob) Stop() {
	close(j.stop)
}

func (j *NonceSweepJob) sweep(ctx context.Context) {
	if n := j.store.Sweep(ctx); n > 0 {
		logger.Debug(ctx, "expired nonces removed", zap.Int("count", n))
	}
}
