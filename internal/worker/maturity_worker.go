package worker

import (
	"context"
	"sync"
	"time"

	"github.com/auragold/trading-api/internal/observability"
	"github.com/auragold/trading-api/internal/service"
	"go.uber.org/zap"
)

// MaturityWorker pays out fixed deposits whose term has elapsed.
// Safe for concurrent instances thanks to FOR UPDATE SKIP LOCKED.
type MaturityWorker struct {
	deposits     *service.FixedDepositService
	pollInterval time.Duration
	batchSize    int32
	stopCh       chan struct{}
	stopOnce     sync.Once
}

func NewMaturityWorker(deposits *service.FixedDepositService) *MaturityWorker {
	return &MaturityWorker{
		deposits:     deposits,
		pollInterval: time.Hour,
		batchSize:    50,
		stopCh:       make(chan struct{}),
	}
}

// WithPollInterval sets the poll interval for the worker.
func (w *MaturityWorker) WithPollInterval(interval time.Duration) *MaturityWorker {
	if interval > 0 {
		w.pollInterval = interval
	}
	return w
}

// WithBatchSize sets how many deposits one pass may mature.
func (w *MaturityWorker) WithBatchSize(size int32) *MaturityWorker {
	if size > 0 {
		w.batchSize = size
	}
	return w
}

// Start blocks and matures due deposits at the configured interval.
func (w *MaturityWorker) Start(ctx context.Context) {
	zap.L().Info("maturity worker starting",
		zap.Duration("interval", w.pollInterval),
		zap.Int32("batch_size", w.batchSize),
	)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Catch up on anything that matured while the service was down.
	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("maturity worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("maturity worker stop signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop stops the running worker loop.
func (w *MaturityWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *MaturityWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

func (w *MaturityWorker) runOnce(ctx context.Context) {
	if _, err := w.deposits.MatureDue(ctx, w.batchSize); err != nil {
		observability.IncrementWorkerRun("maturity", "failed")
		zap.L().Error("maturity pass failed", zap.Error(err))
		return
	}
	observability.IncrementWorkerRun("maturity", "success")
}
