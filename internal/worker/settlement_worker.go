package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/auragold/trading-api/internal/gateway"
	"github.com/auragold/trading-api/internal/observability"
	"github.com/auragold/trading-api/internal/service"
	"go.uber.org/zap"
)

// SettlementWorker resolves prediction questions whose deadline has
// passed, answering them from the spot price at settlement time. Safe
// for concurrent instances: the resolve path is idempotent.
type SettlementWorker struct {
	predictions  *service.PredictionService
	feed         gateway.PriceFeed
	pollInterval time.Duration
	batchSize    int32
	stopCh       chan struct{}
	stopOnce     sync.Once
}

func NewSettlementWorker(predictions *service.PredictionService, feed gateway.PriceFeed) *SettlementWorker {
	return &SettlementWorker{
		predictions:  predictions,
		feed:         feed,
		pollInterval: 30 * time.Second,
		batchSize:    10,
		stopCh:       make(chan struct{}),
	}
}

// WithPollInterval sets the poll interval for the worker.
func (w *SettlementWorker) WithPollInterval(interval time.Duration) *SettlementWorker {
	if interval > 0 {
		w.pollInterval = interval
	}
	return w
}

// WithBatchSize sets how many questions one pass may settle.
func (w *SettlementWorker) WithBatchSize(size int32) *SettlementWorker {
	if size > 0 {
		w.batchSize = size
	}
	return w
}

// Start blocks and settles expired questions at the configured interval.
func (w *SettlementWorker) Start(ctx context.Context) {
	zap.L().Info("settlement worker starting",
		zap.Duration("interval", w.pollInterval),
		zap.Int32("batch_size", w.batchSize),
	)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("settlement worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("settlement worker stop signal received")
			return
		case <-ticker.C:
			if err := w.ProcessOnce(ctx); err != nil {
				observability.IncrementWorkerRun("settlement", "failed")
				zap.L().Error("settlement pass failed", zap.Error(err))
				continue
			}
			observability.IncrementWorkerRun("settlement", "success")
		}
	}
}

// Stop stops the running worker loop.
func (w *SettlementWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *SettlementWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

// ProcessOnce settles one batch of expired questions immediately.
func (w *SettlementWorker) ProcessOnce(ctx context.Context) error {
	expired, err := w.predictions.ListExpired(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list expired questions: %w", err)
	}
	if len(expired) == 0 {
		return nil
	}

	quote, err := w.feed.SpotPrice(ctx)
	if err != nil {
		return fmt.Errorf("fetch spot price: %w", err)
	}

	for _, q := range expired {
		answer := quote.PriceMicros >= q.ThresholdMicros
		result, err := w.predictions.ResolveQuestion(ctx, q.ID, answer, nil)
		if err != nil {
			zap.L().Error("failed to resolve expired question",
				zap.String("question_id", q.ID.String()),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("expired question resolved",
			zap.String("question_id", q.ID.String()),
			zap.Int64("spot_micros", quote.PriceMicros),
			zap.Int64("threshold_micros", q.ThresholdMicros),
			zap.Bool("answer", answer),
			zap.Int("winners", result.Winners),
			zap.Int("losers", result.Losers),
		)
	}
	return nil
}

// String returns a short description of the worker.
func (w *SettlementWorker) String() string {
	return fmt.Sprintf("SettlementWorker(interval=%v, batch=%d)", w.pollInterval, w.batchSize)
}
