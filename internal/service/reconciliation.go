package service

import (
	"context"
	"fmt"

	"github.com/auragold/trading-api/internal/observability"
	"go.uber.org/zap"
)

// ReconciliationService cross-checks stored balances against the sum of
// each account's ledger entries.
type ReconciliationService struct {
	store QueryStore
}

func NewReconciliationService(store QueryStore) *ReconciliationService {
	return &ReconciliationService{store: store}
}

// CheckLedger returns the accounts whose balance disagrees with their
// ledger. Drift is reported, never auto-corrected.
func (s *ReconciliationService) CheckLedger(ctx context.Context) (int, error) {
	drifts, err := s.store.Queries().GetLedgerDrift(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to compute ledger drift: %w", err)
	}

	for _, d := range drifts {
		zap.L().Error("ledger drift detected",
			zap.String("account_id", d.AccountID.String()),
			zap.Int64("balance_micros", d.BalanceMicros),
			zap.Int64("ledger_micros", d.LedgerMicros),
			zap.Int64("drift_micros", d.BalanceMicros-d.LedgerMicros),
		)
	}
	observability.SetLedgerImbalance(len(drifts))
	return len(drifts), nil
}
