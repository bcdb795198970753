package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/auragold/trading-api/internal/domain"
	"github.com/auragold/trading-api/internal/models"
	"github.com/auragold/trading-api/internal/observability"
	"github.com/auragold/trading-api/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ReferralService builds the upward referral chain at registration and
// fans out trade commissions to it afterwards.
type ReferralService struct {
	store QueryStore
}

func NewReferralService(store QueryStore) *ReferralService {
	return &ReferralService{store: store}
}

// BuildReferralChain walks the referrer ancestry of immediateReferrerID
// and writes one referral edge per level, up to three. A chain shorter
// than three levels stops early without error. Revisited ids terminate
// the walk: the level bound already prevents an infinite loop, but a
// cycle in referred_by data would otherwise produce nonsense edges.
func (s *ReferralService) BuildReferralChain(ctx context.Context, newAccountID, immediateReferrerID uuid.UUID) error {
	return s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		seen := map[uuid.UUID]struct{}{newAccountID: {}}
		current := immediateReferrerID

		for level := 1; level <= domain.MaxReferralLevel; level++ {
			if _, revisited := seen[current]; revisited {
				zap.L().Warn("referral cycle detected, truncating chain",
					zap.String("account_id", newAccountID.String()),
					zap.String("revisited_id", current.String()),
					zap.Int("level", level),
				)
				return nil
			}
			seen[current] = struct{}{}

			edge, err := models.NewReferral(current, newAccountID, level)
			if err != nil {
				return err
			}
			if _, err := qtx.CreateReferral(ctx, edge); err != nil {
				return fmt.Errorf("create level %d referral: %w", level, err)
			}

			next, err := qtx.GetReferrerOf(ctx, current)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil // referrer row vanished, stop quietly
				}
				return fmt.Errorf("lookup level %d referrer: %w", level, err)
			}
			if next == nil {
				return nil
			}
			current = *next
		}
		return nil
	})
}

// CreditTradeCommission pays each upward referral edge its percentage
// of the stake and appends one referral_commission ledger row per
// payment. Runs inside the caller's transaction so the stake and its
// commissions commit or roll back together.
func (s *ReferralService) CreditTradeCommission(ctx context.Context, qtx *repository.Queries, accountID uuid.UUID, stakeMicros int64, referenceID string) error {
	edges, err := qtx.ListReferralsByReferred(ctx, accountID)
	if err != nil {
		return fmt.Errorf("list referral edges: %w", err)
	}

	stake := domain.NewMoney(stakeMicros)
	for _, edge := range edges {
		commission := stake.Percent(edge.CommissionRate)
		if commission.Amount <= 0 {
			continue
		}

		if _, err := qtx.AdjustBalance(ctx, edge.ReferrerID, commission.Amount); err != nil {
			return fmt.Errorf("credit level %d referrer: %w", edge.Level, err)
		}
		if _, err := qtx.CreateTransaction(ctx, repository.CreateTransactionParams{
			ID:           uuid.New(),
			AccountID:    edge.ReferrerID,
			Type:         domain.TxTypeReferralCommission,
			AmountMicros: commission.Amount,
			Description:  fmt.Sprintf("Level %d referral commission (%d%%)", edge.Level, edge.CommissionRate),
			Status:       domain.TxStatusCompleted,
			ReferenceID:  fmt.Sprintf("%s-L%d", referenceID, edge.Level),
		}); err != nil {
			return fmt.Errorf("record level %d commission: %w", edge.Level, err)
		}
		rows, err := qtx.IncrementReferralCommission(ctx, edge.ID, commission.Amount)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "increment referral commission"); err != nil {
			return err
		}
		observability.IncrementReferralCommission(edge.Level)
	}
	return nil
}

// ListReferrals returns the referrer's downward edges.
func (s *ReferralService) ListReferrals(ctx context.Context, referrerID uuid.UUID) ([]models.Referral, error) {
	return s.store.Queries().ListReferralsByReferrer(ctx, referrerID)
}

// ReferralStats summarizes one referrer's network.
type ReferralStats struct {
	TotalInvited       int64 `json:"total_invited"`
	TotalEarningMicros int64 `json:"total_earning_micros"`
}

func (s *ReferralService) Stats(ctx context.Context, referrerID uuid.UUID) (*ReferralStats, error) {
	row, err := s.store.Queries().GetReferralStats(ctx, referrerID)
	if err != nil {
		return nil, err
	}
	return &ReferralStats{
		TotalInvited:       row.TotalInvited,
		TotalEarningMicros: row.TotalEarningMicros,
	}, nil
}
