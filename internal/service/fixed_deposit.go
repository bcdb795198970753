package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/auragold/trading-api/internal/domain"
	"github.com/auragold/trading-api/internal/models"
	"github.com/auragold/trading-api/internal/observability"
	"github.com/auragold/trading-api/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Annual rates by term length, in basis points.
var fixedDepositRates = map[int]int32{
	30:  300,
	90:  450,
	180: 600,
	365: 800,
}

const minFixedDepositMicros int64 = 100_000_000 // $100

// FixedDepositService locks principal for a fixed term and pays it back
// with interest at maturity.
type FixedDepositService struct {
	store QueryStore
	audit *AuditService
}

func NewFixedDepositService(store QueryStore) *FixedDepositService {
	return &FixedDepositService{store: store, audit: NewAuditService(store)}
}

// Open debits the principal and records the deposit in one transaction.
func (s *FixedDepositService) Open(ctx context.Context, accountID uuid.UUID, amountMicros int64, termDays int) (*models.FixedDeposit, error) {
	rateBps, ok := fixedDepositRates[termDays]
	if !ok {
		return nil, fmt.Errorf("unsupported term: %d days", termDays)
	}
	if amountMicros < minFixedDepositMicros {
		return nil, fmt.Errorf("fixed deposit minimum is %s", domain.Money{Amount: minFixedDepositMicros})
	}

	var deposit models.FixedDeposit
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		if _, err := adjustBalance(ctx, qtx, accountID, -amountMicros); err != nil {
			return err
		}

		created, err := qtx.CreateFixedDeposit(ctx, repository.CreateFixedDepositParams{
			ID:           uuid.New(),
			AccountID:    accountID,
			AmountMicros: amountMicros,
			RateBps:      rateBps,
			TermDays:     termDays,
			MaturesAt:    time.Now().AddDate(0, 0, termDays),
		})
		if err != nil {
			return err
		}

		if _, err := qtx.CreateTransaction(ctx, repository.CreateTransactionParams{
			ID:           uuid.New(),
			AccountID:    accountID,
			Type:         domain.TxTypeFixedDeposit,
			AmountMicros: amountMicros,
			Description:  fmt.Sprintf("Fixed deposit for %d days at %.2f%%", termDays, float64(rateBps)/100),
			Status:       domain.TxStatusCompleted,
			ReferenceID:  "FD-OPEN-" + created.ID.String(),
		}); err != nil {
			return err
		}

		deposit = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (s *FixedDepositService) Get(ctx context.Context, id uuid.UUID) (*models.FixedDeposit, error) {
	deposit, err := s.store.Queries().GetFixedDeposit(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDepositNotFound
		}
		return nil, err
	}
	return &deposit, nil
}

func (s *FixedDepositService) List(ctx context.Context, accountID uuid.UUID) ([]models.FixedDeposit, error) {
	return s.store.Queries().ListFixedDepositsByAccount(ctx, accountID)
}

// MaturityPayout is principal plus simple interest prorated to the term,
// rounded down to a micro.
func MaturityPayout(d models.FixedDeposit) int64 {
	principal := decimal.New(d.AmountMicros, 0)
	interest := principal.
		Mul(decimal.New(int64(d.RateBps), -4)).
		Mul(decimal.New(int64(d.TermDays), 0)).
		Div(decimal.New(365, 0))
	return d.AmountMicros + interest.IntPart()
}

// MatureDue claims a batch of deposits whose term has elapsed and pays
// each back with interest. The batch is locked and settled in a single
// transaction; SKIP LOCKED keeps concurrent runs on disjoint batches.
func (s *FixedDepositService) MatureDue(ctx context.Context, batchSize int32) (int, error) {
	matured := 0
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		due, err := qtx.GetDueFixedDepositsForUpdate(ctx, time.Now(), batchSize)
		if err != nil {
			return err
		}

		for _, d := range due {
			rows, err := qtx.MatureFixedDeposit(ctx, d.ID)
			if err != nil {
				return err
			}
			if err := requireExactlyOne(rows, "mature fixed deposit"); err != nil {
				return err
			}

			payout := MaturityPayout(d)
			if _, err := adjustBalance(ctx, qtx, d.AccountID, payout); err != nil {
				return fmt.Errorf("credit matured deposit %s: %w", d.ID, err)
			}
			if _, err := qtx.CreateTransaction(ctx, repository.CreateTransactionParams{
				ID:           uuid.New(),
				AccountID:    d.AccountID,
				Type:         domain.TxTypeFixedDepositReturn,
				AmountMicros: payout,
				Description:  fmt.Sprintf("Fixed deposit matured after %d days", d.TermDays),
				Status:       domain.TxStatusCompleted,
				ReferenceID:  "FD-RETURN-" + d.ID.String(),
			}); err != nil {
				return err
			}
			if err := s.audit.Write(ctx, qtx, "fixed_deposit", d.ID, nil, "matured",
				domain.FixedDepositStatusActive, domain.FixedDepositStatusMatured, nil); err != nil {
				return err
			}
			matured++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if matured > 0 {
		observability.AddFixedDepositsMatured(matured)
		zap.L().Info("fixed deposits matured", zap.Int("count", matured))
	}
	return matured, nil
}
