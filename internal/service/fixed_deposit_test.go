package service

import (
	"context"
	"testing"
	"time"

	"github.com/auragold/trading-api/internal/domain"
	"github.com/auragold/trading-api/internal/models"
	"github.com/auragold/trading-api/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestOpenFixedDepositDebitsPrincipal(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := NewFixedDepositService(store)

	account := createTestAccount(t, pool, "saver", 2_000_000_000, nil)

	deposit, err := svc.Open(ctx, account, 1_000_000_000, 30)
	require.NoError(t, err)
	require.Equal(t, domain.FixedDepositStatusActive, deposit.Status)
	require.Equal(t, int32(300), deposit.RateBps)

	require.Equal(t, int64(1_000_000_000), accountBalance(t, pool, account))

	tx, err := repository.New(pool).GetTransactionByReference(ctx, "FD-OPEN-"+deposit.ID.String())
	require.NoError(t, err)
	require.Equal(t, domain.TxTypeFixedDeposit, tx.Type)
	require.Equal(t, int64(1_000_000_000), tx.AmountMicros)
}

func TestOpenFixedDepositValidation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := NewFixedDepositService(store)
	account := createTestAccount(t, pool, "picky", 2_000_000_000, nil)

	_, err := svc.Open(ctx, account, 1_000_000_000, 45)
	require.Error(t, err)

	_, err = svc.Open(ctx, account, 50_000_000, 30)
	require.Error(t, err)

	_, err = svc.Open(ctx, account, 5_000_000_000, 30)
	require.ErrorIs(t, err, models.ErrInsufficientFunds)

	require.Equal(t, int64(2_000_000_000), accountBalance(t, pool, account))
}

func TestMaturityPayout(t *testing.T) {
	// $1,000 at 3.00% annual for 30 days: 1000e6 * 0.03 * 30 / 365.
	d := models.FixedDeposit{AmountMicros: 1_000_000_000, RateBps: 300, TermDays: 30}
	require.Equal(t, int64(1_002_465_753), MaturityPayout(d))

	// A full year pays the whole annual rate.
	y := models.FixedDeposit{AmountMicros: 1_000_000_000, RateBps: 800, TermDays: 365}
	require.Equal(t, int64(1_080_000_000), MaturityPayout(y))
}

func TestMatureDueCreditsPrincipalPlusInterest(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := NewFixedDepositService(store)

	account := createTestAccount(t, pool, "maturing", 2_000_000_000, nil)
	deposit, err := svc.Open(ctx, account, 1_000_000_000, 30)
	require.NoError(t, err)

	// Backdate maturity so the sweep picks it up.
	_, err = pool.Exec(ctx, "UPDATE fixed_deposits SET matures_at = $1 WHERE id = $2",
		time.Now().Add(-time.Minute), deposit.ID)
	require.NoError(t, err)

	matured, err := svc.MatureDue(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, matured)

	require.Equal(t, int64(1_000_000_000+1_002_465_753), accountBalance(t, pool, account))

	tx, err := repository.New(pool).GetTransactionByReference(ctx, "FD-RETURN-"+deposit.ID.String())
	require.NoError(t, err)
	require.Equal(t, domain.TxTypeFixedDepositReturn, tx.Type)
	require.Equal(t, int64(1_002_465_753), tx.AmountMicros)

	got, err := svc.Get(ctx, deposit.ID)
	require.NoError(t, err)
	require.Equal(t, domain.FixedDepositStatusMatured, got.Status)

	// A second sweep finds nothing to do.
	matured, err = svc.MatureDue(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 0, matured)
	require.Equal(t, int64(1_000_000_000+1_002_465_753), accountBalance(t, pool, account))
}

func TestMatureDueSkipsUnripeDeposits(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := NewFixedDepositService(store)

	account := createTestAccount(t, pool, "patient", 2_000_000_000, nil)
	_, err := svc.Open(ctx, account, 1_000_000_000, 90)
	require.NoError(t, err)

	matured, err := svc.MatureDue(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 0, matured)
	require.Equal(t, int64(1_000_000_000), accountBalance(t, pool, account))
}
