package service

import (
	"context"
	"testing"

	"github.com/auragold/trading-api/internal/domain"
	"github.com/auragold/trading-api/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestBuildReferralChainThreeLevels(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	referralSvc := NewReferralService(store)

	// great-grandparent <- grandparent <- parent <- newcomer
	greatGrandparent := createTestAccount(t, pool, "ggp", 0, nil)
	grandparent := createTestAccount(t, pool, "gp", 0, &greatGrandparent)
	parent := createTestAccount(t, pool, "parent", 0, &grandparent)
	newcomer := createTestAccount(t, pool, "newcomer", 0, &parent)

	require.NoError(t, referralSvc.BuildReferralChain(ctx, newcomer, parent))

	edges, err := repository.New(pool).ListReferralsByReferred(ctx, newcomer)
	require.NoError(t, err)
	require.Len(t, edges, 3)

	require.Equal(t, parent, edges[0].ReferrerID)
	require.Equal(t, 1, edges[0].Level)
	require.Equal(t, 10, edges[0].CommissionRate)

	require.Equal(t, grandparent, edges[1].ReferrerID)
	require.Equal(t, 2, edges[1].Level)
	require.Equal(t, 3, edges[1].CommissionRate)

	require.Equal(t, greatGrandparent, edges[2].ReferrerID)
	require.Equal(t, 3, edges[2].Level)
	require.Equal(t, 2, edges[2].CommissionRate)
}

func TestBuildReferralChainTruncatesAtAncestry(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	referralSvc := NewReferralService(store)

	parent := createTestAccount(t, pool, "solo-parent", 0, nil)
	newcomer := createTestAccount(t, pool, "solo-child", 0, &parent)

	require.NoError(t, referralSvc.BuildReferralChain(ctx, newcomer, parent))

	edges, err := repository.New(pool).ListReferralsByReferred(ctx, newcomer)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, 1, edges[0].Level)
}

func TestCreditTradeCommissionExactPercentages(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	referralSvc := NewReferralService(store)

	level3 := createTestAccount(t, pool, "lvl3", 0, nil)
	level2 := createTestAccount(t, pool, "lvl2", 0, &level3)
	level1 := createTestAccount(t, pool, "lvl1", 0, &level2)
	trader := createTestAccount(t, pool, "trader", 0, &level1)

	require.NoError(t, referralSvc.BuildReferralChain(ctx, trader, level1))

	// $100 stake: 10% / 3% / 2% up the chain.
	err := store.RunInTx(ctx, func(qtx *repository.Queries) error {
		return referralSvc.CreditTradeCommission(ctx, qtx, trader, 100_000_000, "REF-COMM-TEST")
	})
	require.NoError(t, err)

	require.Equal(t, int64(10_000_000), accountBalance(t, pool, level1))
	require.Equal(t, int64(3_000_000), accountBalance(t, pool, level2))
	require.Equal(t, int64(2_000_000), accountBalance(t, pool, level3))

	queries := repository.New(pool)
	for _, tc := range []struct {
		ref    string
		amount int64
	}{
		{"REF-COMM-TEST-L1", 10_000_000},
		{"REF-COMM-TEST-L2", 3_000_000},
		{"REF-COMM-TEST-L3", 2_000_000},
	} {
		tx, err := queries.GetTransactionByReference(ctx, tc.ref)
		require.NoError(t, err)
		require.Equal(t, domain.TxTypeReferralCommission, tx.Type)
		require.Equal(t, tc.amount, tx.AmountMicros)
		require.Equal(t, domain.TxStatusCompleted, tx.Status)
	}

	stats, err := referralSvc.Stats(ctx, level1)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.TotalInvited)
	require.Equal(t, int64(10_000_000), stats.TotalEarningMicros)
}

func TestCreditTradeCommissionNoChain(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	referralSvc := NewReferralService(store)
	loner := createTestAccount(t, pool, "loner", 0, nil)

	err := store.RunInTx(ctx, func(qtx *repository.Queries) error {
		return referralSvc.CreditTradeCommission(ctx, qtx, loner, 100_000_000, "REF-COMM-NONE")
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), accountBalance(t, pool, loner))
}
