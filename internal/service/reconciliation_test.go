package service

import (
	"context"
	"testing"
	"time"

	"github.com/auragold/trading-api/internal/domain"
	"github.com/auragold/trading-api/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestCheckLedgerCleanBooks(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := NewReconciliationService(store)
	webhooks := NewWebhookService(store, "", true)
	predictions := newPredictionService(store)

	// Fund through the ledger, then churn it a bit.
	account := createTestAccount(t, pool, "bookkeeper", 0, nil)
	payload := depositPayload(t, account, 1_000_000_000, "PROV-RECON-1")
	_, err := webhooks.HandleDeposit(ctx, payload, "")
	require.NoError(t, err)

	questionID := createTestQuestion(t, pool, time.Now().Add(time.Hour), domain.DefaultPayoutMultiplierBps)
	_, err = predictions.PlacePrediction(ctx, account, questionID, true, 100_000_000)
	require.NoError(t, err)
	_, err = predictions.ResolveQuestion(ctx, questionID, true, nil)
	require.NoError(t, err)

	drifted, err := svc.CheckLedger(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, drifted)
}

func TestCheckLedgerFlagsDriftedAccount(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := NewReconciliationService(store)
	webhooks := NewWebhookService(store, "", true)

	account := createTestAccount(t, pool, "crooked", 0, nil)
	payload := depositPayload(t, account, 1_000_000_000, "PROV-RECON-2")
	_, err := webhooks.HandleDeposit(ctx, payload, "")
	require.NoError(t, err)

	// Tamper with the balance behind the ledger's back.
	_, err = pool.Exec(ctx, "UPDATE users SET balance_micros = balance_micros + 1 WHERE id = $1", account)
	require.NoError(t, err)

	drifted, err := svc.CheckLedger(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, drifted)
}
