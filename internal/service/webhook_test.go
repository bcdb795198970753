package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/auragold/trading-api/internal/domain"
	"github.com/auragold/trading-api/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const webhookTestKey = "webhook-test-secret"

func signPayload(t *testing.T, payload []byte) string {
	t.Helper()
	h := hmac.New(sha256.New, []byte(webhookTestKey))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

func depositPayload(t *testing.T, accountID uuid.UUID, amount int64, reference string) []byte {
	t.Helper()
	body, err := json.Marshal(DepositWebhookPayload{
		AccountID:    accountID.String(),
		AmountMicros: amount,
		Reference:    reference,
	})
	require.NoError(t, err)
	return body
}

func TestHandleDepositCreditsAccount(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := NewWebhookService(store, webhookTestKey, false)
	account := createTestAccount(t, pool, "depositor", 0, nil)

	payload := depositPayload(t, account, 250_000_000, "PROV-001")
	resp, err := svc.HandleDeposit(ctx, payload, signPayload(t, payload))
	require.NoError(t, err)
	require.Equal(t, domain.TxStatusCompleted, resp.Status)

	require.Equal(t, int64(250_000_000), accountBalance(t, pool, account))

	tx, err := repository.New(pool).GetTransactionByReference(ctx, "PROV-001")
	require.NoError(t, err)
	require.Equal(t, domain.TxTypeDeposit, tx.Type)
	require.Equal(t, domain.TxStatusCompleted, tx.Status)
	require.Equal(t, int64(250_000_000), tx.AmountMicros)
}

func TestHandleDepositRejectsBadSignature(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := NewWebhookService(store, webhookTestKey, false)
	account := createTestAccount(t, pool, "unsigned", 0, nil)

	payload := depositPayload(t, account, 250_000_000, "PROV-002")
	_, err := svc.HandleDeposit(ctx, payload, "sha256=deadbeef")
	require.ErrorIs(t, err, ErrInvalidSignature)
	require.Equal(t, int64(0), accountBalance(t, pool, account))
}

func TestHandleDepositReplayIsAcknowledgedOnce(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := NewWebhookService(store, webhookTestKey, false)
	account := createTestAccount(t, pool, "replayer", 0, nil)

	payload := depositPayload(t, account, 250_000_000, "PROV-003")
	sig := signPayload(t, payload)

	first, err := svc.HandleDeposit(ctx, payload, sig)
	require.NoError(t, err)

	second, err := svc.HandleDeposit(ctx, payload, sig)
	require.NoError(t, err)
	require.Equal(t, first.TransactionID, second.TransactionID)
	require.Equal(t, "Deposit already processed", second.Message)

	// Credited exactly once.
	require.Equal(t, int64(250_000_000), accountBalance(t, pool, account))
}

func TestHandleDepositPayloadMismatch(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := NewWebhookService(store, webhookTestKey, false)
	account := createTestAccount(t, pool, "mismatched", 0, nil)

	payload := depositPayload(t, account, 250_000_000, "PROV-004")
	_, err := svc.HandleDeposit(ctx, payload, signPayload(t, payload))
	require.NoError(t, err)

	// Same reference, different amount.
	altered := depositPayload(t, account, 300_000_000, "PROV-004")
	_, err = svc.HandleDeposit(ctx, altered, signPayload(t, altered))
	require.ErrorIs(t, err, ErrDepositPayloadMismatch)
	require.Equal(t, int64(250_000_000), accountBalance(t, pool, account))
}

func TestHandleDepositValidation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := NewWebhookService(store, webhookTestKey, true)
	account := createTestAccount(t, pool, "validated", 0, nil)

	for _, payload := range [][]byte{
		depositPayload(t, account, 0, "PROV-005"),
		depositPayload(t, account, -5_000_000, "PROV-006"),
		depositPayload(t, account, 100_000_000, " "),
		[]byte(`{"account_id":"not-a-uuid","amount_micros":100,"reference":"PROV-007"}`),
	} {
		_, err := svc.HandleDeposit(ctx, payload, "")
		require.Error(t, err)
	}
	require.Equal(t, int64(0), accountBalance(t, pool, account))
}
