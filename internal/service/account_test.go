package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/auragold/trading-api/internal/models"
	"github.com/auragold/trading-api/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := NewAccountService(store, NewReferralService(store))

	account, err := svc.Register(ctx, RegisterRequest{
		Email:    "Alice@Example.com",
		Username: "alice",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", account.Email)
	require.NotEmpty(t, account.ReferralCode)
	require.Equal(t, int64(0), account.BalanceMicros)

	got, err := svc.Authenticate(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, account.ID, got.ID)

	_, err = svc.Authenticate(ctx, "alice@example.com", "wrong-password")
	require.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "correct-horse")
	require.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := NewAccountService(store, NewReferralService(store))

	_, err := svc.Register(ctx, RegisterRequest{Email: "dup@example.com", Username: "first", Password: "password-1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Email: "dup@example.com", Username: "second", Password: "password-2"})
	require.ErrorIs(t, err, models.ErrEmailTaken)
}

func TestRegisterWithReferralCode(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := NewAccountService(store, NewReferralService(store))

	referrer, err := svc.Register(ctx, RegisterRequest{Email: "ref@example.com", Username: "ref", Password: "password-1"})
	require.NoError(t, err)

	referred, err := svc.Register(ctx, RegisterRequest{
		Email:        "new@example.com",
		Username:     "new",
		Password:     "password-2",
		ReferralCode: referrer.ReferralCode,
	})
	require.NoError(t, err)
	require.NotNil(t, referred.ReferredBy)
	require.Equal(t, referrer.ID, *referred.ReferredBy)

	edges, err := repository.New(pool).ListReferralsByReferred(ctx, referred.ID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, referrer.ID, edges[0].ReferrerID)

	_, err = svc.Register(ctx, RegisterRequest{
		Email:        "lost@example.com",
		Username:     "lost",
		Password:     "password-3",
		ReferralCode: "NOSUCHCODE",
	})
	require.ErrorIs(t, err, models.ErrReferralCodeNotFound)
}

func TestAdjustBalanceConcurrentDebits(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := NewAccountService(store, NewReferralService(store))
	account := createTestAccount(t, pool, "contended", 100_000_000, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AdjustBalance(ctx, account, -50_000_000)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Equal(t, int64(0), accountBalance(t, pool, account))

	// The account is empty, the next debit must be refused.
	_, err := svc.AdjustBalance(ctx, account, -50_000_000)
	require.ErrorIs(t, err, models.ErrInsufficientFunds)
	require.Equal(t, int64(0), accountBalance(t, pool, account))
}

func TestGetStatementNewestFirst(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	accountSvc := NewAccountService(store, NewReferralService(store))
	predictionSvc := newPredictionService(store)

	account := createTestAccount(t, pool, "statement", 1_000_000_000, nil)
	questionID := createTestQuestion(t, pool, time.Now().Add(time.Hour), 19000)

	_, err := predictionSvc.PlacePrediction(ctx, account, questionID, true, 10_000_000)
	require.NoError(t, err)
	_, err = predictionSvc.PlacePrediction(ctx, account, questionID, true, 20_000_000)
	require.NoError(t, err)

	txs, err := accountSvc.GetStatement(ctx, account, 1, 20)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	require.Equal(t, int64(20_000_000), txs[0].AmountMicros)
	require.Equal(t, int64(10_000_000), txs[1].AmountMicros)
}

func TestGetAccountNotFound(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := repository.NewStore(pool)
	svc := NewAccountService(store, NewReferralService(store))

	_, err := svc.GetAccount(context.Background(), uuid.New())
	require.ErrorIs(t, err, models.ErrAccountNotFound)
}
