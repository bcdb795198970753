package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/auragold/trading-api/internal/domain"
	"github.com/auragold/trading-api/internal/models"
	"github.com/auragold/trading-api/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newPredictionService(store *repository.Store) *PredictionService {
	return NewPredictionService(store, NewReferralService(store))
}

func TestPlacePredictionDebitsStake(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := newPredictionService(store)

	account := createTestAccount(t, pool, "bettor", 1_000_000_000, nil)
	questionID := createTestQuestion(t, pool, time.Now().Add(time.Hour), domain.DefaultPayoutMultiplierBps)

	pred, err := svc.PlacePrediction(ctx, account, questionID, true, 100_000_000)
	require.NoError(t, err)
	require.Equal(t, domain.PredictionStatusPending, pred.Status)
	require.Equal(t, int64(100_000_000), pred.AmountMicros)
	// stake 100 at x1.9
	require.Equal(t, int64(190_000_000), pred.PotentialPayoutMicros)

	require.Equal(t, int64(900_000_000), accountBalance(t, pool, account))

	tx, err := repository.New(pool).GetTransactionByReference(ctx, "PRED-STAKE-"+pred.ID.String())
	require.NoError(t, err)
	require.Equal(t, domain.TxTypeWithdrawal, tx.Type)
	require.Equal(t, int64(100_000_000), tx.AmountMicros)
	require.Equal(t, domain.TxStatusCompleted, tx.Status)
}

func TestPlacePredictionRejectsStakeBelowMinimum(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := newPredictionService(store)

	account := createTestAccount(t, pool, "lowballer", 1_000_000_000, nil)
	questionID := createTestQuestion(t, pool, time.Now().Add(time.Hour), domain.DefaultPayoutMultiplierBps)

	_, err := svc.PlacePrediction(ctx, account, questionID, true, 9_990_000)
	require.ErrorIs(t, err, models.ErrStakeBelowMinimum)
	require.Equal(t, int64(1_000_000_000), accountBalance(t, pool, account))
}

func TestPlacePredictionInsufficientFunds(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := newPredictionService(store)

	account := createTestAccount(t, pool, "broke", 50_000_000, nil)
	questionID := createTestQuestion(t, pool, time.Now().Add(time.Hour), domain.DefaultPayoutMultiplierBps)

	_, err := svc.PlacePrediction(ctx, account, questionID, true, 100_000_000)
	require.ErrorIs(t, err, models.ErrInsufficientFunds)
	require.Equal(t, int64(50_000_000), accountBalance(t, pool, account))

	preds, err := svc.ListPredictions(ctx, account, 1, 20)
	require.NoError(t, err)
	require.Empty(t, preds)
}

func TestPlacePredictionExpiredQuestion(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := newPredictionService(store)

	account := createTestAccount(t, pool, "late", 1_000_000_000, nil)
	questionID := createTestQuestion(t, pool, time.Now().Add(-time.Minute), domain.DefaultPayoutMultiplierBps)

	_, err := svc.PlacePrediction(ctx, account, questionID, true, 100_000_000)
	require.ErrorIs(t, err, models.ErrQuestionExpired)
	require.Equal(t, int64(1_000_000_000), accountBalance(t, pool, account))
}

func TestPlacePredictionFansOutCommission(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	referralSvc := NewReferralService(store)
	svc := NewPredictionService(store, referralSvc)

	referrer := createTestAccount(t, pool, "referrer", 0, nil)
	bettor := createTestAccount(t, pool, "referred-bettor", 1_000_000_000, &referrer)
	require.NoError(t, referralSvc.BuildReferralChain(ctx, bettor, referrer))

	questionID := createTestQuestion(t, pool, time.Now().Add(time.Hour), domain.DefaultPayoutMultiplierBps)
	pred, err := svc.PlacePrediction(ctx, bettor, questionID, true, 100_000_000)
	require.NoError(t, err)

	// 10% of the stake lands on the level 1 referrer in the same transaction.
	require.Equal(t, int64(10_000_000), accountBalance(t, pool, referrer))

	ref := fmt.Sprintf("REF-COMM-%s-L1", pred.ID)
	tx, err := repository.New(pool).GetTransactionByReference(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, domain.TxTypeReferralCommission, tx.Type)
}

func TestResolveQuestionPaysWinnersOnly(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := newPredictionService(store)

	winner := createTestAccount(t, pool, "winner", 500_000_000, nil)
	loser := createTestAccount(t, pool, "loser", 500_000_000, nil)
	questionID := createTestQuestion(t, pool, time.Now().Add(time.Hour), domain.DefaultPayoutMultiplierBps)

	winnerPred, err := svc.PlacePrediction(ctx, winner, questionID, true, 100_000_000)
	require.NoError(t, err)
	_, err = svc.PlacePrediction(ctx, loser, questionID, false, 100_000_000)
	require.NoError(t, err)

	result, err := svc.ResolveQuestion(ctx, questionID, true, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.Winners)
	require.Equal(t, 1, result.Losers)
	require.Equal(t, int64(190_000_000), result.TotalPayoutMicro)

	// 500 - 100 stake + 190 payout
	require.Equal(t, int64(590_000_000), accountBalance(t, pool, winner))
	// 500 - 100 stake, nothing back
	require.Equal(t, int64(400_000_000), accountBalance(t, pool, loser))

	payout, err := repository.New(pool).GetTransactionByReference(ctx, "PRED-WIN-"+winnerPred.ID.String())
	require.NoError(t, err)
	require.Equal(t, domain.TxTypeTradeProfit, payout.Type)
	require.Equal(t, int64(190_000_000), payout.AmountMicros)

	loserPreds, err := svc.ListPredictions(ctx, loser, 1, 20)
	require.NoError(t, err)
	require.Len(t, loserPreds, 1)
	require.Equal(t, domain.PredictionStatusLost, loserPreds[0].Status)
	require.NotNil(t, loserPreds[0].SettledAt)
}

func TestResolveQuestionIdempotent(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := newPredictionService(store)

	account := createTestAccount(t, pool, "repeat", 500_000_000, nil)
	questionID := createTestQuestion(t, pool, time.Now().Add(time.Hour), domain.DefaultPayoutMultiplierBps)

	_, err := svc.PlacePrediction(ctx, account, questionID, true, 100_000_000)
	require.NoError(t, err)

	_, err = svc.ResolveQuestion(ctx, questionID, true, nil)
	require.NoError(t, err)
	balanceAfterFirst := accountBalance(t, pool, account)
	require.Equal(t, int64(590_000_000), balanceAfterFirst)

	_, err = svc.ResolveQuestion(ctx, questionID, true, nil)
	require.ErrorIs(t, err, models.ErrQuestionResolved)
	require.Equal(t, balanceAfterFirst, accountBalance(t, pool, account))
}

func TestResolveQuestionNotFound(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := repository.NewStore(pool)
	svc := newPredictionService(store)

	_, err := svc.ResolveQuestion(context.Background(), uuid.New(), true, nil)
	require.ErrorIs(t, err, models.ErrQuestionNotFound)
}

func TestCloseQuestionBlocksNewStakes(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := newPredictionService(store)

	account := createTestAccount(t, pool, "closed-out", 1_000_000_000, nil)
	questionID := createTestQuestion(t, pool, time.Now().Add(time.Hour), domain.DefaultPayoutMultiplierBps)

	require.NoError(t, svc.CloseQuestion(ctx, questionID))

	_, err := svc.PlacePrediction(ctx, account, questionID, true, 100_000_000)
	require.ErrorIs(t, err, models.ErrQuestionNotActive)

	// Closing twice is a no-op error, not a crash.
	err = svc.CloseQuestion(ctx, questionID)
	require.ErrorIs(t, err, models.ErrQuestionNotActive)
}

func TestListExpiredFindsDueQuestions(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := newPredictionService(store)

	expired := createTestQuestion(t, pool, time.Now().Add(-time.Minute), domain.DefaultPayoutMultiplierBps)
	createTestQuestion(t, pool, time.Now().Add(time.Hour), domain.DefaultPayoutMultiplierBps)

	due, err := svc.ListExpired(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, expired, due[0].ID)
}
