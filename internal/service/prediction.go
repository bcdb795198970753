package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/auragold/trading-api/internal/domain"
	"github.com/auragold/trading-api/internal/models"
	"github.com/auragold/trading-api/internal/observability"
	"github.com/auragold/trading-api/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// PredictionService owns stake placement and question settlement.
type PredictionService struct {
	store     QueryStore
	referrals *ReferralService
	audit     *AuditService
}

func NewPredictionService(store QueryStore, referrals *ReferralService) *PredictionService {
	return &PredictionService{
		store:     store,
		referrals: referrals,
		audit:     NewAuditService(store),
	}
}

// CreateQuestionRequest holds operator input for a new question.
type CreateQuestionRequest struct {
	Question        string
	Description     string
	ThresholdMicros int64
	Deadline        time.Time
	MultiplierBps   int32
}

func (s *PredictionService) CreateQuestion(ctx context.Context, req CreateQuestionRequest) (*models.PredictionQuestion, error) {
	if req.Question == "" {
		return nil, errors.New("question text is required")
	}
	if !req.Deadline.After(time.Now()) {
		return nil, errors.New("deadline must be in the future")
	}
	if req.MultiplierBps <= 0 {
		req.MultiplierBps = domain.DefaultPayoutMultiplierBps
	}

	question, err := s.store.Queries().CreateQuestion(ctx, repository.CreateQuestionParams{
		ID:              uuid.New(),
		Question:        req.Question,
		Description:     req.Description,
		ThresholdMicros: req.ThresholdMicros,
		Deadline:        req.Deadline,
		MultiplierBps:   req.MultiplierBps,
	})
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (s *PredictionService) ListQuestions(ctx context.Context, status string, limit, offset int32) ([]models.PredictionQuestion, error) {
	if status == "" {
		status = domain.QuestionStatusActive
	}
	if limit <= 0 {
		limit = 50
	}
	return s.store.Queries().ListQuestionsByStatus(ctx, status, limit, offset)
}

// CloseQuestion stops further stakes without settling.
func (s *PredictionService) CloseQuestion(ctx context.Context, questionID uuid.UUID) error {
	rows, err := s.store.Queries().CloseQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if rows == 0 {
		question, lookupErr := s.store.Queries().GetQuestion(ctx, questionID)
		if lookupErr != nil {
			return models.ErrQuestionNotFound
		}
		if question.Status == domain.QuestionStatusResolved {
			return models.ErrQuestionResolved
		}
		return models.ErrQuestionNotActive
	}
	return nil
}

// PlacePrediction stakes on an active question. The stake debit, the
// prediction row, its ledger entry and the referral commission fan-out
// are one database transaction: a failure anywhere leaves no trace.
func (s *PredictionService) PlacePrediction(ctx context.Context, accountID, questionID uuid.UUID, choice bool, stakeMicros int64) (*models.UserPrediction, error) {
	if stakeMicros < domain.MinPredictionStakeMicros {
		return nil, models.ErrStakeBelowMinimum
	}

	var prediction models.UserPrediction
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		question, err := qtx.GetQuestionForUpdate(ctx, questionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrQuestionNotFound
			}
			return fmt.Errorf("lock question: %w", err)
		}
		if question.Status != domain.QuestionStatusActive {
			return models.ErrQuestionNotActive
		}
		if !question.Deadline.After(time.Now()) {
			return models.ErrQuestionExpired
		}

		p, err := models.NewUserPrediction(questionID, accountID, choice, stakeMicros, question.MultiplierBps)
		if err != nil {
			return err
		}

		if _, err := adjustBalance(ctx, qtx, accountID, -stakeMicros); err != nil {
			return err
		}

		created, err := qtx.CreatePrediction(ctx, p)
		if err != nil {
			return err
		}

		stakeRef := "PRED-STAKE-" + created.ID.String()
		if _, err := qtx.CreateTransaction(ctx, repository.CreateTransactionParams{
			ID:           uuid.New(),
			AccountID:    accountID,
			Type:         domain.TxTypeWithdrawal,
			AmountMicros: stakeMicros,
			Description:  fmt.Sprintf("Stake on %q", question.Question),
			Status:       domain.TxStatusCompleted,
			ReferenceID:  stakeRef,
		}); err != nil {
			return err
		}

		if err := s.referrals.CreditTradeCommission(ctx, qtx, accountID, stakeMicros, "REF-COMM-"+created.ID.String()); err != nil {
			return err
		}

		prediction = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementPredictionPlaced()
	return &prediction, nil
}

// SettlementResult summarizes one resolve run.
type SettlementResult struct {
	QuestionID       uuid.UUID `json:"question_id"`
	CorrectAnswer    bool      `json:"correct_answer"`
	Winners          int       `json:"winners"`
	Losers           int       `json:"losers"`
	TotalPayoutMicro int64     `json:"total_payout_micros"`
}

// ResolveQuestion declares the correct answer and settles every pending
// prediction in one database transaction. The conditional status update
// guarantees a question settles at most once: a second call returns
// models.ErrQuestionResolved and credits nothing. Winners receive their
// precomputed potential payout plus a trade_profit ledger row; losers
// are only marked, their stake was taken at placement.
func (s *PredictionService) ResolveQuestion(ctx context.Context, questionID uuid.UUID, correctAnswer bool, actorID *uuid.UUID) (*SettlementResult, error) {
	result := &SettlementResult{QuestionID: questionID, CorrectAnswer: correctAnswer}

	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		question, err := qtx.MarkQuestionResolved(ctx, questionID, correctAnswer)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				if _, lookupErr := qtx.GetQuestion(ctx, questionID); lookupErr != nil {
					return models.ErrQuestionNotFound
				}
				return models.ErrQuestionResolved
			}
			return fmt.Errorf("mark question resolved: %w", err)
		}

		pending, err := qtx.GetPendingPredictionsForUpdate(ctx, questionID)
		if err != nil {
			return err
		}

		for _, p := range pending {
			isWinner := p.Prediction == correctAnswer
			status := domain.PredictionStatusLost
			if isWinner {
				status = domain.PredictionStatusWon
			}

			rows, err := qtx.SettlePrediction(ctx, p.ID, status)
			if err != nil {
				return err
			}
			if err := requireExactlyOne(rows, "settle prediction"); err != nil {
				return err
			}

			if !isWinner {
				result.Losers++
				continue
			}

			if _, err := adjustBalance(ctx, qtx, p.AccountID, p.PotentialPayoutMicros); err != nil {
				return fmt.Errorf("credit winner %s: %w", p.AccountID, err)
			}
			if _, err := qtx.CreateTransaction(ctx, repository.CreateTransactionParams{
				ID:           uuid.New(),
				AccountID:    p.AccountID,
				Type:         domain.TxTypeTradeProfit,
				AmountMicros: p.PotentialPayoutMicros,
				Description:  fmt.Sprintf("Prediction win on %q", question.Question),
				Status:       domain.TxStatusCompleted,
				ReferenceID:  "PRED-WIN-" + p.ID.String(),
			}); err != nil {
				return err
			}
			result.Winners++
			result.TotalPayoutMicro += p.PotentialPayoutMicros
		}

		metadata, err := json.Marshal(map[string]any{
			"correct_answer": correctAnswer,
			"winners":        result.Winners,
			"losers":         result.Losers,
		})
		if err != nil {
			return fmt.Errorf("encode settlement metadata: %w", err)
		}
		return s.audit.Write(ctx, qtx, "prediction_question", questionID, actorID, "resolved",
			domain.QuestionStatusActive, domain.QuestionStatusResolved, metadata)
	})
	if err != nil {
		return nil, err
	}

	observability.AddPredictionsSettled(result.Winners, result.Losers)
	zap.L().Info("question settled",
		zap.String("question_id", questionID.String()),
		zap.Bool("correct_answer", correctAnswer),
		zap.Int("winners", result.Winners),
		zap.Int("losers", result.Losers),
	)
	return result, nil
}

// ListExpired returns active questions whose deadline has passed.
func (s *PredictionService) ListExpired(ctx context.Context, limit int32) ([]models.PredictionQuestion, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.Queries().ListExpiredActiveQuestions(ctx, time.Now(), limit)
}

// ListPredictions returns one account's stakes, newest first.
func (s *PredictionService) ListPredictions(ctx context.Context, accountID uuid.UUID, page, pageSize int) ([]models.UserPrediction, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return s.store.Queries().ListPredictionsByAccount(ctx, accountID, int32(pageSize), int32((page-1)*pageSize))
}
