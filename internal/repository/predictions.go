package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/auragold/trading-api/internal/models"
	"github.com/google/uuid"
)

const questionColumns = `id, question, description, threshold_micros, deadline, multiplier_bps, status, correct_answer, resolved_at, created_at`
const predictionColumns = `id, question_id, account_id, prediction, amount_micros, potential_payout_micros, status, created_at, settled_at`

func scanQuestion(row rowScanner) (models.PredictionQuestion, error) {
	var pq models.PredictionQuestion
	err := row.Scan(&pq.ID, &pq.Question, &pq.Description, &pq.ThresholdMicros, &pq.Deadline,
		&pq.MultiplierBps, &pq.Status, &pq.CorrectAnswer, &pq.ResolvedAt, &pq.CreatedAt)
	return pq, err
}

func scanPrediction(row rowScanner) (models.UserPrediction, error) {
	var p models.UserPrediction
	err := row.Scan(&p.ID, &p.QuestionID, &p.AccountID, &p.Prediction, &p.AmountMicros,
		&p.PotentialPayoutMicros, &p.Status, &p.CreatedAt, &p.SettledAt)
	return p, err
}

type CreateQuestionParams struct {
	ID              uuid.UUID
	Question        string
	Description     string
	ThresholdMicros int64
	Deadline        time.Time
	MultiplierBps   int32
}

func (q *Queries) CreateQuestion(ctx context.Context, arg CreateQuestionParams) (models.PredictionQuestion, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO prediction_questions (id, question, description, threshold_micros, deadline, multiplier_bps, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'active', NOW())
		RETURNING `+questionColumns,
		arg.ID, arg.Question, arg.Description, arg.ThresholdMicros, arg.Deadline, arg.MultiplierBps)
	pq, err := scanQuestion(row)
	if err != nil {
		return models.PredictionQuestion{}, fmt.Errorf("failed to create question: %w", err)
	}
	return pq, nil
}

func (q *Queries) GetQuestion(ctx context.Context, id uuid.UUID) (models.PredictionQuestion, error) {
	row := q.db.QueryRow(ctx, `SELECT `+questionColumns+` FROM prediction_questions WHERE id = $1`, id)
	return scanQuestion(row)
}

// GetQuestionForUpdate locks the question row for the duration of the
// surrounding transaction so stake placement and settlement serialize.
func (q *Queries) GetQuestionForUpdate(ctx context.Context, id uuid.UUID) (models.PredictionQuestion, error) {
	row := q.db.QueryRow(ctx, `SELECT `+questionColumns+` FROM prediction_questions WHERE id = $1 FOR UPDATE`, id)
	return scanQuestion(row)
}

func (q *Queries) ListQuestionsByStatus(ctx context.Context, status string, limit, offset int32) ([]models.PredictionQuestion, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+questionColumns+` FROM prediction_questions
		WHERE status = $1
		ORDER BY deadline ASC
		LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()
	return collectQuestions(rows)
}

// ListExpiredActiveQuestions returns active questions whose deadline has
// passed, locked with SKIP LOCKED so concurrent workers don't collide.
func (q *Queries) ListExpiredActiveQuestions(ctx context.Context, cutoff time.Time, limit int32) ([]models.PredictionQuestion, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+questionColumns+` FROM prediction_questions
		WHERE status = 'active' AND deadline <= $1
		ORDER BY deadline ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired questions: %w", err)
	}
	defer rows.Close()
	return collectQuestions(rows)
}

func collectQuestions(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]models.PredictionQuestion, error) {
	var questions []models.PredictionQuestion
	for rows.Next() {
		pq, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, pq)
	}
	return questions, rows.Err()
}

// CloseQuestion transitions active -> closed; resolved questions are
// untouched. Returns the number of rows changed.
func (q *Queries) CloseQuestion(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE prediction_questions SET status = 'closed'
		WHERE id = $1 AND status = 'active'`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to close question: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkQuestionResolved is the settlement idempotency guard: the
// conditional UPDATE succeeds at most once per question, so a second
// resolve attempt sees pgx.ErrNoRows and never re-credits winners.
func (q *Queries) MarkQuestionResolved(ctx context.Context, id uuid.UUID, correctAnswer bool) (models.PredictionQuestion, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE prediction_questions
		SET status = 'resolved', correct_answer = $2, resolved_at = NOW()
		WHERE id = $1 AND status <> 'resolved'
		RETURNING `+questionColumns, id, correctAnswer)
	return scanQuestion(row)
}

func (q *Queries) CreatePrediction(ctx context.Context, p *models.UserPrediction) (models.UserPrediction, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO user_predictions (id, question_id, account_id, prediction, amount_micros, potential_payout_micros, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING `+predictionColumns,
		p.ID, p.QuestionID, p.AccountID, p.Prediction, p.AmountMicros, p.PotentialPayoutMicros, p.Status)
	created, err := scanPrediction(row)
	if err != nil {
		return models.UserPrediction{}, fmt.Errorf("failed to create prediction: %w", err)
	}
	return created, nil
}

// GetPendingPredictionsForUpdate locks every pending prediction on a
// question for settlement.
func (q *Queries) GetPendingPredictionsForUpdate(ctx context.Context, questionID uuid.UUID) ([]models.UserPrediction, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+predictionColumns+` FROM user_predictions
		WHERE question_id = $1 AND status = 'pending'
		ORDER BY created_at ASC
		FOR UPDATE`, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending predictions: %w", err)
	}
	defer rows.Close()

	var predictions []models.UserPrediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

// SettlePrediction transitions pending -> won/lost exactly once.
func (q *Queries) SettlePrediction(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE user_predictions SET status = $2, settled_at = NOW()
		WHERE id = $1 AND status = 'pending'`, id, status)
	if err != nil {
		return 0, fmt.Errorf("failed to settle prediction: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListPredictionsByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int32) ([]models.UserPrediction, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+predictionColumns+` FROM user_predictions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer rows.Close()

	var predictions []models.UserPrediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}
