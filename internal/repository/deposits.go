package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/auragold/trading-api/internal/models"
	"github.com/google/uuid"
)

const fixedDepositColumns = `id, account_id, amount_micros, rate_bps, term_days, status, matures_at, created_at`

func scanFixedDeposit(row rowScanner) (models.FixedDeposit, error) {
	var d models.FixedDeposit
	err := row.Scan(&d.ID, &d.AccountID, &d.AmountMicros, &d.RateBps, &d.TermDays,
		&d.Status, &d.MaturesAt, &d.CreatedAt)
	return d, err
}

type CreateFixedDepositParams struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	AmountMicros int64
	RateBps      int32
	TermDays     int
	MaturesAt    time.Time
}

func (q *Queries) CreateFixedDeposit(ctx context.Context, arg CreateFixedDepositParams) (models.FixedDeposit, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO fixed_deposits (id, account_id, amount_micros, rate_bps, term_days, status, matures_at, created_at)
		VALUES ($1, $2, $3, $4, $5, 'active', $6, NOW())
		RETURNING `+fixedDepositColumns,
		arg.ID, arg.AccountID, arg.AmountMicros, arg.RateBps, arg.TermDays, arg.MaturesAt)
	d, err := scanFixedDeposit(row)
	if err != nil {
		return models.FixedDeposit{}, fmt.Errorf("failed to create fixed deposit: %w", err)
	}
	return d, nil
}

func (q *Queries) GetFixedDeposit(ctx context.Context, id uuid.UUID) (models.FixedDeposit, error) {
	row := q.db.QueryRow(ctx, `SELECT `+fixedDepositColumns+` FROM fixed_deposits WHERE id = $1`, id)
	return scanFixedDeposit(row)
}

func (q *Queries) ListFixedDepositsByAccount(ctx context.Context, accountID uuid.UUID) ([]models.FixedDeposit, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+fixedDepositColumns+` FROM fixed_deposits
		WHERE account_id = $1
		ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fixed deposits: %w", err)
	}
	defer rows.Close()

	var deposits []models.FixedDeposit
	for rows.Next() {
		d, err := scanFixedDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fixed deposit: %w", err)
		}
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}

// GetDueFixedDepositsForUpdate claims a batch of matured-but-unpaid
// deposits. SKIP LOCKED keeps concurrent worker instances from paying
// the same deposit twice.
func (q *Queries) GetDueFixedDepositsForUpdate(ctx context.Context, cutoff time.Time, limit int32) ([]models.FixedDeposit, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+fixedDepositColumns+` FROM fixed_deposits
		WHERE status = 'active' AND matures_at <= $1
		ORDER BY matures_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due fixed deposits: %w", err)
	}
	defer rows.Close()

	var deposits []models.FixedDeposit
	for rows.Next() {
		d, err := scanFixedDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fixed deposit: %w", err)
		}
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}

// MatureFixedDeposit transitions active -> matured exactly once.
func (q *Queries) MatureFixedDeposit(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE fixed_deposits SET status = 'matured'
		WHERE id = $1 AND status = 'active'`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to mature fixed deposit: %w", err)
	}
	return tag.RowsAffected(), nil
}
