package repository

import (
	"context"
	"fmt"

	"github.com/auragold/trading-api/internal/models"
	"github.com/google/uuid"
)

const transactionColumns = `id, account_id, type, amount_micros, description, status, reference_id, created_at`

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.AccountID, &t.Type, &t.AmountMicros, &t.Description,
		&t.Status, &t.ReferenceID, &t.CreatedAt)
	return t, err
}

type CreateTransactionParams struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	Type         string
	AmountMicros int64
	Description  string
	Status       string
	ReferenceID  string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (models.Transaction, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO transactions (id, account_id, type, amount_micros, description, status, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING `+transactionColumns,
		arg.ID, arg.AccountID, arg.Type, arg.AmountMicros, arg.Description, arg.Status, arg.ReferenceID)
	t, err := scanTransaction(row)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to create transaction: %w", err)
	}
	return t, nil
}

func (q *Queries) GetTransactionByReference(ctx context.Context, referenceID string) (models.Transaction, error) {
	row := q.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE reference_id = $1`, referenceID)
	return scanTransaction(row)
}

func (q *Queries) ListTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int32) ([]models.Transaction, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (q *Queries) UpdateTransactionStatus(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE transactions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return 0, fmt.Errorf("failed to update transaction status: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) GetTransactionStatusForUpdate(ctx context.Context, id uuid.UUID) (string, error) {
	var status string
	err := q.db.QueryRow(ctx, `SELECT status FROM transactions WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	return status, err
}

// LedgerDrift is one account whose balance disagrees with the signed
// sum of its completed transactions.
type LedgerDrift struct {
	AccountID     uuid.UUID
	BalanceMicros int64
	LedgerMicros  int64
}

// GetLedgerDrift compares each account balance against the net of its
// completed ledger rows. Outflow types count negative; everything else
// counts positive.
func (q *Queries) GetLedgerDrift(ctx context.Context) ([]LedgerDrift, error) {
	rows, err := q.db.Query(ctx, `
		SELECT u.id, u.balance_micros,
		       COALESCE(SUM(CASE WHEN t.type IN ('withdrawal', 'trade_loss', 'fixed_deposit')
		                         THEN -t.amount_micros
		                         ELSE t.amount_micros END), 0) AS ledger_micros
		FROM users u
		LEFT JOIN transactions t ON t.account_id = u.id AND t.status = 'completed'
		GROUP BY u.id, u.balance_micros
		HAVING u.balance_micros <> COALESCE(SUM(CASE WHEN t.type IN ('withdrawal', 'trade_loss', 'fixed_deposit')
		                                             THEN -t.amount_micros
		                                             ELSE t.amount_micros END), 0)`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger drift: %w", err)
	}
	defer rows.Close()

	var drifts []LedgerDrift
	for rows.Next() {
		var d LedgerDrift
		if err := rows.Scan(&d.AccountID, &d.BalanceMicros, &d.LedgerMicros); err != nil {
			return nil, fmt.Errorf("failed to scan ledger drift: %w", err)
		}
		drifts = append(drifts, d)
	}
	return drifts, rows.Err()
}
