package repository

import (
	"context"
	"fmt"

	"github.com/auragold/trading-api/internal/models"
	"github.com/google/uuid"
)

const accountColumns = `id, email, username, password_hash, role, kyc_status, referral_code, referred_by, balance_micros, created_at`

func scanAccount(row rowScanner) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Email, &a.Username, &a.PasswordHash, &a.Role, &a.KYCStatus,
		&a.ReferralCode, &a.ReferredBy, &a.BalanceMicros, &a.CreatedAt)
	return a, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

type CreateAccountParams struct {
	ID            uuid.UUID
	Email         string
	Username      string
	PasswordHash  string
	Role          string
	ReferralCode  string
	ReferredBy    *uuid.UUID
	BalanceMicros int64
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (models.Account, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (id, email, username, password_hash, role, referral_code, referred_by, balance_micros, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING `+accountColumns,
		arg.ID, arg.Email, arg.Username, arg.PasswordHash, arg.Role, arg.ReferralCode, arg.ReferredBy, arg.BalanceMicros)
	a, err := scanAccount(row)
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to create account: %w", err)
	}
	return a, nil
}

func (q *Queries) GetAccount(ctx context.Context, id uuid.UUID) (models.Account, error) {
	row := q.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id)
	return scanAccount(row)
}

func (q *Queries) GetAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	row := q.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE email = $1`, email)
	return scanAccount(row)
}

func (q *Queries) GetAccountByReferralCode(ctx context.Context, code string) (models.Account, error) {
	row := q.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE referral_code = $1`, code)
	return scanAccount(row)
}

// GetReferrerOf returns the referred_by pointer of an account, nil when
// the account has no referrer.
func (q *Queries) GetReferrerOf(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	var referrer *uuid.UUID
	err := q.db.QueryRow(ctx, `SELECT referred_by FROM users WHERE id = $1`, id).Scan(&referrer)
	if err != nil {
		return nil, err
	}
	return referrer, nil
}

// AdjustBalance applies a delta atomically at the storage layer. The
// conditional WHERE clause makes an insufficient-funds debit affect
// zero rows instead of driving the balance negative; concurrent
// adjustments serialize on the row so no update is ever lost.
func (q *Queries) AdjustBalance(ctx context.Context, id uuid.UUID, deltaMicros int64) (int64, error) {
	var newBalance int64
	err := q.db.QueryRow(ctx, `
		UPDATE users
		SET balance_micros = balance_micros + $2
		WHERE id = $1 AND balance_micros + $2 >= 0
		RETURNING balance_micros`,
		id, deltaMicros).Scan(&newBalance)
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (q *Queries) UpdateAccountKYCStatus(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE users SET kyc_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return 0, fmt.Errorf("failed to update kyc status: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListAccounts(ctx context.Context, limit, offset int32) ([]models.Account, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+accountColumns+` FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
