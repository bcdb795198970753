package repository

import (
	"context"
	"fmt"

	"github.com/auragold/trading-api/internal/models"
	"github.com/google/uuid"
)

const referralColumns = `id, referrer_id, referred_id, level, commission_rate, total_commission_micros, created_at`

func scanReferral(row rowScanner) (models.Referral, error) {
	var r models.Referral
	err := row.Scan(&r.ID, &r.ReferrerID, &r.ReferredID, &r.Level, &r.CommissionRate,
		&r.TotalCommissionMicros, &r.CreatedAt)
	return r, err
}

func (q *Queries) CreateReferral(ctx context.Context, r *models.Referral) (models.Referral, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO referrals (id, referrer_id, referred_id, level, commission_rate, total_commission_micros, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, NOW())
		RETURNING `+referralColumns,
		r.ID, r.ReferrerID, r.ReferredID, r.Level, r.CommissionRate)
	created, err := scanReferral(row)
	if err != nil {
		return models.Referral{}, fmt.Errorf("failed to create referral: %w", err)
	}
	return created, nil
}

// ListReferralsByReferrer returns the accounts this referrer earns from.
func (q *Queries) ListReferralsByReferrer(ctx context.Context, referrerID uuid.UUID) ([]models.Referral, error) {
	return q.listReferrals(ctx, `referrer_id`, referrerID)
}

// ListReferralsByReferred returns the upward edges of one account,
// ordered by level so commission fan-out is deterministic.
func (q *Queries) ListReferralsByReferred(ctx context.Context, referredID uuid.UUID) ([]models.Referral, error) {
	return q.listReferrals(ctx, `referred_id`, referredID)
}

func (q *Queries) listReferrals(ctx context.Context, column string, id uuid.UUID) ([]models.Referral, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+referralColumns+` FROM referrals
		WHERE `+column+` = $1
		ORDER BY level ASC, created_at ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	defer rows.Close()

	var referrals []models.Referral
	for rows.Next() {
		r, err := scanReferral(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan referral: %w", err)
		}
		referrals = append(referrals, r)
	}
	return referrals, rows.Err()
}

func (q *Queries) IncrementReferralCommission(ctx context.Context, id uuid.UUID, deltaMicros int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE referrals SET total_commission_micros = total_commission_micros + $2
		WHERE id = $1`, id, deltaMicros)
	if err != nil {
		return 0, fmt.Errorf("failed to increment referral commission: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ReferralStatsRow aggregates one referrer's network.
type ReferralStatsRow struct {
	TotalInvited       int64
	TotalEarningMicros int64
}

func (q *Queries) GetReferralStats(ctx context.Context, referrerID uuid.UUID) (ReferralStatsRow, error) {
	var row ReferralStatsRow
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_commission_micros), 0)
		FROM referrals WHERE referrer_id = $1`, referrerID).
		Scan(&row.TotalInvited, &row.TotalEarningMicros)
	if err != nil {
		return ReferralStatsRow{}, fmt.Errorf("failed to get referral stats: %w", err)
	}
	return row, nil
}
