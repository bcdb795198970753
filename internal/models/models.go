package models

import (
	"fmt"
	"time"

	"github.com/auragold/trading-api/internal/domain"
	"github.com/google/uuid"
)

// Account is a registered participant with a USD balance in micros.
type Account struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	PasswordHash  string     `json:"-"`
	Role          string     `json:"role"`
	KYCStatus     string     `json:"kyc_status"`
	ReferralCode  string     `json:"referral_code"`
	ReferredBy    *uuid.UUID `json:"referred_by,omitempty"`
	BalanceMicros int64      `json:"balance_micros"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Transaction is an immutable ledger entry explaining one balance change.
// Amounts are always positive; Type implies the direction.
type Transaction struct {
	ID           uuid.UUID `json:"id"`
	AccountID    uuid.UUID `json:"account_id"`
	Type         string    `json:"type"`
	AmountMicros int64     `json:"amount_micros"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	ReferenceID  string    `json:"reference_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Referral is a directed edge from referrer to referred with a level
// in 1..3 and a fixed commission percent for that level.
type Referral struct {
	ID                    uuid.UUID `json:"id"`
	ReferrerID            uuid.UUID `json:"referrer_id"`
	ReferredID            uuid.UUID `json:"referred_id"`
	Level                 int       `json:"level"`
	CommissionRate        int       `json:"commission_rate"`
	TotalCommissionMicros int64     `json:"total_commission_micros"`
	CreatedAt             time.Time `json:"created_at"`
}

// NewReferral builds a referral edge, deriving the commission rate from
// the level. Levels outside 1..3 are rejected.
func NewReferral(referrerID, referredID uuid.UUID, level int) (*Referral, error) {
	if level < 1 || level > domain.MaxReferralLevel {
		return nil, fmt.Errorf("referral level %d out of range 1..%d", level, domain.MaxReferralLevel)
	}
	if referrerID == referredID {
		return nil, ErrReferralSelf
	}
	return &Referral{
		ID:             uuid.New(),
		ReferrerID:     referrerID,
		ReferredID:     referredID,
		Level:          level,
		CommissionRate: domain.ReferralCommissionRate(level),
	}, nil
}

// PredictionQuestion is a binary proposition about the gold price with
// a settlement deadline and payout multiplier.
type PredictionQuestion struct {
	ID              uuid.UUID  `json:"id"`
	Question        string     `json:"question"`
	Description     string     `json:"description"`
	ThresholdMicros int64      `json:"threshold_micros"`
	Deadline        time.Time  `json:"deadline"`
	MultiplierBps   int32      `json:"multiplier_bps"`
	Status          string     `json:"status"`
	CorrectAnswer   *bool      `json:"correct_answer,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// UserPrediction is one account's stake on one question.
type UserPrediction struct {
	ID                    uuid.UUID  `json:"id"`
	QuestionID            uuid.UUID  `json:"question_id"`
	AccountID             uuid.UUID  `json:"account_id"`
	Prediction            bool       `json:"prediction"`
	AmountMicros          int64      `json:"amount_micros"`
	PotentialPayoutMicros int64      `json:"potential_payout_micros"`
	Status                string     `json:"status"`
	CreatedAt             time.Time  `json:"created_at"`
	SettledAt             *time.Time `json:"settled_at,omitempty"`
}

// NewUserPrediction validates the stake and precomputes the potential
// payout from the question's multiplier.
func NewUserPrediction(questionID, accountID uuid.UUID, choice bool, stakeMicros int64, multiplierBps int32) (*UserPrediction, error) {
	if stakeMicros < domain.MinPredictionStakeMicros {
		return nil, ErrStakeBelowMinimum
	}
	if multiplierBps <= 0 {
		return nil, fmt.Errorf("invalid payout multiplier: %d bps", multiplierBps)
	}
	return &UserPrediction{
		ID:                    uuid.New(),
		QuestionID:            questionID,
		AccountID:             accountID,
		Prediction:            choice,
		AmountMicros:          stakeMicros,
		PotentialPayoutMicros: domain.NewMoney(stakeMicros).MultiplyBps(multiplierBps).Amount,
		Status:                domain.PredictionStatusPending,
	}, nil
}

// FixedDeposit is a term deposit earning simple interest at maturity.
type FixedDeposit struct {
	ID           uuid.UUID `json:"id"`
	AccountID    uuid.UUID `json:"account_id"`
	AmountMicros int64     `json:"amount_micros"`
	RateBps      int32     `json:"rate_bps"`
	TermDays     int       `json:"term_days"`
	Status       string    `json:"status"`
	MaturesAt    time.Time `json:"matures_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// KYCDocument is an uploaded identity document awaiting review.
type KYCDocument struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	DocType   string    `json:"doc_type"`
	ObjectURL string    `json:"object_url"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
