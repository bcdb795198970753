package domain

// Transaction types. Amounts are stored positive; the type decides
// whether the row is an inflow or an outflow for the account.
const (
	TxTypeDeposit            = "deposit"
	TxTypeWithdrawal         = "withdrawal"
	TxTypeTradeProfit        = "trade_profit"
	TxTypeTradeLoss          = "trade_loss"
	TxTypeReferralCommission = "referral_commission"
	TxTypeFixedDeposit       = "fixed_deposit"
	TxTypeFixedDepositReturn = "fixed_deposit_return"

	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
	TxStatusCancelled = "cancelled"

	RoleClient = "client"
	RoleAdmin  = "admin"

	KYCStatusPending  = "pending"
	KYCStatusApproved = "approved"
	KYCStatusRejected = "rejected"

	QuestionStatusActive   = "active"
	QuestionStatusClosed   = "closed"
	QuestionStatusResolved = "resolved"

	PredictionStatusPending = "pending"
	PredictionStatusWon     = "won"
	PredictionStatusLost    = "lost"

	FixedDepositStatusActive    = "active"
	FixedDepositStatusMatured   = "matured"
	FixedDepositStatusCancelled = "cancelled"
)

// MaxReferralLevel bounds the upward referrer walk.
const MaxReferralLevel = 3

var referralCommissionRates = map[int]int{
	1: 10,
	2: 3,
	3: 2,
}

// ReferralCommissionRate returns the commission percent for a referral
// level, or 0 for levels outside 1..MaxReferralLevel.
func ReferralCommissionRate(level int) int {
	return referralCommissionRates[level]
}

// MinPredictionStakeMicros is the $10 minimum stake.
const MinPredictionStakeMicros int64 = 10_000_000

// DefaultPayoutMultiplierBps is the default prediction payout factor in
// basis points (19000 = x1.9).
const DefaultPayoutMultiplierBps int32 = 19000

// IsOutflow reports whether a transaction type debits the account.
func IsOutflow(txType string) bool {
	switch txType {
	case TxTypeWithdrawal, TxTypeTradeLoss, TxTypeFixedDeposit:
		return true
	default:
		return false
	}
}
