package models

import "errors"

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrStakeBelowMinimum    = errors.New("stake is below the minimum")
	ErrQuestionNotFound     = errors.New("prediction question not found")
	ErrQuestionNotActive    = errors.New("prediction question is not active")
	ErrQuestionExpired      = errors.New("prediction question deadline has passed")
	ErrQuestionResolved     = errors.New("prediction question is already resolved")
	ErrReferralSelf         = errors.New("account cannot refer itself")
	ErrReferralCodeNotFound = errors.New("referral code not found")
	ErrAccountNotFound      = errors.New("account not found")
	ErrEmailTaken           = errors.New("email is already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrDepositNotFound      = errors.New("fixed deposit not found")
	ErrDocumentNotFound     = errors.New("kyc document not found")
)
