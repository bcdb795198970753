package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/auragold/trading-api/internal/domain"
	"github.com/auragold/trading-api/internal/models"
	"github.com/auragold/trading-api/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AccountService owns registration, authentication and the shared
// balance mutation primitive.
type AccountService struct {
	store     QueryStore
	referrals *ReferralService
}

func NewAccountService(store QueryStore, referrals *ReferralService) *AccountService {
	return &AccountService{
		store:     store,
		referrals: referrals,
	}
}

// RegisterRequest holds registration input.
type RegisterRequest struct {
	Email        string
	Username     string
	Password     string
	ReferralCode string // code of the referring account, optional
}

const referralCodeAttempts = 5

// Register creates an account and, when a referral code was supplied,
// builds the upward referral chain. Chain construction is best-effort:
// a failure there is logged and never rolls back the registration.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*models.Account, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, errors.New("email is required")
	}
	if strings.TrimSpace(req.Username) == "" {
		return nil, errors.New("username is required")
	}
	if len(req.Password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	queries := s.store.Queries()

	var referrerID *uuid.UUID
	if code := strings.TrimSpace(req.ReferralCode); code != "" {
		referrer, err := queries.GetAccountByReferralCode(ctx, code)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, models.ErrReferralCodeNotFound
			}
			return nil, fmt.Errorf("lookup referral code: %w", err)
		}
		referrerID = &referrer.ID
	}

	var account models.Account
	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		account, err = queries.CreateAccount(ctx, repository.CreateAccountParams{
			ID:           uuid.New(),
			Email:        email,
			Username:     strings.TrimSpace(req.Username),
			PasswordHash: string(hash),
			Role:         domain.RoleClient,
			ReferralCode: newReferralCode(),
			ReferredBy:   referrerID,
		})
		if err == nil {
			break
		}
		if isUniqueViolation(err, "users_referral_code_key") {
			continue // collision on the generated code, try another
		}
		if isUniqueViolation(err, "users_email_key") {
			return nil, models.ErrEmailTaken
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if referrerID != nil {
		if chainErr := s.referrals.BuildReferralChain(ctx, account.ID, *referrerID); chainErr != nil {
			zap.L().Warn("referral chain build failed",
				zap.Error(chainErr),
				zap.String("account_id", account.ID.String()),
				zap.String("referrer_id", referrerID.String()),
			)
		}
	}

	return &account, nil
}

// Authenticate verifies credentials and returns the account.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.store.Queries().GetAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, models.ErrInvalidCredentials
	}
	return &account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	account, err := s.store.Queries().GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &account, nil
}

// GetStatement returns the account's ledger page, newest first.
func (s *AccountService) GetStatement(ctx context.Context, accountID uuid.UUID, page, pageSize int) ([]models.Transaction, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize
	return s.store.Queries().ListTransactions(ctx, accountID, int32(pageSize), int32(offset))
}

// AdjustBalance applies a delta through a single conditional UPDATE.
// A debit that would drive the balance negative returns
// models.ErrInsufficientFunds without touching the row.
func (s *AccountService) AdjustBalance(ctx context.Context, accountID uuid.UUID, deltaMicros int64) (int64, error) {
	return adjustBalance(ctx, s.store.Queries(), accountID, deltaMicros)
}

func adjustBalance(ctx context.Context, q *repository.Queries, accountID uuid.UUID, deltaMicros int64) (int64, error) {
	newBalance, err := q.AdjustBalance(ctx, accountID, deltaMicros)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the account is missing or the debit would
			// overdraw; distinguish for the caller.
			if _, lookupErr := q.GetAccount(ctx, accountID); lookupErr != nil {
				return 0, models.ErrAccountNotFound
			}
			return 0, models.ErrInsufficientFunds
		}
		return 0, fmt.Errorf("adjust balance: %w", err)
	}
	return newBalance, nil
}

func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && (constraint == "" || pgErr.ConstraintName == constraint)
}
