package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/auragold/trading-api/internal/domain"
	"github.com/auragold/trading-api/internal/observability"
	"github.com/auragold/trading-api/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrInvalidSignature       = errors.New("invalid signature")
	ErrDepositInProgress      = errors.New("deposit is still processing")
	ErrDepositPayloadMismatch = errors.New("deposit payload does not match existing reference")
)

// WebhookService handles deposit notifications from the payment
// provider.
type WebhookService struct {
	store   QueryStore
	hmacKey []byte
	skipSig bool
	audit   *AuditService
}

func NewWebhookService(store QueryStore, hmacKey string, skipSignature bool) *WebhookService {
	return &WebhookService{
		store:   store,
		hmacKey: []byte(hmacKey),
		skipSig: skipSignature,
		audit:   NewAuditService(store),
	}
}

// DepositWebhookPayload is the provider's notification body.
type DepositWebhookPayload struct {
	AccountID    string `json:"account_id"`
	AmountMicros int64  `json:"amount_micros"`
	Reference    string `json:"reference"` // unique per deposit on the provider side
}

type DepositWebhookResponse struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Status        string    `json:"status"`
	Message       string    `json:"message"`
}

// HandleDeposit verifies the HMAC signature and credits the account.
// The provider reference is the idempotency key: a replayed completed
// deposit is acknowledged without crediting again, a failed one is
// retried under the same transaction id.
func (s *WebhookService) HandleDeposit(ctx context.Context, payload []byte, signature string) (*DepositWebhookResponse, error) {
	if !s.verifyHMAC(payload, signature) {
		return nil, ErrInvalidSignature
	}

	var deposit DepositWebhookPayload
	if err := json.Unmarshal(payload, &deposit); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	deposit.Reference = strings.TrimSpace(deposit.Reference)
	deposit.AccountID = strings.TrimSpace(deposit.AccountID)

	if deposit.AmountMicros <= 0 {
		return nil, fmt.Errorf("invalid amount: %d", deposit.AmountMicros)
	}
	if deposit.Reference == "" {
		return nil, errors.New("reference is required")
	}
	accountID, err := uuid.Parse(deposit.AccountID)
	if err != nil {
		return nil, fmt.Errorf("invalid account_id: %w", err)
	}

	existing, err := s.store.Queries().GetTransactionByReference(ctx, deposit.Reference)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check reference: %w", err)
	}

	retryExisting := false
	transactionID := uuid.New()
	if err == nil {
		if existing.Type != domain.TxTypeDeposit || existing.AmountMicros != deposit.AmountMicros || existing.AccountID != accountID {
			return nil, ErrDepositPayloadMismatch
		}
		switch normalizeState(existing.Status) {
		case domain.TxStatusCompleted:
			observability.IncrementIdempotencyEvent("webhook_replay")
			return &DepositWebhookResponse{
				TransactionID: existing.ID,
				Status:        existing.Status,
				Message:       "Deposit already processed",
			}, nil
		case domain.TxStatusPending:
			return nil, ErrDepositInProgress
		case domain.TxStatusFailed:
			retryExisting = true
			transactionID = existing.ID
		default:
			return nil, fmt.Errorf("existing reference in unsupported state: %s", existing.Status)
		}
	}

	metadata, err := json.Marshal(map[string]string{
		"webhook_reference": deposit.Reference,
		"account_id":        deposit.AccountID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}

	err = s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		if retryExisting {
			if err := transitionTransactionState(ctx, qtx, s.audit, transactionID, domain.TxStatusPending, nil, "retry_started", metadata); err != nil {
				return fmt.Errorf("failed to reopen failed deposit: %w", err)
			}
		} else {
			if _, err := qtx.CreateTransaction(ctx, repository.CreateTransactionParams{
				ID:           transactionID,
				AccountID:    accountID,
				Type:         domain.TxTypeDeposit,
				AmountMicros: deposit.AmountMicros,
				Description:  "Deposit via payment provider",
				Status:       domain.TxStatusPending,
				ReferenceID:  deposit.Reference,
			}); err != nil {
				return fmt.Errorf("failed to create deposit transaction: %w", err)
			}
			if err := s.audit.Write(ctx, qtx, "transaction", transactionID, nil, "created", "", domain.TxStatusPending, metadata); err != nil {
				return err
			}
		}

		if _, err := adjustBalance(ctx, qtx, accountID, deposit.AmountMicros); err != nil {
			return fmt.Errorf("failed to credit deposit: %w", err)
		}
		if err := transitionTransactionState(ctx, qtx, s.audit, transactionID, domain.TxStatusCompleted, nil, "completed", nil); err != nil {
			return fmt.Errorf("failed to complete deposit: %w", err)
		}
		return nil
	})
	if err != nil {
		failErr := s.markFailed(ctx, transactionID)
		if failErr != nil && !errors.Is(failErr, pgx.ErrNoRows) {
			return nil, fmt.Errorf("deposit failed: %w (status update failed: %v)", err, failErr)
		}
		return nil, err
	}

	return &DepositWebhookResponse{
		TransactionID: transactionID,
		Status:        domain.TxStatusCompleted,
		Message:       "Deposit processed successfully",
	}, nil
}

func (s *WebhookService) markFailed(ctx context.Context, transactionID uuid.UUID) error {
	return s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		return transitionTransactionState(ctx, qtx, s.audit, transactionID, domain.TxStatusFailed, nil, "failed", []byte(`{"reason":"deposit_failed"}`))
	})
}

func (s *WebhookService) verifyHMAC(payload []byte, signature string) bool {
	if s.skipSig {
		return true
	}
	if len(s.hmacKey) == 0 {
		return false
	}

	h := hmac.New(sha256.New, s.hmacKey)
	h.Write(payload)
	expected := "sha256=" + hex.EncodeToString(h.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}
