package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/auragold/trading-api/internal/domain"
	"github.com/auragold/trading-api/internal/gateway"
	"github.com/auragold/trading-api/internal/models"
	"github.com/auragold/trading-api/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var allowedDocTypes = map[string]bool{
	"passport":        true,
	"national_id":     true,
	"driving_license": true,
}

// KYCService stores identity documents and lets admins approve or
// reject them, flipping the account's verification status.
type KYCService struct {
	store   QueryStore
	objects gateway.ObjectStorage
	audit   *AuditService
}

func NewKYCService(store QueryStore, objects gateway.ObjectStorage) *KYCService {
	return &KYCService{store: store, objects: objects, audit: NewAuditService(store)}
}

// SubmitDocument uploads the file and records a pending document. A new
// submission moves a rejected account back to pending.
func (s *KYCService) SubmitDocument(ctx context.Context, accountID uuid.UUID, docType, contentType string, body io.Reader) (*models.KYCDocument, error) {
	if !allowedDocTypes[docType] {
		return nil, fmt.Errorf("unsupported document type: %q", docType)
	}

	docID := uuid.New()
	key := fmt.Sprintf("kyc/%s/%s", accountID, docID)
	if err := s.objects.Put(ctx, key, contentType, body); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	var doc models.KYCDocument
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		created, err := qtx.CreateKYCDocument(ctx, &models.KYCDocument{
			ID:        docID,
			AccountID: accountID,
			DocType:   docType,
			ObjectURL: key,
			Status:    domain.KYCStatusPending,
			CreatedAt: time.Now(),
		})
		if err != nil {
			return err
		}
		if _, err := qtx.UpdateAccountKYCStatus(ctx, accountID, domain.KYCStatusPending); err != nil {
			return err
		}
		doc = created
		return nil
	})
	if err != nil {
		// best effort; the orphaned object is harmless
		_ = s.objects.Delete(ctx, key)
		return nil, err
	}
	return &doc, nil
}

// ReviewDocument applies an admin verdict to a pending document.
func (s *KYCService) ReviewDocument(ctx context.Context, docID uuid.UUID, approve bool, reviewerID *uuid.UUID, note string) (*models.KYCDocument, error) {
	verdict := domain.KYCStatusRejected
	if approve {
		verdict = domain.KYCStatusApproved
	}

	var doc models.KYCDocument
	err := s.store.RunInTx(ctx, func(qtx *repository.Queries) error {
		existing, err := qtx.GetKYCDocument(ctx, docID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrDocumentNotFound
			}
			return err
		}
		if existing.Status != domain.KYCStatusPending {
			return fmt.Errorf("document already reviewed as %s", existing.Status)
		}

		rows, err := qtx.UpdateKYCDocumentStatus(ctx, docID, verdict)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "update kyc document"); err != nil {
			return err
		}
		if _, err := qtx.UpdateAccountKYCStatus(ctx, existing.AccountID, verdict); err != nil {
			return err
		}

		metadata, err := json.Marshal(map[string]any{"note": note})
		if err != nil {
			return fmt.Errorf("encode review metadata: %w", err)
		}
		if err := s.audit.Write(ctx, qtx, "kyc_document", docID, reviewerID, "reviewed",
			domain.KYCStatusPending, verdict, metadata); err != nil {
			return err
		}

		existing.Status = verdict
		doc = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// OpenDocument streams the stored file for admin review.
func (s *KYCService) OpenDocument(ctx context.Context, docID uuid.UUID) (io.ReadCloser, error) {
	doc, err := s.store.Queries().GetKYCDocument(ctx, docID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDocumentNotFound
		}
		return nil, err
	}
	return s.objects.Get(ctx, doc.ObjectURL)
}

func (s *KYCService) ListPending(ctx context.Context, limit, offset int32) ([]models.KYCDocument, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.Queries().ListPendingKYCDocuments(ctx, limit, offset)
}
