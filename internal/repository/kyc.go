package repository

import (
	"context"
	"fmt"

	"github.com/auragold/trading-api/internal/models"
	"github.com/google/uuid"
)

const kycDocumentColumns = `id, account_id, doc_type, object_url, status, created_at`

func scanKYCDocument(row rowScanner) (models.KYCDocument, error) {
	var d models.KYCDocument
	err := row.Scan(&d.ID, &d.AccountID, &d.DocType, &d.ObjectURL, &d.Status, &d.CreatedAt)
	return d, err
}

func (q *Queries) CreateKYCDocument(ctx context.Context, d *models.KYCDocument) (models.KYCDocument, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO kyc_documents (id, account_id, doc_type, object_url, status, created_at)
		VALUES ($1, $2, $3, $4, 'pending', NOW())
		RETURNING `+kycDocumentColumns,
		d.ID, d.AccountID, d.DocType, d.ObjectURL)
	created, err := scanKYCDocument(row)
	if err != nil {
		return models.KYCDocument{}, fmt.Errorf("failed to create kyc document: %w", err)
	}
	return created, nil
}

func (q *Queries) GetKYCDocument(ctx context.Context, id uuid.UUID) (models.KYCDocument, error) {
	row := q.db.QueryRow(ctx, `SELECT `+kycDocumentColumns+` FROM kyc_documents WHERE id = $1`, id)
	return scanKYCDocument(row)
}

func (q *Queries) UpdateKYCDocumentStatus(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE kyc_documents SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return 0, fmt.Errorf("failed to update kyc document status: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListPendingKYCDocuments(ctx context.Context, limit, offset int32) ([]models.KYCDocument, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+kycDocumentColumns+` FROM kyc_documents
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending kyc documents: %w", err)
	}
	defer rows.Close()

	var docs []models.KYCDocument
	for rows.Next() {
		d, err := scanKYCDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan kyc document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
