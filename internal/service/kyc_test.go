package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/auragold/trading-api/internal/domain"
	"github.com/auragold/trading-api/internal/gateway"
	"github.com/auragold/trading-api/internal/models"
	"github.com/auragold/trading-api/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newKYCService(t *testing.T, pool *repository.Store) *KYCService {
	t.Helper()
	objects, err := gateway.NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)
	return NewKYCService(pool, objects)
}

func TestSubmitDocument(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := newKYCService(t, store)
	account := createTestAccount(t, pool, "applicant", 0, nil)

	doc, err := svc.SubmitDocument(ctx, account, "passport", "image/png", strings.NewReader("fake-scan-bytes"))
	require.NoError(t, err)
	require.Equal(t, domain.KYCStatusPending, doc.Status)
	require.Equal(t, "passport", doc.DocType)

	got, err := repository.New(pool).GetAccount(ctx, account)
	require.NoError(t, err)
	require.Equal(t, domain.KYCStatusPending, got.KYCStatus)

	rc, err := svc.OpenDocument(ctx, doc.ID)
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "fake-scan-bytes", string(content))
}

func TestSubmitDocumentRejectsUnknownType(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := repository.NewStore(pool)
	svc := newKYCService(t, store)
	account := createTestAccount(t, pool, "typo", 0, nil)

	_, err := svc.SubmitDocument(context.Background(), account, "library_card", "image/png", strings.NewReader("x"))
	require.Error(t, err)
}

func TestReviewDocument(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := newKYCService(t, store)
	reviewer := createTestAccount(t, pool, "reviewer", 0, nil)
	account := createTestAccount(t, pool, "reviewed", 0, nil)

	doc, err := svc.SubmitDocument(ctx, account, "national_id", "image/png", strings.NewReader("x"))
	require.NoError(t, err)

	approved, err := svc.ReviewDocument(ctx, doc.ID, true, &reviewer, "looks genuine")
	require.NoError(t, err)
	require.Equal(t, domain.KYCStatusApproved, approved.Status)

	got, err := repository.New(pool).GetAccount(ctx, account)
	require.NoError(t, err)
	require.Equal(t, domain.KYCStatusApproved, got.KYCStatus)

	// Already reviewed, no second verdict.
	_, err = svc.ReviewDocument(ctx, doc.ID, false, &reviewer, "changed my mind")
	require.Error(t, err)

	_, err = svc.ReviewDocument(ctx, uuid.New(), true, &reviewer, "")
	require.ErrorIs(t, err, models.ErrDocumentNotFound)
}

func TestReviewDocumentReject(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	store := repository.NewStore(pool)
	svc := newKYCService(t, store)
	account := createTestAccount(t, pool, "rejected", 0, nil)

	doc, err := svc.SubmitDocument(ctx, account, "driving_license", "image/png", strings.NewReader("x"))
	require.NoError(t, err)

	rejected, err := svc.ReviewDocument(ctx, doc.ID, false, nil, "blurry")
	require.NoError(t, err)
	require.Equal(t, domain.KYCStatusRejected, rejected.Status)

	got, err := repository.New(pool).GetAccount(ctx, account)
	require.NoError(t, err)
	require.Equal(t, domain.KYCStatusRejected, got.KYCStatus)

	pending, err := svc.ListPending(ctx, 10, 0)
	require.NoError(t, err)
	require.Empty(t, pending)
}
