package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/auragold/trading-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxDocumentBytes = 10 << 20 // 10 MiB

type KYCHandler struct {
	svc *service.KYCService
}

func NewKYCHandler(svc *service.KYCService) *KYCHandler {
	return &KYCHandler{svc: svc}
}

// Submit handles POST /v1/kyc/documents with a multipart form carrying
// the document file and its type.
func (h *KYCHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxDocumentBytes); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-multipart", "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("document")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "kyc/document-file-required", "document file is required")
		return
	}
	defer file.Close()

	docType := r.FormValue("doc_type")
	contentType := header.Header.Get("Content-Type")

	doc, err := h.svc.SubmitDocument(r.Context(), actorID, docType, contentType, io.LimitReader(file, maxDocumentBytes))
	if err != nil {
		zap.L().Warn("kyc submit failed", zap.Error(err), zap.String("account_id", actorID.String()))
		respondServiceError(w, r, err, "kyc/submit-failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusCreated, doc)
}

// ListPending handles GET /v1/admin/kyc/documents (admin only).
func (h *KYCHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	docs, err := h.svc.ListPending(r.Context(), int32(limit), int32(offset))
	if err != nil {
		zap.L().Error("list pending kyc failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "kyc/list-failed", "Failed to list documents")
		return
	}
	RespondJSON(w, http.StatusOK, docs)
}

// Review handles POST /v1/admin/kyc/documents/{id}/review (admin only).
func (h *KYCHandler) Review(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	docID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-document-id", "Invalid document ID")
		return
	}

	var req struct {
		Approve *bool  `json:"approve"`
		Note    string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Approve == nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	doc, err := h.svc.ReviewDocument(r.Context(), docID, *req.Approve, &actorID, req.Note)
	if err != nil {
		respondServiceError(w, r, err, "kyc/review-failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, doc)
}

// Download handles GET /v1/admin/kyc/documents/{id}/content (admin only).
func (h *KYCHandler) Download(w http.ResponseWriter, r *http.Request) {
	docID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-document-id", "Invalid document ID")
		return
	}

	rc, err := h.svc.OpenDocument(r.Context(), docID)
	if err != nil {
		respondServiceError(w, r, err, "kyc/download-failed", "Failed to open document")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}
