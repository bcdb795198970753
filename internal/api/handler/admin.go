package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/auragold/trading-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminHandler groups question management and operational endpoints.
// Every route behind it requires the admin role.
type AdminHandler struct {
	predictions    *service.PredictionService
	reconciliation *service.ReconciliationService
}

func NewAdminHandler(predictions *service.PredictionService, reconciliation *service.ReconciliationService) *AdminHandler {
	return &AdminHandler{predictions: predictions, reconciliation: reconciliation}
}

// CreateQuestion handles POST /v1/admin/questions.
func (h *AdminHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question        string    `json:"question"`
		Description     string    `json:"description"`
		ThresholdMicros int64     `json:"threshold_micros"`
		Deadline        time.Time `json:"deadline"`
		MultiplierBps   int32     `json:"multiplier_bps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	question, err := h.predictions.CreateQuestion(r.Context(), service.CreateQuestionRequest{
		Question:        req.Question,
		Description:     req.Description,
		ThresholdMicros: req.ThresholdMicros,
		Deadline:        req.Deadline,
		MultiplierBps:   req.MultiplierBps,
	})
	if err != nil {
		zap.L().Warn("create question failed", zap.Error(err))
		respondServiceError(w, r, err, "prediction/create-failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusCreated, question)
}

// CloseQuestion handles POST /v1/admin/questions/{id}/close.
func (h *AdminHandler) CloseQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-question-id", "Invalid question ID")
		return
	}

	if err := h.predictions.CloseQuestion(r.Context(), questionID); err != nil {
		respondServiceError(w, r, err, "prediction/close-failed", "Failed to close question")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// ResolveQuestion handles POST /v1/admin/questions/{id}/resolve.
func (h *AdminHandler) ResolveQuestion(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	questionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-question-id", "Invalid question ID")
		return
	}

	var req struct {
		CorrectAnswer *bool `json:"correct_answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CorrectAnswer == nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "correct_answer is required")
		return
	}

	result, err := h.predictions.ResolveQuestion(r.Context(), questionID, *req.CorrectAnswer, &actorID)
	if err != nil {
		respondServiceError(w, r, err, "prediction/resolve-failed", "Failed to resolve question")
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// ListQuestions handles GET /v1/admin/questions with an optional status
// filter, defaulting to active.
func (h *AdminHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	questions, err := h.predictions.ListQuestions(r.Context(), status, int32(limit), int32(offset))
	if err != nil {
		zap.L().Error("admin list questions failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "prediction/list-failed", "Failed to list questions")
		return
	}
	RespondJSON(w, http.StatusOK, questions)
}

// Reconcile handles POST /v1/admin/reconciliation/run.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	drifted, err := h.reconciliation.CheckLedger(r.Context())
	if err != nil {
		zap.L().Error("manual reconciliation failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "reconciliation/failed", "Reconciliation run failed")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]int{"drifted_accounts": drifted})
}
