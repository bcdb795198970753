package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/auragold/trading-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PredictionHandler struct {
	svc *service.PredictionService
}

func NewPredictionHandler(svc *service.PredictionService) *PredictionHandler {
	return &PredictionHandler{svc: svc}
}

// ListQuestions handles GET /v1/questions.
func (h *PredictionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	questions, err := h.svc.ListQuestions(r.Context(), status, int32(limit), int32(offset))
	if err != nil {
		zap.L().Error("list questions failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "prediction/list-failed", "Failed to list questions")
		return
	}
	RespondJSON(w, http.StatusOK, questions)
}

// Place handles POST /v1/questions/{id}/predictions.
func (h *PredictionHandler) Place(w http.ResponseWriter, r *http.Request) {
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
		Prediction  *bool `json:"prediction"`
		StakeMicros int64 `json:"stake_micros"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prediction == nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	prediction, err := h.svc.PlacePrediction(r.Context(), actorID, questionID, *req.Prediction, req.StakeMicros)
	if err != nil {
		respondServiceError(w, r, err, "prediction/place-failed", "Failed to place prediction")
		return
	}
	RespondJSON(w, http.StatusCreated, prediction)
}

// Mine handles GET /v1/predictions.
func (h *PredictionHandler) Mine(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	predictions, err := h.svc.ListPredictions(r.Context(), actorID, page, pageSize)
	if err != nil {
		zap.L().Error("list predictions failed", zap.Error(err), zap.String("account_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "prediction/list-failed", "Failed to list predictions")
		return
	}
	RespondJSON(w, http.StatusOK, predictions)
}
