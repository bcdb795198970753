package handler

import (
	"encoding/json"
	"net/http"

	"github.com/auragold/trading-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DepositHandler struct {
	svc *service.FixedDepositService
}

func NewDepositHandler(svc *service.FixedDepositService) *DepositHandler {
	return &DepositHandler{svc: svc}
}

// Open handles POST /v1/fixed-deposits.
func (h *DepositHandler) Open(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		AmountMicros int64 `json:"amount_micros"`
		TermDays     int   `json:"term_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	deposit, err := h.svc.Open(r.Context(), actorID, req.AmountMicros, req.TermDays)
	if err != nil {
		zap.L().Warn("open fixed deposit failed", zap.Error(err), zap.String("account_id", actorID.String()))
		respondServiceError(w, r, err, "deposit/open-failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusCreated, deposit)
}

// List handles GET /v1/fixed-deposits.
func (h *DepositHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	deposits, err := h.svc.List(r.Context(), actorID)
	if err != nil {
		zap.L().Error("list fixed deposits failed", zap.Error(err), zap.String("account_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "deposit/list-failed", "Failed to list fixed deposits")
		return
	}
	RespondJSON(w, http.StatusOK, deposits)
}

// Get handles GET /v1/fixed-deposits/{id}.
func (h *DepositHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	depositID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-deposit-id", "Invalid deposit ID")
		return
	}

	deposit, err := h.svc.Get(r.Context(), depositID)
	if err != nil {
		respondServiceError(w, r, err, "deposit/read-failed", "Failed to get fixed deposit")
		return
	}
	if !isAdmin && deposit.AccountID != actorID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return
	}
	RespondJSON(w, http.StatusOK, deposit)
}
