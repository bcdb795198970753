package handler

import (
	"net/http"
	"strconv"

	"github.com/auragold/trading-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AccountHandler struct {
	svc *service.AccountService
}

func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// Me handles GET /v1/accounts/me.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	account, err := h.svc.GetAccount(r.Context(), actorID)
	if err != nil {
		zap.L().Error("get account failed", zap.Error(err), zap.String("account_id", actorID.String()))
		respondServiceError(w, r, err, "account/read-failed", "Failed to get account")
		return
	}
	RespondJSON(w, http.StatusOK, account)
}

// Get handles GET /v1/accounts/{id}. Admins can read any account;
// clients only their own.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-account-id", "Invalid account ID")
		return
	}
	if !isAdmin && accountID != actorID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return
	}

	account, err := h.svc.GetAccount(r.Context(), accountID)
	if err != nil {
		respondServiceError(w, r, err, "account/read-failed", "Failed to get account")
		return
	}
	RespondJSON(w, http.StatusOK, account)
}

// Statement handles GET /v1/accounts/{id}/statement.
func (h *AccountHandler) Statement(w http.ResponseWriter, r *http.Request) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-account-id", "Invalid account ID")
		return
	}
	if !isAdmin && accountID != actorID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	entries, err := h.svc.GetStatement(r.Context(), accountID, page, pageSize)
	if err != nil {
		zap.L().Error("get statement failed", zap.Error(err), zap.String("account_id", accountID.String()))
		respondServiceError(w, r, err, "account/statement-read-failed", "Failed to get statement")
		return
	}
	RespondJSON(w, http.StatusOK, entries)
}
