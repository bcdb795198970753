package handler

import (
	"net/http"

	"github.com/auragold/trading-api/internal/service"
	"go.uber.org/zap"
)

type ReferralHandler struct {
	svc *service.ReferralService
}

func NewReferralHandler(svc *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{svc: svc}
}

// Mine handles GET /v1/referrals.
func (h *ReferralHandler) Mine(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	referrals, err := h.svc.ListReferrals(r.Context(), actorID)
	if err != nil {
		zap.L().Error("list referrals failed", zap.Error(err), zap.String("account_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "referral/list-failed", "Failed to list referrals")
		return
	}
	RespondJSON(w, http.StatusOK, referrals)
}

// Stats handles GET /v1/referrals/stats.
func (h *ReferralHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	stats, err := h.svc.Stats(r.Context(), actorID)
	if err != nil {
		zap.L().Error("referral stats failed", zap.Error(err), zap.String("account_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "referral/stats-failed", "Failed to compute referral stats")
		return
	}
	RespondJSON(w, http.StatusOK, stats)
}
