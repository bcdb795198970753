package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/auragold/trading-api/internal/service"
	"go.uber.org/zap"
)

// WebhookHandler receives deposit notifications from the payment
// provider.
type WebhookHandler struct {
	webhookSvc *service.WebhookService
}

func NewWebhookHandler(webhookSvc *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc}
}

// HandleDeposit handles POST /v1/webhooks/deposit. It verifies the HMAC
// signature and processes the deposit.
func (h *WebhookHandler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		zap.L().Error("read webhook body failed", zap.Error(err))
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Failed to read request body")
		return
	}

	signature := r.Header.Get("X-Webhook-Signature")

	resp, err := h.webhookSvc.HandleDeposit(r.Context(), body, signature)
	if err != nil {
		zap.L().Error("process deposit webhook failed", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrInvalidSignature):
			RespondError(w, r, http.StatusUnauthorized, "webhook/invalid-signature", "Invalid signature")
		case errors.Is(err, service.ErrDepositInProgress):
			RespondError(w, r, http.StatusConflict, "webhook/deposit-in-progress", "Deposit is still processing")
		case errors.Is(err, service.ErrDepositPayloadMismatch):
			RespondError(w, r, http.StatusConflict, "webhook/payload-mismatch", "Payload conflicts with existing reference")
		default:
			respondServiceError(w, r, err, "webhook/deposit-failed", err.Error())
		}
		return
	}

	RespondJSON(w, http.StatusOK, resp)
}
