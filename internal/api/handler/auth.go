package handler

import (
	"encoding/json"
	"net/http"

	"github.com/auragold/trading-api/internal/api/middleware"
	"github.com/auragold/trading-api/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	accounts *service.AccountService
	auth     *middleware.Authenticator
}

func NewAuthHandler(accounts *service.AccountService, auth *middleware.Authenticator) *AuthHandler {
	return &AuthHandler{accounts: accounts, auth: auth}
}

// Register handles POST /v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string `json:"email"`
		Username     string `json:"username"`
		Password     string `json:"password"`
		ReferralCode string `json:"referral_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	account, err := h.accounts.Register(r.Context(), service.RegisterRequest{
		Email:        req.Email,
		Username:     req.Username,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		zap.L().Warn("registration failed", zap.Error(err), zap.String("email", req.Email))
		respondServiceError(w, r, err, "auth/register-failed", err.Error())
		return
	}

	token, err := h.auth.IssueToken(account.ID, account.Role)
	if err != nil {
		zap.L().Error("token issue failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "auth/token-issue-failed", "Failed to sign token")
		return
	}

	RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"account": account,
		"token":   token,
	})
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	account, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, err, "auth/login-failed", "Failed to log in")
		return
	}

	token, err := h.auth.IssueToken(account.ID, account.Role)
	if err != nil {
		zap.L().Error("token issue failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "auth/token-issue-failed", "Failed to sign token")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"account": account,
		"token":   token,
	})
}
