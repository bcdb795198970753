package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/auragold/trading-api/internal/api/middleware"
	"github.com/auragold/trading-api/internal/api/problem"
	"github.com/auragold/trading-api/internal/domain"
	"github.com/auragold/trading-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

func requestActor(r *http.Request) (uuid.UUID, bool, error) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		return uuid.Nil, false, errors.New("missing account in auth context")
	}

	actorID, err := uuid.Parse(accountID)
	if err != nil {
		return uuid.Nil, false, errors.New("invalid account_id in auth context")
	}

	return actorID, middleware.AccountRoleFromContext(r.Context()) == domain.RoleAdmin, nil
}

// mapDomainError translates service sentinel errors to HTTP problems.
func mapDomainError(err error) (status int, problemType, message string, ok bool) {
	switch {
	case errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "ledger/insufficient-funds", "insufficient funds", true
	case errors.Is(err, models.ErrStakeBelowMinimum):
		return http.StatusBadRequest, "prediction/stake-below-minimum", "stake is below the minimum", true
	case errors.Is(err, models.ErrQuestionNotFound):
		return http.StatusNotFound, "prediction/question-not-found", "question not found", true
	case errors.Is(err, models.ErrQuestionNotActive):
		return http.StatusConflict, "prediction/question-not-active", "question is not accepting stakes", true
	case errors.Is(err, models.ErrQuestionExpired):
		return http.StatusConflict, "prediction/question-expired", "question deadline has passed", true
	case errors.Is(err, models.ErrQuestionResolved):
		return http.StatusConflict, "prediction/question-already-resolved", "question is already resolved", true
	case errors.Is(err, models.ErrAccountNotFound):
		return http.StatusNotFound, "account/not-found", "account not found", true
	case errors.Is(err, models.ErrEmailTaken):
		return http.StatusConflict, "account/email-taken", "email is already registered", true
	case errors.Is(err, models.ErrReferralCodeNotFound):
		return http.StatusBadRequest, "referral/code-not-found", "referral code not found", true
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, "auth/invalid-credentials", "invalid email or password", true
	case errors.Is(err, models.ErrDepositNotFound):
		return http.StatusNotFound, "deposit/not-found", "fixed deposit not found", true
	case errors.Is(err, models.ErrDocumentNotFound):
		return http.StatusNotFound, "kyc/document-not-found", "document not found", true
	default:
		return 0, "", "", false
	}
}

func mapDBError(err error) (status int, problemType, message string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return 0, "", "", false
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return http.StatusConflict, "db/unique-violation", "resource already exists", true
	case "23503": // foreign_key_violation
		return http.StatusBadRequest, "db/foreign-key-violation", "invalid reference", true
	case "23514": // check_violation
		return http.StatusBadRequest, "db/check-violation", "request violates data constraints", true
	case "23502": // not_null_violation
		return http.StatusBadRequest, "db/not-null-violation", "missing required field", true
	default:
		return 0, "", "", false
	}
}

// respondServiceError tries domain and database mappings before falling
// back to a 500 with the supplied slug.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallbackSlug, fallbackMsg string) {
	if status, pType, msg, ok := mapDomainError(err); ok {
		RespondError(w, r, status, pType, msg)
		return
	}
	if status, pType, msg, ok := mapDBError(err); ok {
		RespondError(w, r, status, pType, msg)
		return
	}
	RespondError(w, r, http.StatusInternalServerError, fallbackSlug, fallbackMsg)
}
