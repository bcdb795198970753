package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/auragold/trading-api/internal/repository"
	"github.com/google/uuid"
)

// Ledger transactions are written completed in the common path; pending
// only exists for externally-driven flows (webhook deposits). A failed
// deposit may be retried with the same reference, so failed can go back
// to pending. Completed and cancelled are terminal.
var transactionTransitions = map[string]map[string]struct{}{
	"pending": {
		"completed": {},
		"failed":    {},
		"cancelled": {},
	},
	"failed": {
		"pending": {},
	},
	"completed": {},
	"cancelled": {},
}

func normalizeState(state string) string {
	return strings.ToLower(strings.TrimSpace(state))
}

func canTransition(current, next string) bool {
	current = normalizeState(current)
	next = normalizeState(next)
	nextStates, ok := transactionTransitions[current]
	if !ok {
		return false
	}
	_, ok = nextStates[next]
	return ok
}

func transitionTransactionState(ctx context.Context, qtx *repository.Queries, audit *AuditService, transactionID uuid.UUID, nextState string, actorID *uuid.UUID, action string, metadata []byte) error {
	currentState, err := qtx.GetTransactionStatusForUpdate(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("get current transaction state: %w", err)
	}

	if normalizeState(currentState) == normalizeState(nextState) {
		return nil
	}
	if !canTransition(currentState, nextState) {
		return fmt.Errorf("invalid transaction state transition: %s -> %s", currentState, nextState)
	}

	rows, err := qtx.UpdateTransactionStatus(ctx, transactionID, nextState)
	if err != nil {
		return fmt.Errorf("update transaction state: %w", err)
	}
	if err := requireExactlyOne(rows, "update transaction state"); err != nil {
		return err
	}

	if err := audit.Write(ctx, qtx, "transaction", transactionID, actorID, action, currentState, nextState, metadata); err != nil {
		return err
	}

	return nil
}
