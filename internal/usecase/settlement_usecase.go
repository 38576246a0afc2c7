package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/finovo/bankcore/internal/domain"
)

// SettlementUseCase moves pending transactions to a terminal status.
type SettlementUseCase struct {
	store  LedgerStore
	logger zerolog.Logger
}

// NewSettlementUseCase creates a new SettlementUseCase.
func NewSettlementUseCase(store LedgerStore, logger zerolog.Logger) *SettlementUseCase {
	return &SettlementUseCase{
		store:  store,
		logger: logger.With().Str("component", "settlement").Logger(),
	}
}

// SettleInput carries the outcome reported for a pending transaction.
type SettleInput struct {
	TransactionID string
	Outcome       domain.Status
	Reason        string
}

// Settle applies the outcome. A failed outcome posts a compensating credit to
// the source account in the same database transaction.
func (uc *SettlementUseCase) Settle(ctx context.Context, input SettleInput) (*domain.Transaction, error) {
	if input.Outcome != domain.StatusCompleted && input.Outcome != domain.StatusFailed {
		return nil, fmt.Errorf("%w: settlement outcome must be completed or failed", domain.ErrInvalidStatusTransition)
	}
	if input.Outcome == domain.StatusFailed && input.Reason == "" {
		input.Reason = "rejected at settlement"
	}

	var result *domain.Transaction
	err := uc.store.inTx(ctx, func(ctx context.Context, tx Tx) error {
		txn, err := uc.store.Transactions.GetByIDForUpdate(ctx, tx, input.TransactionID)
		if err != nil {
			return err
		}

		if err := uc.store.closePending(ctx, tx, txn, input.Outcome, input.Reason, domain.AuditActionTransactionSettle); err != nil {
			return err
		}
		result = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.store.Metrics != nil {
		uc.store.Metrics.TransactionsSettled.WithLabelValues(string(input.Outcome)).Inc()
	}
	uc.logger.Info().
		Str("transaction_id", result.ID).
		Str("status", string(result.Status)).
		Msg("transaction settled")

	return result, nil
}

// ExpireStalePending fails and compensates every pending transaction older
// than olderThan, so no debited transaction stays pending forever.
// It returns the number of transactions expired.
func (uc *SettlementUseCase) ExpireStalePending(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		olderThan = DefaultPendingTimeout
	}
	cutoff := uc.store.now().Add(-olderThan)

	stale, err := uc.store.Transactions.ListPendingBefore(ctx, cutoff, SettlementBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, candidate := range stale {
		err := uc.store.inTx(ctx, func(ctx context.Context, tx Tx) error {
			txn, err := uc.store.Transactions.GetByIDForUpdate(ctx, tx, candidate.ID)
			if err != nil {
				return err
			}
			return uc.store.closePending(ctx, tx, txn, domain.StatusFailed, "settlement timed out", domain.AuditActionTransactionExpire)
		})

		// Settled by someone else since the listing.
		if errors.Is(err, domain.ErrInvalidStatusTransition) {
			continue
		}
		if err != nil {
			return expired, fmt.Errorf("failed to expire transaction %s: %w", candidate.ID, err)
		}

		expired++
		if uc.store.Metrics != nil {
			uc.store.Metrics.TransactionsSettled.WithLabelValues(string(domain.StatusFailed)).Inc()
		}
		uc.logger.Warn().
			Str("transaction_id", candidate.ID).
			Str("reference", candidate.ReferenceNumber).
			Msg("pending transaction expired and compensated")
	}

	return expired, nil
}
