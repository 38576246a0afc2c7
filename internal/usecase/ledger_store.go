package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/infrastructure/metrics"
)

// LedgerStore bundles the ports shared by every use case that changes a balance.
type LedgerStore struct {
	TxManager    TransactionManager
	Retrier      Retrier
	Accounts     AccountRepository
	Transactions TransactionRepository
	Entries      EntryRepository
	Payments     PaymentRepository
	Outbox       OutboxRepository
	Audit        AuditRepository
	IDGen        IDGenerator
	Metrics      *metrics.Metrics
	Now          func() time.Time
}

func (s LedgerStore) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// inTx runs fn in one database transaction, retried on serialization
// failures and deadlocks. fn must be safe to run more than once.
func (s LedgerStore) inTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	op := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := s.TxManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	if s.Retrier == nil {
		return op()
	}
	return s.Retrier.Retry(ctx, op)
}

// lockAccounts row-locks the given accounts in sorted ID order.
func (s LedgerStore) lockAccounts(ctx context.Context, tx Tx, ids ...string) (map[string]*domain.Account, error) {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Strings(unique)

	accounts, err := s.Accounts.GetByIDsForUpdate(ctx, tx, unique)
	if err != nil {
		return nil, err
	}

	if len(accounts) != len(unique) {
		return nil, domain.ErrAccountNotFound
	}

	m := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		m[a.ID] = a
	}
	return m, nil
}

func (s LedgerStore) debit(ctx context.Context, tx Tx, account *domain.Account, transactionID string, amount decimal.Decimal, now time.Time) error {
	change := account.ApplyDebit(amount)
	account.UpdatedAt = now
	if err := s.Accounts.UpdateBalances(ctx, tx, account); err != nil {
		return err
	}
	return s.Entries.Create(ctx, tx, domain.NewEntry(s.IDGen.Generate(), account.ID, transactionID, change, now))
}

func (s LedgerStore) credit(ctx context.Context, tx Tx, account *domain.Account, transactionID string, amount decimal.Decimal, now time.Time) error {
	change := account.ApplyCredit(amount)
	account.UpdatedAt = now
	if err := s.Accounts.UpdateBalances(ctx, tx, account); err != nil {
		return err
	}
	return s.Entries.Create(ctx, tx, domain.NewEntry(s.IDGen.Generate(), account.ID, transactionID, change, now))
}

func (s LedgerStore) reference(prefix string) string {
	return prefix + s.IDGen.Generate()
}

func (s LedgerStore) emit(ctx context.Context, tx Tx, event *domain.OutboxEvent) error {
	if s.Outbox == nil {
		return nil
	}
	return s.Outbox.Create(ctx, tx, event)
}

func (s LedgerStore) audit(ctx context.Context, tx Tx, action domain.AuditAction, resourceType, resourceID string, before, after any) error {
	if s.Audit == nil {
		return nil
	}

	userID := systemActor
	if user, ok := domain.UserFromContext(ctx); ok {
		userID = user.ID
	}

	log := &domain.AuditLog{
		ID:           s.IDGen.Generate(),
		UserID:       userID,
		Action:       string(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		BeforeState:  domain.MarshalState(before),
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    s.now(),
	}
	if meta, ok := domain.RequestMetaFromContext(ctx); ok {
		log.IPAddress = meta.IPAddress
		log.UserAgent = meta.UserAgent
		log.RequestID = meta.RequestID
	}

	return s.Audit.CreateTx(ctx, tx, log)
}

// closePending moves a pending transaction to outcome. Failed and cancelled
// debits get a compensating credit to the source account in the same
// database transaction, and a linked bill payment follows the outcome.
func (s LedgerStore) closePending(ctx context.Context, tx Tx, txn *domain.Transaction, outcome domain.Status, reason string, action domain.AuditAction) error {
	before := *txn
	compensate := txn.Compensable() && outcome != domain.StatusCompleted
	now := s.now()

	if err := txn.Close(outcome, reason, now); err != nil {
		return err
	}

	if compensate {
		if err := s.compensate(ctx, tx, txn, reason, now); err != nil {
			return err
		}
	}

	if err := s.Transactions.UpdateStatus(ctx, tx, txn); err != nil {
		return err
	}

	if txn.Type == domain.TransactionTypePayment && s.Payments != nil {
		if err := s.settleLinkedPayment(ctx, tx, txn, outcome, now); err != nil {
			return err
		}
	}

	if err := s.emit(ctx, tx, domain.NewTransactionEvent(s.IDGen.Generate(), statusEventType(outcome), txn)); err != nil {
		return err
	}

	return s.audit(ctx, tx, action, domain.AggregateTypeTransaction, txn.ID, before, txn)
}

func (s LedgerStore) compensate(ctx context.Context, tx Tx, original *domain.Transaction, reason string, now time.Time) error {
	accounts, err := s.lockAccounts(ctx, tx, *original.FromAccountID)
	if err != nil {
		return err
	}
	source := accounts[*original.FromAccountID]

	reversal := &domain.Transaction{
		ID:              s.IDGen.Generate(),
		UserID:          original.UserID,
		ToAccountID:     original.FromAccountID,
		Type:            domain.TransactionTypeDeposit,
		Amount:          original.Amount,
		Currency:        original.Currency,
		Description:     fmt.Sprintf("Reversal of %s", original.ReferenceNumber),
		ReferenceNumber: s.reference(referencePrefixReversal),
		Status:          domain.StatusCompleted,
		Details: domain.CompensationDetails{
			OriginalTransactionID: original.ID,
			Reason:                reason,
		},
		CreatedAt: now,
		UpdatedAt: now,
		SettledAt: &now,
	}

	if err := s.Transactions.Create(ctx, tx, reversal); err != nil {
		return err
	}
	if err := s.credit(ctx, tx, source, reversal.ID, original.Amount, now); err != nil {
		return err
	}

	if s.Metrics != nil {
		s.Metrics.Compensations.Inc()
	}
	return nil
}

func (s LedgerStore) settleLinkedPayment(ctx context.Context, tx Tx, txn *domain.Transaction, outcome domain.Status, now time.Time) error {
	payment, err := s.Payments.GetByTransactionID(ctx, tx, txn.ID)
	if errors.Is(err, domain.ErrPaymentNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := payment.Status.ValidateTransition(outcome); err != nil {
		return err
	}
	payment.Status = outcome
	payment.UpdatedAt = now
	return s.Payments.Update(ctx, tx, payment)
}

func statusEventType(s domain.Status) string {
	switch s {
	case domain.StatusCompleted:
		return domain.EventTypeTransactionCompleted
	case domain.StatusFailed:
		return domain.EventTypeTransactionFailed
	case domain.StatusCancelled:
		return domain.EventTypeTransactionCancelled
	}
	return domain.EventTypeTransactionCreated
}

// fingerprint hashes the semantic fields of a request so a reused
// idempotency key can be told apart from a genuine retry.
func fingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

func (s LedgerStore) observeError(err error) {
	if s.Metrics == nil || err == nil {
		return
	}
	s.Metrics.TransferErrors.WithLabelValues(errorLabel(err)).Inc()
}

func errorLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrCreditLimitExceeded):
		return "credit_limit"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrAccountInactive):
		return "account_inactive"
	case errors.Is(err, domain.ErrCurrencyMismatch):
		return "currency_mismatch"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrIdempotencyConflict):
		return "idempotency_conflict"
	case errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountPrecision),
		errors.Is(err, domain.ErrAmountTooSmall),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrInvalidDestination):
		return "validation"
	}
	return "internal"
}
