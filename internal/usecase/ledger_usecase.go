package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/domain"
)

// LedgerUseCase is the entry point for transfers out of a customer account.
type LedgerUseCase struct {
	store           LedgerStore
	beneficiaryRepo BeneficiaryRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(store LedgerStore, beneficiaryRepo BeneficiaryRepository) *LedgerUseCase {
	return &LedgerUseCase{
		store:           store,
		beneficiaryRepo: beneficiaryRepo,
	}
}

// ExternalRecipient is a one-off recipient at another bank.
type ExternalRecipient struct {
	Name          string
	AccountNumber string
	RoutingNumber string
}

// TransferDestination selects exactly one kind of recipient.
type TransferDestination struct {
	ToAccountID   string
	BeneficiaryID string
	External      *ExternalRecipient
}

// SubmitTransferInput represents input for submitting a transfer.
type SubmitTransferInput struct {
	UserID         string
	IdempotencyKey string
	FromAccountID  string
	Amount         decimal.Decimal
	// Currency defaults to the source account currency.
	Currency    string
	Description string
	To          TransferDestination
}

func (in SubmitTransferInput) fingerprint() string {
	parts := []string{"transfer", in.FromAccountID, in.Amount.StringFixed(2), strings.ToUpper(in.Currency), in.Description}
	switch {
	case in.To.ToAccountID != "":
		parts = append(parts, "internal", in.To.ToAccountID)
	case in.To.BeneficiaryID != "":
		parts = append(parts, "beneficiary", in.To.BeneficiaryID)
	case in.To.External != nil:
		parts = append(parts, "external", in.To.External.Name, in.To.External.AccountNumber, in.To.External.RoutingNumber)
	}
	return fingerprint(parts...)
}

func (in SubmitTransferInput) validate() error {
	if err := domain.ValidateIdempotencyKey(in.IdempotencyKey); err != nil {
		return err
	}
	if in.FromAccountID == "" {
		return domain.ErrAccountNotFound
	}
	if err := domain.ValidateAmount(in.Amount); err != nil {
		return err
	}
	if in.Currency != "" {
		if err := domain.ValidateCurrency(in.Currency); err != nil {
			return err
		}
	}

	set := 0
	if in.To.ToAccountID != "" {
		set++
	}
	if in.To.BeneficiaryID != "" {
		set++
	}
	if in.To.External != nil {
		set++
	}
	if set != 1 {
		return domain.ErrInvalidDestination
	}

	if in.To.ToAccountID != "" && in.To.ToAccountID == in.FromAccountID {
		return domain.ErrSameAccount
	}

	if ext := in.To.External; ext != nil {
		if err := domain.ValidateDisplayName(ext.Name); err != nil {
			return err
		}
		if err := domain.ValidateAccountNumber(ext.AccountNumber); err != nil {
			return err
		}
		if err := domain.ValidateRoutingNumber(ext.RoutingNumber); err != nil {
			return err
		}
	}
	return nil
}

// SubmitTransfer records a transfer and adjusts balances in one database
// transaction. Internal transfers complete immediately. Transfers leaving the
// bank debit the source now and stay pending until settlement.
//
// A repeated idempotency key with the same request returns the original
// transaction without writing anything.
func (uc *LedgerUseCase) SubmitTransfer(ctx context.Context, input SubmitTransferInput) (*domain.Transaction, error) {
	start := time.Now()

	txn, err := uc.submitTransfer(ctx, input)
	uc.store.observeError(err)
	if uc.store.Metrics != nil && err == nil {
		uc.store.Metrics.TransferDuration.Observe(time.Since(start).Seconds())
	}
	return txn, err
}

func (uc *LedgerUseCase) submitTransfer(ctx context.Context, input SubmitTransferInput) (*domain.Transaction, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	fp := input.fingerprint()

	details, err := uc.resolveDestination(ctx, input)
	if err != nil {
		return nil, err
	}

	var (
		result   *domain.Transaction
		replayed bool
	)
	err = uc.store.inTx(ctx, func(ctx context.Context, tx Tx) error {
		result, replayed = nil, false

		ids := []string{input.FromAccountID}
		if input.To.ToAccountID != "" {
			ids = append(ids, input.To.ToAccountID)
		}
		accounts, err := uc.store.lockAccounts(ctx, tx, ids...)
		if err != nil {
			return err
		}

		source := accounts[input.FromAccountID]
		if !source.OwnedBy(input.UserID) {
			return domain.ErrForbidden
		}

		existing, err := uc.store.Transactions.GetByIdempotencyKey(ctx, tx, input.UserID, input.IdempotencyKey)
		switch {
		case err == nil:
			if existing.Fingerprint != fp {
				return domain.ErrIdempotencyConflict
			}
			result, replayed = existing, true
			return nil
		case !errors.Is(err, domain.ErrTransactionNotFound):
			return err
		}

		currency := source.Currency
		if input.Currency != "" {
			currency = strings.ToUpper(input.Currency)
		}
		if currency != source.Currency {
			return domain.ErrCurrencyMismatch
		}

		if err := source.ValidateDebit(input.Amount); err != nil {
			return err
		}

		var dest *domain.Account
		if input.To.ToAccountID != "" {
			dest = accounts[input.To.ToAccountID]
			if dest.Currency != source.Currency {
				return domain.ErrCurrencyMismatch
			}
			if err := dest.ValidateCredit(input.Amount); err != nil {
				return err
			}
		}

		now := uc.store.now()
		txn := &domain.Transaction{
			ID:              uc.store.IDGen.Generate(),
			UserID:          input.UserID,
			FromAccountID:   &source.ID,
			Type:            domain.TransactionTypeTransfer,
			Amount:          input.Amount,
			Currency:        currency,
			Description:     input.Description,
			ReferenceNumber: uc.store.reference(referencePrefixTransfer),
			Status:          domain.StatusPending,
			Details:         details,
			IdempotencyKey:  input.IdempotencyKey,
			Fingerprint:     fp,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if dest != nil {
			txn.ToAccountID = &dest.ID
			txn.Status = domain.StatusCompleted
			txn.SettledAt = &now
		}

		if err := uc.store.Transactions.Create(ctx, tx, txn); err != nil {
			return err
		}

		if err := uc.store.debit(ctx, tx, source, txn.ID, input.Amount, now); err != nil {
			return err
		}
		if dest != nil {
			if err := uc.store.credit(ctx, tx, dest, txn.ID, input.Amount, now); err != nil {
				return err
			}
		}

		eventType := domain.EventTypeTransactionCreated
		if txn.Status == domain.StatusCompleted {
			eventType = domain.EventTypeTransactionCompleted
		}
		if err := uc.store.emit(ctx, tx, domain.NewTransactionEvent(uc.store.IDGen.Generate(), eventType, txn)); err != nil {
			return err
		}
		if err := uc.store.audit(ctx, tx, domain.AuditActionTransactionCreate, domain.AggregateTypeTransaction, txn.ID, nil, txn); err != nil {
			return err
		}

		result = txn
		return nil
	})

	// A concurrent request with the same key committed first.
	if errors.Is(err, domain.ErrIdempotencyKeyInUse) {
		return uc.replayByKey(ctx, input.UserID, input.IdempotencyKey, fp)
	}
	if err != nil {
		return nil, err
	}

	if uc.store.Metrics != nil {
		if replayed {
			uc.store.Metrics.IdempotentReplays.Inc()
		} else {
			uc.store.Metrics.TransactionsSubmitted.WithLabelValues(string(result.Type), string(result.Status)).Inc()
			uc.store.Metrics.TransferAmount.Observe(result.Amount.InexactFloat64())
		}
	}

	return result, nil
}

func (uc *LedgerUseCase) replayByKey(ctx context.Context, userID, key, fp string) (*domain.Transaction, error) {
	existing, err := uc.store.Transactions.GetByIdempotencyKey(ctx, nil, userID, key)
	if err != nil {
		return nil, err
	}
	if existing.Fingerprint != fp {
		return nil, domain.ErrIdempotencyConflict
	}
	if uc.store.Metrics != nil {
		uc.store.Metrics.IdempotentReplays.Inc()
	}
	return existing, nil
}

func (uc *LedgerUseCase) resolveDestination(ctx context.Context, input SubmitTransferInput) (domain.Details, error) {
	switch {
	case input.To.ToAccountID != "":
		return domain.InternalTransferDetails{ToAccountID: input.To.ToAccountID}, nil
	case input.To.External != nil:
		ext := input.To.External
		return domain.ExternalTransferDetails{
			RecipientName: strings.TrimSpace(ext.Name),
			AccountNumber: strings.TrimSpace(ext.AccountNumber),
			RoutingNumber: strings.TrimSpace(ext.RoutingNumber),
		}, nil
	}

	b, err := uc.beneficiaryRepo.GetByID(ctx, input.To.BeneficiaryID)
	if err != nil {
		return nil, err
	}
	// Another user's beneficiary is reported as missing.
	if b.UserID != input.UserID {
		return nil, domain.ErrBeneficiaryNotFound
	}
	return b.TransferDetails(), nil
}

// GetTransaction returns a transaction owned by userID.
func (uc *LedgerUseCase) GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	txn, err := uc.store.Transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}
	return txn, nil
}

// ListTransactionsInput represents input for listing an account's transactions.
type ListTransactionsInput struct {
	UserID    string
	AccountID string
	Status    domain.Status
	Limit     int
	Offset    int
}

// ListTransactions lists transactions touching an account owned by the user.
func (uc *LedgerUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]*domain.Transaction, error) {
	account, err := uc.store.Accounts.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}
	if !account.OwnedBy(input.UserID) {
		return nil, domain.ErrForbidden
	}

	if input.Status != "" && !input.Status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	return uc.store.Transactions.ListByAccount(ctx, domain.ListTransactionsFilter{
		AccountID: input.AccountID,
		Status:    input.Status,
		Limit:     input.Limit,
		Offset:    input.Offset,
	})
}

// CancelTransaction cancels the user's pending transfer before settlement and
// returns the debited amount to the source account.
func (uc *LedgerUseCase) CancelTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	var result *domain.Transaction
	err := uc.store.inTx(ctx, func(ctx context.Context, tx Tx) error {
		txn, err := uc.store.Transactions.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if txn.UserID != userID {
			return domain.ErrTransactionNotFound
		}

		if err := uc.store.closePending(ctx, tx, txn, domain.StatusCancelled, "cancelled by customer", domain.AuditActionTransactionCancel); err != nil {
			return err
		}
		result = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.store.Metrics != nil {
		uc.store.Metrics.TransactionsSettled.WithLabelValues(string(domain.StatusCancelled)).Inc()
	}
	return result, nil
}
