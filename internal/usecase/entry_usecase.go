package usecase

import (
	"context"

	"github.com/finovo/bankcore/internal/domain"
)

// EntryUseCase exposes the journal behind an account's balance.
type EntryUseCase struct {
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	entryRepo   EntryRepository
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(accountRepo AccountRepository, txnRepo TransactionRepository, entryRepo EntryRepository) *EntryUseCase {
	return &EntryUseCase{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		entryRepo:   entryRepo,
	}
}

// GetEntriesByAccountInput represents input for listing entries.
type GetEntriesByAccountInput struct {
	UserID    string
	AccountID string
	Limit     int
	Offset    int
}

// GetEntriesByAccount lists entries for an account owned by the user.
func (uc *EntryUseCase) GetEntriesByAccount(ctx context.Context, input GetEntriesByAccountInput) ([]*domain.Entry, error) {
	account, err := uc.accountRepo.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}
	if !account.OwnedBy(input.UserID) {
		return nil, domain.ErrForbidden
	}

	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	return uc.entryRepo.ListByAccount(ctx, input.AccountID, input.Limit, input.Offset)
}

// GetEntriesByTransaction lists entries for one of the user's transactions.
func (uc *EntryUseCase) GetEntriesByTransaction(ctx context.Context, userID, transactionID string) ([]*domain.Entry, error) {
	txn, err := uc.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}
	return uc.entryRepo.ListByTransaction(ctx, transactionID)
}
