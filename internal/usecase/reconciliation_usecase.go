package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/domain"
)

// ErrInconsistentLedger is returned when balances and the journal disagree.
var ErrInconsistentLedger = errors.New("ledger is inconsistent")

// ReconciliationUseCase handles balance reconciliation operations
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	ledgerRepo  LedgerRepository
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	ledgerRepo LedgerRepository,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		ledgerRepo:  ledgerRepo,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID         string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	LastChecked       time.Time
}

func newReconciliationResult(account *domain.Account, calculated decimal.Decimal) *ReconciliationResult {
	diff := account.Balance.Sub(calculated)
	return &ReconciliationResult{
		AccountID:         account.ID,
		RecordedBalance:   account.Balance,
		CalculatedBalance: calculated,
		Difference:        diff,
		IsReconciled:      diff.IsZero(),
		LastChecked:       time.Now().UTC(),
	}
}

// ReconcileAccount compares an account's recorded balance with the sum of its journal entries.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	sum, err := uc.entryRepo.SumByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return newReconciliationResult(account, sum), nil
}

// ReconcileAllAccounts reconciles all accounts in the system
func (uc *ReconciliationUseCase) ReconcileAllAccounts(ctx context.Context) ([]*ReconciliationResult, error) {
	sums, err := uc.ledgerRepo.SumEntriesByAccount(ctx)
	if err != nil {
		return nil, err
	}

	var results []*ReconciliationResult
	const pageSize = 1000
	for offset := 0; ; offset += pageSize {
		accounts, err := uc.accountRepo.List(ctx, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list accounts: %w", err)
		}

		for _, account := range accounts {
			results = append(results, newReconciliationResult(account, sums[account.ID]))
		}

		if len(accounts) < pageSize {
			break
		}
	}

	return results, nil
}

// CheckLedgerConsistency verifies that every completed internal transfer nets
// to zero and every account balance matches its journal.
func (uc *ReconciliationUseCase) CheckLedgerConsistency(ctx context.Context) error {
	unbalanced, err := uc.ledgerRepo.UnbalancedTransfers(ctx)
	if err != nil {
		return err
	}
	if len(unbalanced) > 0 {
		return fmt.Errorf("%w: %d transfers do not net to zero (first %s)", ErrInconsistentLedger, len(unbalanced), unbalanced[0])
	}

	results, err := uc.ReconcileAllAccounts(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		if !r.IsReconciled {
			return fmt.Errorf(
				"%w: account %s recorded=%s calculated=%s difference=%s",
				ErrInconsistentLedger,
				r.AccountID,
				r.RecordedBalance.String(),
				r.CalculatedBalance.String(),
				r.Difference.String(),
			)
		}
	}

	return nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalAccounts       int
	ReconciledAccounts  int
	Discrepancies       []*ReconciliationResult
	UnbalancedTransfers []string
	LedgerConsistent    bool
	CheckedAt           time.Time
}

// GenerateReconciliationReport generates a comprehensive reconciliation report
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAllAccounts(ctx)
	if err != nil {
		return nil, err
	}

	unbalanced, err := uc.ledgerRepo.UnbalancedTransfers(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalAccounts:       len(results),
		Discrepancies:       make([]*ReconciliationResult, 0),
		UnbalancedTransfers: unbalanced,
		CheckedAt:           time.Now().UTC(),
	}

	for _, result := range results {
		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}
	report.LedgerConsistent = len(report.Discrepancies) == 0 && len(unbalanced) == 0

	return report, nil
}
