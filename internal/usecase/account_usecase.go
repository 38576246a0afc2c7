package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	store LedgerStore
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(store LedgerStore) *AccountUseCase {
	return &AccountUseCase{store: store}
}

// OpenAccountInput represents input for opening an account.
type OpenAccountInput struct {
	UserID         string
	Type           domain.AccountType
	Currency       string
	CreditLimit    decimal.Decimal
	InitialDeposit decimal.Decimal
}

// OpenAccount provisions an account for the user. A positive initial deposit
// is recorded as a completed deposit transaction with its journal entry.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	if !input.Type.IsValid() {
		return nil, domain.ErrInvalidAccountType
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}
	if input.CreditLimit.IsNegative() || (input.Type != domain.AccountTypeCredit && !input.CreditLimit.IsZero()) {
		return nil, domain.ErrInvalidAmount
	}
	if input.InitialDeposit.IsNegative() || (input.Type == domain.AccountTypeCredit && input.InitialDeposit.IsPositive()) {
		return nil, domain.ErrInvalidAmount
	}
	if input.InitialDeposit.IsPositive() {
		if err := domain.ValidateAmount(input.InitialDeposit); err != nil {
			return nil, err
		}
	}

	var result *domain.Account
	err := uc.store.inTx(ctx, func(ctx context.Context, tx Tx) error {
		now := uc.store.now()
		account := &domain.Account{
			ID:               uc.store.IDGen.Generate(),
			UserID:           input.UserID,
			Type:             input.Type,
			Balance:          decimal.Zero,
			AvailableBalance: decimal.Zero,
			CreditLimit:      input.CreditLimit,
			Currency:         strings.ToUpper(input.Currency),
			Active:           true,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		// Create assigns the account number.
		if err := uc.store.Accounts.Create(ctx, tx, account); err != nil {
			return err
		}

		if input.InitialDeposit.IsPositive() {
			if err := uc.openingDeposit(ctx, tx, account, input.InitialDeposit, now); err != nil {
				return err
			}
		}

		if err := uc.store.emit(ctx, tx, &domain.OutboxEvent{
			ID:            uc.store.IDGen.Generate(),
			AggregateID:   account.ID,
			AggregateType: domain.AggregateTypeAccount,
			EventType:     domain.EventTypeAccountOpened,
			Payload: domain.MarshalState(domain.AccountOpenedEvent{
				AccountID:     account.ID,
				AccountNumber: account.AccountNumber,
				Type:          string(account.Type),
				Currency:      account.Currency,
			}),
			CreatedAt: now,
		}); err != nil {
			return err
		}
		if err := uc.store.audit(ctx, tx, domain.AuditActionAccountOpen, domain.AggregateTypeAccount, account.ID, nil, account); err != nil {
			return err
		}

		result = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.store.Metrics != nil {
		uc.store.Metrics.AccountsOpened.Inc()
	}
	return result, nil
}

func (uc *AccountUseCase) openingDeposit(ctx context.Context, tx Tx, account *domain.Account, amount decimal.Decimal, now time.Time) error {
	txn := &domain.Transaction{
		ID:              uc.store.IDGen.Generate(),
		UserID:          account.UserID,
		ToAccountID:     &account.ID,
		Type:            domain.TransactionTypeDeposit,
		Amount:          amount,
		Currency:        account.Currency,
		Description:     "Opening deposit",
		ReferenceNumber: uc.store.reference(referencePrefixDeposit),
		Status:          domain.StatusCompleted,
		Details:         domain.OpeningDepositDetails{},
		CreatedAt:       now,
		UpdatedAt:       now,
		SettledAt:       &now,
	}
	if err := uc.store.Transactions.Create(ctx, tx, txn); err != nil {
		return err
	}
	return uc.store.credit(ctx, tx, account, txn.ID, amount, now)
}

// GetAccount retrieves an account owned by userID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, userID, id string) (*domain.Account, error) {
	account, err := uc.store.Accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !account.OwnedBy(userID) {
		return nil, domain.ErrForbidden
	}
	return account, nil
}

// ListAccounts lists the user's accounts.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error) {
	return uc.store.Accounts.ListByUser(ctx, userID)
}

// Dashboard is the overview shown after login.
type Dashboard struct {
	Accounts           []*domain.Account
	TotalsByCurrency   map[string]decimal.Decimal
	RecentTransactions []*domain.Transaction
	MonthlySpending    map[string]decimal.Decimal
}

const dashboardRecentLimit = 10

// Dashboard assembles balances, recent activity and this month's spending by category.
func (uc *AccountUseCase) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	accounts, err := uc.store.Accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent, err := uc.store.Transactions.ListRecentByUser(ctx, userID, dashboardRecentLimit)
	if err != nil {
		return nil, err
	}

	now := uc.store.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	spending, err := uc.store.Transactions.SpendingSince(ctx, userID, monthStart)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Accounts:           accounts,
		TotalsByCurrency:   make(map[string]decimal.Decimal),
		RecentTransactions: recent,
		MonthlySpending:    make(map[string]decimal.Decimal),
	}

	for _, a := range accounts {
		if a.Type == domain.AccountTypeCredit {
			continue
		}
		d.TotalsByCurrency[a.Currency] = d.TotalsByCurrency[a.Currency].Add(a.Balance)
	}

	for _, s := range spending {
		category := spendingCategory(s)
		d.MonthlySpending[category] = d.MonthlySpending[category].Add(s.Amount)
	}

	return d, nil
}

func spendingCategory(s domain.SpendingTotal) string {
	switch s.Kind {
	case domain.DetailsBillPayment:
		if s.Category != "" {
			return s.Category
		}
		return "bills"
	case domain.DetailsInternalTransfer:
		return "internal transfers"
	case domain.DetailsExternalTransfer, domain.DetailsBeneficiaryTransfer:
		return "transfers"
	}
	return string(s.Type)
}
