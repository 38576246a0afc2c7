package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the product type of a bank account.
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeInvestment AccountType = "investment"
)

// IsValid reports whether t is a known account type.
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeCredit, AccountTypeInvestment:
		return true
	}
	return false
}

// Account represents a customer bank account.
//
// Balance is the ledger balance and AvailableBalance the spendable one. For every
// type except credit, 0 <= AvailableBalance <= Balance. Credit accounts may run
// AvailableBalance down to -CreditLimit.
type Account struct {
	ID               string
	UserID           string
	AccountNumber    string
	Type             AccountType
	Balance          decimal.Decimal
	AvailableBalance decimal.Decimal
	CreditLimit      decimal.Decimal
	Currency         string
	Active           bool
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BalanceChange describes one mutation of an account's ledger balance.
type BalanceChange struct {
	Previous decimal.Decimal
	Current  decimal.Decimal
	Version  int64
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if !a.Active {
		return ErrAccountInactive
	}

	remaining := a.AvailableBalance.Sub(amount)
	if a.Type == AccountTypeCredit {
		if remaining.LessThan(a.CreditLimit.Neg()) {
			return ErrCreditLimitExceeded
		}
		return nil
	}

	if remaining.IsNegative() {
		return ErrInsufficientFunds
	}
	return nil
}

// ValidateCredit checks if account can be credited by amount.
func (a *Account) ValidateCredit(amount decimal.Decimal) error {
	if !a.Active {
		return ErrAccountInactive
	}
	return nil
}

// ApplyDebit lowers both balances by amount and bumps the version.
func (a *Account) ApplyDebit(amount decimal.Decimal) BalanceChange {
	prev := a.Balance
	a.Balance = a.Balance.Sub(amount)
	a.AvailableBalance = a.AvailableBalance.Sub(amount)
	a.Version++

	return BalanceChange{Previous: prev, Current: a.Balance, Version: a.Version}
}

// ApplyCredit raises both balances by amount and bumps the version.
func (a *Account) ApplyCredit(amount decimal.Decimal) BalanceChange {
	prev := a.Balance
	a.Balance = a.Balance.Add(amount)
	a.AvailableBalance = a.AvailableBalance.Add(amount)
	a.Version++

	return BalanceChange{Previous: prev, Current: a.Balance, Version: a.Version}
}

// OwnedBy reports whether the account belongs to userID.
func (a *Account) OwnedBy(userID string) bool {
	return a.UserID == userID
}
