package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccount_ValidateDebit(t *testing.T) {
	tests := []struct {
		name        string
		accountType AccountType
		available   decimal.Decimal
		creditLimit decimal.Decimal
		active      bool
		debitAmount decimal.Decimal
		expectError error
	}{
		{
			name:        "checking - debit more than available",
			accountType: AccountTypeChecking,
			available:   decimal.NewFromInt(100),
			active:      true,
			debitAmount: decimal.NewFromInt(150),
			expectError: ErrInsufficientFunds,
		},
		{
			name:        "checking - debit exact available",
			accountType: AccountTypeChecking,
			available:   decimal.NewFromInt(100),
			active:      true,
			debitAmount: decimal.NewFromInt(100),
		},
		{
			name:        "savings - debit less than available",
			accountType: AccountTypeSavings,
			available:   decimal.NewFromInt(100),
			active:      true,
			debitAmount: decimal.NewFromInt(50),
		},
		{
			name:        "credit - within limit",
			accountType: AccountTypeCredit,
			available:   decimal.Zero,
			creditLimit: decimal.NewFromInt(500),
			active:      true,
			debitAmount: decimal.NewFromInt(500),
		},
		{
			name:        "credit - over limit",
			accountType: AccountTypeCredit,
			available:   decimal.NewFromInt(-400),
			creditLimit: decimal.NewFromInt(500),
			active:      true,
			debitAmount: decimal.NewFromInt(101),
			expectError: ErrCreditLimitExceeded,
		},
		{
			name:        "inactive account",
			accountType: AccountTypeChecking,
			available:   decimal.NewFromInt(100),
			active:      false,
			debitAmount: decimal.NewFromInt(1),
			expectError: ErrAccountInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{
				Type:             tt.accountType,
				AvailableBalance: tt.available,
				CreditLimit:      tt.creditLimit,
				Active:           tt.active,
			}

			err := acc.ValidateDebit(tt.debitAmount)
			if err != tt.expectError {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestAccount_ValidateCredit(t *testing.T) {
	acc := &Account{Active: true}
	if err := acc.ValidateCredit(decimal.NewFromInt(10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	acc.Active = false
	if err := acc.ValidateCredit(decimal.NewFromInt(10)); err != ErrAccountInactive {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestAccount_ApplyDebit(t *testing.T) {
	acc := &Account{
		Balance:          decimal.RequireFromString("200.00"),
		AvailableBalance: decimal.RequireFromString("180.00"),
		Version:          3,
	}

	change := acc.ApplyDebit(decimal.RequireFromString("25.50"))

	if !change.Previous.Equal(decimal.RequireFromString("200.00")) {
		t.Errorf("expected previous 200.00, got %s", change.Previous)
	}
	if !acc.Balance.Equal(decimal.RequireFromString("174.50")) {
		t.Errorf("expected balance 174.50, got %s", acc.Balance)
	}
	if !acc.AvailableBalance.Equal(decimal.RequireFromString("154.50")) {
		t.Errorf("expected available 154.50, got %s", acc.AvailableBalance)
	}
	if change.Version != 4 || acc.Version != 4 {
		t.Errorf("expected version 4, got change=%d account=%d", change.Version, acc.Version)
	}
}

func TestAccount_ApplyCredit(t *testing.T) {
	acc := &Account{
		Balance:          decimal.RequireFromString("50.00"),
		AvailableBalance: decimal.RequireFromString("50.00"),
	}

	change := acc.ApplyCredit(decimal.RequireFromString("25.50"))

	expected := decimal.RequireFromString("75.50")
	if !acc.Balance.Equal(expected) || !change.Current.Equal(expected) {
		t.Errorf("expected balance %s, got %s", expected, acc.Balance)
	}
	if !acc.AvailableBalance.Equal(expected) {
		t.Errorf("expected available %s, got %s", expected, acc.AvailableBalance)
	}
}
