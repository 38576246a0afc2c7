package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger transaction.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypePayment    TransactionType = "payment"
	TransactionTypeFee        TransactionType = "fee"
)

// TransactionStatus and PaymentStatus follow the same lifecycle.
type (
	TransactionStatus = Status
	PaymentStatus     = Status
)

// Transaction is the record of one money movement.
type Transaction struct {
	ID              string
	UserID          string
	FromAccountID   *string
	ToAccountID     *string
	Type            TransactionType
	Amount          decimal.Decimal
	Currency        string
	Description     string
	ReferenceNumber string
	Status          TransactionStatus
	Details         Details
	IdempotencyKey  string
	Fingerprint     string
	FailureReason   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	SettledAt       *time.Time
}

// TransitionTo moves the transaction to next, stamping SettledAt on terminal states.
func (t *Transaction) TransitionTo(next TransactionStatus, at time.Time) error {
	if err := t.Status.ValidateTransition(next); err != nil {
		return err
	}

	t.Status = next
	t.UpdatedAt = at
	if next.IsTerminal() {
		settled := at
		t.SettledAt = &settled
	}
	return nil
}

// Close moves a pending transaction to outcome. Any outcome other than
// completed records reason.
func (t *Transaction) Close(outcome TransactionStatus, reason string, at time.Time) error {
	if err := t.TransitionTo(outcome, at); err != nil {
		return err
	}
	if outcome != StatusCompleted {
		t.FailureReason = reason
	}
	return nil
}

// DebitsSource reports whether the transaction took money out of FromAccountID.
func (t *Transaction) DebitsSource() bool {
	return t.FromAccountID != nil
}

// Compensable reports whether a failure or cancellation must return the amount
// to the source account.
func (t *Transaction) Compensable() bool {
	return t.DebitsSource() && t.Status == StatusPending
}

// ListTransactionsFilter narrows a transaction listing.
type ListTransactionsFilter struct {
	AccountID string
	Status    TransactionStatus
	Limit     int
	Offset    int
}

// SpendingTotal is the money a user sent out for one transaction type,
// details kind and bill category.
type SpendingTotal struct {
	Type     TransactionType
	Kind     DetailsKind
	Category string
	Amount   decimal.Decimal
}
