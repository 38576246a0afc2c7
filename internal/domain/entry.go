package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one journal line: a signed change to a single account's balance.
type Entry struct {
	CreatedAt              time.Time
	ID                     string
	AccountID              string
	TransactionID          string
	Amount                 decimal.Decimal
	AccountPreviousBalance decimal.Decimal
	AccountCurrentBalance  decimal.Decimal
	AccountVersion         int64
}

// NewEntry builds the entry for a balance change produced by ApplyDebit or ApplyCredit.
func NewEntry(id, accountID, transactionID string, change BalanceChange, at time.Time) *Entry {
	return &Entry{
		ID:                     id,
		AccountID:              accountID,
		TransactionID:          transactionID,
		Amount:                 change.Current.Sub(change.Previous),
		AccountPreviousBalance: change.Previous,
		AccountCurrentBalance:  change.Current,
		AccountVersion:         change.Version,
		CreatedAt:              at,
	}
}
