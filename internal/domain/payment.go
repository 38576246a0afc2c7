package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the recurrence of a scheduled bill payment.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// IsValid reports whether f is a known frequency.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// Next returns the occurrence after from.
func (f Frequency) Next(from time.Time) time.Time {
	switch f {
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case FrequencyBiweekly:
		return from.AddDate(0, 0, 14)
	case FrequencyMonthly:
		return from.AddDate(0, 1, 0)
	case FrequencyQuarterly:
		return from.AddDate(0, 3, 0)
	case FrequencyYearly:
		return from.AddDate(1, 0, 0)
	}
	return from
}

// Payment is a bill payment, either executed immediately or scheduled for a later date.
type Payment struct {
	ID             string
	UserID         string
	FromAccountID  string
	PayeeName      string
	PayeeAccount   string
	Amount         decimal.Decimal
	Currency       string
	PaymentDate    *time.Time
	Description    string
	Category       string
	Status         PaymentStatus
	Recurring      bool
	Frequency      Frequency
	TransactionID  *string
	IdempotencyKey string
	Fingerprint    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsDue reports whether the payment should be executed at asOf. A payment with
// no date is due immediately. Dates are compared by calendar day.
func (p *Payment) IsDue(asOf time.Time) bool {
	if p.PaymentDate == nil {
		return true
	}
	return !truncateDay(*p.PaymentDate).After(truncateDay(asOf))
}

// Scheduled reports whether the payment is waiting for its date with no
// transaction posted yet.
func (p *Payment) Scheduled() bool {
	return p.Status == StatusPending && p.TransactionID == nil
}

// NextOccurrence returns the follow-up payment for a recurring one, or nil.
func (p *Payment) NextOccurrence(id string, now time.Time) *Payment {
	if !p.Recurring || !p.Frequency.IsValid() {
		return nil
	}

	base := now
	if p.PaymentDate != nil {
		base = *p.PaymentDate
	}
	next := p.Frequency.Next(base)

	return &Payment{
		ID:            id,
		UserID:        p.UserID,
		FromAccountID: p.FromAccountID,
		PayeeName:     p.PayeeName,
		PayeeAccount:  p.PayeeAccount,
		Amount:        p.Amount,
		Currency:      p.Currency,
		PaymentDate:   &next,
		Description:   p.Description,
		Category:      p.Category,
		Status:        StatusPending,
		Recurring:     true,
		Frequency:     p.Frequency,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ListPaymentsFilter narrows a payment listing. Scheduled selects payments not yet executed.
type ListPaymentsFilter struct {
	Scheduled bool
	Limit     int
	Offset    int
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
