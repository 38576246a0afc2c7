package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle of a payment-gateway order.
type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
)

// GatewayOrder is a top-up order created with the card payment gateway.
// AmountMinor is in the currency's minor unit.
type GatewayOrder struct {
	ID          string
	UserID      string
	AccountID   string
	AmountMinor int64
	Currency    string
	Receipt     string
	Status      OrderStatus
	PaymentID   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Amount returns the order amount in major units.
func (o *GatewayOrder) Amount() decimal.Decimal {
	return decimal.New(o.AmountMinor, -2)
}

// ToMinorUnits converts a major-unit amount to minor units, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Webhook event names emitted by the gateway.
const (
	WebhookPaymentCaptured = "payment.captured"
	WebhookPaymentFailed   = "payment.failed"
	WebhookOrderPaid       = "order.paid"
)

// WebhookEvent is the decoded part of a gateway webhook the service acts on.
type WebhookEvent struct {
	Event     string
	OrderID   string
	PaymentID string
	// Amount is in minor units; zero when the payload omits it.
	Amount int64
}
