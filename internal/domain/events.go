package domain

import "time"

// Event types
const (
	EventTypeTransactionCreated   = "transaction.created"
	EventTypeTransactionCompleted = "transaction.completed"
	EventTypeTransactionFailed    = "transaction.failed"
	EventTypeTransactionCancelled = "transaction.cancelled"
	EventTypePaymentScheduled     = "payment.scheduled"
	EventTypePaymentExecuted      = "payment.executed"
	EventTypePaymentFailed        = "payment.failed"
	EventTypeOrderPaid            = "order.paid"
	EventTypeAccountOpened        = "account.opened"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
	AggregateTypePayment     = "payment"
	AggregateTypeOrder       = "order"
	AggregateTypeAccount     = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransactionEvent payload for every transaction.* event
type TransactionEvent struct {
	TransactionID   string `json:"transaction_id"`
	ReferenceNumber string `json:"reference_number"`
	Type            string `json:"type"`
	Status          string `json:"status"`
	FromAccountID   string `json:"from_account_id,omitempty"`
	ToAccountID     string `json:"to_account_id,omitempty"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Reason          string `json:"reason,omitempty"`
	EventAt         string `json:"event_at"`
}

// PaymentEvent payload for payment.* events
type PaymentEvent struct {
	PaymentID     string `json:"payment_id"`
	TransactionID string `json:"transaction_id,omitempty"`
	PayeeName     string `json:"payee_name"`
	Amount        string `json:"amount"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
}

// OrderPaidEvent payload
type OrderPaidEvent struct {
	OrderID       string `json:"order_id"`
	PaymentID     string `json:"payment_id"`
	AccountID     string `json:"account_id"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
}

// AccountOpenedEvent payload
type AccountOpenedEvent struct {
	AccountID     string `json:"account_id"`
	AccountNumber string `json:"account_number"`
	Type          string `json:"type"`
	Currency      string `json:"currency"`
}

// NewTransactionEvent builds the outbox event for txn under eventType.
func NewTransactionEvent(id, eventType string, txn *Transaction) *OutboxEvent {
	payload := TransactionEvent{
		TransactionID:   txn.ID,
		ReferenceNumber: txn.ReferenceNumber,
		Type:            string(txn.Type),
		Status:          string(txn.Status),
		Amount:          txn.Amount.String(),
		Currency:        txn.Currency,
		Reason:          txn.FailureReason,
		EventAt:         txn.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if txn.FromAccountID != nil {
		payload.FromAccountID = *txn.FromAccountID
	}
	if txn.ToAccountID != nil {
		payload.ToAccountID = *txn.ToAccountID
	}

	return &OutboxEvent{
		ID:            id,
		AggregateID:   txn.ID,
		AggregateType: AggregateTypeTransaction,
		EventType:     eventType,
		Payload:       MarshalState(payload),
		CreatedAt:     txn.UpdatedAt,
	}
}
