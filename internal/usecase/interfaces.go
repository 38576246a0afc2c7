package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Tx, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByIDsForUpdate row-locks the accounts in the order given.
	GetByIDsForUpdate(ctx context.Context, tx Tx, ids []string) ([]*domain.Account, error)
	// UpdateBalances persists Balance, AvailableBalance and Version.
	UpdateBalances(ctx context.Context, tx Tx, account *domain.Account) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// TransactionRepository defines data access for ledger transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx Tx, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Tx, id string) (*domain.Transaction, error)
	// GetByIdempotencyKey returns domain.ErrTransactionNotFound when the key is unused.
	GetByIdempotencyKey(ctx context.Context, tx Tx, userID, key string) (*domain.Transaction, error)
	// UpdateStatus persists Status, FailureReason, UpdatedAt and SettledAt.
	UpdateStatus(ctx context.Context, tx Tx, txn *domain.Transaction) error
	ListByAccount(ctx context.Context, filter domain.ListTransactionsFilter) ([]*domain.Transaction, error)
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]*domain.Transaction, error)
	// SpendingSince totals outgoing transactions created at or after since,
	// leaving out failed and cancelled ones.
	SpendingSince(ctx context.Context, userID string, since time.Time) ([]domain.SpendingTotal, error)
	ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*domain.Transaction, error)
}

// EntryRepository defines data access for journal entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Tx, entry *domain.Entry) error
	ListByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
	SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error)
}

// LedgerRepository defines data access for ledger-wide checks.
type LedgerRepository interface {
	// SumEntriesByAccount returns the journal total for every account that has entries.
	SumEntriesByAccount(ctx context.Context) (map[string]decimal.Decimal, error)
	// UnbalancedTransfers returns completed internal transfers whose entries do not net to zero.
	UnbalancedTransfers(ctx context.Context) ([]string, error)
}

// PaymentRepository defines data access for bill payments.
type PaymentRepository interface {
	Create(ctx context.Context, tx Tx, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByIDForUpdate(ctx context.Context, tx Tx, id string) (*domain.Payment, error)
	GetByTransactionID(ctx context.Context, tx Tx, transactionID string) (*domain.Payment, error)
	// GetByIdempotencyKey returns domain.ErrPaymentNotFound when the key is unused.
	GetByIdempotencyKey(ctx context.Context, tx Tx, userID, key string) (*domain.Payment, error)
	// Update persists Status, TransactionID and UpdatedAt.
	Update(ctx context.Context, tx Tx, payment *domain.Payment) error
	ListByUser(ctx context.Context, userID string, filter domain.ListPaymentsFilter) ([]*domain.Payment, error)
	ListDue(ctx context.Context, asOf time.Time, limit int) ([]*domain.Payment, error)
}

// BeneficiaryRepository defines data access for saved recipients.
type BeneficiaryRepository interface {
	Create(ctx context.Context, b *domain.Beneficiary) error
	GetByID(ctx context.Context, id string) (*domain.Beneficiary, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Beneficiary, error)
	SetFavorite(ctx context.Context, id string, favorite bool, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// PortfolioRepository defines data access for portfolios and their investments.
type PortfolioRepository interface {
	Create(ctx context.Context, p *domain.Portfolio) error
	// GetByIDForUpdate locks the portfolio and loads its investments.
	GetByIDForUpdate(ctx context.Context, tx Tx, id string) (*domain.Portfolio, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Portfolio, error)
	AddInvestment(ctx context.Context, tx Tx, inv *domain.Investment) error
	UpdateTotals(ctx context.Context, tx Tx, p *domain.Portfolio) error
}

// OrderRepository defines data access for gateway orders.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.GatewayOrder) error
	GetByID(ctx context.Context, id string) (*domain.GatewayOrder, error)
	GetByIDForUpdate(ctx context.Context, tx Tx, id string) (*domain.GatewayOrder, error)
	// Update persists Status, PaymentID and UpdatedAt.
	Update(ctx context.Context, tx Tx, order *domain.GatewayOrder) error
}

// ChatRepository defines data access for assistant conversations.
type ChatRepository interface {
	CreateSession(ctx context.Context, session *domain.ChatSession) error
	GetSession(ctx context.Context, id string) (*domain.ChatSession, error)
	AppendMessages(ctx context.Context, sessionID string, msgs []domain.ChatMessage, updatedAt time.Time) error
	ListSessions(ctx context.Context, userID string) ([]*domain.ChatSession, error)
}

// HelpRepository runs full-text searches over the FAQs and notices.
type HelpRepository interface {
	SearchFAQs(ctx context.Context, query string, limit int) ([]domain.HelpArticle, error)
	SearchNotices(ctx context.Context, query string, limit int) ([]domain.HelpArticle, error)
}

// StatsRepository defines the aggregate queries behind the admin console.
type StatsRepository interface {
	CountUsers(ctx context.Context) (int64, error)
	CountAccounts(ctx context.Context) (int64, error)
	BalancesByCurrency(ctx context.Context) (map[string]decimal.Decimal, error)
	TransactionsByStatus(ctx context.Context) (map[domain.Status]int64, error)
	PendingVolume(ctx context.Context) (decimal.Decimal, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Tx, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Tx, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Tx represents a database transaction.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// Retrier re-runs an operation on transient database conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete releases a key so the request can be retried.
	Delete(ctx context.Context, key string) error
}

// GatewayOrderRequest is the order sent to the payment gateway.
type GatewayOrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// PaymentGateway creates checkout orders with the card payment gateway.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (orderID string, err error)
}

// Completer streams a generated reply for a conversation.
type Completer interface {
	// Stream calls emit for every chunk in order and stops at the first emit error.
	Stream(ctx context.Context, systemPrompt string, history []domain.ChatMessage, emit func(chunk string) error) error
}

// MarketDataProvider supplies quotes for a catalog.
type MarketDataProvider interface {
	Quotes(ctx context.Context, kind domain.QuoteKind) ([]domain.Quote, error)
}
