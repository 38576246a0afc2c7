package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultPendingTimeout is how long a debited transaction may wait for settlement
	DefaultPendingTimeout = 72 * time.Hour

	// SettlementBatchSize bounds the work done by one expiry or scheduler pass
	SettlementBatchSize = 100

	// QuoteCacheTTL is how long market quotes are served from cache
	QuoteCacheTTL = time.Minute

	// systemActor is recorded in audit logs for background work
	systemActor = "system"
)

// Reference number prefixes.
const (
	referencePrefixTransfer = "TXN-"
	referencePrefixPayment  = "PAY-"
	referencePrefixDeposit  = "DEP-"
	referencePrefixReversal = "REV-"
)
