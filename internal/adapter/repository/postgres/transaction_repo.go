package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

const transactionColumns = `id, user_id, from_account_id, to_account_id, transaction_type, amount,
	currency, description, reference_number, status, details, idempotency_key, fingerprint,
	failure_reason, created_at, updated_at, settled_at`

const transactionIdempotencyIndex = "idx_transactions_idempotency"

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	db DB
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: pool}
}

// Create inserts a transaction. A second transaction with the same user and
// idempotency key fails with domain.ErrIdempotencyKeyInUse.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Tx, txn *domain.Transaction) error {
	details, err := marshalDetails(txn.Details)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err = conn(r.db, tx).Exec(ctx, query,
		txn.ID,
		txn.UserID,
		txn.FromAccountID,
		txn.ToAccountID,
		txn.Type,
		toNumeric(txn.Amount),
		txn.Currency,
		txn.Description,
		txn.ReferenceNumber,
		txn.Status,
		details,
		nullString(txn.IdempotencyKey),
		txn.Fingerprint,
		txn.FailureReason,
		txn.CreatedAt,
		txn.UpdatedAt,
		txn.SettledAt,
	)
	if isUniqueViolation(err, transactionIdempotencyIndex) {
		return domain.ErrIdempotencyKeyInUse
	}
	return err
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return getTransaction(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves and row-locks a transaction.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`
	return getTransaction(conn(r.db, tx).QueryRow(ctx, query, id))
}

// GetByIdempotencyKey returns domain.ErrTransactionNotFound when the key is unused.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, tx usecase.Tx, userID, key string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 AND idempotency_key = $2`
	return getTransaction(conn(r.db, tx).QueryRow(ctx, query, userID, key))
}

// UpdateStatus persists Status, FailureReason, UpdatedAt and SettledAt.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Tx, txn *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET status = $2, failure_reason = $3, updated_at = $4, settled_at = $5
		WHERE id = $1
	`

	tag, err := conn(r.db, tx).Exec(ctx, query,
		txn.ID,
		txn.Status,
		txn.FailureReason,
		txn.UpdatedAt,
		txn.SettledAt,
	)
	if err != nil {
		return err
	}
	return rowsAffected(tag, domain.ErrTransactionNotFound)
}

// ListByAccount returns transactions touching an account, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, filter domain.ListTransactionsFilter) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE (from_account_id = $1 OR to_account_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, filter.AccountID, string(filter.Status), filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// ListRecentByUser returns the user's latest transactions.
func (r *TransactionRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// SpendingSince groups the user's outgoing money by type, details kind and category.
func (r *TransactionRepository) SpendingSince(ctx context.Context, userID string, since time.Time) ([]domain.SpendingTotal, error) {
	query := `
		SELECT transaction_type,
			COALESCE(details->>'kind', ''),
			COALESCE(details->'data'->>'category', ''),
			SUM(amount)
		FROM transactions
		WHERE user_id = $1
			AND from_account_id IS NOT NULL
			AND status IN ('pending', 'completed')
			AND created_at >= $2
		GROUP BY 1, 2, 3
	`

	rows, err := r.db.Query(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []domain.SpendingTotal
	for rows.Next() {
		var (
			t   domain.SpendingTotal
			sum pgtype.Numeric
		)
		if err := rows.Scan(&t.Type, &t.Kind, &t.Category, &sum); err != nil {
			return nil, err
		}
		if t.Amount, err = toDecimal(sum); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// ListPendingBefore returns pending transactions created before the cutoff, oldest first.
func (r *TransactionRepository) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at, id
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, before, limit)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

func marshalDetails(d domain.Details) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	return domain.MarshalDetails(d)
}

func getTransaction(row pgx.Row) (*domain.Transaction, error) {
	txn, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTransactionNotFound
	}
	return txn, err
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t              domain.Transaction
		amount         pgtype.Numeric
		details        []byte
		idempotencyKey *string
	)
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.FromAccountID,
		&t.ToAccountID,
		&t.Type,
		&amount,
		&t.Currency,
		&t.Description,
		&t.ReferenceNumber,
		&t.Status,
		&details,
		&idempotencyKey,
		&t.Fingerprint,
		&t.FailureReason,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.SettledAt,
	)
	if err != nil {
		return nil, err
	}

	if t.Amount, err = toDecimal(amount); err != nil {
		return nil, err
	}
	if t.Details, err = domain.UnmarshalDetails(details); err != nil {
		return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	t.IdempotencyKey = derefString(idempotencyKey)
	return &t, nil
}
