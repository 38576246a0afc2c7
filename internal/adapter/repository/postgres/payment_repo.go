package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

const paymentColumns = `id, user_id, from_account_id, payee_name, payee_account, amount, currency,
	payment_date, description, category, status, recurring, frequency, transaction_id,
	idempotency_key, fingerprint, created_at, updated_at`

const paymentIdempotencyIndex = "idx_payments_idempotency"

// PaymentRepository implements usecase.PaymentRepository.
type PaymentRepository struct {
	db DB
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{db: pool}
}

// Create inserts a payment. A second payment with the same user and
// idempotency key fails with domain.ErrIdempotencyKeyInUse.
func (r *PaymentRepository) Create(ctx context.Context, tx usecase.Tx, p *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := conn(r.db, tx).Exec(ctx, query,
		p.ID,
		p.UserID,
		p.FromAccountID,
		p.PayeeName,
		p.PayeeAccount,
		toNumeric(p.Amount),
		p.Currency,
		p.PaymentDate,
		p.Description,
		p.Category,
		p.Status,
		p.Recurring,
		p.Frequency,
		p.TransactionID,
		nullString(p.IdempotencyKey),
		p.Fingerprint,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if isUniqueViolation(err, paymentIdempotencyIndex) {
		return domain.ErrIdempotencyKeyInUse
	}
	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return getPayment(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves and row-locks a payment.
func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`
	return getPayment(conn(r.db, tx).QueryRow(ctx, query, id))
}

// GetByTransactionID returns the payment executed by a transaction.
func (r *PaymentRepository) GetByTransactionID(ctx context.Context, tx usecase.Tx, transactionID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = $1 FOR UPDATE`
	return getPayment(conn(r.db, tx).QueryRow(ctx, query, transactionID))
}

// GetByIdempotencyKey returns domain.ErrPaymentNotFound when the key is unused.
func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, tx usecase.Tx, userID, key string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 AND idempotency_key = $2`
	return getPayment(conn(r.db, tx).QueryRow(ctx, query, userID, key))
}

// Update persists Status, TransactionID and UpdatedAt.
func (r *PaymentRepository) Update(ctx context.Context, tx usecase.Tx, p *domain.Payment) error {
	query := `UPDATE payments SET status = $2, transaction_id = $3, updated_at = $4 WHERE id = $1`

	tag, err := conn(r.db, tx).Exec(ctx, query, p.ID, p.Status, p.TransactionID, p.UpdatedAt)
	if err != nil {
		return err
	}
	return rowsAffected(tag, domain.ErrPaymentNotFound)
}

// ListByUser returns the user's payments, newest first.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID string, filter domain.ListPaymentsFilter) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1
		  AND (NOT $2 OR (status = 'pending' AND transaction_id IS NULL))
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, userID, filter.Scheduled, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

// ListDue returns scheduled payments dated on or before asOf, oldest date first.
func (r *PaymentRepository) ListDue(ctx context.Context, asOf time.Time, limit int) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = 'pending'
		  AND transaction_id IS NULL
		  AND (payment_date IS NULL OR payment_date <= $1::date)
		ORDER BY payment_date NULLS FIRST, created_at, id
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, asOf.UTC(), limit)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

func getPayment(row pgx.Row) (*domain.Payment, error) {
	p, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPaymentNotFound
	}
	return p, err
}

func collectPayments(rows pgx.Rows) ([]*domain.Payment, error) {
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		p              domain.Payment
		amount         pgtype.Numeric
		idempotencyKey *string
	)
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.FromAccountID,
		&p.PayeeName,
		&p.PayeeAccount,
		&amount,
		&p.Currency,
		&p.PaymentDate,
		&p.Description,
		&p.Category,
		&p.Status,
		&p.Recurring,
		&p.Frequency,
		&p.TransactionID,
		&idempotencyKey,
		&p.Fingerprint,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.Amount, err = toDecimal(amount); err != nil {
		return nil, err
	}
	p.IdempotencyKey = derefString(idempotencyKey)
	return &p, nil
}
