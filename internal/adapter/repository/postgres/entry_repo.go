package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

const entryColumns = `id, account_id, transaction_id, amount, account_previous_balance,
	account_current_balance, account_version, created_at`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db DB
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{db: pool}
}

// Create inserts a journal entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Tx, entry *domain.Entry) error {
	query := `INSERT INTO entries (` + entryColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := conn(r.db, tx).Exec(ctx, query,
		entry.ID,
		entry.AccountID,
		entry.TransactionID,
		toNumeric(entry.Amount),
		toNumeric(entry.AccountPreviousBalance),
		toNumeric(entry.AccountCurrentBalance),
		entry.AccountVersion,
		entry.CreatedAt,
	)
	return err
}

// ListByTransaction returns a transaction's entries in the order they were written.
func (r *EntryRepository) ListByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE transaction_id = $1 ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, transactionID)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

// ListByAccount returns an account's entries, newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE account_id = $1
		ORDER BY account_version DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

// SumByAccount returns the journal total for one account.
func (r *EntryRepository) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var sum pgtype.Numeric
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM entries WHERE account_id = $1`, accountID).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return toDecimal(sum)
}

func collectEntries(rows pgx.Rows) ([]*domain.Entry, error) {
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		var (
			e                        domain.Entry
			amount, previous, current pgtype.Numeric
		)
		err := rows.Scan(
			&e.ID,
			&e.AccountID,
			&e.TransactionID,
			&amount,
			&previous,
			&current,
			&e.AccountVersion,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		err = assignDecimals(
			numericField{&e.Amount, amount},
			numericField{&e.AccountPreviousBalance, previous},
			numericField{&e.AccountCurrentBalance, current},
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
