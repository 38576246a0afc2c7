package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db DB
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: pool}
}

// SumEntriesByAccount returns the journal total for every account that has entries.
func (r *LedgerRepository) SumEntriesByAccount(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx, `SELECT account_id, SUM(amount) FROM entries GROUP BY account_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			accountID string
			sum       pgtype.Numeric
		)
		if err := rows.Scan(&accountID, &sum); err != nil {
			return nil, err
		}
		d, err := toDecimal(sum)
		if err != nil {
			return nil, err
		}
		sums[accountID] = d
	}
	return sums, rows.Err()
}

// UnbalancedTransfers returns completed internal transfers whose entries do not net to zero.
func (r *LedgerRepository) UnbalancedTransfers(ctx context.Context) ([]string, error) {
	query := `
		SELECT t.id
		FROM transactions t
		LEFT JOIN entries e ON e.transaction_id = t.id
		WHERE t.status = 'completed'
		  AND t.transaction_type = 'transfer'
		  AND t.from_account_id IS NOT NULL
		  AND t.to_account_id IS NOT NULL
		GROUP BY t.id
		HAVING COALESCE(SUM(e.amount), 0) <> 0 OR COUNT(e.id) <> 2
		ORDER BY t.id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
