package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/domain"
)

// StatsRepository implements usecase.StatsRepository.
type StatsRepository struct {
	db DB
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: pool}
}

func (r *StatsRepository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *StatsRepository) CountAccounts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE active`).Scan(&n)
	return n, err
}

// BalancesByCurrency totals ledger balances of active non-credit accounts.
func (r *StatsRepository) BalancesByCurrency(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT currency, SUM(balance)
		FROM accounts
		WHERE active AND account_type <> 'credit'
		GROUP BY currency
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			currency string
			sum      pgtype.Numeric
		)
		if err := rows.Scan(&currency, &sum); err != nil {
			return nil, err
		}
		d, err := toDecimal(sum)
		if err != nil {
			return nil, err
		}
		out[currency] = d
	}
	return out, rows.Err()
}

func (r *StatsRepository) TransactionsByStatus(ctx context.Context) (map[domain.Status]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM transactions GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.Status]int64)
	for rows.Next() {
		var (
			status domain.Status
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// PendingVolume is the total amount held by pending transactions.
func (r *StatsRepository) PendingVolume(ctx context.Context) (decimal.Decimal, error) {
	var sum pgtype.Numeric
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE status = 'pending'`).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return toDecimal(sum)
}
