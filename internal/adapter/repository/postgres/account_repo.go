package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

const accountColumns = `id, user_id, account_number, account_type, balance, available_balance,
	credit_limit, currency, active, version, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: pool}
}

// Create inserts an account. An empty AccountNumber is assigned from the
// account number sequence and written back.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Tx, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, account_number, account_type, balance, available_balance,
			credit_limit, currency, active, version, created_at, updated_at)
		VALUES ($1, $2, COALESCE($3, lpad(nextval('account_number_seq')::text, 12, '0')),
			$4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING account_number
	`

	return conn(r.db, tx).QueryRow(ctx, query,
		account.ID,
		account.UserID,
		nullString(account.AccountNumber),
		account.Type,
		toNumeric(account.Balance),
		toNumeric(account.AvailableBalance),
		toNumeric(account.CreditLimit),
		account.Currency,
		account.Active,
		account.Version,
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(&account.AccountNumber)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	return account, err
}

// GetByIDsForUpdate row-locks the accounts in the order given. Missing IDs are
// omitted from the result.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Tx, ids []string) ([]*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = ANY($1)
		ORDER BY array_position($1, id)
		FOR UPDATE
	`

	rows, err := conn(r.db, tx).Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

// UpdateBalances persists Balance, AvailableBalance and Version.
func (r *AccountRepository) UpdateBalances(ctx context.Context, tx usecase.Tx, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET balance = $2, available_balance = $3, version = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := conn(r.db, tx).Exec(ctx, query,
		account.ID,
		toNumeric(account.Balance),
		toNumeric(account.AvailableBalance),
		account.Version,
		account.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return rowsAffected(tag, domain.ErrAccountNotFound)
}

// ListByUser returns the user's accounts, oldest first.
func (r *AccountRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

// List retrieves all accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func collectAccounts(rows pgx.Rows) ([]*domain.Account, error) {
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a                                 domain.Account
		balance, available, creditLimit pgtype.Numeric
	)
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.AccountNumber,
		&a.Type,
		&balance,
		&available,
		&creditLimit,
		&a.Currency,
		&a.Active,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	err = assignDecimals(
		numericField{&a.Balance, balance},
		numericField{&a.AvailableBalance, available},
		numericField{&a.CreditLimit, creditLimit},
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
