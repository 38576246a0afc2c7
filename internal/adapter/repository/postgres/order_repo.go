package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

const orderColumns = `id, user_id, account_id, amount_minor, currency, receipt, status, payment_id, created_at, updated_at`

// OrderRepository implements usecase.OrderRepository.
type OrderRepository struct {
	db DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: pool}
}

// Create inserts a gateway order.
func (r *OrderRepository) Create(ctx context.Context, o *domain.GatewayOrder) error {
	query := `INSERT INTO gateway_orders (` + orderColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		o.ID,
		o.UserID,
		o.AccountID,
		o.AmountMinor,
		o.Currency,
		o.Receipt,
		o.Status,
		o.PaymentID,
		o.CreatedAt,
		o.UpdatedAt,
	)
	return err
}

// GetByID retrieves an order by its gateway ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.GatewayOrder, error) {
	return getOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM gateway_orders WHERE id = $1`, id))
}

// GetByIDForUpdate retrieves and row-locks an order.
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.GatewayOrder, error) {
	return getOrder(conn(r.db, tx).QueryRow(ctx, `SELECT `+orderColumns+` FROM gateway_orders WHERE id = $1 FOR UPDATE`, id))
}

// Update persists Status, PaymentID and UpdatedAt.
func (r *OrderRepository) Update(ctx context.Context, tx usecase.Tx, o *domain.GatewayOrder) error {
	tag, err := conn(r.db, tx).Exec(ctx,
		`UPDATE gateway_orders SET status = $2, payment_id = $3, updated_at = $4 WHERE id = $1`,
		o.ID, o.Status, o.PaymentID, o.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return rowsAffected(tag, domain.ErrOrderNotFound)
}

func getOrder(row pgx.Row) (*domain.GatewayOrder, error) {
	var o domain.GatewayOrder
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.AccountID,
		&o.AmountMinor,
		&o.Currency,
		&o.Receipt,
		&o.Status,
		&o.PaymentID,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
