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

const portfolioColumns = `id, user_id, name, description, total_value, total_gain_loss,
	gain_loss_percentage, created_at, updated_at`

const investmentColumns = `id, portfolio_id, symbol, name, investment_type, quantity, purchase_price,
	current_price, market_value, gain_loss, purchase_date, created_at, updated_at`

// PortfolioRepository implements usecase.PortfolioRepository.
type PortfolioRepository struct {
	db DB
}

// NewPortfolioRepository creates a new PortfolioRepository.
func NewPortfolioRepository(pool *pgxpool.Pool) *PortfolioRepository {
	return &PortfolioRepository{db: pool}
}

// Create inserts an empty portfolio.
func (r *PortfolioRepository) Create(ctx context.Context, p *domain.Portfolio) error {
	query := `INSERT INTO portfolios (` + portfolioColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.UserID,
		p.Name,
		p.Description,
		toNumeric(p.TotalValue),
		toNumeric(p.TotalGainLoss),
		toNumeric(p.GainLossPercentage),
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// GetByIDForUpdate locks the portfolio and loads its investments.
func (r *PortfolioRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.Portfolio, error) {
	db := conn(r.db, tx)

	p, err := scanPortfolio(db.QueryRow(ctx, `SELECT `+portfolioColumns+` FROM portfolios WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPortfolioNotFound
	}
	if err != nil {
		return nil, err
	}

	byPortfolio, err := r.investments(ctx, db, []string{p.ID})
	if err != nil {
		return nil, err
	}
	p.Investments = byPortfolio[p.ID]
	return p, nil
}

// ListByUser returns the user's portfolios with their investments.
func (r *PortfolioRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Portfolio, error) {
	rows, err := r.db.Query(ctx, `SELECT `+portfolioColumns+` FROM portfolios WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}

	var (
		portfolios []*domain.Portfolio
		ids        []string
	)
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		portfolios = append(portfolios, p)
		ids = append(ids, p.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return portfolios, nil
	}

	byPortfolio, err := r.investments(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range portfolios {
		p.Investments = byPortfolio[p.ID]
	}
	return portfolios, nil
}

// AddInvestment inserts a holding.
func (r *PortfolioRepository) AddInvestment(ctx context.Context, tx usecase.Tx, inv *domain.Investment) error {
	query := `INSERT INTO investments (` + investmentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := conn(r.db, tx).Exec(ctx, query,
		inv.ID,
		inv.PortfolioID,
		inv.Symbol,
		inv.Name,
		inv.Kind,
		toNumeric(inv.Quantity),
		toNumeric(inv.PurchasePrice),
		toNumeric(inv.CurrentPrice),
		toNumeric(inv.MarketValue),
		toNumeric(inv.GainLoss),
		inv.PurchaseDate,
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	return err
}

// UpdateTotals persists the cached portfolio totals.
func (r *PortfolioRepository) UpdateTotals(ctx context.Context, tx usecase.Tx, p *domain.Portfolio) error {
	query := `
		UPDATE portfolios
		SET total_value = $2, total_gain_loss = $3, gain_loss_percentage = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := conn(r.db, tx).Exec(ctx, query,
		p.ID,
		toNumeric(p.TotalValue),
		toNumeric(p.TotalGainLoss),
		toNumeric(p.GainLossPercentage),
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return rowsAffected(tag, domain.ErrPortfolioNotFound)
}

func (r *PortfolioRepository) investments(ctx context.Context, db DB, portfolioIDs []string) (map[string][]*domain.Investment, error) {
	rows, err := db.Query(ctx, `SELECT `+investmentColumns+` FROM investments WHERE portfolio_id = ANY($1) ORDER BY created_at, id`, portfolioIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]*domain.Investment, len(portfolioIDs))
	for rows.Next() {
		var (
			inv                                        domain.Investment
			qty, purchase, current, value, gainLoss pgtype.Numeric
		)
		err := rows.Scan(
			&inv.ID,
			&inv.PortfolioID,
			&inv.Symbol,
			&inv.Name,
			&inv.Kind,
			&qty,
			&purchase,
			&current,
			&value,
			&gainLoss,
			&inv.PurchaseDate,
			&inv.CreatedAt,
			&inv.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		err = assignDecimals(
			numericField{&inv.Quantity, qty},
			numericField{&inv.PurchasePrice, purchase},
			numericField{&inv.CurrentPrice, current},
			numericField{&inv.MarketValue, value},
			numericField{&inv.GainLoss, gainLoss},
		)
		if err != nil {
			return nil, err
		}
		out[inv.PortfolioID] = append(out[inv.PortfolioID], &inv)
	}
	return out, rows.Err()
}

func scanPortfolio(row pgx.Row) (*domain.Portfolio, error) {
	var (
		p                          domain.Portfolio
		value, gainLoss, percentage pgtype.Numeric
	)
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Description,
		&value,
		&gainLoss,
		&percentage,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	err = assignDecimals(
		numericField{&p.TotalValue, value},
		numericField{&p.TotalGainLoss, gainLoss},
		numericField{&p.GainLossPercentage, percentage},
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
