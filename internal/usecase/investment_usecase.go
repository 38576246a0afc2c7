package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/domain"
)

// InvestmentUseCase handles portfolios, holdings and market quotes.
type InvestmentUseCase struct {
	txManager     TransactionManager
	portfolioRepo PortfolioRepository
	market        MarketDataProvider
	cache         Cache
	quoteTTL      time.Duration
	idGen         IDGenerator
	logger        zerolog.Logger
}

// NewInvestmentUseCase creates a new InvestmentUseCase. cache may be nil.
func NewInvestmentUseCase(
	txManager TransactionManager,
	portfolioRepo PortfolioRepository,
	market MarketDataProvider,
	cache Cache,
	quoteTTL time.Duration,
	idGen IDGenerator,
	logger zerolog.Logger,
) *InvestmentUseCase {
	if quoteTTL <= 0 {
		quoteTTL = QuoteCacheTTL
	}
	return &InvestmentUseCase{
		txManager:     txManager,
		portfolioRepo: portfolioRepo,
		market:        market,
		cache:         cache,
		quoteTTL:      quoteTTL,
		idGen:         idGen,
		logger:        logger,
	}
}

// CreatePortfolio creates an empty portfolio.
func (uc *InvestmentUseCase) CreatePortfolio(ctx context.Context, userID, name, description string) (*domain.Portfolio, error) {
	if err := domain.ValidateDisplayName(name); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &domain.Portfolio{
		ID:          uc.idGen.Generate(),
		UserID:      userID,
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p.RecalculateTotals()

	if err := uc.portfolioRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPortfolios returns the user's portfolios with their investments.
func (uc *InvestmentUseCase) ListPortfolios(ctx context.Context, userID string) ([]*domain.Portfolio, error) {
	return uc.portfolioRepo.ListByUser(ctx, userID)
}

// AddInvestmentInput represents input for recording a holding.
type AddInvestmentInput struct {
	UserID        string
	PortfolioID   string
	Symbol        string
	Name          string
	Kind          domain.InvestmentKind
	Quantity      decimal.Decimal
	PurchasePrice decimal.Decimal
	// CurrentPrice defaults to the market quote, then to PurchasePrice.
	CurrentPrice *decimal.Decimal
}

// AddInvestment records a holding and recomputes the portfolio totals in one
// database transaction.
func (uc *InvestmentUseCase) AddInvestment(ctx context.Context, input AddInvestmentInput) (*domain.Portfolio, error) {
	symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))

	price := input.PurchasePrice
	name := input.Name
	if input.CurrentPrice != nil {
		price = *input.CurrentPrice
	} else if q, ok := uc.lookupQuote(ctx, input.Kind, symbol); ok {
		price = q.Price
		if name == "" {
			name = q.Name
		}
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	p, err := uc.portfolioRepo.GetByIDForUpdate(txCtx, tx, input.PortfolioID)
	if err != nil {
		return nil, err
	}
	if p.UserID != input.UserID {
		return nil, domain.ErrPortfolioNotFound
	}

	now := time.Now().UTC()
	inv, err := domain.NewInvestment(uc.idGen.Generate(), p.ID, symbol, name, input.Kind, input.Quantity, input.PurchasePrice, price, now)
	if err != nil {
		return nil, err
	}

	if err := uc.portfolioRepo.AddInvestment(txCtx, tx, inv); err != nil {
		return nil, err
	}

	p.Investments = append(p.Investments, inv)
	p.RecalculateTotals()
	p.UpdatedAt = now
	if err := uc.portfolioRepo.UpdateTotals(txCtx, tx, p); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *InvestmentUseCase) lookupQuote(ctx context.Context, kind domain.InvestmentKind, symbol string) (domain.Quote, bool) {
	var catalog domain.QuoteKind
	switch kind {
	case domain.InvestmentKindStock, domain.InvestmentKindETF:
		catalog = domain.QuoteKindStocks
	case domain.InvestmentKindCrypto:
		catalog = domain.QuoteKindCrypto
	default:
		return domain.Quote{}, false
	}

	quotes, err := uc.Quotes(ctx, catalog)
	if err != nil {
		return domain.Quote{}, false
	}
	for _, q := range quotes {
		if q.Symbol == symbol {
			return q, true
		}
	}
	return domain.Quote{}, false
}

func quoteCacheKey(kind domain.QuoteKind) string {
	return "quotes:" + string(kind)
}

// Quotes returns market data for a catalog, served from cache when fresh.
func (uc *InvestmentUseCase) Quotes(ctx context.Context, kind domain.QuoteKind) ([]domain.Quote, error) {
	if !kind.IsValid() {
		return nil, domain.ErrInvalidQuoteKind
	}

	if uc.cache != nil {
		if raw, err := uc.cache.Get(ctx, quoteCacheKey(kind)); err == nil && raw != nil {
			var quotes []domain.Quote
			if err := json.Unmarshal(raw, &quotes); err == nil {
				return quotes, nil
			}
		}
	}

	quotes, err := uc.market.Quotes(ctx, kind)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if raw, err := json.Marshal(quotes); err == nil {
			if err := uc.cache.Set(ctx, quoteCacheKey(kind), raw, uc.quoteTTL); err != nil {
				uc.logger.Warn().Err(err).Str("kind", string(kind)).Msg("failed to cache quotes")
			}
		}
	}
	return quotes, nil
}
