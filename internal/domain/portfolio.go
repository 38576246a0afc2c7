package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentKind is the asset class of a holding.
type InvestmentKind string

const (
	InvestmentKindStock  InvestmentKind = "stock"
	InvestmentKindCrypto InvestmentKind = "crypto"
	InvestmentKindBond   InvestmentKind = "bond"
	InvestmentKindETF    InvestmentKind = "etf"
	InvestmentKindFund   InvestmentKind = "mutual_fund"
)

// IsValid reports whether k is a known investment kind.
func (k InvestmentKind) IsValid() bool {
	switch k {
	case InvestmentKindStock, InvestmentKindCrypto, InvestmentKindBond, InvestmentKindETF, InvestmentKindFund:
		return true
	}
	return false
}

// Portfolio groups a user's investments with cached totals.
type Portfolio struct {
	ID                 string
	UserID             string
	Name               string
	Description        string
	TotalValue         decimal.Decimal
	TotalGainLoss      decimal.Decimal
	GainLossPercentage decimal.Decimal
	Investments        []*Investment
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Investment is one holding inside a portfolio.
type Investment struct {
	ID            string
	PortfolioID   string
	Symbol        string
	Name          string
	Kind          InvestmentKind
	Quantity      decimal.Decimal
	PurchasePrice decimal.Decimal
	CurrentPrice  decimal.Decimal
	MarketValue   decimal.Decimal
	GainLoss      decimal.Decimal
	PurchaseDate  time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewInvestment derives market value and gain/loss from quantity and prices.
func NewInvestment(id, portfolioID, symbol, name string, kind InvestmentKind, qty, purchase, current decimal.Decimal, at time.Time) (*Investment, error) {
	if !kind.IsValid() || symbol == "" || !qty.IsPositive() || !purchase.IsPositive() || current.IsNegative() {
		return nil, ErrInvalidInvestment
	}

	value := qty.Mul(current).Round(2)
	cost := qty.Mul(purchase).Round(2)

	return &Investment{
		ID:            id,
		PortfolioID:   portfolioID,
		Symbol:        symbol,
		Name:          name,
		Kind:          kind,
		Quantity:      qty,
		PurchasePrice: purchase,
		CurrentPrice:  current,
		MarketValue:   value,
		GainLoss:      value.Sub(cost),
		PurchaseDate:  at,
		CreatedAt:     at,
		UpdatedAt:     at,
	}, nil
}

// RecalculateTotals recomputes the portfolio totals from its investments.
// The percentage is relative to cost basis (value minus gain/loss).
func (p *Portfolio) RecalculateTotals() {
	value := decimal.Zero
	gainLoss := decimal.Zero
	for _, inv := range p.Investments {
		value = value.Add(inv.MarketValue)
		gainLoss = gainLoss.Add(inv.GainLoss)
	}

	p.TotalValue = value.Round(2)
	p.TotalGainLoss = gainLoss.Round(2)

	cost := value.Sub(gainLoss)
	if cost.IsZero() {
		p.GainLossPercentage = decimal.Zero
		return
	}
	p.GainLossPercentage = gainLoss.Div(cost).Mul(decimal.NewFromInt(100)).Round(2)
}

// QuoteKind selects a market data catalog.
type QuoteKind string

const (
	QuoteKindStocks QuoteKind = "stocks"
	QuoteKindCrypto QuoteKind = "crypto"
)

// IsValid reports whether k is a known catalog.
func (k QuoteKind) IsValid() bool {
	return k == QuoteKindStocks || k == QuoteKindCrypto
}

// Quote is a market data snapshot for one symbol.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Volume        int64           `json:"volume,omitempty"`
	MarketCap     decimal.Decimal `json:"market_cap"`
	PERatio       *float64        `json:"pe_ratio,omitempty"`
	DividendYield *float64        `json:"dividend_yield,omitempty"`
	Volume24h     int64           `json:"volume_24h,omitempty"`
}
