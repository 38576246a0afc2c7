// Package market serves quotes from a built-in catalog.
package market

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

// Catalog implements usecase.MarketDataProvider over fixed snapshots.
type Catalog struct {
	quotes map[domain.QuoteKind][]domain.Quote
}

var _ usecase.MarketDataProvider = (*Catalog)(nil)

// NewCatalog returns the default stocks and crypto catalog.
func NewCatalog() *Catalog {
	return &Catalog{quotes: map[domain.QuoteKind][]domain.Quote{
		domain.QuoteKindStocks: {
			stock("AAPL", "Apple Inc.", "175.43", "2.15", "1.24", 52847392, "2750000000000", 28.5),
			stock("GOOGL", "Alphabet Inc.", "142.56", "-1.23", "-0.85", 23456789, "1780000000000", 25.8),
			stock("MSFT", "Microsoft Corporation", "378.85", "5.67", "1.52", 34567890, "2820000000000", 32.1),
		},
		domain.QuoteKindCrypto: {
			coin("BTC", "Bitcoin", "43250.75", "1250.30", "2.98", 28500000000, "845000000000"),
			coin("ETH", "Ethereum", "2650.45", "-45.20", "-1.68", 15200000000, "318000000000"),
			coin("ADA", "Cardano", "0.485", "0.015", "3.19", 850000000, "17000000000"),
		},
	}}
}

// Quotes returns a copy of the catalog for kind.
func (c *Catalog) Quotes(_ context.Context, kind domain.QuoteKind) ([]domain.Quote, error) {
	if !kind.IsValid() {
		return nil, domain.ErrInvalidQuoteKind
	}
	src := c.quotes[kind]
	out := make([]domain.Quote, len(src))
	copy(out, src)
	return out, nil
}

func stock(symbol, name, price, change, pct string, volume int64, marketCap string, pe float64) domain.Quote {
	return domain.Quote{
		Symbol:        symbol,
		Name:          name,
		Price:         decimal.RequireFromString(price),
		Change:        decimal.RequireFromString(change),
		ChangePercent: decimal.RequireFromString(pct),
		Volume:        volume,
		MarketCap:     decimal.RequireFromString(marketCap),
		PERatio:       &pe,
	}
}

func coin(symbol, name, price, change, pct string, volume24h int64, marketCap string) domain.Quote {
	return domain.Quote{
		Symbol:        symbol,
		Name:          name,
		Price:         decimal.RequireFromString(price),
		Change:        decimal.RequireFromString(change),
		ChangePercent: decimal.RequireFromString(pct),
		Volume24h:     volume24h,
		MarketCap:     decimal.RequireFromString(marketCap),
	}
}
