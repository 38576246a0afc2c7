package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewInvestment(t *testing.T) {
	inv, err := NewInvestment("inv-1", "pf-1", "AAPL", "Apple Inc.", InvestmentKindStock,
		decimal.NewFromInt(10), decimal.RequireFromString("150.00"), decimal.RequireFromString("175.43"), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !inv.MarketValue.Equal(decimal.RequireFromString("1754.30")) {
		t.Errorf("expected market value 1754.30, got %s", inv.MarketValue)
	}
	if !inv.GainLoss.Equal(decimal.RequireFromString("254.30")) {
		t.Errorf("expected gain 254.30, got %s", inv.GainLoss)
	}

	_, err = NewInvestment("inv-2", "pf-1", "AAPL", "", InvestmentKindStock,
		decimal.Zero, decimal.NewFromInt(1), decimal.NewFromInt(1), time.Now())
	if !errors.Is(err, ErrInvalidInvestment) {
		t.Fatalf("expected ErrInvalidInvestment, got %v", err)
	}
}

func TestPortfolio_RecalculateTotals(t *testing.T) {
	p := &Portfolio{Investments: []*Investment{
		{MarketValue: decimal.RequireFromString("1100.00"), GainLoss: decimal.RequireFromString("100.00")},
		{MarketValue: decimal.RequireFromString("900.00"), GainLoss: decimal.RequireFromString("-100.00")},
		{MarketValue: decimal.RequireFromString("550.00"), GainLoss: decimal.RequireFromString("50.00")},
	}}

	p.RecalculateTotals()

	if !p.TotalValue.Equal(decimal.RequireFromString("2550.00")) {
		t.Errorf("expected total 2550.00, got %s", p.TotalValue)
	}
	if !p.TotalGainLoss.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("expected gain 50.00, got %s", p.TotalGainLoss)
	}
	// 50 / 2500 = 2%
	if !p.GainLossPercentage.Equal(decimal.NewFromInt(2)) {
		t.Errorf("expected 2%%, got %s", p.GainLossPercentage)
	}
}

func TestPortfolio_RecalculateTotals_Empty(t *testing.T) {
	p := &Portfolio{}
	p.RecalculateTotals()

	if !p.TotalValue.IsZero() || !p.GainLossPercentage.IsZero() {
		t.Fatalf("expected zero totals, got %s / %s", p.TotalValue, p.GainLossPercentage)
	}
}
