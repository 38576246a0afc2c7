package usecase_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
	"github.com/finovo/bankcore/internal/usecase/mocks"
)

var stockQuotes = []domain.Quote{
	{Symbol: "AAPL", Name: "Apple Inc.", Price: decimal.RequireFromString("190.00")},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Price: decimal.RequireFromString("410.50")},
}

type investmentFixture struct {
	market     *mocks.MockMarketDataProvider
	cache      *mocks.MockCache
	portfolios *mocks.MockPortfolioRepository
	txm        *mocks.MockTransactionManager
	uc         *usecase.InvestmentUseCase
}

func newInvestmentFixture(t *testing.T) *investmentFixture {
	t.Helper()
	f := &investmentFixture{
		market:     mocks.NewMockMarketDataProvider(gomock.NewController(t)),
		cache:      mocks.NewMockCache(),
		portfolios: mocks.NewMockPortfolioRepository(),
		txm:        mocks.NewMockTransactionManager(),
	}
	f.uc = usecase.NewInvestmentUseCase(f.txm, f.portfolios, f.market, f.cache, 0, &mocks.MockIDGenerator{Prefix: "pf-"}, nopLogger())
	return f
}

func TestInvestmentUseCase_Quotes_Cached(t *testing.T) {
	f := newInvestmentFixture(t)
	f.market.EXPECT().Quotes(gomock.Any(), domain.QuoteKindStocks).Return(stockQuotes, nil).Times(1)

	for range 3 {
		quotes, err := f.uc.Quotes(t.Context(), domain.QuoteKindStocks)
		if err != nil {
			t.Fatalf("quotes: %v", err)
		}
		if len(quotes) != 2 || !quotes[1].Price.Equal(dec("410.50")) {
			t.Fatalf("unexpected quotes: %+v", quotes)
		}
	}
	if f.cache.Sets != 1 {
		t.Fatalf("expected one cache write, got %d", f.cache.Sets)
	}
}

func TestInvestmentUseCase_Quotes_InvalidKind(t *testing.T) {
	f := newInvestmentFixture(t)
	if _, err := f.uc.Quotes(t.Context(), "bonds"); !errors.Is(err, domain.ErrInvalidQuoteKind) {
		t.Fatalf("expected ErrInvalidQuoteKind, got %v", err)
	}
}

func TestInvestmentUseCase_Quotes_ProviderError(t *testing.T) {
	f := newInvestmentFixture(t)
	boom := errors.New("upstream down")
	f.market.EXPECT().Quotes(gomock.Any(), domain.QuoteKindCrypto).Return(nil, boom)

	if _, err := f.uc.Quotes(t.Context(), domain.QuoteKindCrypto); !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if f.cache.Sets != 0 {
		t.Fatal("expected nothing cached")
	}
}

func TestInvestmentUseCase_CreatePortfolio(t *testing.T) {
	f := newInvestmentFixture(t)

	if _, err := f.uc.CreatePortfolio(t.Context(), alice, "  ", ""); !errors.Is(err, domain.ErrInvalidDisplayName) {
		t.Fatalf("expected ErrInvalidDisplayName, got %v", err)
	}

	p, err := f.uc.CreatePortfolio(t.Context(), alice, " Retirement ", "long term")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Name != "Retirement" || !p.TotalValue.IsZero() {
		t.Fatalf("unexpected portfolio: %+v", p)
	}

	list, err := f.uc.ListPortfolios(t.Context(), alice)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one portfolio, got %d (%v)", len(list), err)
	}
}

func TestInvestmentUseCase_AddInvestment(t *testing.T) {
	f := newInvestmentFixture(t)
	f.market.EXPECT().Quotes(gomock.Any(), domain.QuoteKindStocks).Return(stockQuotes, nil)

	p, err := f.uc.CreatePortfolio(t.Context(), alice, "Growth", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Priced from the market quote.
	p, err = f.uc.AddInvestment(t.Context(), usecase.AddInvestmentInput{
		UserID:        alice,
		PortfolioID:   p.ID,
		Symbol:        "aapl",
		Kind:          domain.InvestmentKindStock,
		Quantity:      dec("10"),
		PurchasePrice: dec("150.00"),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	inv := p.Investments[0]
	if inv.Symbol != "AAPL" || inv.Name != "Apple Inc." || !inv.CurrentPrice.Equal(dec("190.00")) {
		t.Fatalf("unexpected investment: %+v", inv)
	}

	// An explicit price wins and bonds have no catalog.
	manual := dec("98.00")
	p, err = f.uc.AddInvestment(t.Context(), usecase.AddInvestmentInput{
		UserID:        alice,
		PortfolioID:   p.ID,
		Symbol:        "UST10",
		Name:          "Treasury 10Y",
		Kind:          domain.InvestmentKindBond,
		Quantity:      dec("5"),
		PurchasePrice: dec("100.00"),
		CurrentPrice:  &manual,
	})
	if err != nil {
		t.Fatalf("add bond: %v", err)
	}

	// 10*190 + 5*98 = 2390; cost 1500 + 500 = 2000.
	if !p.TotalValue.Equal(dec("2390")) || !p.TotalGainLoss.Equal(dec("390")) || !p.GainLossPercentage.Equal(dec("19.5")) {
		t.Fatalf("unexpected totals: value %s gain %s pct %s", p.TotalValue, p.TotalGainLoss, p.GainLossPercentage)
	}
	if f.txm.Commits() != 2 {
		t.Fatalf("expected 2 commits, got %d", f.txm.Commits())
	}

	list, _ := f.uc.ListPortfolios(t.Context(), alice)
	if len(list[0].Investments) != 2 || !list[0].TotalValue.Equal(dec("2390")) {
		t.Fatalf("expected stored totals to match, got %+v", list[0])
	}
}

func TestInvestmentUseCase_AddInvestment_Rejections(t *testing.T) {
	f := newInvestmentFixture(t)
	p, err := f.uc.CreatePortfolio(t.Context(), alice, "Mine", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	price := dec("10")

	tests := []struct {
		name    string
		input   usecase.AddInvestmentInput
		wantErr error
	}{
		{
			name:    "another user's portfolio",
			input:   usecase.AddInvestmentInput{UserID: bob, PortfolioID: p.ID, Symbol: "X", Kind: domain.InvestmentKindFund, Quantity: dec("1"), PurchasePrice: price, CurrentPrice: &price},
			wantErr: domain.ErrPortfolioNotFound,
		},
		{
			name:    "unknown portfolio",
			input:   usecase.AddInvestmentInput{UserID: alice, PortfolioID: "missing", Symbol: "X", Kind: domain.InvestmentKindFund, Quantity: dec("1"), PurchasePrice: price, CurrentPrice: &price},
			wantErr: domain.ErrPortfolioNotFound,
		},
		{
			name:    "zero quantity",
			input:   usecase.AddInvestmentInput{UserID: alice, PortfolioID: p.ID, Symbol: "X", Kind: domain.InvestmentKindFund, Quantity: dec("0"), PurchasePrice: price, CurrentPrice: &price},
			wantErr: domain.ErrInvalidInvestment,
		},
		{
			name:    "unknown kind",
			input:   usecase.AddInvestmentInput{UserID: alice, PortfolioID: p.ID, Symbol: "X", Kind: "nft", Quantity: dec("1"), PurchasePrice: price, CurrentPrice: &price},
			wantErr: domain.ErrInvalidInvestment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.uc.AddInvestment(t.Context(), tt.input); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
	if f.txm.Commits() != 0 {
		t.Fatalf("expected no commits, got %d", f.txm.Commits())
	}
}
