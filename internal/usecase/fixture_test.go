package usecase_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/infrastructure/metrics"
	"github.com/finovo/bankcore/internal/usecase"
	"github.com/finovo/bankcore/internal/usecase/mocks"
)

const (
	alice = "user-alice"
	bob   = "user-bob"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// ledgerFixture wires a LedgerStore over the in-memory fakes.
type ledgerFixture struct {
	txm          *mocks.MockTransactionManager
	accounts     *mocks.MockAccountRepository
	transactions *mocks.MockTransactionRepository
	entries      *mocks.MockEntryRepository
	payments     *mocks.MockPaymentRepository
	outbox       *mocks.MockOutboxRepository
	audit        *mocks.MockAuditRepository
	metrics      *metrics.Metrics
	store        usecase.LedgerStore
	now          time.Time
}

func newLedgerFixture(t *testing.T, seed ...*domain.Account) *ledgerFixture {
	t.Helper()

	f := &ledgerFixture{
		txm:          mocks.NewMockTransactionManager(),
		accounts:     mocks.NewMockAccountRepository(seed...),
		transactions: mocks.NewMockTransactionRepository(),
		entries:      mocks.NewMockEntryRepository(),
		payments:     mocks.NewMockPaymentRepository(),
		outbox:       mocks.NewMockOutboxRepository(),
		audit:        mocks.NewMockAuditRepository(),
		metrics:      metrics.New(prometheus.NewRegistry()),
		now:          fixedNow,
	}
	f.store = usecase.LedgerStore{
		TxManager:    f.txm,
		Accounts:     f.accounts,
		Transactions: f.transactions,
		Entries:      f.entries,
		Payments:     f.payments,
		Outbox:       f.outbox,
		Audit:        f.audit,
		IDGen:        &mocks.MockIDGenerator{},
		Metrics:      f.metrics,
		Now:          func() time.Time { return f.now },
	}

	// Opening balances get a journal line so reconciliation starts clean.
	for _, a := range seed {
		if a.Balance.IsZero() {
			continue
		}
		change := domain.BalanceChange{Previous: decimal.Zero, Current: a.Balance, Version: a.Version}
		if err := f.entries.Create(t.Context(), nil, domain.NewEntry("seed-"+a.ID, a.ID, "seed", change, fixedNow)); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}
	return f
}

func (f *ledgerFixture) balance(t *testing.T, id string) (decimal.Decimal, decimal.Decimal) {
	t.Helper()
	return f.accounts.Balance(id)
}

func (f *ledgerFixture) assertBalance(t *testing.T, id, wantBalance, wantAvailable string) {
	t.Helper()
	balance, available := f.balance(t, id)
	if !balance.Equal(dec(wantBalance)) {
		t.Fatalf("account %s: expected balance %s, got %s", id, wantBalance, balance)
	}
	if !available.Equal(dec(wantAvailable)) {
		t.Fatalf("account %s: expected available %s, got %s", id, wantAvailable, available)
	}
}

// assertJournal checks that every account's balance equals the sum of its entries.
func (f *ledgerFixture) assertJournal(t *testing.T) {
	t.Helper()
	uc := usecase.NewReconciliationUseCase(f.accounts, f.entries, &mocks.MockLedgerRepository{Entries: f.entries})
	report, err := uc.GenerateReconciliationReport(t.Context())
	if err != nil {
		t.Fatalf("reconciliation failed: %v", err)
	}
	if !report.LedgerConsistent {
		for _, d := range report.Discrepancies {
			t.Errorf("account %s: recorded %s, journal %s", d.AccountID, d.RecordedBalance, d.CalculatedBalance)
		}
		t.FailNow()
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func checking(id, userID, balance string) *domain.Account {
	return &domain.Account{
		ID:               id,
		UserID:           userID,
		AccountNumber:    "0000" + id,
		Type:             domain.AccountTypeChecking,
		Balance:          dec(balance),
		AvailableBalance: dec(balance),
		Currency:         "USD",
		Active:           true,
	}
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}
