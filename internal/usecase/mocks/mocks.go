// Package mocks provides in-memory fakes of the usecase repositories. Each
// fake keeps state so use cases can be exercised end to end; the exported
// Func fields override a method when a test needs to inject a failure.
package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

// MockTx is a fake database transaction.
type MockTx struct {
	mu         sync.Mutex
	committed  bool
	rolledBack bool
	release    func()

	CommitFunc func(ctx context.Context) error
}

func (t *MockTx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.committed || t.rolledBack {
		return nil
	}
	if t.CommitFunc != nil {
		if err := t.CommitFunc(ctx); err != nil {
			return err
		}
	}
	t.committed = true
	t.done()
	return nil
}

func (t *MockTx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.committed || t.rolledBack {
		return nil
	}
	t.rolledBack = true
	t.done()
	return nil
}

func (t *MockTx) done() {
	if t.release != nil {
		t.release()
		t.release = nil
	}
}

// Committed reports whether Commit succeeded.
func (t *MockTx) Committed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.committed
}

// MockTransactionManager runs one transaction at a time, which stands in for
// the row locks a real database would take.
type MockTransactionManager struct {
	lock   sync.Mutex
	mu     sync.Mutex
	begins int
	txs    []*MockTx

	BeginFunc func(ctx context.Context) (usecase.Tx, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Tx, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}

	m.lock.Lock()
	tx := &MockTx{release: m.lock.Unlock}

	m.mu.Lock()
	m.begins++
	m.txs = append(m.txs, tx)
	m.mu.Unlock()
	return tx, nil
}

// Begins returns how many transactions were started.
func (m *MockTransactionManager) Begins() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.begins
}

// Commits returns how many transactions were committed.
func (m *MockTransactionManager) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, tx := range m.txs {
		if tx.Committed() {
			n++
		}
	}
	return n
}

// MockIDGenerator returns sequential IDs with an optional prefix.
type MockIDGenerator struct {
	Prefix string
	n      atomic.Int64
}

func (g *MockIDGenerator) Generate() string {
	prefix := g.Prefix
	if prefix == "" {
		prefix = "id-"
	}
	return fmt.Sprintf("%s%06d", prefix, g.n.Add(1))
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
	seq      int

	CreateFunc            func(ctx context.Context, tx usecase.Tx, account *domain.Account) error
	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Tx, ids []string) ([]*domain.Account, error)
	UpdateBalancesFunc    func(ctx context.Context, tx usecase.Tx, account *domain.Account) error
}

func NewMockAccountRepository(seed ...*domain.Account) *MockAccountRepository {
	m := &MockAccountRepository{accounts: make(map[string]domain.Account)}
	for _, a := range seed {
		m.accounts[a.ID] = *a
	}
	return m
}

func (m *MockAccountRepository) Create(ctx context.Context, tx usecase.Tx, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	account.AccountNumber = fmt.Sprintf("%012d", m.seq)
	m.accounts[account.ID] = *account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.accounts[id]; ok {
		return &a, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Tx, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Account
	for _, id := range ids {
		if a, ok := m.accounts[id]; ok {
			out = append(out, &a)
		}
	}
	return out, nil
}

func (m *MockAccountRepository) UpdateBalances(ctx context.Context, tx usecase.Tx, account *domain.Account) error {
	if m.UpdateBalancesFunc != nil {
		return m.UpdateBalancesFunc(ctx, tx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.accounts[account.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	stored.Balance = account.Balance
	stored.AvailableBalance = account.AvailableBalance
	stored.Version = account.Version
	stored.UpdatedAt = account.UpdatedAt
	m.accounts[account.ID] = stored
	return nil
}

func (m *MockAccountRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Account
	for _, a := range m.accounts {
		if a.UserID == userID {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, offset), nil
}

// Balance returns the stored balance and available balance of id.
func (m *MockAccountRepository) Balance(id string) (decimal.Decimal, decimal.Decimal) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a := m.accounts[id]
	return a.Balance, a.AvailableBalance
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu    sync.RWMutex
	txns  map[string]domain.Transaction
	order []string

	CreateFunc       func(ctx context.Context, tx usecase.Tx, txn *domain.Transaction) error
	UpdateStatusFunc func(ctx context.Context, tx usecase.Tx, txn *domain.Transaction) error
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{txns: make(map[string]domain.Transaction)}
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Tx, txn *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if txn.IdempotencyKey != "" {
		for _, existing := range m.txns {
			if existing.UserID == txn.UserID && existing.IdempotencyKey == txn.IdempotencyKey {
				return domain.ErrIdempotencyKeyInUse
			}
		}
	}
	m.txns[txn.ID] = *txn
	m.order = append(m.order, txn.ID)
	return nil
}

// Seed stores txn without the uniqueness checks.
func (m *MockTransactionRepository) Seed(txn *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txns[txn.ID] = *txn
	m.order = append(m.order, txn.ID)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.txns[id]; ok {
		return &t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.Transaction, error) {
	return m.GetByID(ctx, id)
}

func (m *MockTransactionRepository) GetByIdempotencyKey(ctx context.Context, tx usecase.Tx, userID, key string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.txns {
		if t.UserID == userID && t.IdempotencyKey == key {
			return &t, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Tx, txn *domain.Transaction) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.txns[txn.ID]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	stored.Status = txn.Status
	stored.FailureReason = txn.FailureReason
	stored.UpdatedAt = txn.UpdatedAt
	stored.SettledAt = txn.SettledAt
	m.txns[txn.ID] = stored
	return nil
}

func (m *MockTransactionRepository) ListByAccount(ctx context.Context, filter domain.ListTransactionsFilter) ([]*domain.Transaction, error) {
	return m.filter(func(t *domain.Transaction) bool {
		touches := (t.FromAccountID != nil && *t.FromAccountID == filter.AccountID) ||
			(t.ToAccountID != nil && *t.ToAccountID == filter.AccountID)
		return touches && (filter.Status == "" || t.Status == filter.Status)
	}, filter.Limit, filter.Offset), nil
}

func (m *MockTransactionRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]*domain.Transaction, error) {
	return m.filter(func(t *domain.Transaction) bool { return t.UserID == userID }, limit, 0), nil
}

func (m *MockTransactionRepository) SpendingSince(ctx context.Context, userID string, since time.Time) ([]domain.SpendingTotal, error) {
	out := m.filter(func(t *domain.Transaction) bool {
		return t.UserID == userID && t.DebitsSource() && !t.CreatedAt.Before(since) &&
			(t.Status == domain.StatusPending || t.Status == domain.StatusCompleted)
	}, 0, 0)

	type group struct {
		typ      domain.TransactionType
		kind     domain.DetailsKind
		category string
	}
	sums := make(map[group]decimal.Decimal)
	var keys []group
	for _, t := range out {
		g := group{typ: t.Type}
		if t.Details != nil {
			g.kind = t.Details.Kind()
		}
		if d, ok := t.Details.(domain.BillPaymentDetails); ok {
			g.category = d.Category
		}
		if _, seen := sums[g]; !seen {
			keys = append(keys, g)
		}
		sums[g] = sums[g].Add(t.Amount)
	}

	totals := make([]domain.SpendingTotal, 0, len(keys))
	for _, g := range keys {
		totals = append(totals, domain.SpendingTotal{Type: g.typ, Kind: g.kind, Category: g.category, Amount: sums[g]})
	}
	return totals, nil
}

func (m *MockTransactionRepository) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*domain.Transaction, error) {
	out := m.filter(func(t *domain.Transaction) bool {
		return t.Status == domain.StatusPending && t.CreatedAt.Before(before)
	}, 0, 0)
	// Oldest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return page(out, limit, 0), nil
}

// filter returns matches newest first.
func (m *MockTransactionRepository) filter(match func(*domain.Transaction) bool, limit, offset int) []*domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Transaction
	for i := len(m.order) - 1; i >= 0; i-- {
		t := m.txns[m.order[i]]
		if match(&t) {
			out = append(out, &t)
		}
	}
	return page(out, limit, offset)
}

// All returns every stored transaction in insertion order.
func (m *MockTransactionRepository) All() []*domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Transaction, 0, len(m.order))
	for _, id := range m.order {
		t := m.txns[id]
		out = append(out, &t)
	}
	return out
}

// MockEntryRepository is a mock implementation of EntryRepository.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries []domain.Entry

	CreateFunc func(ctx context.Context, tx usecase.Tx, entry *domain.Entry) error
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{}
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Tx, entry *domain.Entry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *MockEntryRepository) ListByTransaction(ctx context.Context, transactionID string) ([]*domain.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Entry
	for _, e := range m.entries {
		if e.TransactionID == transactionID {
			e := e
			out = append(out, &e)
		}
	}
	return out, nil
}

func (m *MockEntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if e := m.entries[i]; e.AccountID == accountID {
			out = append(out, &e)
		}
	}
	return page(out, limit, offset), nil
}

func (m *MockEntryRepository) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range m.entries {
		if e.AccountID == accountID {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

// Len returns the number of stored entries.
func (m *MockEntryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// MockLedgerRepository computes ledger-wide checks from a MockEntryRepository.
type MockLedgerRepository struct {
	Entries *MockEntryRepository

	UnbalancedTransfersFunc func(ctx context.Context) ([]string, error)
}

func (m *MockLedgerRepository) SumEntriesByAccount(ctx context.Context) (map[string]decimal.Decimal, error) {
	m.Entries.mu.RLock()
	defer m.Entries.mu.RUnlock()
	sums := make(map[string]decimal.Decimal)
	for _, e := range m.Entries.entries {
		sums[e.AccountID] = sums[e.AccountID].Add(e.Amount)
	}
	return sums, nil
}

func (m *MockLedgerRepository) UnbalancedTransfers(ctx context.Context) ([]string, error) {
	if m.UnbalancedTransfersFunc != nil {
		return m.UnbalancedTransfersFunc(ctx)
	}
	return nil, nil
}

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]domain.Payment
	order    []string

	CreateFunc func(ctx context.Context, tx usecase.Tx, payment *domain.Payment) error
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{payments: make(map[string]domain.Payment)}
}

func (m *MockPaymentRepository) Create(ctx context.Context, tx usecase.Tx, payment *domain.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if payment.IdempotencyKey != "" {
		for _, existing := range m.payments {
			if existing.UserID == payment.UserID && existing.IdempotencyKey == payment.IdempotencyKey {
				return domain.ErrIdempotencyKeyInUse
			}
		}
	}
	m.payments[payment.ID] = *payment
	m.order = append(m.order, payment.ID)
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.payments[id]; ok {
		return &p, nil
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.Payment, error) {
	return m.GetByID(ctx, id)
}

func (m *MockPaymentRepository) GetByTransactionID(ctx context.Context, tx usecase.Tx, transactionID string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.TransactionID != nil && *p.TransactionID == transactionID {
			return &p, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) GetByIdempotencyKey(ctx context.Context, tx usecase.Tx, userID, key string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.UserID == userID && p.IdempotencyKey == key {
			return &p, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) Update(ctx context.Context, tx usecase.Tx, payment *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.payments[payment.ID]
	if !ok {
		return domain.ErrPaymentNotFound
	}
	stored.Status = payment.Status
	stored.TransactionID = payment.TransactionID
	stored.UpdatedAt = payment.UpdatedAt
	m.payments[payment.ID] = stored
	return nil
}

func (m *MockPaymentRepository) ListByUser(ctx context.Context, userID string, filter domain.ListPaymentsFilter) ([]*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Payment
	for i := len(m.order) - 1; i >= 0; i-- {
		p := m.payments[m.order[i]]
		if p.UserID != userID || (filter.Scheduled && !p.Scheduled()) {
			continue
		}
		out = append(out, &p)
	}
	return page(out, filter.Limit, filter.Offset), nil
}

func (m *MockPaymentRepository) ListDue(ctx context.Context, asOf time.Time, limit int) ([]*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Payment
	for _, id := range m.order {
		p := m.payments[id]
		if p.Scheduled() && p.IsDue(asOf) {
			out = append(out, &p)
		}
	}
	return page(out, limit, 0), nil
}

// All returns every stored payment in insertion order.
func (m *MockPaymentRepository) All() []*domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Payment, 0, len(m.order))
	for _, id := range m.order {
		p := m.payments[id]
		out = append(out, &p)
	}
	return out
}

// MockBeneficiaryRepository is a mock implementation of BeneficiaryRepository.
type MockBeneficiaryRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Beneficiary
}

func NewMockBeneficiaryRepository(seed ...*domain.Beneficiary) *MockBeneficiaryRepository {
	m := &MockBeneficiaryRepository{items: make(map[string]domain.Beneficiary)}
	for _, b := range seed {
		m.items[b.ID] = *b
	}
	return m
}

func (m *MockBeneficiaryRepository) Create(ctx context.Context, b *domain.Beneficiary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[b.ID] = *b
	return nil
}

func (m *MockBeneficiaryRepository) GetByID(ctx context.Context, id string) (*domain.Beneficiary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.items[id]; ok {
		return &b, nil
	}
	return nil, domain.ErrBeneficiaryNotFound
}

func (m *MockBeneficiaryRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Beneficiary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Beneficiary
	for _, b := range m.items {
		if b.UserID == userID {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsFavorite != out[j].IsFavorite {
			return out[i].IsFavorite
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *MockBeneficiaryRepository) SetFavorite(ctx context.Context, id string, favorite bool, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok {
		return domain.ErrBeneficiaryNotFound
	}
	b.IsFavorite = favorite
	b.UpdatedAt = updatedAt
	m.items[id] = b
	return nil
}

func (m *MockBeneficiaryRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return domain.ErrBeneficiaryNotFound
	}
	delete(m.items, id)
	return nil
}

// MockPortfolioRepository is a mock implementation of PortfolioRepository.
type MockPortfolioRepository struct {
	mu         sync.RWMutex
	portfolios map[string]domain.Portfolio
	holdings   map[string][]domain.Investment
}

func NewMockPortfolioRepository() *MockPortfolioRepository {
	return &MockPortfolioRepository{
		portfolios: make(map[string]domain.Portfolio),
		holdings:   make(map[string][]domain.Investment),
	}
}

func (m *MockPortfolioRepository) Create(ctx context.Context, p *domain.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *p
	stored.Investments = nil
	m.portfolios[p.ID] = stored
	return nil
}

func (m *MockPortfolioRepository) load(id string) (*domain.Portfolio, bool) {
	p, ok := m.portfolios[id]
	if !ok {
		return nil, false
	}
	for _, inv := range m.holdings[id] {
		inv := inv
		p.Investments = append(p.Investments, &inv)
	}
	return &p, true
}

func (m *MockPortfolioRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.Portfolio, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.load(id); ok {
		return p, nil
	}
	return nil, domain.ErrPortfolioNotFound
}

func (m *MockPortfolioRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Portfolio, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Portfolio
	for id, p := range m.portfolios {
		if p.UserID == userID {
			loaded, _ := m.load(id)
			out = append(out, loaded)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockPortfolioRepository) AddInvestment(ctx context.Context, tx usecase.Tx, inv *domain.Investment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.portfolios[inv.PortfolioID]; !ok {
		return domain.ErrPortfolioNotFound
	}
	m.holdings[inv.PortfolioID] = append(m.holdings[inv.PortfolioID], *inv)
	return nil
}

func (m *MockPortfolioRepository) UpdateTotals(ctx context.Context, tx usecase.Tx, p *domain.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.portfolios[p.ID]
	if !ok {
		return domain.ErrPortfolioNotFound
	}
	stored.TotalValue = p.TotalValue
	stored.TotalGainLoss = p.TotalGainLoss
	stored.GainLossPercentage = p.GainLossPercentage
	stored.UpdatedAt = p.UpdatedAt
	m.portfolios[p.ID] = stored
	return nil
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.GatewayOrder
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[string]domain.GatewayOrder)}
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.GatewayOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = *order
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.GatewayOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.orders[id]; ok {
		return &o, nil
	}
	return nil, domain.ErrOrderNotFound
}

func (m *MockOrderRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.GatewayOrder, error) {
	return m.GetByID(ctx, id)
}

func (m *MockOrderRepository) Update(ctx context.Context, tx usecase.Tx, order *domain.GatewayOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	stored.Status = order.Status
	stored.PaymentID = order.PaymentID
	stored.UpdatedAt = order.UpdatedAt
	m.orders[order.ID] = stored
	return nil
}

// MockChatRepository is a mock implementation of ChatRepository.
type MockChatRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.ChatSession

	AppendMessagesFunc func(ctx context.Context, sessionID string, msgs []domain.ChatMessage, updatedAt time.Time) error
}

func NewMockChatRepository() *MockChatRepository {
	return &MockChatRepository{sessions: make(map[string]domain.ChatSession)}
}

func (m *MockChatRepository) CreateSession(ctx context.Context, session *domain.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = *session
	return nil
}

func (m *MockChatRepository) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s.Messages = append([]domain.ChatMessage(nil), s.Messages...)
	return &s, nil
}

func (m *MockChatRepository) AppendMessages(ctx context.Context, sessionID string, msgs []domain.ChatMessage, updatedAt time.Time) error {
	if m.AppendMessagesFunc != nil {
		return m.AppendMessagesFunc(ctx, sessionID, msgs, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.Messages = append(s.Messages, msgs...)
	s.UpdatedAt = updatedAt
	m.sessions[sessionID] = s
	return nil
}

func (m *MockChatRepository) ListSessions(ctx context.Context, userID string) ([]*domain.ChatSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ChatSession
	for _, s := range m.sessions {
		if s.UserID == userID {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// MockStatsRepository is a mock implementation of StatsRepository.
type MockStatsRepository struct {
	Users    int64
	Accounts int64
	Balances map[string]decimal.Decimal
	ByStatus map[domain.Status]int64
	Pending  decimal.Decimal

	CountUsersFunc func(ctx context.Context) (int64, error)
}

func (m *MockStatsRepository) CountUsers(ctx context.Context) (int64, error) {
	if m.CountUsersFunc != nil {
		return m.CountUsersFunc(ctx)
	}
	return m.Users, nil
}

func (m *MockStatsRepository) CountAccounts(ctx context.Context) (int64, error) {
	return m.Accounts, nil
}

func (m *MockStatsRepository) BalancesByCurrency(ctx context.Context) (map[string]decimal.Decimal, error) {
	return m.Balances, nil
}

func (m *MockStatsRepository) TransactionsByStatus(ctx context.Context) (map[domain.Status]int64, error) {
	return m.ByStatus, nil
}

func (m *MockStatsRepository) PendingVolume(ctx context.Context) (decimal.Decimal, error) {
	return m.Pending, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.Mutex
	events []*domain.OutboxEvent
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Tx, event *domain.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			out = append(out, e)
		}
	}
	return page(out, limit, 0), nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, e := range m.events {
		if !e.Published || e.PublishedAt.After(before) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// EventTypes returns the type of every stored event in order.
func (m *MockOutboxRepository) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.EventType)
	}
	return out
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu   sync.Mutex
	logs []*domain.AuditLog
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Tx, log *domain.AuditLog) error {
	return m.Create(ctx, log)
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AuditLog
	for i := len(m.logs) - 1; i >= 0; i-- {
		l := m.logs[i]
		if filter.UserID != "" && l.UserID != filter.UserID {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.ResourceType != "" && l.ResourceType != filter.ResourceType {
			continue
		}
		if filter.ResourceID != "" && l.ResourceID != filter.ResourceID {
			continue
		}
		out = append(out, l)
	}
	return page(out, filter.Limit, filter.Offset), nil
}

// Actions returns the action of every stored log in order.
func (m *MockAuditRepository) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l.Action)
	}
	return out
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]domain.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.ErrUserExists
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, offset), nil
}

// MockCache is an in-memory Cache that ignores TTLs.
type MockCache struct {
	mu    sync.Mutex
	items map[string][]byte
	Gets  int
	Sets  int
}

func NewMockCache() *MockCache {
	return &MockCache{items: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	return m.items[key], nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	m.items[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

var (
	_ usecase.TransactionManager    = (*MockTransactionManager)(nil)
	_ usecase.IDGenerator           = (*MockIDGenerator)(nil)
	_ usecase.AccountRepository     = (*MockAccountRepository)(nil)
	_ usecase.TransactionRepository = (*MockTransactionRepository)(nil)
	_ usecase.EntryRepository       = (*MockEntryRepository)(nil)
	_ usecase.LedgerRepository      = (*MockLedgerRepository)(nil)
	_ usecase.PaymentRepository     = (*MockPaymentRepository)(nil)
	_ usecase.BeneficiaryRepository = (*MockBeneficiaryRepository)(nil)
	_ usecase.PortfolioRepository   = (*MockPortfolioRepository)(nil)
	_ usecase.OrderRepository       = (*MockOrderRepository)(nil)
	_ usecase.ChatRepository        = (*MockChatRepository)(nil)
	_ usecase.HelpRepository        = (*MockHelpRepository)(nil)
	_ usecase.StatsRepository       = (*MockStatsRepository)(nil)
	_ usecase.OutboxRepository      = (*MockOutboxRepository)(nil)
	_ usecase.AuditRepository       = (*MockAuditRepository)(nil)
	_ usecase.UserRepository        = (*MockUserRepository)(nil)
	_ usecase.Cache                 = (*MockCache)(nil)
)

// MockHelpRepository matches articles whose text contains every query word.
type MockHelpRepository struct {
	FAQs    []domain.HelpArticle
	Notices []domain.HelpArticle

	// Err fails every search when set.
	Err error
}

func (m *MockHelpRepository) SearchFAQs(ctx context.Context, query string, limit int) ([]domain.HelpArticle, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return matchHelp(m.FAQs, query, limit), nil
}

func (m *MockHelpRepository) SearchNotices(ctx context.Context, query string, limit int) ([]domain.HelpArticle, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return matchHelp(m.Notices, query, limit), nil
}

func matchHelp(articles []domain.HelpArticle, query string, limit int) []domain.HelpArticle {
	words := strings.Fields(strings.ToLower(query))
	var out []domain.HelpArticle
	for _, a := range articles {
		text := strings.ToLower(a.Title + " " + a.Snippet)
		matched := len(words) > 0
		for _, w := range words {
			if !strings.Contains(text, w) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, a)
		}
	}
	return page(out, limit, 0)
}
