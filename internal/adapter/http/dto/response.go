package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Phone     string      `json:"phone,omitempty"`
	Role      domain.Role `json:"role"`
	Verified  bool        `json:"is_verified"`
	Active    bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
}

// UserFromDomain converts a domain user to response.
func UserFromDomain(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Role:      u.Role,
		Verified:  u.Verified,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// UsersFromDomain converts domain users to responses.
func UsersFromDomain(users []*domain.User) []*UserResponse {
	result := make([]*UserResponse, len(users))
	for i, u := range users {
		result[i] = UserFromDomain(u)
	}
	return result
}

// TokenResponse is returned by login and registration.
type TokenResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *UserResponse `json:"user"`
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID               string          `json:"id"`
	AccountNumber    string          `json:"account_number"`
	Type             string          `json:"account_type"`
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	Currency         string          `json:"currency"`
	Active           bool            `json:"is_active"`
	Version          int64           `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:               a.ID,
		AccountNumber:    a.AccountNumber,
		Type:             string(a.Type),
		Balance:          a.Balance,
		AvailableBalance: a.AvailableBalance,
		CreditLimit:      a.CreditLimit,
		Currency:         a.Currency,
		Active:           a.Active,
		Version:          a.Version,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// DetailsResponse is the tagged form of transaction details.
type DetailsResponse struct {
	Kind domain.DetailsKind `json:"kind"`
	Data domain.Details     `json:"data"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID              string           `json:"id"`
	FromAccountID   *string          `json:"from_account_id,omitempty"`
	ToAccountID     *string          `json:"to_account_id,omitempty"`
	Type            string           `json:"transaction_type"`
	Amount          decimal.Decimal  `json:"amount"`
	Currency        string           `json:"currency"`
	Description     string           `json:"description,omitempty"`
	ReferenceNumber string           `json:"reference_number"`
	Status          domain.Status    `json:"status"`
	Details         *DetailsResponse `json:"details,omitempty"`
	FailureReason   string           `json:"failure_reason,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	SettledAt       *time.Time       `json:"settled_at,omitempty"`
}

// TransactionFromDomain converts a domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	resp := &TransactionResponse{
		ID:              t.ID,
		FromAccountID:   t.FromAccountID,
		ToAccountID:     t.ToAccountID,
		Type:            string(t.Type),
		Amount:          t.Amount,
		Currency:        t.Currency,
		Description:     t.Description,
		ReferenceNumber: t.ReferenceNumber,
		Status:          t.Status,
		FailureReason:   t.FailureReason,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		SettledAt:       t.SettledAt,
	}
	if t.Details != nil {
		resp.Details = &DetailsResponse{Kind: t.Details.Kind(), Data: t.Details}
	}
	return resp
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txns []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// EntryResponse represents a journal entry in API responses.
type EntryResponse struct {
	ID                     string          `json:"id"`
	AccountID              string          `json:"account_id"`
	TransactionID          string          `json:"transaction_id"`
	Amount                 decimal.Decimal `json:"amount"`
	AccountPreviousBalance decimal.Decimal `json:"account_previous_balance"`
	AccountCurrentBalance  decimal.Decimal `json:"account_current_balance"`
	AccountVersion         int64           `json:"account_version"`
	CreatedAt              time.Time       `json:"created_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:                     e.ID,
		AccountID:              e.AccountID,
		TransactionID:          e.TransactionID,
		Amount:                 e.Amount,
		AccountPreviousBalance: e.AccountPreviousBalance,
		AccountCurrentBalance:  e.AccountCurrentBalance,
		AccountVersion:         e.AccountVersion,
		CreatedAt:              e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// DashboardResponse is the overview shown after login.
type DashboardResponse struct {
	Accounts           []*AccountResponse         `json:"accounts"`
	TotalsByCurrency   map[string]decimal.Decimal `json:"totals_by_currency"`
	RecentTransactions []*TransactionResponse     `json:"recent_transactions"`
	MonthlySpending    map[string]decimal.Decimal `json:"monthly_spending"`
}

// DashboardFromUseCase converts the dashboard to response.
func DashboardFromUseCase(d *usecase.Dashboard) *DashboardResponse {
	return &DashboardResponse{
		Accounts:           AccountsFromDomain(d.Accounts),
		TotalsByCurrency:   d.TotalsByCurrency,
		RecentTransactions: TransactionsFromDomain(d.RecentTransactions),
		MonthlySpending:    d.MonthlySpending,
	}
}

// PaymentResponse represents a bill payment in API responses.
type PaymentResponse struct {
	ID            string          `json:"id"`
	FromAccountID string          `json:"from_account_id"`
	PayeeName     string          `json:"payee_name"`
	PayeeAccount  string          `json:"payee_account,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentDate   *time.Time      `json:"payment_date,omitempty"`
	Description   string          `json:"description,omitempty"`
	Category      string          `json:"category,omitempty"`
	Status        domain.Status   `json:"status"`
	Recurring     bool            `json:"is_recurring"`
	Frequency     string          `json:"recurring_frequency,omitempty"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PaymentFromDomain converts a domain payment to response.
func PaymentFromDomain(p *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:            p.ID,
		FromAccountID: p.FromAccountID,
		PayeeName:     p.PayeeName,
		PayeeAccount:  p.PayeeAccount,
		Amount:        p.Amount,
		Currency:      p.Currency,
		PaymentDate:   p.PaymentDate,
		Description:   p.Description,
		Category:      p.Category,
		Status:        p.Status,
		Recurring:     p.Recurring,
		Frequency:     string(p.Frequency),
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// PaymentsFromDomain converts domain payments to responses.
func PaymentsFromDomain(payments []*domain.Payment) []*PaymentResponse {
	result := make([]*PaymentResponse, len(payments))
	for i, p := range payments {
		result[i] = PaymentFromDomain(p)
	}
	return result
}

// BeneficiaryResponse represents a saved recipient in API responses.
type BeneficiaryResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	AccountNumber string    `json:"account_number"`
	BankName      string    `json:"bank_name,omitempty"`
	RoutingNumber string    `json:"routing_number,omitempty"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	IsFavorite    bool      `json:"is_favorite"`
	CreatedAt     time.Time `json:"created_at"`
}

// BeneficiaryFromDomain converts a domain beneficiary to response.
func BeneficiaryFromDomain(b *domain.Beneficiary) *BeneficiaryResponse {
	return &BeneficiaryResponse{
		ID:            b.ID,
		Name:          b.Name,
		AccountNumber: b.AccountNumber,
		BankName:      b.BankName,
		RoutingNumber: b.RoutingNumber,
		Email:         b.Email,
		Phone:         b.Phone,
		IsFavorite:    b.IsFavorite,
		CreatedAt:     b.CreatedAt,
	}
}

// BeneficiariesFromDomain converts domain beneficiaries to responses.
func BeneficiariesFromDomain(bs []*domain.Beneficiary) []*BeneficiaryResponse {
	result := make([]*BeneficiaryResponse, len(bs))
	for i, b := range bs {
		result[i] = BeneficiaryFromDomain(b)
	}
	return result
}

// InvestmentResponse represents a holding in API responses.
type InvestmentResponse struct {
	ID           string          `json:"id"`
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Quantity     decimal.Decimal `json:"quantity"`
	AverageCost  decimal.Decimal `json:"average_cost"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	MarketValue  decimal.Decimal `json:"market_value"`
	GainLoss     decimal.Decimal `json:"gain_loss"`
	PurchaseDate time.Time       `json:"purchase_date"`
}

// PortfolioResponse represents a portfolio in API responses.
type PortfolioResponse struct {
	ID                 string                `json:"id"`
	Name               string                `json:"name"`
	Description        string                `json:"description,omitempty"`
	TotalValue         decimal.Decimal       `json:"total_value"`
	TotalGainLoss      decimal.Decimal       `json:"total_gain_loss"`
	GainLossPercentage decimal.Decimal       `json:"gain_loss_percentage"`
	Investments        []*InvestmentResponse `json:"investments"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// PortfolioFromDomain converts a domain portfolio to response.
func PortfolioFromDomain(p *domain.Portfolio) *PortfolioResponse {
	invs := make([]*InvestmentResponse, len(p.Investments))
	for i, inv := range p.Investments {
		invs[i] = &InvestmentResponse{
			ID:           inv.ID,
			Symbol:       inv.Symbol,
			Name:         inv.Name,
			Type:         string(inv.Kind),
			Quantity:     inv.Quantity,
			AverageCost:  inv.PurchasePrice,
			CurrentPrice: inv.CurrentPrice,
			MarketValue:  inv.MarketValue,
			GainLoss:     inv.GainLoss,
			PurchaseDate: inv.PurchaseDate,
		}
	}
	return &PortfolioResponse{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		TotalValue:         p.TotalValue,
		TotalGainLoss:      p.TotalGainLoss,
		GainLossPercentage: p.GainLossPercentage,
		Investments:        invs,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// PortfoliosFromDomain converts domain portfolios to responses.
func PortfoliosFromDomain(ps []*domain.Portfolio) []*PortfolioResponse {
	result := make([]*PortfolioResponse, len(ps))
	for i, p := range ps {
		result[i] = PortfolioFromDomain(p)
	}
	return result
}

// OrderResponse is a gateway order handed to the checkout widget.
type OrderResponse struct {
	ID        string             `json:"id"`
	AccountID string             `json:"account_id"`
	Amount    int64              `json:"amount"`
	Currency  string             `json:"currency"`
	Receipt   string             `json:"receipt"`
	Status    domain.OrderStatus `json:"status"`
	PaymentID string             `json:"payment_id,omitempty"`
	KeyID     string             `json:"key_id,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// OrderFromDomain converts a gateway order to response. keyID is the
// public key the checkout widget needs.
func OrderFromDomain(o *domain.GatewayOrder, keyID string) *OrderResponse {
	return &OrderResponse{
		ID:        o.ID,
		AccountID: o.AccountID,
		Amount:    o.AmountMinor,
		Currency:  o.Currency,
		Receipt:   o.Receipt,
		Status:    o.Status,
		PaymentID: o.PaymentID,
		KeyID:     keyID,
		CreatedAt: o.CreatedAt,
	}
}

// ChatSessionResponse represents a stored conversation.
type ChatSessionResponse struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Messages  []domain.ChatMessage `json:"messages,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// ChatSessionFromDomain converts a chat session to response.
func ChatSessionFromDomain(s *domain.ChatSession) *ChatSessionResponse {
	return &ChatSessionResponse{
		ID:        s.ID,
		Name:      s.Name,
		Messages:  s.Messages,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// ChatSessionsFromDomain converts chat sessions to responses.
func ChatSessionsFromDomain(ss []*domain.ChatSession) []*ChatSessionResponse {
	result := make([]*ChatSessionResponse, len(ss))
	for i, s := range ss {
		result[i] = ChatSessionFromDomain(s)
	}
	return result
}

// StatsResponse is the admin system overview.
type StatsResponse struct {
	Users                int64                      `json:"users"`
	Accounts             int64                      `json:"accounts"`
	BalancesByCurrency   map[string]decimal.Decimal `json:"balances_by_currency"`
	TransactionsByStatus map[domain.Status]int64    `json:"transactions_by_status"`
	PendingVolume        decimal.Decimal            `json:"pending_volume"`
	GeneratedAt          time.Time                  `json:"generated_at"`
}

// StatsFromUseCase converts admin stats to response.
func StatsFromUseCase(s *usecase.Stats) *StatsResponse {
	return &StatsResponse{
		Users:                s.Users,
		Accounts:             s.Accounts,
		BalancesByCurrency:   s.BalancesByCurrency,
		TransactionsByStatus: s.TransactionsByStatus,
		PendingVolume:        s.PendingVolume,
		GeneratedAt:          s.GeneratedAt,
	}
}

// AuditLogResponse represents an audit entry.
type AuditLogResponse struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id,omitempty"`
	Action       string      `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id"`
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
	IPAddress    string      `json:"ip_address,omitempty"`
	RequestID    string      `json:"request_id,omitempty"`
	AfterState   domain.JSON `json:"after_state,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// AuditLogsFromDomain converts audit logs to responses.
func AuditLogsFromDomain(logs []*domain.AuditLog) []*AuditLogResponse {
	result := make([]*AuditLogResponse, len(logs))
	for i, l := range logs {
		result[i] = &AuditLogResponse{
			ID:           l.ID,
			UserID:       l.UserID,
			Action:       l.Action,
			ResourceType: l.ResourceType,
			ResourceID:   l.ResourceID,
			Status:       l.Status,
			ErrorMessage: l.ErrorMessage,
			IPAddress:    l.IPAddress,
			RequestID:    l.RequestID,
			AfterState:   l.AfterState,
			CreatedAt:    l.CreatedAt,
		}
	}
	return result
}

// DiscrepancyResponse is one account whose balance disagrees with its journal.
type DiscrepancyResponse struct {
	AccountID         string          `json:"account_id"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
}

// ConsistencyResponse is the ledger consistency report.
type ConsistencyResponse struct {
	Consistent          bool                   `json:"consistent"`
	TotalAccounts       int                    `json:"total_accounts"`
	ReconciledAccounts  int                    `json:"reconciled_accounts"`
	Discrepancies       []*DiscrepancyResponse `json:"discrepancies"`
	UnbalancedTransfers []string               `json:"unbalanced_transfers"`
	CheckedAt           time.Time              `json:"checked_at"`
}

// ConsistencyFromReport converts a reconciliation report to response.
func ConsistencyFromReport(r *usecase.ReconciliationReport) *ConsistencyResponse {
	ds := make([]*DiscrepancyResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		ds[i] = &DiscrepancyResponse{
			AccountID:         d.AccountID,
			RecordedBalance:   d.RecordedBalance,
			CalculatedBalance: d.CalculatedBalance,
			Difference:        d.Difference,
		}
	}
	unbalanced := r.UnbalancedTransfers
	if unbalanced == nil {
		unbalanced = []string{}
	}
	return &ConsistencyResponse{
		Consistent:          r.LedgerConsistent,
		TotalAccounts:       r.TotalAccounts,
		ReconciledAccounts:  r.ReconciledAccounts,
		Discrepancies:       ds,
		UnbalancedTransfers: unbalanced,
		CheckedAt:           r.CheckedAt,
	}
}

// HelpArticleResponse is one FAQ or notice backing a help answer.
type HelpArticleResponse struct {
	Type     domain.HelpSource `json:"type"`
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Snippet  string            `json:"snippet"`
	Category string            `json:"category,omitempty"`
}

// HelpAnswerResponse is the reply to a help search.
type HelpAnswerResponse struct {
	Answer  string                `json:"answer"`
	Sources []HelpArticleResponse `json:"sources"`
}

// HelpAnswerFromDomain converts a help answer to response.
func HelpAnswerFromDomain(a *domain.HelpAnswer) *HelpAnswerResponse {
	sources := make([]HelpArticleResponse, len(a.Sources))
	for i, s := range a.Sources {
		sources[i] = HelpArticleResponse{
			Type:     s.Source,
			ID:       s.ID,
			Title:    s.Title,
			Snippet:  s.Snippet,
			Category: s.Category,
		}
	}
	return &HelpAnswerResponse{Answer: a.Answer, Sources: sources}
}
