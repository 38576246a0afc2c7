package dto

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags of a request.
func Validate(req any) error {
	return validate.Struct(req)
}

// FieldErrors flattens validation errors to field -> failed tag.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fmt.Sprintf("failed on '%s'", fe.Tag())
	}
	return out
}

// RegisterRequest represents a sign-up request.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterRequest) ToUseCaseInput() usecase.RegisterInput {
	return usecase.RegisterInput{
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
	}
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// OpenAccountRequest represents a request to open an account.
type OpenAccountRequest struct {
	Type           string           `json:"account_type" validate:"required,oneof=checking savings credit investment"`
	Currency       string           `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	CreditLimit    *decimal.Decimal `json:"credit_limit,omitempty"`
	InitialDeposit *decimal.Decimal `json:"initial_deposit,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *OpenAccountRequest) ToUseCaseInput(userID string) usecase.OpenAccountInput {
	in := usecase.OpenAccountInput{
		UserID:   userID,
		Type:     domain.AccountType(r.Type),
		Currency: strings.ToUpper(r.Currency),
	}
	if r.CreditLimit != nil {
		in.CreditLimit = *r.CreditLimit
	}
	if r.InitialDeposit != nil {
		in.InitialDeposit = *r.InitialDeposit
	}
	return in
}

// ExternalRecipientRequest identifies a recipient at another bank.
type ExternalRecipientRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	AccountNumber string `json:"account_number" validate:"required"`
	RoutingNumber string `json:"routing_number" validate:"required"`
}

// CreateTransferRequest represents a request to move money. Exactly one of
// ToAccountID, BeneficiaryID and External is set.
type CreateTransferRequest struct {
	FromAccountID string                    `json:"from_account_id" validate:"required"`
	ToAccountID   string                    `json:"to_account_id,omitempty" validate:"required_without_all=BeneficiaryID External,excluded_with=BeneficiaryID External"`
	BeneficiaryID string                    `json:"beneficiary_id,omitempty" validate:"required_without_all=ToAccountID External,excluded_with=ToAccountID External"`
	External      *ExternalRecipientRequest `json:"external,omitempty" validate:"omitempty"`
	Amount        decimal.Decimal           `json:"amount"`
	Currency      string                    `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Description   string                    `json:"description,omitempty" validate:"max=255"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput(userID, idempotencyKey string) usecase.SubmitTransferInput {
	in := usecase.SubmitTransferInput{
		UserID:         userID,
		IdempotencyKey: idempotencyKey,
		FromAccountID:  r.FromAccountID,
		Amount:         r.Amount,
		Currency:       strings.ToUpper(r.Currency),
		Description:    r.Description,
		To: usecase.TransferDestination{
			ToAccountID:   r.ToAccountID,
			BeneficiaryID: r.BeneficiaryID,
		},
	}
	if r.External != nil {
		in.To.External = &usecase.ExternalRecipient{
			Name:          r.External.Name,
			AccountNumber: r.External.AccountNumber,
			RoutingNumber: r.External.RoutingNumber,
		}
	}
	return in
}

// CreatePaymentRequest represents a bill payment, immediate or scheduled.
type CreatePaymentRequest struct {
	FromAccountID string          `json:"from_account_id" validate:"required"`
	PayeeName     string          `json:"payee_name" validate:"required,max=100"`
	PayeeAccount  string          `json:"payee_account,omitempty" validate:"max=64"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	PaymentDate   *time.Time      `json:"payment_date,omitempty"`
	Description   string          `json:"description,omitempty" validate:"max=255"`
	Category      string          `json:"category,omitempty" validate:"max=50"`
	Recurring     bool            `json:"is_recurring"`
	Frequency     string          `json:"recurring_frequency,omitempty" validate:"omitempty,oneof=weekly biweekly monthly quarterly yearly"`
}

// ToUseCaseInput converts to use case input.
func (r *CreatePaymentRequest) ToUseCaseInput(userID, idempotencyKey string) usecase.SubmitBillPaymentInput {
	return usecase.SubmitBillPaymentInput{
		UserID:         userID,
		IdempotencyKey: idempotencyKey,
		FromAccountID:  r.FromAccountID,
		PayeeName:      r.PayeeName,
		PayeeAccount:   r.PayeeAccount,
		Amount:         r.Amount,
		Currency:       strings.ToUpper(r.Currency),
		PaymentDate:    r.PaymentDate,
		Description:    r.Description,
		Category:       r.Category,
		Recurring:      r.Recurring,
		Frequency:      domain.Frequency(r.Frequency),
	}
}

// CreateBeneficiaryRequest represents a saved recipient.
type CreateBeneficiaryRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	AccountNumber string `json:"account_number" validate:"required"`
	BankName      string `json:"bank_name,omitempty" validate:"max=100"`
	RoutingNumber string `json:"routing_number,omitempty"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	Phone         string `json:"phone,omitempty" validate:"max=32"`
	IsFavorite    bool   `json:"is_favorite"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateBeneficiaryRequest) ToUseCaseInput(userID string) usecase.AddBeneficiaryInput {
	return usecase.AddBeneficiaryInput{
		UserID:        userID,
		Name:          r.Name,
		AccountNumber: r.AccountNumber,
		BankName:      r.BankName,
		RoutingNumber: r.RoutingNumber,
		Email:         r.Email,
		Phone:         r.Phone,
		IsFavorite:    r.IsFavorite,
	}
}

// SetFavoriteRequest toggles a beneficiary's favorite flag.
type SetFavoriteRequest struct {
	IsFavorite bool `json:"is_favorite"`
}

// CreatePortfolioRequest represents a new portfolio.
type CreatePortfolioRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// AddInvestmentRequest records a holding in a portfolio.
type AddInvestmentRequest struct {
	Symbol       string           `json:"symbol" validate:"required,max=16"`
	Name         string           `json:"name" validate:"required,max=100"`
	Type         string           `json:"type" validate:"required,oneof=stock crypto bond etf mutual_fund"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Price        decimal.Decimal  `json:"price"`
	CurrentPrice *decimal.Decimal `json:"current_price,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *AddInvestmentRequest) ToUseCaseInput(userID, portfolioID string) usecase.AddInvestmentInput {
	return usecase.AddInvestmentInput{
		UserID:        userID,
		PortfolioID:   portfolioID,
		Symbol:        strings.ToUpper(r.Symbol),
		Name:          r.Name,
		Kind:          domain.InvestmentKind(r.Type),
		Quantity:      r.Quantity,
		PurchasePrice: r.Price,
		CurrentPrice:  r.CurrentPrice,
	}
}

// CreateOrderRequest starts a gateway checkout that tops up an account.
type CreateOrderRequest struct {
	AccountID string          `json:"account_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Receipt   string          `json:"receipt,omitempty" validate:"max=40"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateOrderRequest) ToUseCaseInput(userID string) usecase.CreateOrderInput {
	return usecase.CreateOrderInput{
		UserID:    userID,
		AccountID: r.AccountID,
		Amount:    r.Amount,
		Currency:  r.Currency,
		Receipt:   r.Receipt,
	}
}

// VerifyPaymentRequest carries the checkout callback fields.
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required,hexadecimal"`
}

// ChatMessageRequest is one message of the conversation.
type ChatMessageRequest struct {
	ID      string `json:"id,omitempty"`
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"max=8000"`
}

// ChatRequest is an assistant turn.
type ChatRequest struct {
	SessionID string               `json:"session_id,omitempty"`
	Messages  []ChatMessageRequest `json:"messages" validate:"required,min=1,max=100,dive"`
}

// ToUseCaseInput converts to use case input.
func (r *ChatRequest) ToUseCaseInput() usecase.ChatInput {
	msgs := make([]domain.ChatMessage, len(r.Messages))
	for i, m := range r.Messages {
		msgs[i] = domain.ChatMessage{
			ID:      m.ID,
			Role:    domain.ChatRole(m.Role),
			Content: m.Content,
		}
	}
	return usecase.ChatInput{SessionID: r.SessionID, Messages: msgs}
}

// UpdateUserRequest is an admin change to a user's role or status.
type UpdateUserRequest struct {
	Role   *string `json:"role,omitempty" validate:"omitempty,oneof=customer manager admin"`
	Active *bool   `json:"active,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateUserRequest) ToUseCaseInput(userID string) usecase.AdminUpdateUserInput {
	in := usecase.AdminUpdateUserInput{UserID: userID, Active: r.Active}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		in.Role = &role
	}
	return in
}

// SettleRequest moves a pending transaction to a terminal status.
type SettleRequest struct {
	Status string `json:"status" validate:"required,oneof=completed failed"`
	Reason string `json:"reason,omitempty" validate:"max=255"`
}

// ToUseCaseInput converts to use case input.
func (r *SettleRequest) ToUseCaseInput(transactionID string) usecase.SettleInput {
	return usecase.SettleInput{
		TransactionID: transactionID,
		Outcome:       domain.Status(r.Status),
		Reason:        r.Reason,
	}
}
