package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountInactive     = errors.New("account is not active")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrCreditLimitExceeded = errors.New("credit limit exceeded")
	ErrInvalidAccountType  = errors.New("invalid account type")

	// Transaction errors
	ErrSameAccount             = errors.New("cannot transfer to same account")
	ErrInvalidAmount           = errors.New("amount must be positive")
	ErrCurrencyMismatch        = errors.New("cannot transfer between different currencies")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidStatus           = errors.New("invalid status")
	ErrInvalidDestination      = errors.New("invalid transfer destination")
	ErrIdempotencyKeyRequired  = errors.New("idempotency key is required")
	ErrIdempotencyConflict     = errors.New("idempotency key reused with a different request")
	ErrIdempotencyKeyInUse     = errors.New("idempotency key already recorded")
	ErrUnknownDetailsKind      = errors.New("unknown transaction details kind")

	// Payment errors
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentNotCancelable = errors.New("payment already executed or closed")
	ErrInvalidFrequency     = errors.New("invalid recurring frequency")

	// Beneficiary errors
	ErrBeneficiaryNotFound = errors.New("beneficiary not found")

	// Investment errors
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrInvalidQuoteKind  = errors.New("invalid quote type, use stocks or crypto")
	ErrInvalidInvestment = errors.New("invalid investment")

	// Gateway errors
	ErrOrderNotFound       = errors.New("gateway order not found")
	ErrInvalidSignature    = errors.New("signature verification failed")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
	ErrMalformedWebhook    = errors.New("malformed webhook payload")
	ErrOrderAmountMismatch = errors.New("captured amount does not match the order")

	// Assistant errors
	ErrAssistantUnavailable = errors.New("assistant unavailable")
	ErrEmptyConversation    = errors.New("conversation has no user message")
	ErrSessionNotFound      = errors.New("chat session not found")

	// Access errors
	ErrForbidden = errors.New("resource does not belong to the requesting user")
)
