package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidDisplayName   = errors.New("invalid name")
	ErrInvalidCurrency      = errors.New("invalid currency code")
	ErrAmountTooLarge       = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall       = errors.New("amount below minimum allowed")
	ErrAmountPrecision      = errors.New("amount has more than two decimal places")
	ErrInvalidAccountNumber = errors.New("invalid account number")
	ErrInvalidRoutingNumber = errors.New("invalid routing number")
	ErrInvalidEmail         = errors.New("invalid email format")
	ErrPasswordTooWeak      = errors.New("password does not meet requirements")
)

// Validation constants
const (
	MaxDisplayNameLength    = 255
	MinDisplayNameLength    = 1
	MaxTransferAmount       = "1000000000" // 1 billion
	MinTransferAmount       = "0.01"
	MinPasswordLength       = 8
	MaxPasswordLength       = 128
	MaxIdempotencyKeyLength = 255
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "RUB": true, "TRY": true, "HKD": true,
}

var (
	emailRegex         = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	accountNumberRegex = regexp.MustCompile(`^[0-9]{4,17}$`)
	routingNumberRegex = regexp.MustCompile(`^[0-9]{9}$`)
)

// ValidateDisplayName validates a human-entered name (payee, beneficiary, portfolio)
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinDisplayNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidDisplayName)
	}

	if len(name) > MaxDisplayNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidDisplayName, MaxDisplayNameLength)
	}

	return nil
}

// ValidateAccountNumber validates a domestic account number
func ValidateAccountNumber(number string) error {
	if !accountNumberRegex.MatchString(strings.TrimSpace(number)) {
		return fmt.Errorf("%w: account number must be 4-17 digits", ErrInvalidAccountNumber)
	}
	return nil
}

// ValidateRoutingNumber validates a 9-digit ABA routing number
func ValidateRoutingNumber(number string) error {
	if !routingNumberRegex.MatchString(strings.TrimSpace(number)) {
		return fmt.Errorf("%w: routing number must be 9 digits", ErrInvalidRoutingNumber)
	}
	return nil
}

// ValidateIdempotencyKey validates a client-supplied idempotency key
func ValidateIdempotencyKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrIdempotencyKeyRequired
	}
	if len(key) > MaxIdempotencyKeyLength {
		return fmt.Errorf("%w: key exceeds %d characters", ErrIdempotencyKeyRequired, MaxIdempotencyKeyLength)
	}
	return nil
}

// ValidateCurrency validates currency code
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a valid ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateAmount validates a transfer or payment amount
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	minAmount, _ := decimal.NewFromString(MinTransferAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinTransferAmount)
	}

	maxAmount, _ := decimal.NewFromString(MaxTransferAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransferAmount)
	}

	if !amount.Equal(amount.Round(2)) {
		return ErrAmountPrecision
	}

	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordTooWeak, MinPasswordLength)
	}

	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: must not exceed %d characters", ErrPasswordTooWeak, MaxPasswordLength)
	}

	// Check for at least one uppercase, one lowercase, and one number
	hasUpper := regexp.MustCompile(`[A-Z]`).MatchString(password)
	hasLower := regexp.MustCompile(`[a-z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)

	if !hasUpper || !hasLower || !hasNumber {
		return fmt.Errorf("%w: must contain uppercase, lowercase, and numbers", ErrPasswordTooWeak)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
