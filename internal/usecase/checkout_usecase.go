package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/domain"
)

// CheckoutSecrets holds the gateway secrets used to authenticate callbacks.
type CheckoutSecrets struct {
	KeySecret     string
	WebhookSecret string
}

// CheckoutUseCase tops up accounts through the card payment gateway.
type CheckoutUseCase struct {
	store   LedgerStore
	orders  OrderRepository
	gateway PaymentGateway
	secrets CheckoutSecrets
	logger  zerolog.Logger
}

// NewCheckoutUseCase creates a new CheckoutUseCase.
func NewCheckoutUseCase(store LedgerStore, orders OrderRepository, gateway PaymentGateway, secrets CheckoutSecrets, logger zerolog.Logger) *CheckoutUseCase {
	return &CheckoutUseCase{
		store:   store,
		orders:  orders,
		gateway: gateway,
		secrets: secrets,
		logger:  logger,
	}
}

// CreateOrderInput represents input for starting a checkout.
type CreateOrderInput struct {
	UserID    string
	AccountID string
	Amount    decimal.Decimal
	Currency  string
	Receipt   string
}

// CreateOrder registers an order with the gateway for crediting accountID.
func (uc *CheckoutUseCase) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.GatewayOrder, error) {
	if uc.gateway == nil {
		return nil, fmt.Errorf("%w: gateway not configured", domain.ErrGatewayUnavailable)
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	account, err := uc.store.Accounts.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}
	if !account.OwnedBy(input.UserID) {
		return nil, domain.ErrForbidden
	}
	if !account.Active {
		return nil, domain.ErrAccountInactive
	}

	currency := strings.ToUpper(input.Currency)
	if currency == "" {
		currency = account.Currency
	}
	if currency != account.Currency {
		return nil, domain.ErrCurrencyMismatch
	}

	now := uc.store.now()
	receipt := input.Receipt
	if receipt == "" {
		receipt = fmt.Sprintf("rcpt_%d", now.UnixMilli())
	}

	minor := domain.ToMinorUnits(input.Amount)
	orderID, err := uc.gateway.CreateOrder(ctx, GatewayOrderRequest{
		AmountMinor: minor,
		Currency:    currency,
		Receipt:     receipt,
		Notes: map[string]string{
			"account_id": account.ID,
			"user_id":    input.UserID,
		},
	})
	if err != nil {
		return nil, err
	}

	order := &domain.GatewayOrder{
		ID:          orderID,
		UserID:      input.UserID,
		AccountID:   account.ID,
		AmountMinor: minor,
		Currency:    currency,
		Receipt:     receipt,
		Status:      domain.OrderStatusCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	if uc.store.Metrics != nil {
		uc.store.Metrics.OrdersCreated.Inc()
	}
	return order, nil
}

// VerifyPayment checks the checkout signature returned to the browser and,
// when it matches, credits the order's account.
func (uc *CheckoutUseCase) VerifyPayment(ctx context.Context, userID, orderID, paymentID, signature string) (*domain.GatewayOrder, error) {
	if !verifyHMAC(uc.secrets.KeySecret, []byte(orderID+"|"+paymentID), signature) {
		return nil, domain.ErrInvalidSignature
	}

	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}

	return uc.capture(ctx, orderID, paymentID, 0)
}

// HandleWebhook authenticates a gateway webhook and applies it. A bad
// signature returns ErrInvalidSignature before anything is read or written.
func (uc *CheckoutUseCase) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !verifyHMAC(uc.secrets.WebhookSecret, body, signature) {
		if uc.store.Metrics != nil {
			uc.store.Metrics.WebhookRejections.Inc()
		}
		uc.logger.Warn().Int("body_bytes", len(body)).Msg("rejected webhook with invalid signature")
		return domain.ErrInvalidSignature
	}

	ev, err := decodeWebhook(body)
	if err != nil {
		return err
	}

	switch ev.Event {
	case domain.WebhookPaymentCaptured, domain.WebhookOrderPaid:
		if ev.OrderID == "" {
			return fmt.Errorf("%w: missing order id", domain.ErrMalformedWebhook)
		}
		_, err := uc.capture(ctx, ev.OrderID, ev.PaymentID, ev.Amount)
		return err
	case domain.WebhookPaymentFailed:
		if ev.OrderID == "" {
			return fmt.Errorf("%w: missing order id", domain.ErrMalformedWebhook)
		}
		return uc.markFailed(ctx, ev.OrderID, ev.PaymentID)
	default:
		uc.logger.Debug().Str("event", ev.Event).Msg("ignoring webhook event")
		return nil
	}
}

// capture credits the order's account once. A second capture of a paid
// order is a no-op. A non-zero amountMinor must equal the order amount.
func (uc *CheckoutUseCase) capture(ctx context.Context, orderID, paymentID string, amountMinor int64) (*domain.GatewayOrder, error) {
	var result *domain.GatewayOrder
	var credited bool

	err := uc.store.inTx(ctx, func(ctx context.Context, tx Tx) error {
		credited = false

		order, err := uc.orders.GetByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		result = order
		if order.Status == domain.OrderStatusPaid {
			return nil
		}
		if amountMinor != 0 && amountMinor != order.AmountMinor {
			return fmt.Errorf("%w: got %d, order %s is %d", domain.ErrOrderAmountMismatch, amountMinor, order.ID, order.AmountMinor)
		}

		accounts, err := uc.store.lockAccounts(ctx, tx, order.AccountID)
		if err != nil {
			return err
		}
		account := accounts[order.AccountID]
		amount := order.Amount()
		if err := account.ValidateCredit(amount); err != nil {
			return err
		}

		now := uc.store.now()
		txn := &domain.Transaction{
			ID:              uc.store.IDGen.Generate(),
			UserID:          order.UserID,
			ToAccountID:     &order.AccountID,
			Type:            domain.TransactionTypeDeposit,
			Amount:          amount,
			Currency:        order.Currency,
			Description:     "Card top-up",
			ReferenceNumber: uc.store.reference(referencePrefixDeposit),
			Status:          domain.StatusCompleted,
			Details: domain.GatewayDepositDetails{
				OrderID:   order.ID,
				PaymentID: paymentID,
			},
			CreatedAt: now,
			UpdatedAt: now,
			SettledAt: &now,
		}
		if err := uc.store.Transactions.Create(ctx, tx, txn); err != nil {
			return err
		}
		if err := uc.store.credit(ctx, tx, account, txn.ID, amount, now); err != nil {
			return err
		}

		before := *order
		order.Status = domain.OrderStatusPaid
		order.PaymentID = paymentID
		order.UpdatedAt = now
		if err := uc.orders.Update(ctx, tx, order); err != nil {
			return err
		}

		if err := uc.store.emit(ctx, tx, &domain.OutboxEvent{
			ID:            uc.store.IDGen.Generate(),
			AggregateID:   order.ID,
			AggregateType: domain.AggregateTypeOrder,
			EventType:     domain.EventTypeOrderPaid,
			Payload: domain.MarshalState(domain.OrderPaidEvent{
				OrderID:       order.ID,
				PaymentID:     paymentID,
				AccountID:     order.AccountID,
				TransactionID: txn.ID,
				Amount:        amount.StringFixed(2),
			}),
			CreatedAt: now,
		}); err != nil {
			return err
		}
		if err := uc.store.audit(ctx, tx, domain.AuditActionOrderPaid, domain.AggregateTypeOrder, order.ID, before, order); err != nil {
			return err
		}

		credited = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if credited {
		if uc.store.Metrics != nil {
			uc.store.Metrics.OrdersPaid.Inc()
		}
		uc.logger.Info().
			Str("order_id", orderID).
			Str("payment_id", paymentID).
			Str("account_id", result.AccountID).
			Msg("gateway order credited")
	}
	return result, nil
}

func (uc *CheckoutUseCase) markFailed(ctx context.Context, orderID, paymentID string) error {
	return uc.store.inTx(ctx, func(ctx context.Context, tx Tx) error {
		order, err := uc.orders.GetByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderStatusCreated {
			return nil
		}

		order.Status = domain.OrderStatusFailed
		order.PaymentID = paymentID
		order.UpdatedAt = uc.store.now()
		return uc.orders.Update(ctx, tx, order)
	})
}
