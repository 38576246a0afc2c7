// Package razorpay creates checkout orders with the Razorpay payment gateway.
package razorpay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	razorpay "github.com/razorpay/razorpay-go"
	rzerrors "github.com/razorpay/razorpay-go/errors"
	"github.com/rs/zerolog"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

// Config holds the gateway credentials.
type Config struct {
	KeyID     string
	KeySecret string
	// BaseURL overrides the API host.
	BaseURL string
	// MaxRetries bounds the attempts after the first failure.
	MaxRetries int
}

// Client implements usecase.PaymentGateway.
type Client struct {
	api        *razorpay.Client
	maxRetries int
	interval   time.Duration
	logger     zerolog.Logger
}

var _ usecase.PaymentGateway = (*Client)(nil)

// NewClient creates a new gateway client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	api := razorpay.NewClient(cfg.KeyID, cfg.KeySecret)
	if cfg.BaseURL != "" {
		api.Request.BaseURL = cfg.BaseURL
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}

	return &Client{
		api:        api,
		maxRetries: maxRetries,
		interval:   200 * time.Millisecond,
		logger:     logger.With().Str("component", "razorpay").Logger(),
	}
}

// CreateOrder registers an order and returns the gateway order id.
func (c *Client) CreateOrder(ctx context.Context, req usecase.GatewayOrderRequest) (string, error) {
	data := map[string]interface{}{
		"amount":          req.AmountMinor,
		"currency":        req.Currency,
		"receipt":         req.Receipt,
		"payment_capture": 1,
	}
	if len(req.Notes) > 0 {
		notes := make(map[string]interface{}, len(req.Notes))
		for k, v := range req.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.interval
	b.MaxElapsedTime = 10 * time.Second

	var orderID string
	attempt := 0
	err := backoff.Retry(func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempt++

		body, err := c.api.Order.Create(data, nil)
		if err != nil {
			c.logger.Warn().Err(err).Int("attempt", attempt).Str("receipt", req.Receipt).Msg("order create failed")
			if isClientError(err) {
				return backoff.Permanent(err)
			}
			return err
		}

		id, ok := body["id"].(string)
		if !ok || id == "" {
			return backoff.Permanent(fmt.Errorf("order response without id"))
		}
		orderID = id
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	c.logger.Info().Str("order_id", orderID).Int64("amount", req.AmountMinor).Str("currency", req.Currency).Msg("gateway order created")
	return orderID, nil
}

// isClientError reports a rejected request; sending it again cannot succeed.
func isClientError(err error) bool {
	var badRequest *rzerrors.BadRequestError
	return errors.As(err, &badRequest)
}
