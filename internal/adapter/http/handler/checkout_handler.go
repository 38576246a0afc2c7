package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/finovo/bankcore/internal/adapter/http/dto"
	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

// WebhookSignatureHeader carries the gateway's HMAC of the raw body.
const WebhookSignatureHeader = "X-Razorpay-Signature"

// CheckoutService defines the behavior needed by CheckoutHandler.
type CheckoutService interface {
	CreateOrder(ctx context.Context, input usecase.CreateOrderInput) (*domain.GatewayOrder, error)
	VerifyPayment(ctx context.Context, userID, orderID, paymentID, signature string) (*domain.GatewayOrder, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
}

// CheckoutHandler handles gateway checkout and webhook requests.
type CheckoutHandler struct {
	checkoutUC CheckoutService
	keyID      string
}

// NewCheckoutHandler creates a new CheckoutHandler. keyID is the public
// gateway key the browser needs to open the checkout.
func NewCheckoutHandler(checkoutUC CheckoutService, keyID string) *CheckoutHandler {
	return &CheckoutHandler{checkoutUC: checkoutUC, keyID: keyID}
}

// CreateOrder creates a gateway order that will top up an account.
func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.checkoutUC.CreateOrder(r.Context(), req.ToUseCaseInput(user.ID))
	if err != nil {
		respondError(w, r, "failed to create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.OrderFromDomain(order, h.keyID))
}

// Verify checks the checkout callback signature and captures the payment.
func (h *CheckoutHandler) Verify(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.VerifyPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.checkoutUC.VerifyPayment(r.Context(), user.ID, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		respondError(w, r, "payment verification failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OrderFromDomain(order, h.keyID))
}

// Webhook receives gateway events. The body is passed through unparsed so
// the signature is checked against the exact bytes sent.
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.checkoutUC.HandleWebhook(r.Context(), body, r.Header.Get(WebhookSignatureHeader)); err != nil {
		respondError(w, r, "webhook rejected", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
