package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/finovo/bankcore/internal/adapter/http/dto"
	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

// PaymentService defines the behavior needed by PaymentHandler.
type PaymentService interface {
	SubmitBillPayment(ctx context.Context, input usecase.SubmitBillPaymentInput) (*domain.Payment, error)
	GetPayment(ctx context.Context, userID, id string) (*domain.Payment, error)
	ListPayments(ctx context.Context, input usecase.ListPaymentsInput) ([]*domain.Payment, error)
	CancelPayment(ctx context.Context, userID, id string) (*domain.Payment, error)
}

// PaymentHandler handles bill payment HTTP requests.
type PaymentHandler struct {
	paymentUC PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentUC PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentUC: paymentUC}
}

// Create pays a bill now or schedules it for payment_date.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing "+idempotencyKeyHeader+" header", domain.ErrIdempotencyKeyRequired.Error())
		return
	}

	var req dto.CreatePaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	payment, err := h.paymentUC.SubmitBillPayment(r.Context(), req.ToUseCaseInput(user.ID, key))
	if err != nil {
		respondError(w, r, "failed to submit payment", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PaymentFromDomain(payment))
}

// List lists payments; ?scheduled=true returns only pending future ones.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	payments, err := h.paymentUC.ListPayments(r.Context(), usecase.ListPaymentsInput{
		UserID:    user.ID,
		Scheduled: r.URL.Query().Get("scheduled") == "true",
		Limit:     parseIntQuery(r, "limit", 20),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		respondError(w, r, "failed to list payments", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentsFromDomain(payments))
}

// Get retrieves a payment by ID.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	payment, err := h.paymentUC.GetPayment(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "failed to get payment", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentFromDomain(payment))
}

// Cancel cancels a scheduled payment.
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	payment, err := h.paymentUC.CancelPayment(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "failed to cancel payment", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentFromDomain(payment))
}
