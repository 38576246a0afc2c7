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

const idempotencyKeyHeader = "Idempotency-Key"

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	SubmitTransfer(ctx context.Context, input usecase.SubmitTransferInput) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error)
	CancelTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error)
}

// TransferHandler handles transfer and transaction HTTP requests.
type TransferHandler struct {
	ledgerUC TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(ledgerUC TransferService) *TransferHandler {
	return &TransferHandler{ledgerUC: ledgerUC}
}

// Create submits a transfer. The Idempotency-Key header is required; a
// repeated key returns the original transaction.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing "+idempotencyKeyHeader+" header", domain.ErrIdempotencyKeyRequired.Error())
		return
	}

	var req dto.CreateTransferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	txn, err := h.ledgerUC.SubmitTransfer(r.Context(), req.ToUseCaseInput(user.ID, key))
	if err != nil {
		respondError(w, r, "failed to submit transfer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// Get retrieves a transaction by ID.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	txn, err := h.ledgerUC.GetTransaction(r.Context(), user.ID, id)
	if err != nil {
		respondError(w, r, "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// Cancel cancels a pending transaction and returns the debit to the source account.
func (h *TransferHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	txn, err := h.ledgerUC.CancelTransaction(r.Context(), user.ID, id)
	if err != nil {
		respondError(w, r, "failed to cancel transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}
