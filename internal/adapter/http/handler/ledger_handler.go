package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finovo/bankcore/internal/adapter/http/dto"
	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

// Settler moves pending transactions to a terminal status.
type Settler interface {
	Settle(ctx context.Context, input usecase.SettleInput) (*domain.Transaction, error)
}

// Reconciler reports on ledger consistency.
type Reconciler interface {
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// LedgerHandler handles ledger-wide staff operations.
type LedgerHandler struct {
	settler    Settler
	reconciler Reconciler
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(settler Settler, reconciler Reconciler) *LedgerHandler {
	return &LedgerHandler{settler: settler, reconciler: reconciler}
}

// Settle completes or fails a pending transaction. A failed outcome
// credits the debited amount back.
func (h *LedgerHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var req dto.SettleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	txn, err := h.settler.Settle(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		respondError(w, r, "failed to settle transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// CheckConsistency checks if the ledger is consistent.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.GenerateReconciliationReport(r.Context())
	if err != nil {
		respondError(w, r, "failed to check consistency", err)
		return
	}

	status := http.StatusOK
	if !report.LedgerConsistent {
		status = http.StatusConflict
	}
	writeJSON(w, status, dto.ConsistencyFromReport(report))
}
