package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finovo/bankcore/internal/adapter/http/dto"
	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, userID, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error)
	Dashboard(ctx context.Context, userID string) (*usecase.Dashboard, error)
}

// TransactionLister lists a user's transactions.
type TransactionLister interface {
	ListTransactions(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
	txns      TransactionLister
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService, txns TransactionLister) *AccountHandler {
	return &AccountHandler{accountUC: accountUC, txns: txns}
}

// Create opens a new account for the current user.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.OpenAccountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.accountUC.OpenAccount(r.Context(), req.ToUseCaseInput(user.ID))
	if err != nil {
		respondError(w, r, "failed to open account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), user.ID, id)
	if err != nil {
		respondError(w, r, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists the current user's accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	accounts, err := h.accountUC.ListAccounts(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": dto.AccountsFromDomain(accounts),
		"total":    len(accounts),
	})
}

// Transactions lists transactions touching an account, optionally by status.
func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	txns, err := h.txns.ListTransactions(r.Context(), usecase.ListTransactionsInput{
		UserID:    user.ID,
		AccountID: accountID,
		Status:    domain.Status(r.URL.Query().Get("status")),
		Limit:     parseIntQuery(r, "limit", 20),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		respondError(w, r, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txns))
}

// Dashboard returns balances, recent activity and this month's spending.
func (h *AccountHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	dashboard, err := h.accountUC.Dashboard(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, "failed to load dashboard", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DashboardFromUseCase(dashboard))
}
