package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finovo/bankcore/internal/adapter/http/dto"
	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

// InvestmentService defines the behavior needed by InvestmentHandler.
type InvestmentService interface {
	CreatePortfolio(ctx context.Context, userID, name, description string) (*domain.Portfolio, error)
	ListPortfolios(ctx context.Context, userID string) ([]*domain.Portfolio, error)
	AddInvestment(ctx context.Context, input usecase.AddInvestmentInput) (*domain.Portfolio, error)
	Quotes(ctx context.Context, kind domain.QuoteKind) ([]domain.Quote, error)
}

// InvestmentHandler handles portfolio and market quote requests.
type InvestmentHandler struct {
	investmentUC InvestmentService
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(investmentUC InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{investmentUC: investmentUC}
}

// ListPortfolios lists the user's portfolios with their holdings.
func (h *InvestmentHandler) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	portfolios, err := h.investmentUC.ListPortfolios(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, "failed to list portfolios", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PortfoliosFromDomain(portfolios))
}

// CreatePortfolio creates an empty portfolio.
func (h *InvestmentHandler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.CreatePortfolioRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	p, err := h.investmentUC.CreatePortfolio(r.Context(), user.ID, req.Name, req.Description)
	if err != nil {
		respondError(w, r, "failed to create portfolio", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PortfolioFromDomain(p))
}

// AddInvestment adds a holding and returns the recomputed portfolio.
func (h *InvestmentHandler) AddInvestment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.AddInvestmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	p, err := h.investmentUC.AddInvestment(r.Context(), req.ToUseCaseInput(user.ID, chi.URLParam(r, "id")))
	if err != nil {
		respondError(w, r, "failed to add investment", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PortfolioFromDomain(p))
}

// Quotes returns market quotes for ?type=stocks or ?type=crypto.
func (h *InvestmentHandler) Quotes(w http.ResponseWriter, r *http.Request) {
	kind := domain.QuoteKind(r.URL.Query().Get("type"))
	if kind == "" {
		kind = domain.QuoteKindStocks
	}

	quotes, err := h.investmentUC.Quotes(r.Context(), kind)
	if err != nil {
		respondError(w, r, "failed to load quotes", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"type":   kind,
		"quotes": quotes,
	})
}
