package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finovo/bankcore/internal/adapter/http/dto"
	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

// BeneficiaryService defines the behavior needed by BeneficiaryHandler.
type BeneficiaryService interface {
	Add(ctx context.Context, input usecase.AddBeneficiaryInput) (*domain.Beneficiary, error)
	List(ctx context.Context, userID string) ([]*domain.Beneficiary, error)
	SetFavorite(ctx context.Context, userID, id string, favorite bool) (*domain.Beneficiary, error)
	Delete(ctx context.Context, userID, id string) error
}

// BeneficiaryHandler handles saved-recipient HTTP requests.
type BeneficiaryHandler struct {
	beneficiaryUC BeneficiaryService
}

// NewBeneficiaryHandler creates a new BeneficiaryHandler.
func NewBeneficiaryHandler(beneficiaryUC BeneficiaryService) *BeneficiaryHandler {
	return &BeneficiaryHandler{beneficiaryUC: beneficiaryUC}
}

// Create saves a new beneficiary.
func (h *BeneficiaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateBeneficiaryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	b, err := h.beneficiaryUC.Add(r.Context(), req.ToUseCaseInput(user.ID))
	if err != nil {
		respondError(w, r, "failed to add beneficiary", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.BeneficiaryFromDomain(b))
}

// List lists the user's beneficiaries, favorites first.
func (h *BeneficiaryHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	bs, err := h.beneficiaryUC.List(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, "failed to list beneficiaries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BeneficiariesFromDomain(bs))
}

// SetFavorite toggles the favorite flag.
func (h *BeneficiaryHandler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.SetFavoriteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	b, err := h.beneficiaryUC.SetFavorite(r.Context(), user.ID, chi.URLParam(r, "id"), req.IsFavorite)
	if err != nil {
		respondError(w, r, "failed to update beneficiary", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BeneficiaryFromDomain(b))
}

// Delete removes a beneficiary.
func (h *BeneficiaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.beneficiaryUC.Delete(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, "failed to delete beneficiary", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
