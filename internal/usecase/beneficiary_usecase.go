package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/finovo/bankcore/internal/domain"
)

// BeneficiaryUseCase manages saved transfer recipients.
type BeneficiaryUseCase struct {
	repo  BeneficiaryRepository
	idGen IDGenerator
}

// NewBeneficiaryUseCase creates a new BeneficiaryUseCase.
func NewBeneficiaryUseCase(repo BeneficiaryRepository, idGen IDGenerator) *BeneficiaryUseCase {
	return &BeneficiaryUseCase{repo: repo, idGen: idGen}
}

// AddBeneficiaryInput represents input for saving a recipient.
type AddBeneficiaryInput struct {
	UserID        string
	Name          string
	AccountNumber string
	BankName      string
	RoutingNumber string
	Email         string
	Phone         string
	IsFavorite    bool
}

// Add validates and stores a beneficiary.
func (uc *BeneficiaryUseCase) Add(ctx context.Context, input AddBeneficiaryInput) (*domain.Beneficiary, error) {
	now := time.Now().UTC()
	b := &domain.Beneficiary{
		ID:            uc.idGen.Generate(),
		UserID:        input.UserID,
		Name:          strings.TrimSpace(input.Name),
		AccountNumber: strings.TrimSpace(input.AccountNumber),
		BankName:      strings.TrimSpace(input.BankName),
		RoutingNumber: strings.TrimSpace(input.RoutingNumber),
		Email:         strings.TrimSpace(input.Email),
		Phone:         strings.TrimSpace(input.Phone),
		IsFavorite:    input.IsFavorite,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	if err := uc.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// List returns the user's beneficiaries, favorites first.
func (uc *BeneficiaryUseCase) List(ctx context.Context, userID string) ([]*domain.Beneficiary, error) {
	return uc.repo.ListByUser(ctx, userID)
}

// SetFavorite flags or unflags a beneficiary.
func (uc *BeneficiaryUseCase) SetFavorite(ctx context.Context, userID, id string, favorite bool) (*domain.Beneficiary, error) {
	b, err := uc.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	b.IsFavorite = favorite
	b.UpdatedAt = time.Now().UTC()
	if err := uc.repo.SetFavorite(ctx, id, favorite, b.UpdatedAt); err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes a beneficiary. Past transfers keep their copy of the recipient.
func (uc *BeneficiaryUseCase) Delete(ctx context.Context, userID, id string) error {
	if _, err := uc.owned(ctx, userID, id); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, id)
}

func (uc *BeneficiaryUseCase) owned(ctx context.Context, userID, id string) (*domain.Beneficiary, error) {
	b, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, domain.ErrBeneficiaryNotFound
	}
	return b, nil
}
