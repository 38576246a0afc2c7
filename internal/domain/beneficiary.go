package domain

import (
	"fmt"
	"strings"
	"time"
)

// Beneficiary is a saved transfer recipient.
type Beneficiary struct {
	ID            string
	UserID        string
	Name          string
	AccountNumber string
	BankName      string
	RoutingNumber string
	Email         string
	Phone         string
	IsFavorite    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the fields a transfer to this beneficiary relies on.
func (b *Beneficiary) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: beneficiary name is required", ErrInvalidDestination)
	}
	if err := ValidateAccountNumber(b.AccountNumber); err != nil {
		return err
	}
	if b.RoutingNumber != "" {
		if err := ValidateRoutingNumber(b.RoutingNumber); err != nil {
			return err
		}
	}
	if b.Email != "" {
		if err := ValidateEmail(b.Email); err != nil {
			return err
		}
	}
	return nil
}

// TransferDetails describes a transfer to this beneficiary.
func (b *Beneficiary) TransferDetails() BeneficiaryTransferDetails {
	return BeneficiaryTransferDetails{
		BeneficiaryID: b.ID,
		RecipientName: b.Name,
		AccountNumber: b.AccountNumber,
		BankName:      b.BankName,
		RoutingNumber: b.RoutingNumber,
	}
}
