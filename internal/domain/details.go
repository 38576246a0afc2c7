package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DetailsKind names a Details variant in its stored form.
type DetailsKind string

const (
	DetailsInternalTransfer    DetailsKind = "internal_transfer"
	DetailsBeneficiaryTransfer DetailsKind = "beneficiary_transfer"
	DetailsExternalTransfer    DetailsKind = "external_transfer"
	DetailsBillPayment         DetailsKind = "bill_payment"
	DetailsGatewayDeposit      DetailsKind = "gateway_deposit"
	DetailsOpeningDeposit      DetailsKind = "opening_deposit"
	DetailsCompensation        DetailsKind = "compensation"
)

// Details carries the type-specific part of a transaction. The set of
// implementations is closed to this package.
type Details interface {
	Kind() DetailsKind
	isDetails()
}

type InternalTransferDetails struct {
	ToAccountID string `json:"to_account_id"`
}

type BeneficiaryTransferDetails struct {
	BeneficiaryID string `json:"beneficiary_id"`
	RecipientName string `json:"recipient_name"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name,omitempty"`
	RoutingNumber string `json:"routing_number,omitempty"`
}

type ExternalTransferDetails struct {
	RecipientName string `json:"recipient_name"`
	AccountNumber string `json:"account_number"`
	RoutingNumber string `json:"routing_number"`
}

type BillPaymentDetails struct {
	PaymentID    string     `json:"payment_id"`
	PayeeName    string     `json:"payee_name"`
	PayeeAccount string     `json:"payee_account,omitempty"`
	Category     string     `json:"category,omitempty"`
	PaymentDate  *time.Time `json:"payment_date,omitempty"`
}

type GatewayDepositDetails struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
}

type OpeningDepositDetails struct{}

type CompensationDetails struct {
	OriginalTransactionID string `json:"original_transaction_id"`
	Reason                string `json:"reason"`
}

func (InternalTransferDetails) Kind() DetailsKind    { return DetailsInternalTransfer }
func (BeneficiaryTransferDetails) Kind() DetailsKind { return DetailsBeneficiaryTransfer }
func (ExternalTransferDetails) Kind() DetailsKind    { return DetailsExternalTransfer }
func (BillPaymentDetails) Kind() DetailsKind         { return DetailsBillPayment }
func (GatewayDepositDetails) Kind() DetailsKind      { return DetailsGatewayDeposit }
func (OpeningDepositDetails) Kind() DetailsKind      { return DetailsOpeningDeposit }
func (CompensationDetails) Kind() DetailsKind        { return DetailsCompensation }

func (InternalTransferDetails) isDetails()    {}
func (BeneficiaryTransferDetails) isDetails() {}
func (ExternalTransferDetails) isDetails()    {}
func (BillPaymentDetails) isDetails()         {}
func (GatewayDepositDetails) isDetails()      {}
func (OpeningDepositDetails) isDetails()      {}
func (CompensationDetails) isDetails()        {}

type detailsEnvelope struct {
	Kind DetailsKind     `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalDetails encodes d as {"kind": ..., "data": ...}. A nil d encodes as null.
func MarshalDetails(d Details) ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}

	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s details: %w", d.Kind(), err)
	}

	return json.Marshal(detailsEnvelope{Kind: d.Kind(), Data: data})
}

// UnmarshalDetails decodes the envelope written by MarshalDetails.
func UnmarshalDetails(raw []byte) (Details, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var env detailsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode details envelope: %w", err)
	}

	var (
		d   Details
		err error
	)
	switch env.Kind {
	case DetailsInternalTransfer:
		d, err = decodeDetails[InternalTransferDetails](env.Data)
	case DetailsBeneficiaryTransfer:
		d, err = decodeDetails[BeneficiaryTransferDetails](env.Data)
	case DetailsExternalTransfer:
		d, err = decodeDetails[ExternalTransferDetails](env.Data)
	case DetailsBillPayment:
		d, err = decodeDetails[BillPaymentDetails](env.Data)
	case DetailsGatewayDeposit:
		d, err = decodeDetails[GatewayDepositDetails](env.Data)
	case DetailsOpeningDeposit:
		d = OpeningDepositDetails{}
	case DetailsCompensation:
		d, err = decodeDetails[CompensationDetails](env.Data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDetailsKind, env.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s details: %w", env.Kind, err)
	}
	return d, nil
}

func decodeDetails[T Details](data json.RawMessage) (Details, error) {
	var v T
	if len(data) > 0 {
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
	}
	return v, nil
}
