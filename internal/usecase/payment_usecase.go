package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/domain"
)

// PaymentUseCase handles bill payments, immediate and scheduled.
type PaymentUseCase struct {
	store  LedgerStore
	logger zerolog.Logger
}

// NewPaymentUseCase creates a new PaymentUseCase.
func NewPaymentUseCase(store LedgerStore, logger zerolog.Logger) *PaymentUseCase {
	return &PaymentUseCase{
		store:  store,
		logger: logger.With().Str("component", "payments").Logger(),
	}
}

// SubmitBillPaymentInput represents input for a bill payment.
type SubmitBillPaymentInput struct {
	UserID         string
	IdempotencyKey string
	FromAccountID  string
	PayeeName      string
	PayeeAccount   string
	Amount         decimal.Decimal
	Currency       string
	PaymentDate    *time.Time
	Description    string
	Category       string
	Recurring      bool
	Frequency      domain.Frequency
}

func (in SubmitBillPaymentInput) fingerprint() string {
	date := ""
	if in.PaymentDate != nil {
		date = in.PaymentDate.UTC().Format(time.DateOnly)
	}
	return fingerprint("payment", in.FromAccountID, in.PayeeName, in.PayeeAccount,
		in.Amount.StringFixed(2), strings.ToUpper(in.Currency), date, in.Category,
		fmt.Sprint(in.Recurring), string(in.Frequency))
}

func (in SubmitBillPaymentInput) validate() error {
	if err := domain.ValidateIdempotencyKey(in.IdempotencyKey); err != nil {
		return err
	}
	if in.FromAccountID == "" {
		return domain.ErrAccountNotFound
	}
	if err := domain.ValidateDisplayName(in.PayeeName); err != nil {
		return err
	}
	if err := domain.ValidateAmount(in.Amount); err != nil {
		return err
	}
	if in.Currency != "" {
		if err := domain.ValidateCurrency(in.Currency); err != nil {
			return err
		}
	}
	if in.Recurring && !in.Frequency.IsValid() {
		return domain.ErrInvalidFrequency
	}
	if !in.Recurring && in.Frequency != "" && !in.Frequency.IsValid() {
		return domain.ErrInvalidFrequency
	}
	return nil
}

// SubmitBillPayment records a bill payment. A payment dated today or
// earlier debits the source account now and waits for settlement. A
// future-dated payment is stored with no balance change until it falls due.
func (uc *PaymentUseCase) SubmitBillPayment(ctx context.Context, input SubmitBillPaymentInput) (*domain.Payment, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	fp := input.fingerprint()
	dueNow := (&domain.Payment{PaymentDate: input.PaymentDate}).IsDue(uc.store.now())

	var (
		result   *domain.Payment
		replayed bool
	)
	err := uc.store.inTx(ctx, func(ctx context.Context, tx Tx) error {
		result, replayed = nil, false

		accounts, err := uc.store.lockAccounts(ctx, tx, input.FromAccountID)
		if err != nil {
			return err
		}
		source := accounts[input.FromAccountID]
		if !source.OwnedBy(input.UserID) {
			return domain.ErrForbidden
		}

		existing, err := uc.store.Payments.GetByIdempotencyKey(ctx, tx, input.UserID, input.IdempotencyKey)
		switch {
		case err == nil:
			if existing.Fingerprint != fp {
				return domain.ErrIdempotencyConflict
			}
			result, replayed = existing, true
			return nil
		case !errors.Is(err, domain.ErrPaymentNotFound):
			return err
		}

		currency := source.Currency
		if input.Currency != "" {
			currency = strings.ToUpper(input.Currency)
		}
		if currency != source.Currency {
			return domain.ErrCurrencyMismatch
		}

		now := uc.store.now()
		payment := &domain.Payment{
			ID:             uc.store.IDGen.Generate(),
			UserID:         input.UserID,
			FromAccountID:  source.ID,
			PayeeName:      strings.TrimSpace(input.PayeeName),
			PayeeAccount:   strings.TrimSpace(input.PayeeAccount),
			Amount:         input.Amount,
			Currency:       currency,
			PaymentDate:    input.PaymentDate,
			Description:    input.Description,
			Category:       input.Category,
			Status:         domain.StatusPending,
			Recurring:      input.Recurring,
			Frequency:      input.Frequency,
			IdempotencyKey: input.IdempotencyKey,
			Fingerprint:    fp,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if dueNow {
			if err := source.ValidateDebit(input.Amount); err != nil {
				return err
			}
			txn, err := uc.postPayment(ctx, tx, source, payment, now)
			if err != nil {
				return err
			}
			payment.TransactionID = &txn.ID
		}

		if err := uc.store.Payments.Create(ctx, tx, payment); err != nil {
			return err
		}

		if !dueNow {
			if err := uc.store.emit(ctx, tx, uc.paymentEvent(domain.EventTypePaymentScheduled, payment, "")); err != nil {
				return err
			}
		}
		if err := uc.store.audit(ctx, tx, domain.AuditActionPaymentCreate, domain.AggregateTypePayment, payment.ID, nil, payment); err != nil {
			return err
		}

		result = payment
		return nil
	})
	if errors.Is(err, domain.ErrIdempotencyKeyInUse) {
		existing, lookupErr := uc.store.Payments.GetByIdempotencyKey(ctx, nil, input.UserID, input.IdempotencyKey)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing.Fingerprint != fp {
			return nil, domain.ErrIdempotencyConflict
		}
		return existing, nil
	}
	if err != nil {
		uc.store.observeError(err)
		return nil, err
	}

	if uc.store.Metrics != nil {
		switch {
		case replayed:
			uc.store.Metrics.IdempotentReplays.Inc()
		case dueNow:
			uc.store.Metrics.TransactionsSubmitted.WithLabelValues(string(domain.TransactionTypePayment), string(domain.StatusPending)).Inc()
		default:
			uc.store.Metrics.PaymentsScheduled.Inc()
		}
	}

	return result, nil
}

// postPayment writes the payment transaction and debits the source.
// The caller has validated the debit.
func (uc *PaymentUseCase) postPayment(ctx context.Context, tx Tx, source *domain.Account, payment *domain.Payment, now time.Time) (*domain.Transaction, error) {
	description := payment.Description
	if description == "" {
		description = "Bill payment to " + payment.PayeeName
	}

	txn := &domain.Transaction{
		ID:              uc.store.IDGen.Generate(),
		UserID:          payment.UserID,
		FromAccountID:   &source.ID,
		Type:            domain.TransactionTypePayment,
		Amount:          payment.Amount,
		Currency:        payment.Currency,
		Description:     description,
		ReferenceNumber: uc.store.reference(referencePrefixPayment),
		Status:          domain.StatusPending,
		Details: domain.BillPaymentDetails{
			PaymentID:    payment.ID,
			PayeeName:    payment.PayeeName,
			PayeeAccount: payment.PayeeAccount,
			Category:     payment.Category,
			PaymentDate:  payment.PaymentDate,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.store.Transactions.Create(ctx, tx, txn); err != nil {
		return nil, err
	}
	if err := uc.store.debit(ctx, tx, source, txn.ID, payment.Amount, now); err != nil {
		return nil, err
	}
	if err := uc.store.emit(ctx, tx, domain.NewTransactionEvent(uc.store.IDGen.Generate(), domain.EventTypeTransactionCreated, txn)); err != nil {
		return nil, err
	}
	if err := uc.store.emit(ctx, tx, uc.paymentEvent(domain.EventTypePaymentExecuted, payment, txn.ID)); err != nil {
		return nil, err
	}
	return txn, nil
}

func (uc *PaymentUseCase) paymentEvent(eventType string, p *domain.Payment, transactionID string) *domain.OutboxEvent {
	reason := ""
	if p.Status == domain.StatusFailed {
		reason = "insufficient funds"
	}
	return &domain.OutboxEvent{
		ID:            uc.store.IDGen.Generate(),
		AggregateID:   p.ID,
		AggregateType: domain.AggregateTypePayment,
		EventType:     eventType,
		Payload: domain.MarshalState(domain.PaymentEvent{
			PaymentID:     p.ID,
			TransactionID: transactionID,
			PayeeName:     p.PayeeName,
			Amount:        p.Amount.String(),
			Status:        string(p.Status),
			Reason:        reason,
		}),
		CreatedAt: uc.store.now(),
	}
}

// ExecutionResult summarises one scheduler pass.
type ExecutionResult struct {
	Executed  int
	Failed    int
	Scheduled int
}

// ExecuteDuePayments runs every scheduled payment due at asOf through the
// same debit path as an immediate payment. A payment the account cannot
// cover is marked failed without a debit. Recurring payments schedule their
// next occurrence either way.
func (uc *PaymentUseCase) ExecuteDuePayments(ctx context.Context, asOf time.Time) (ExecutionResult, error) {
	var res ExecutionResult

	due, err := uc.store.Payments.ListDue(ctx, asOf, SettlementBatchSize)
	if err != nil {
		return res, err
	}

	for _, candidate := range due {
		var executed, failed, rescheduled bool
		err := uc.store.inTx(ctx, func(ctx context.Context, tx Tx) error {
			executed, failed, rescheduled = false, false, false

			payment, err := uc.store.Payments.GetByIDForUpdate(ctx, tx, candidate.ID)
			if err != nil {
				return err
			}
			if !payment.Scheduled() || !payment.IsDue(asOf) {
				return nil
			}

			accounts, err := uc.store.lockAccounts(ctx, tx, payment.FromAccountID)
			if err != nil {
				return err
			}
			source := accounts[payment.FromAccountID]
			now := uc.store.now()

			if debitErr := source.ValidateDebit(payment.Amount); debitErr != nil {
				payment.Status = domain.StatusFailed
				payment.UpdatedAt = now
				if err := uc.store.Payments.Update(ctx, tx, payment); err != nil {
					return err
				}
				if err := uc.store.emit(ctx, tx, uc.paymentEvent(domain.EventTypePaymentFailed, payment, "")); err != nil {
					return err
				}
				failed = true
			} else {
				txn, err := uc.postPayment(ctx, tx, source, payment, now)
				if err != nil {
					return err
				}
				payment.TransactionID = &txn.ID
				payment.UpdatedAt = now
				if err := uc.store.Payments.Update(ctx, tx, payment); err != nil {
					return err
				}
				executed = true
			}

			if next := payment.NextOccurrence(uc.store.IDGen.Generate(), now); next != nil {
				if err := uc.store.Payments.Create(ctx, tx, next); err != nil {
					return err
				}
				rescheduled = true
			}

			return uc.store.audit(ctx, tx, domain.AuditActionPaymentExecute, domain.AggregateTypePayment, payment.ID, candidate, payment)
		})
		if err != nil {
			return res, fmt.Errorf("failed to execute payment %s: %w", candidate.ID, err)
		}

		switch {
		case executed:
			res.Executed++
			uc.observeExecution("executed")
		case failed:
			res.Failed++
			uc.observeExecution("insufficient_funds")
			uc.logger.Warn().Str("payment_id", candidate.ID).Msg("scheduled payment failed: insufficient funds")
		}
		if rescheduled {
			res.Scheduled++
		}
	}

	return res, nil
}

func (uc *PaymentUseCase) observeExecution(result string) {
	if uc.store.Metrics != nil {
		uc.store.Metrics.PaymentsExecuted.WithLabelValues(result).Inc()
	}
}

// CancelPayment cancels a scheduled payment that has not been executed.
func (uc *PaymentUseCase) CancelPayment(ctx context.Context, userID, id string) (*domain.Payment, error) {
	var result *domain.Payment
	err := uc.store.inTx(ctx, func(ctx context.Context, tx Tx) error {
		payment, err := uc.store.Payments.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if payment.UserID != userID {
			return domain.ErrPaymentNotFound
		}
		if !payment.Scheduled() {
			return domain.ErrPaymentNotCancelable
		}

		before := *payment
		payment.Status = domain.StatusCancelled
		payment.UpdatedAt = uc.store.now()
		if err := uc.store.Payments.Update(ctx, tx, payment); err != nil {
			return err
		}

		if err := uc.store.audit(ctx, tx, domain.AuditActionPaymentCancel, domain.AggregateTypePayment, payment.ID, before, payment); err != nil {
			return err
		}
		result = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListPaymentsInput represents input for listing payments.
type ListPaymentsInput struct {
	UserID    string
	Scheduled bool
	Limit     int
	Offset    int
}

// ListPayments lists the user's payments, newest first.
func (uc *PaymentUseCase) ListPayments(ctx context.Context, input ListPaymentsInput) ([]*domain.Payment, error) {
	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.store.Payments.ListByUser(ctx, input.UserID, domain.ListPaymentsFilter{
		Scheduled: input.Scheduled,
		Limit:     limit,
		Offset:    offset,
	})
}

// GetPayment returns a payment owned by userID.
func (uc *PaymentUseCase) GetPayment(ctx context.Context, userID, id string) (*domain.Payment, error) {
	payment, err := uc.store.Payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, domain.ErrPaymentNotFound
	}
	return payment, nil
}
