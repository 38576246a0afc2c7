package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/adapter/http/dto"
	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
)

type transferServiceStub struct {
	submitFn func(ctx context.Context, input usecase.SubmitTransferInput) (*domain.Transaction, error)
	getFn    func(ctx context.Context, userID, id string) (*domain.Transaction, error)
	cancelFn func(ctx context.Context, userID, id string) (*domain.Transaction, error)
}

func (s *transferServiceStub) SubmitTransfer(ctx context.Context, input usecase.SubmitTransferInput) (*domain.Transaction, error) {
	return s.submitFn(ctx, input)
}

func (s *transferServiceStub) GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	return s.getFn(ctx, userID, id)
}

func (s *transferServiceStub) CancelTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	return s.cancelFn(ctx, userID, id)
}

func transferRouter(h *TransferHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/transfers", h.Create)
	r.Get("/transactions/{id}", h.Get)
	r.Post("/transactions/{id}/cancel", h.Cancel)
	return r
}

func TestTransferHandler_Create_Success(t *testing.T) {
	var captured usecase.SubmitTransferInput
	h := NewTransferHandler(&transferServiceStub{
		submitFn: func(ctx context.Context, input usecase.SubmitTransferInput) (*domain.Transaction, error) {
			captured = input
			return &domain.Transaction{
				ID:     "txn-1",
				Type:   domain.TransactionTypeTransfer,
				Amount: input.Amount,
				Status: domain.StatusPending,
			}, nil
		},
	})

	body, _ := json.Marshal(dto.CreateTransferRequest{
		FromAccountID: "acc-a",
		ToAccountID:   "acc-b",
		Amount:        decimal.RequireFromString("25.50"),
		Currency:      "usd",
	})
	req := httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewReader(body))
	req.Header.Set(idempotencyKeyHeader, "key-1")
	req = withUser(req, "user-1", domain.RoleCustomer)
	rec := httptest.NewRecorder()

	transferRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.UserID != "user-1" || captured.IdempotencyKey != "key-1" {
		t.Fatalf("expected user and key to be forwarded, got %+v", captured)
	}
	if captured.To.ToAccountID != "acc-b" || captured.Currency != "USD" {
		t.Fatalf("unexpected destination or currency: %+v", captured)
	}
	if !captured.Amount.Equal(decimal.RequireFromString("25.50")) {
		t.Fatalf("expected amount 25.50, got %s", captured.Amount)
	}

	var resp dto.TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != domain.StatusPending {
		t.Fatalf("expected pending status, got %s", resp.Status)
	}
}

func TestTransferHandler_Create_MissingIdempotencyKey(t *testing.T) {
	h := NewTransferHandler(&transferServiceStub{
		submitFn: func(ctx context.Context, input usecase.SubmitTransferInput) (*domain.Transaction, error) {
			t.Fatal("service must not be called without a key")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewBufferString(`{"from_account_id":"a","to_account_id":"b","amount":"1"}`))
	req = withUser(req, "user-1", domain.RoleCustomer)
	rec := httptest.NewRecorder()
	transferRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransferHandler_Create_DestinationValidation(t *testing.T) {
	h := NewTransferHandler(&transferServiceStub{})

	tests := []struct {
		name string
		body string
	}{
		{"no destination", `{"from_account_id":"a","amount":"1"}`},
		{"two destinations", `{"from_account_id":"a","to_account_id":"b","beneficiary_id":"c","amount":"1"}`},
		{"invalid json", `{"from_account_id":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewBufferString(tt.body))
			req.Header.Set(idempotencyKeyHeader, "key-1")
			req = withUser(req, "user-1", domain.RoleCustomer)
			rec := httptest.NewRecorder()
			transferRouter(h).ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestTransferHandler_Create_ServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"insufficient funds", domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{"idempotency conflict", domain.ErrIdempotencyConflict, http.StatusConflict},
		{"unknown account", domain.ErrAccountNotFound, http.StatusNotFound},
		{"same account", domain.ErrSameAccount, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTransferHandler(&transferServiceStub{
				submitFn: func(ctx context.Context, input usecase.SubmitTransferInput) (*domain.Transaction, error) {
					return nil, tt.err
				},
			})

			req := httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewBufferString(`{"from_account_id":"a","to_account_id":"b","amount":"60.00"}`))
			req.Header.Set(idempotencyKeyHeader, "key-1")
			req = withUser(req, "user-1", domain.RoleCustomer)
			rec := httptest.NewRecorder()
			transferRouter(h).ServeHTTP(rec, req)

			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}

func TestTransferHandler_Create_Unauthenticated(t *testing.T) {
	h := NewTransferHandler(&transferServiceStub{})
	req := httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	transferRouter(h).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestTransferHandler_Get(t *testing.T) {
	h := NewTransferHandler(&transferServiceStub{
		getFn: func(ctx context.Context, userID, id string) (*domain.Transaction, error) {
			if userID != "user-1" {
				return nil, domain.ErrTransactionNotFound
			}
			return &domain.Transaction{ID: id, Status: domain.StatusCompleted}, nil
		},
	})

	req := withUser(httptest.NewRequest(http.MethodGet, "/transactions/txn-9", nil), "user-1", domain.RoleCustomer)
	rec := httptest.NewRecorder()
	transferRouter(h).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = withUser(httptest.NewRequest(http.MethodGet, "/transactions/txn-9", nil), "user-2", domain.RoleCustomer)
	rec = httptest.NewRecorder()
	transferRouter(h).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's transaction, got %d", rec.Code)
	}
}

func TestTransferHandler_Cancel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"pending", nil, http.StatusOK},
		{"already settled", domain.ErrInvalidStatusTransition, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTransferHandler(&transferServiceStub{
				cancelFn: func(ctx context.Context, userID, id string) (*domain.Transaction, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &domain.Transaction{ID: id, Status: domain.StatusCancelled}, nil
				},
			})

			req := withUser(httptest.NewRequest(http.MethodPost, "/transactions/txn-1/cancel", nil), "user-1", domain.RoleCustomer)
			rec := httptest.NewRecorder()
			transferRouter(h).ServeHTTP(rec, req)
			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}
