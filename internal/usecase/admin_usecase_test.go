package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
	"github.com/finovo/bankcore/internal/usecase/mocks"
)

func newAdminUseCase(t *testing.T, users ...*domain.User) (*usecase.AdminUseCase, *mocks.MockAuditRepository) {
	t.Helper()
	repo := mocks.NewMockUserRepository()
	for _, u := range users {
		if err := repo.Create(t.Context(), u); err != nil {
			t.Fatal(err)
		}
	}
	audit := mocks.NewMockAuditRepository()
	idGen := &mocks.MockIDGenerator{}
	stats := &mocks.MockStatsRepository{
		Users:    2,
		Accounts: 5,
		Balances: map[string]decimal.Decimal{"USD": dec("1500.00")},
		ByStatus: map[domain.Status]int64{domain.StatusCompleted: 9, domain.StatusPending: 1},
		Pending:  dec("45.00"),
	}
	return usecase.NewAdminUseCase(stats, usecase.NewUserUseCase(repo, audit, idGen), audit, idGen), audit
}

func TestAdminUseCase_Stats(t *testing.T) {
	uc, _ := newAdminUseCase(t)

	s, err := uc.Stats(t.Context())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s.Users != 2 || s.Accounts != 5 || s.TransactionsByStatus[domain.StatusPending] != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
	if !s.BalancesByCurrency["USD"].Equal(dec("1500.00")) || !s.PendingVolume.Equal(dec("45.00")) {
		t.Fatalf("unexpected amounts: %+v", s)
	}
}

func TestAdminUseCase_Stats_Error(t *testing.T) {
	boom := errors.New("db down")
	stats := &mocks.MockStatsRepository{CountUsersFunc: func(context.Context) (int64, error) { return 0, boom }}
	uc := usecase.NewAdminUseCase(stats, nil, nil, &mocks.MockIDGenerator{})

	if _, err := uc.Stats(t.Context()); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}

func TestAdminUseCase_UpdateUser(t *testing.T) {
	admin := &domain.User{ID: "u-admin", Email: "root@finovo.test", Role: domain.RoleAdmin, Active: true}
	manager := &domain.User{ID: "u-mgr", Email: "mgr@finovo.test", Role: domain.RoleManager, Active: true}
	customer := &domain.User{ID: "u-cust", Email: "c@finovo.test", Role: domain.RoleCustomer, Active: true}
	uc, audit := newAdminUseCase(t, admin, manager, customer)

	promote := domain.RoleManager
	inactive := false

	if _, err := uc.UpdateUser(t.Context(), manager, usecase.AdminUpdateUserInput{UserID: customer.ID, Role: &promote}); !errors.Is(err, domain.ErrInsufficientRole) {
		t.Fatalf("expected ErrInsufficientRole for a manager, got %v", err)
	}
	if _, err := uc.UpdateUser(t.Context(), admin, usecase.AdminUpdateUserInput{UserID: admin.ID, Active: &inactive}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for self-deactivation, got %v", err)
	}
	demote := domain.RoleCustomer
	if _, err := uc.UpdateUser(t.Context(), admin, usecase.AdminUpdateUserInput{UserID: admin.ID, Role: &demote}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for self-demotion, got %v", err)
	}
	bogus := domain.Role("owner")
	if _, err := uc.UpdateUser(t.Context(), admin, usecase.AdminUpdateUserInput{UserID: customer.ID, Role: &bogus}); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	updated, err := uc.UpdateUser(t.Context(), admin, usecase.AdminUpdateUserInput{UserID: customer.ID, Role: &promote, Active: &inactive})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Role != domain.RoleManager || updated.Active {
		t.Fatalf("unexpected user: %+v", updated)
	}

	logs, err := uc.RecentActivity(t.Context(), domain.AuditFilter{Action: string(domain.AuditActionUserUpdate)})
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if len(logs) != 1 || logs[0].UserID != admin.ID || logs[0].ResourceID != customer.ID {
		t.Fatalf("unexpected audit trail: %+v (all actions %v)", logs, audit.Actions())
	}
}
