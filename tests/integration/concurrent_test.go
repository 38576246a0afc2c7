package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	postgresRepo "github.com/finovo/bankcore/internal/adapter/repository/postgres"
	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/usecase"
	"github.com/finovo/bankcore/tests/testutil"
)

func TestConcurrentTransfers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	ledgerUC := usecase.NewLedgerUseCase(testDB.Store(), postgresRepo.NewBeneficiaryRepository(testDB.Pool))

	t.Run("concurrent transfers never overdraw the source", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		user := testDB.CreateTestUser(ctx, domain.RoleCustomer)

		// Room for exactly 50 transfers of 10.
		source := testDB.CreateTestAccount(ctx, user.ID, domain.AccountTypeChecking, "USD", decimal.NewFromInt(500))
		dest := testDB.CreateTestAccount(ctx, user.ID, domain.AccountTypeSavings, "USD", decimal.Zero)

		const attempts = 80
		var (
			wg        sync.WaitGroup
			succeeded atomic.Int32
			rejected  atomic.Int32
		)
		wg.Add(attempts)
		for i := range attempts {
			go func() {
				defer wg.Done()
				_, err := ledgerUC.SubmitTransfer(ctx, usecase.SubmitTransferInput{
					UserID:         user.ID,
					IdempotencyKey: fmt.Sprintf("burst-%d", i),
					FromAccountID:  source.ID,
					Amount:         decimal.NewFromInt(10),
					To:             usecase.TransferDestination{ToAccountID: dest.ID},
				})
				switch {
				case err == nil:
					succeeded.Add(1)
				case errors.Is(err, domain.ErrInsufficientFunds):
					rejected.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(50), succeeded.Load())
		assert.Equal(t, int32(attempts-50), rejected.Load())

		balance, available := testDB.Balances(ctx, source.ID)
		assert.True(t, balance.IsZero(), "source balance %s", balance)
		assert.True(t, available.IsZero(), "source available %s", available)
		balance, _ = testDB.Balances(ctx, dest.ID)
		assert.True(t, balance.Equal(decimal.NewFromInt(500)), "dest balance %s", balance)
	})

	t.Run("opposite transfers between two accounts do not deadlock", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		user := testDB.CreateTestUser(ctx, domain.RoleCustomer)
		a := testDB.CreateTestAccount(ctx, user.ID, domain.AccountTypeChecking, "USD", decimal.NewFromInt(1000))
		b := testDB.CreateTestAccount(ctx, user.ID, domain.AccountTypeChecking, "USD", decimal.NewFromInt(1000))

		const rounds = 40
		var wg sync.WaitGroup
		wg.Add(rounds * 2)
		for i := range rounds {
			go func() {
				defer wg.Done()
				_, err := ledgerUC.SubmitTransfer(ctx, usecase.SubmitTransferInput{
					UserID: user.ID, IdempotencyKey: fmt.Sprintf("ab-%d", i),
					FromAccountID: a.ID, Amount: decimal.NewFromInt(5),
					To: usecase.TransferDestination{ToAccountID: b.ID},
				})
				assert.NoError(t, err)
			}()
			go func() {
				defer wg.Done()
				_, err := ledgerUC.SubmitTransfer(ctx, usecase.SubmitTransferInput{
					UserID: user.ID, IdempotencyKey: fmt.Sprintf("ba-%d", i),
					FromAccountID: b.ID, Amount: decimal.NewFromInt(5),
					To: usecase.TransferDestination{ToAccountID: a.ID},
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		balA, _ := testDB.Balances(ctx, a.ID)
		balB, _ := testDB.Balances(ctx, b.ID)
		assert.True(t, balA.Add(balB).Equal(decimal.NewFromInt(2000)), "money created or lost: %s + %s", balA, balB)
	})

	t.Run("one idempotency key under contention posts once", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		user := testDB.CreateTestUser(ctx, domain.RoleCustomer)
		source := testDB.CreateTestAccount(ctx, user.ID, domain.AccountTypeChecking, "USD", decimal.NewFromInt(100))
		dest := testDB.CreateTestAccount(ctx, user.ID, domain.AccountTypeSavings, "USD", decimal.Zero)

		const racers = 10
		ids := make([]string, racers)
		var wg sync.WaitGroup
		wg.Add(racers)
		for i := range racers {
			go func() {
				defer wg.Done()
				txn, err := ledgerUC.SubmitTransfer(ctx, usecase.SubmitTransferInput{
					UserID:         user.ID,
					IdempotencyKey: "same-key",
					FromAccountID:  source.ID,
					Amount:         decimal.NewFromInt(30),
					To:             usecase.TransferDestination{ToAccountID: dest.ID},
				})
				if assert.NoError(t, err) {
					ids[i] = txn.ID
				}
			}()
		}
		wg.Wait()

		for _, id := range ids {
			require.Equal(t, ids[0], id, "every caller must see the same transaction")
		}
		balance, _ := testDB.Balances(ctx, source.ID)
		assert.True(t, balance.Equal(decimal.NewFromInt(70)), "debited once, got %s", balance)
	})
}
