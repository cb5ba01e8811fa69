package credit_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/credit"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/persistence/memory"
)

func newLedger(t *testing.T, email string, startingCredits int) (*credit.Ledger, credit.Repository) {
	t.Helper()
	repo := memory.NewCreditRepository()
	ledger := credit.NewLedger(repo)

	user, err := credit.NewUser(email, "Test User")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), user))

	if startingCredits > 0 {
		_, err = ledger.Grant(context.Background(), email, startingCredits, "seed")
		require.NoError(t, err)
	}
	return ledger, repo
}

func TestLedgerConservation(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newLedger(t, "a@example.com", 10)

	_, err := ledger.Debit(ctx, "a@example.com", 3, "generation", "course-1")
	require.NoError(t, err)
	_, err = ledger.Grant(ctx, "a@example.com", 2, "refund")
	require.NoError(t, err)
	_, err = ledger.Debit(ctx, "a@example.com", 4, "generation", "course-1")
	require.NoError(t, err)

	balance, err := ledger.Balance(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 5, balance)

	// The transaction log explains the balance exactly: each row chains
	// BalanceBefore + Amount == BalanceAfter, and adjacent rows agree.
	history, err := ledger.History(ctx, "a@example.com", 0)
	require.NoError(t, err)
	require.Len(t, history, 4)

	sum := 0
	for _, tx := range history {
		assert.Equal(t, tx.BalanceBefore+tx.Amount, tx.BalanceAfter)
		sum += tx.Amount
	}
	assert.Equal(t, balance, sum)

	// Newest first: history[i].BalanceBefore == history[i+1].BalanceAfter.
	for i := 0; i < len(history)-1; i++ {
		assert.Equal(t, history[i+1].BalanceAfter, history[i].BalanceBefore)
	}
}

func TestDebitInsufficientCredits(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newLedger(t, "b@example.com", 2)

	_, err := ledger.Debit(ctx, "b@example.com", 3, "generation", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientCredits)

	// The refused debit wrote nothing.
	balance, err := ledger.Balance(ctx, "b@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, balance)

	history, err := ledger.History(ctx, "b@example.com", 0)
	require.NoError(t, err)
	assert.Len(t, history, 1) // only the seed grant
}

func TestMemberBypassesBalanceCheck(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCreditRepository()
	ledger := credit.NewLedger(repo)

	user, err := credit.NewUser("member@example.com", "Member")
	require.NoError(t, err)
	user.IsMember = true
	require.NoError(t, repo.Create(ctx, user))

	// Members may debit past zero; usage is still recorded.
	_, err = ledger.Debit(ctx, "member@example.com", 3, "generation", "")
	require.NoError(t, err)

	got, err := repo.GetByEmail(ctx, "member@example.com")
	require.NoError(t, err)
	assert.Equal(t, -3, got.Credits)
	assert.Equal(t, 3, got.TotalCreditsUsed)
}

func TestConcurrentDebitsNeverOverspend(t *testing.T) {
	ctx := context.Background()
	const seed = 5
	const attempts = 20

	ledger, _ := newLedger(t, "c@example.com", seed)

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.Debit(ctx, "c@example.com", 1, "generation", "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, shared.ErrInsufficientCredits)
		}
	}

	// Exactly the seeded amount was spendable, no double-debits.
	assert.Equal(t, seed, succeeded)

	balance, err := ledger.Balance(ctx, "c@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	history, err := ledger.History(ctx, "c@example.com", 0)
	require.NoError(t, err)
	assert.Len(t, history, seed+1) // seed grant + one row per successful debit
}

func TestGrantValidation(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newLedger(t, "d@example.com", 0)

	_, err := ledger.Grant(ctx, "d@example.com", 0, "nothing")
	assert.Error(t, err)
	_, err = ledger.Grant(ctx, "d@example.com", -5, "negative")
	assert.Error(t, err)
	_, err = ledger.Grant(ctx, "", 5, "no user")
	assert.Error(t, err)
}
