package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/credit"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/persistence/memory"
)

// seedUser creates a user and grants the starting balance through the ledger,
// the same way provisioning does.
func seedUser(t *testing.T, repo *memory.CreditRepository, email string) {
	t.Helper()
	ctx := context.Background()

	u, err := credit.NewUser(email, "Student")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, u))
	_, err = credit.NewLedger(repo).Grant(ctx, email, credit.StartingCredits, "signup bonus")
	require.NoError(t, err)
}

func TestCreditRepositoryCreateDuplicate(t *testing.T) {
	repo := memory.NewCreditRepository()
	seedUser(t, repo, "s@example.com")

	u, err := credit.NewUser("s@example.com", "Imposter")
	require.NoError(t, err)
	err = repo.Create(context.Background(), u)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestCreditRepositoryMutateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCreditRepository()
	seedUser(t, repo, "s@example.com")

	boom := errors.New("debit refused")
	err := repo.Mutate(ctx, "s@example.com", func(user *credit.User) (*credit.CreditTransaction, error) {
		user.Credits = -999
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	// The failed mutation touched a copy; the stored user is intact.
	stored, err := repo.GetByEmail(ctx, "s@example.com")
	require.NoError(t, err)
	assert.Equal(t, credit.StartingCredits, stored.Credits)

	// Only the seed grant is on record; the failed mutation wrote no row.
	history, err := repo.History(ctx, "s@example.com", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "signup bonus", history[0].Reason)
}

func TestCreditRepositoryGetReturnsClone(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCreditRepository()
	seedUser(t, repo, "s@example.com")

	u, err := repo.GetByEmail(ctx, "s@example.com")
	require.NoError(t, err)
	u.Credits = 1000

	again, err := repo.GetByEmail(ctx, "s@example.com")
	require.NoError(t, err)
	assert.Equal(t, credit.StartingCredits, again.Credits)
}

func TestCreditRepositoryMutateUnknownUser(t *testing.T) {
	repo := memory.NewCreditRepository()
	err := repo.Mutate(context.Background(), "ghost@example.com",
		func(user *credit.User) (*credit.CreditTransaction, error) { return nil, nil })
	assert.True(t, shared.IsNotFound(err))
}
