package eventhandler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/application/eventhandler"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/credit"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/persistence/memory"
)

func TestOnUserCreateProvisionsUser(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCreditRepository()
	ledger := credit.NewLedger(repo)
	handler := eventhandler.NewOnUserCreateHandler(repo, ledger, nil)

	event := shared.NewUserCreateEvent("new@example.com", "New Student")
	require.NoError(t, handler.Handle(event))

	user, err := repo.GetByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "New Student", user.Name)
	assert.Equal(t, credit.StartingCredits, user.Credits)
	assert.NotEmpty(t, user.AccessSecretHash)

	// The bonus shows up as a ledger row, not a silent balance write.
	history, err := ledger.History(ctx, "new@example.com", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, credit.StartingCredits, history[0].Amount)
	assert.Equal(t, eventhandler.SignupBonusReason, history[0].Reason)
}

func TestOnUserCreateDuplicateDeliveryGrantsOnce(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCreditRepository()
	ledger := credit.NewLedger(repo)
	handler := eventhandler.NewOnUserCreateHandler(repo, ledger, nil)

	event := shared.NewUserCreateEvent("dup@example.com", "Dup")
	require.NoError(t, handler.Handle(event))
	require.NoError(t, handler.Handle(event))
	require.NoError(t, handler.Handle(event))

	user, err := repo.GetByEmail(ctx, "dup@example.com")
	require.NoError(t, err)
	assert.Equal(t, credit.StartingCredits, user.Credits)

	history, err := ledger.History(ctx, "dup@example.com", 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestOnUserCreateRejectsMalformedEvent(t *testing.T) {
	repo := memory.NewCreditRepository()
	handler := eventhandler.NewOnUserCreateHandler(repo, credit.NewLedger(repo), nil)

	event := shared.NewUserCreateEvent("", "")
	assert.Error(t, handler.Handle(event))
}
