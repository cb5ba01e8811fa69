package credit

import (
	"context"
	"fmt"
	"time"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// Ledger maintains user balances and the append-only transaction log.
// All balance changes go through Grant or Debit; both read the current
// balance, compute the new one, and persist the user update plus exactly
// one transaction row in a single atomic repository mutation.
type Ledger struct {
	repo Repository
}

// NewLedger creates a new Ledger backed by the given repository.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// Grant adds amount credits to the user's balance.
func (l *Ledger) Grant(ctx context.Context, userEmail string, amount int, reason string) (*CreditTransaction, error) {
	if userEmail == "" {
		return nil, shared.NewDomainError("credit", "Grant", shared.ErrEmptyValue, "user email is required")
	}
	if amount <= 0 {
		return nil, shared.NewDomainError("credit", "Grant", shared.ErrInvalidInput, "grant amount must be positive")
	}

	var granted *CreditTransaction
	err := l.repo.Mutate(ctx, userEmail, func(user *User) (*CreditTransaction, error) {
		tx := newTransaction(userEmail, amount, TransactionGrant, reason, "", user.Credits)
		user.Credits = tx.BalanceAfter
		user.UpdatedAt = time.Now().UTC()
		granted = tx
		return tx, nil
	})
	if err != nil {
		return nil, err
	}
	return granted, nil
}

// Debit consumes amount credits from the user's balance. Fails with
// shared.ErrInsufficientCredits when amount exceeds the balance and the user
// is not a member. courseID is optional context recorded on the ledger row.
//
// The membership/balance check runs inside the repository mutation, under
// the same lock as the write, so a concurrent debit cannot observe a stale
// balance.
func (l *Ledger) Debit(ctx context.Context, userEmail string, amount int, reason, courseID string) (*CreditTransaction, error) {
	if userEmail == "" {
		return nil, shared.NewDomainError("credit", "Debit", shared.ErrEmptyValue, "user email is required")
	}
	if amount <= 0 {
		return nil, shared.NewDomainError("credit", "Debit", shared.ErrInvalidInput, "debit amount must be positive")
	}

	var debited *CreditTransaction
	err := l.repo.Mutate(ctx, userEmail, func(user *User) (*CreditTransaction, error) {
		if !user.CanAfford(amount) {
			return nil, shared.NewDomainError("credit", "Debit", shared.ErrInsufficientCredits,
				fmt.Sprintf("need %d credits, have %d", amount, user.Credits))
		}
		tx := newTransaction(userEmail, -amount, TransactionDebit, reason, courseID, user.Credits)
		user.Credits = tx.BalanceAfter
		user.TotalCreditsUsed += amount
		user.UpdatedAt = time.Now().UTC()
		debited = tx
		return tx, nil
	})
	if err != nil {
		return nil, err
	}
	return debited, nil
}

// Balance returns the user's current balance, read from the user row.
func (l *Ledger) Balance(ctx context.Context, userEmail string) (int, error) {
	user, err := l.repo.GetByEmail(ctx, userEmail)
	if err != nil {
		return 0, err
	}
	return user.Credits, nil
}

// History returns the user's transactions newest-first.
func (l *Ledger) History(ctx context.Context, userEmail string, limit int) ([]*CreditTransaction, error) {
	return l.repo.History(ctx, userEmail, limit)
}
