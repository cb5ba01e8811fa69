package credit

import (
	"context"
)

// Repository defines the storage contract for the credit ledger.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Create inserts a new user.
	// Returns shared.ErrAlreadyExists if the email is taken.
	Create(ctx context.Context, user *User) error

	// GetByEmail returns a user by email.
	// Returns shared.ErrNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Mutate runs fn against the current user row while holding an
	// exclusive per-user lock, then atomically persists the updated user
	// together with the transaction fn produced. If fn returns an error
	// nothing is written: no balance change and no ledger row.
	//
	// This is the single write path for balances; it is what makes two
	// concurrent debits impossible to interleave.
	Mutate(ctx context.Context, email string, fn func(user *User) (*CreditTransaction, error)) error

	// History returns the user's transactions newest-first, at most limit
	// rows (no limit when limit <= 0). Audit-only; never used to recompute
	// the balance.
	History(ctx context.Context, email string, limit int) ([]*CreditTransaction, error)
}
