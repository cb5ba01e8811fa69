// Package memory implements in-memory persistence for the learning pipeline.
// It mirrors the PostgreSQL layer's contracts, including the concurrency
// guarantees: per-user serialized balance mutation and compare-and-set
// submission updates. Used by tests and local development.
package memory

import (
	"context"
	"sync"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/credit"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREDIT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CreditRepository implements credit.Repository with a per-user mutex playing
// the role of the row lock: Mutate holds it across the read-modify-write, so
// two concurrent debits cannot interleave.
type CreditRepository struct {
	mu        sync.RWMutex
	users     map[string]*credit.User
	txns      map[string][]*credit.CreditTransaction
	userLocks map[string]*sync.Mutex
}

// NewCreditRepository creates a new in-memory CreditRepository.
func NewCreditRepository() *CreditRepository {
	return &CreditRepository{
		users:     make(map[string]*credit.User),
		txns:      make(map[string][]*credit.CreditTransaction),
		userLocks: make(map[string]*sync.Mutex),
	}
}

// Create inserts a new user.
func (r *CreditRepository) Create(ctx context.Context, u *credit.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[u.Email]; exists {
		return shared.NewDomainError("credit", "Create", shared.ErrAlreadyExists,
			"user already exists: "+u.Email)
	}

	clone := *u
	r.users[u.Email] = &clone
	return nil
}

// GetByEmail returns a user by email.
func (r *CreditRepository) GetByEmail(ctx context.Context, email string) (*credit.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[email]
	if !ok {
		return nil, shared.NewDomainError("credit", "GetByEmail", shared.ErrNotFound, "user not found")
	}

	clone := *u
	return &clone, nil
}

// Mutate runs fn while holding the user's exclusive lock, then persists the
// updated user together with the transaction fn produced. If fn errors
// nothing is written.
func (r *CreditRepository) Mutate(ctx context.Context, email string, fn func(user *credit.User) (*credit.CreditTransaction, error)) error {
	lock := r.lockFor(email)
	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	stored, ok := r.users[email]
	r.mu.RUnlock()
	if !ok {
		return shared.NewDomainError("credit", "Mutate", shared.ErrNotFound, "user not found")
	}

	// fn works on a copy; the stored user is replaced only on success.
	working := *stored
	txn, err := fn(&working)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.users[email] = &working
	if txn != nil {
		r.txns[email] = append(r.txns[email], txn)
	}
	r.mu.Unlock()

	return nil
}

// History returns the user's transactions newest-first.
func (r *CreditRepository) History(ctx context.Context, email string, limit int) ([]*credit.CreditTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.txns[email]
	out := make([]*credit.CreditTransaction, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// lockFor returns the mutex serializing mutations of one user.
func (r *CreditRepository) lockFor(email string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.userLocks[email]
	if !ok {
		lock = &sync.Mutex{}
		r.userLocks[email] = lock
	}
	return lock
}
