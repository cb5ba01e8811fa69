// Package credit contains the credit ledger domain: user balances and the
// append-only transaction log. The ledger exclusively owns balance mutation;
// no other component writes User.Credits directly.
package credit

import (
	"time"

	"github.com/google/uuid"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
)

// StartingCredits is granted to every newly provisioned user.
const StartingCredits = 5

// ══════════════════════════════════════════════════════════════════════════════
// USER
// ══════════════════════════════════════════════════════════════════════════════

// User is the credit account holder. Users are created on first sign-in and
// never deleted (soft lifecycle).
type User struct {
	// Email is the identity key.
	Email string

	// Name is the display name captured at sign-in.
	Name string

	// Credits is the current consumable balance. Authoritative; never
	// recomputed from the transaction log.
	Credits int

	// TotalCreditsUsed accumulates every debited amount.
	TotalCreditsUsed int

	// IsMember marks unlimited-plan users who bypass the balance check.
	IsMember bool

	// AccessSecretHash is the bcrypt hash of the initial access secret
	// issued during provisioning.
	AccessSecretHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser creates a user with a zero balance. The signup bonus is granted
// through the ledger so that it appears in the transaction log.
func NewUser(email, name string) (*User, error) {
	if email == "" {
		return nil, shared.NewDomainError("credit", "NewUser", shared.ErrEmptyValue, "email is required")
	}
	now := time.Now().UTC()
	return &User{
		Email:     email,
		Name:      name,
		Credits:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanAfford reports whether a debit of amount would succeed.
func (u *User) CanAfford(amount int) bool {
	return u.IsMember || amount <= u.Credits
}

// ══════════════════════════════════════════════════════════════════════════════
// CREDIT TRANSACTION
// ══════════════════════════════════════════════════════════════════════════════

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	// TransactionGrant adds credits to the balance.
	TransactionGrant TransactionType = "grant"

	// TransactionDebit consumes credits from the balance.
	TransactionDebit TransactionType = "debit"
)

// CreditTransaction is an immutable ledger row. For a user's transactions
// ordered by CreatedAt, BalanceAfter[i] == BalanceBefore[i] + Amount[i]
// == BalanceBefore[i+1]. Rows are append-only and never mutated or deleted.
type CreditTransaction struct {
	ID            string
	UserEmail     string
	Amount        int // signed: positive for grants, negative for debits
	Type          TransactionType
	Reason        string
	CourseID      string // optional
	BalanceBefore int
	BalanceAfter  int
	CreatedAt     time.Time
}

// newTransaction builds a ledger row from a balance snapshot taken under the
// same lock as the balance mutation.
func newTransaction(userEmail string, amount int, txType TransactionType, reason, courseID string, balanceBefore int) *CreditTransaction {
	return &CreditTransaction{
		ID:            uuid.NewString(),
		UserEmail:     userEmail,
		Amount:        amount,
		Type:          txType,
		Reason:        reason,
		CourseID:      courseID,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceBefore + amount,
		CreatedAt:     time.Now().UTC(),
	}
}
