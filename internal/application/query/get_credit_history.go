// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/credit"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREDIT QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// CreditAccount is the balance view of one user.
type CreditAccount struct {
	Email            string
	Credits          int
	TotalCreditsUsed int
	IsMember         bool
}

// GetCreditHistoryHandler serves credit balance and history reads.
type GetCreditHistoryHandler struct {
	creditRepo credit.Repository
}

// NewGetCreditHistoryHandler creates a new GetCreditHistoryHandler.
func NewGetCreditHistoryHandler(creditRepo credit.Repository) *GetCreditHistoryHandler {
	return &GetCreditHistoryHandler{creditRepo: creditRepo}
}

// Account returns the balance view. The balance is always read from the user
// row; the transaction log is audit-only.
func (h *GetCreditHistoryHandler) Account(ctx context.Context, email string) (*CreditAccount, error) {
	if email == "" {
		return nil, shared.NewDomainError("query", "Account", shared.ErrEmptyValue, "email is required")
	}

	user, err := h.creditRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	return &CreditAccount{
		Email:            user.Email,
		Credits:          user.Credits,
		TotalCreditsUsed: user.TotalCreditsUsed,
		IsMember:         user.IsMember,
	}, nil
}

// History returns the user's transactions newest-first, at most limit rows.
func (h *GetCreditHistoryHandler) History(ctx context.Context, email string, limit int) ([]*credit.CreditTransaction, error) {
	if email == "" {
		return nil, shared.NewDomainError("query", "History", shared.ErrEmptyValue, "email is required")
	}
	return h.creditRepo.History(ctx, email, limit)
}
