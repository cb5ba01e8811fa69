// Package eventhandler contains the idempotent job handlers invoked by the
// dispatcher. Delivery is at-least-once: every handler re-checks durable
// state before mutating, so a duplicate delivery is harmless.
package eventhandler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/credit"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON USER CREATE HANDLER
// Provisions a User on the first sign-in event: creates the account, hashes
// an initial access secret, and grants the signup bonus through the ledger so
// it shows up in the transaction log.
// ══════════════════════════════════════════════════════════════════════════════

// SignupBonusReason is recorded on the signup grant's ledger row.
const SignupBonusReason = "signup bonus"

// OnUserCreateHandler handles the user.create event.
type OnUserCreateHandler struct {
	creditRepo credit.Repository
	ledger     *credit.Ledger
	logger     *slog.Logger
}

// NewOnUserCreateHandler creates a new OnUserCreateHandler.
func NewOnUserCreateHandler(creditRepo credit.Repository, ledger *credit.Ledger, logger *slog.Logger) *OnUserCreateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnUserCreateHandler{
		creditRepo: creditRepo,
		ledger:     ledger,
		logger:     logger.With("handler", "on_user_create"),
	}
}

// EventType returns the event type this handler processes.
func (h *OnUserCreateHandler) EventType() shared.EventType {
	return shared.EventUserCreate
}

// Handle processes the user.create event. The duplicate-delivery guard is the
// user row itself: a second delivery hits ErrAlreadyExists and stops before
// granting a second bonus.
func (h *OnUserCreateHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	evt, err := shared.DecodeEvent[shared.UserCreateEvent](event)
	if err != nil {
		return err
	}

	user, err := credit.NewUser(evt.Email, evt.Name)
	if err != nil {
		return err
	}

	secretHash, err := hashAccessSecret()
	if err != nil {
		return fmt.Errorf("on_user_create: hash access secret: %w", err)
	}
	user.AccessSecretHash = secretHash

	if err := h.creditRepo.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			h.logger.Info("user already provisioned, skipping duplicate delivery",
				"email", evt.Email)
			return nil
		}
		return fmt.Errorf("on_user_create: create user: %w", err)
	}

	if _, err := h.ledger.Grant(ctx, evt.Email, credit.StartingCredits, SignupBonusReason); err != nil {
		return fmt.Errorf("on_user_create: grant signup bonus: %w", err)
	}

	h.logger.Info("user provisioned",
		"email", evt.Email,
		"starting_credits", credit.StartingCredits,
	)
	return nil
}

// hashAccessSecret generates a random initial access secret and returns its
// bcrypt hash. The plaintext is never stored; it is delivered out of band.
func hashAccessSecret() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(raw)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
