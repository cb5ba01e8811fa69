package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/credit"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREDIT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CreditRepository implements credit.Repository for PostgreSQL. Balance
// mutation goes through Mutate, which serializes writers on a row lock so
// the ledger invariant survives concurrent debits.
type CreditRepository struct {
	conn *Connection
}

// NewCreditRepository creates a new CreditRepository.
func NewCreditRepository(conn *Connection) *CreditRepository {
	return &CreditRepository{conn: conn}
}

// Create inserts a new user.
func (r *CreditRepository) Create(ctx context.Context, u *credit.User) error {
	query := `
		INSERT INTO users (
			email, name, credits, total_credits_used, is_member,
			access_secret_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		u.Email,
		u.Name,
		u.Credits,
		u.TotalCreditsUsed,
		u.IsMember,
		u.AccessSecretHash,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("credit", "Create", shared.ErrAlreadyExists,
				"user already exists: "+u.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByEmail returns a user by email.
func (r *CreditRepository) GetByEmail(ctx context.Context, email string) (*credit.User, error) {
	query := `
		SELECT email, name, credits, total_credits_used, is_member,
			   access_secret_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	return scanUser(r.conn.QueryRow(ctx, query, email))
}

// Mutate runs fn against the user row while holding a row-level lock, then
// writes the updated balance and the ledger row in the same transaction.
// If fn returns an error the transaction rolls back and nothing is written.
func (r *CreditRepository) Mutate(ctx context.Context, email string, fn func(user *credit.User) (*credit.CreditTransaction, error)) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := `
			SELECT email, name, credits, total_credits_used, is_member,
				   access_secret_hash, created_at, updated_at
			FROM users
			WHERE email = $1
			FOR UPDATE
		`

		user, err := scanUser(tx.QueryRow(ctx, query, email))
		if err != nil {
			return err
		}

		txn, err := fn(user)
		if err != nil {
			return err
		}

		user.UpdatedAt = time.Now().UTC()

		updateQuery := `
			UPDATE users SET
				credits = $1,
				total_credits_used = $2,
				is_member = $3,
				updated_at = $4
			WHERE email = $5
		`
		if _, err := tx.Exec(ctx, updateQuery,
			user.Credits,
			user.TotalCreditsUsed,
			user.IsMember,
			user.UpdatedAt,
			user.Email,
		); err != nil {
			return fmt.Errorf("failed to update user balance: %w", err)
		}

		if txn == nil {
			return nil
		}

		insertQuery := `
			INSERT INTO credit_transactions (
				id, user_email, amount, type, reason, course_id,
				balance_before, balance_after, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		if _, err := tx.Exec(ctx, insertQuery,
			txn.ID,
			txn.UserEmail,
			txn.Amount,
			string(txn.Type),
			txn.Reason,
			txn.CourseID,
			txn.BalanceBefore,
			txn.BalanceAfter,
			txn.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to append ledger row: %w", err)
		}

		return nil
	})
}

// History returns the user's transactions newest-first.
func (r *CreditRepository) History(ctx context.Context, email string, limit int) ([]*credit.CreditTransaction, error) {
	query := `
		SELECT id, user_email, amount, type, reason, course_id,
			   balance_before, balance_after, created_at
		FROM credit_transactions
		WHERE user_email = $1
		ORDER BY created_at DESC
	`

	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.conn.Query(ctx, query+" LIMIT $2", email, limit)
	} else {
		rows, err = r.conn.Query(ctx, query, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credit history: %w", err)
	}
	defer rows.Close()

	var txns []*credit.CreditTransaction
	for rows.Next() {
		var t credit.CreditTransaction
		var txType string

		err := rows.Scan(
			&t.ID,
			&t.UserEmail,
			&t.Amount,
			&txType,
			&t.Reason,
			&t.CourseID,
			&t.BalanceBefore,
			&t.BalanceAfter,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit transaction: %w", err)
		}

		t.Type = credit.TransactionType(txType)
		txns = append(txns, &t)
	}

	return txns, rows.Err()
}

// scanUser scans a single user from a row.
func scanUser(row pgx.Row) (*credit.User, error) {
	var u credit.User

	err := row.Scan(
		&u.Email,
		&u.Name,
		&u.Credits,
		&u.TotalCreditsUsed,
		&u.IsMember,
		&u.AccessSecretHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.NewDomainError("credit", "GetByEmail", shared.ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return &u, nil
}
