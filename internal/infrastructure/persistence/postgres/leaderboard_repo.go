package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/leaderboard"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository for PostgreSQL.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

const leaderboardColumns = `student_email, display_name, is_anonymous, total_points,
	   total_courses_completed, average_rating, rank, badge, created_at, updated_at`

const leaderboardUpsert = `
	INSERT INTO leaderboard_entries (
		student_email, display_name, is_anonymous, total_points,
		total_courses_completed, average_rating, rank, badge, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (student_email) DO UPDATE SET
		display_name = EXCLUDED.display_name,
		is_anonymous = EXCLUDED.is_anonymous,
		total_points = EXCLUDED.total_points,
		total_courses_completed = EXCLUDED.total_courses_completed,
		average_rating = EXCLUDED.average_rating,
		rank = EXCLUDED.rank,
		badge = EXCLUDED.badge,
		updated_at = EXCLUDED.updated_at
`

// Get returns the entry for a student.
func (r *LeaderboardRepository) Get(ctx context.Context, studentEmail string) (*leaderboard.Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM leaderboard_entries
		WHERE student_email = $1
	`, leaderboardColumns)

	return scanEntry(r.conn.QueryRow(ctx, query, studentEmail))
}

// Save inserts or replaces an entry by student email.
func (r *LeaderboardRepository) Save(ctx context.Context, entry *leaderboard.Entry) error {
	_, err := r.conn.Exec(ctx, leaderboardUpsert, entryArgs(entry)...)
	if err != nil {
		return fmt.Errorf("failed to save leaderboard entry: %w", err)
	}
	return nil
}

// SaveAll persists a batch of entries in one transaction, so a rank
// recompute lands all-or-nothing.
func (r *LeaderboardRepository) SaveAll(ctx context.Context, entries []*leaderboard.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		for _, entry := range entries {
			if _, err := tx.Exec(ctx, leaderboardUpsert, entryArgs(entry)...); err != nil {
				return fmt.Errorf("failed to save leaderboard entry %s: %w", entry.StudentEmail, err)
			}
		}
		return nil
	})
}

// ListAll returns every entry.
func (r *LeaderboardRepository) ListAll(ctx context.Context) ([]*leaderboard.Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM leaderboard_entries
		ORDER BY rank ASC, student_email ASC
	`, leaderboardColumns)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListTop returns the top n entries by rank.
func (r *LeaderboardRepository) ListTop(ctx context.Context, n int) ([]*leaderboard.Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM leaderboard_entries
		WHERE rank > 0
		ORDER BY rank ASC, student_email ASC
		LIMIT $1
	`, leaderboardColumns)

	rows, err := r.conn.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query top leaderboard entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// entryArgs flattens an entry into upsert arguments.
func entryArgs(e *leaderboard.Entry) []interface{} {
	return []interface{}{
		e.StudentEmail,
		e.DisplayName,
		e.IsAnonymous,
		e.TotalPoints,
		e.TotalCoursesCompleted,
		e.AverageRating,
		e.Rank,
		string(e.Badge),
		e.CreatedAt,
		e.UpdatedAt,
	}
}

// scanEntry scans a single entry from a row.
func scanEntry(row pgx.Row) (*leaderboard.Entry, error) {
	var e leaderboard.Entry
	var badge string

	err := row.Scan(
		&e.StudentEmail,
		&e.DisplayName,
		&e.IsAnonymous,
		&e.TotalPoints,
		&e.TotalCoursesCompleted,
		&e.AverageRating,
		&e.Rank,
		&badge,
		&e.CreatedAt,
		&e.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.NewDomainError("leaderboard", "Get", shared.ErrNotFound, "entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
	}

	e.Badge = leaderboard.Badge(badge)
	return &e, nil
}

// scanEntries scans multiple entries from rows.
func scanEntries(rows pgx.Rows) ([]*leaderboard.Entry, error) {
	var entries []*leaderboard.Entry

	for rows.Next() {
		var e leaderboard.Entry
		var badge string

		err := rows.Scan(
			&e.StudentEmail,
			&e.DisplayName,
			&e.IsAnonymous,
			&e.TotalPoints,
			&e.TotalCoursesCompleted,
			&e.AverageRating,
			&e.Rank,
			&badge,
			&e.CreatedAt,
			&e.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}

		e.Badge = leaderboard.Badge(badge)
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
