// Package leaderboard derives global rank and badges from aggregate student
// performance. Rank is derived, never independently authoritative.
package leaderboard

import (
	"sort"
	"strings"
	"time"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE
// ══════════════════════════════════════════════════════════════════════════════

// Badge is awarded purely by rank.
type Badge string

const (
	BadgeGold   Badge = "gold"
	BadgeSilver Badge = "silver"
	BadgeBronze Badge = "bronze"
	BadgeNone   Badge = "none"
)

// BadgeForRank maps rank to badge: 1 gold, 2 silver, 3 bronze, else none.
func BadgeForRank(rank int) Badge {
	switch rank {
	case 1:
		return BadgeGold
	case 2:
		return BadgeSilver
	case 3:
		return BadgeBronze
	default:
		return BadgeNone
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry is one student's leaderboard record, keyed by email.
type Entry struct {
	StudentEmail          string
	DisplayName           string
	IsAnonymous           bool
	TotalPoints           int
	TotalCoursesCompleted int
	AverageRating         float64
	Rank                  int
	Badge                 Badge
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewEntry creates an unranked entry.
func NewEntry(studentEmail, displayName string) (*Entry, error) {
	if studentEmail == "" {
		return nil, shared.NewDomainError("leaderboard", "NewEntry", shared.ErrEmptyValue,
			"student email is required")
	}
	now := time.Now().UTC()
	return &Entry{
		StudentEmail: studentEmail,
		DisplayName:  displayName,
		Badge:        BadgeNone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Update carries replacement values for an entry. Zero-valued fields leave
// the stored value untouched (merge semantics, not blind overwrite).
type Update struct {
	DisplayName           string
	TotalPoints           int
	TotalCoursesCompleted int
	AverageRating         float64
	IsAnonymous           *bool
}

// Apply merges an update into the entry, retaining prior values where the
// caller supplied no replacement.
func (e *Entry) Apply(u Update) {
	if u.DisplayName != "" {
		e.DisplayName = u.DisplayName
	}
	if u.TotalPoints != 0 {
		e.TotalPoints = u.TotalPoints
	}
	if u.TotalCoursesCompleted != 0 {
		e.TotalCoursesCompleted = u.TotalCoursesCompleted
	}
	if u.AverageRating != 0 {
		e.AverageRating = u.AverageRating
	}
	if u.IsAnonymous != nil {
		e.IsAnonymous = *u.IsAnonymous
	}
	e.UpdatedAt = time.Now().UTC()
}

// PublicName is the read-time projection of the display name. Anonymous
// entries participate fully in ranking but are shown masked; identity is
// never mutated in storage.
func (e *Entry) PublicName() string {
	if !e.IsAnonymous {
		return e.DisplayName
	}
	name := e.DisplayName
	if name == "" {
		name = e.StudentEmail
	}
	if len(name) <= 1 {
		return "*"
	}
	return name[:1] + strings.Repeat("*", len(name)-1)
}

// Clone returns a copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

// Rank sorts entries by TotalPoints descending and assigns rank and badge in
// place. Rank is 1 + the number of entries strictly ahead, so equal point
// totals share a rank. The tie order within equal points is deterministic:
// earlier CreatedAt first, then email ascending.
func Rank(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].StudentEmail < entries[j].StudentEmail
	})

	for i, e := range entries {
		if i > 0 && e.TotalPoints == entries[i-1].TotalPoints {
			e.Rank = entries[i-1].Rank
		} else {
			e.Rank = i + 1
		}
		e.Badge = BadgeForRank(e.Rank)
	}
}
