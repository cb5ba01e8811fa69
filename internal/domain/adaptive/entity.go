// Package adaptive aggregates per-topic assessment results into a mastery
// summary and a "next recommended action" for a learner.
package adaptive

import (
	"sort"
	"time"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
)

// WeakTopicThreshold is the fixed competence threshold: a topic whose rolling
// average falls below it is weak; at or above it is mastered.
const WeakTopicThreshold = 70.0

// ══════════════════════════════════════════════════════════════════════════════
// DIFFICULTY
// ══════════════════════════════════════════════════════════════════════════════

// Difficulty is the recommended difficulty for a topic. It is produced by
// the upstream scoring step and carried through the summary unchanged.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DifficultyForScore maps a rolling average onto the recommended difficulty.
// Used by the scoring step when a result is recorded.
func DifficultyForScore(avg float64) Difficulty {
	switch {
	case avg < 50:
		return DifficultyEasy
	case avg < 80:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PERFORMANCE
// ══════════════════════════════════════════════════════════════════════════════

// Performance is the rolling aggregate per (course, student, topic).
// Upsert semantics, not append-only - unlike the credit ledger this is a
// mutable running summary.
type Performance struct {
	CourseID              string
	StudentEmail          string
	TopicID               string
	AverageScore          float64
	Attempts              int
	RecommendedDifficulty Difficulty
	IsWeakTopic           bool
	UpdatedAt             time.Time
}

// Record folds a new assessment score into the rolling aggregate: the average
// becomes a running mean over all attempts, weakness is re-evaluated against
// the fixed threshold, and the recommended difficulty is refreshed.
func (p *Performance) Record(score float64) {
	p.AverageScore = (p.AverageScore*float64(p.Attempts) + score) / float64(p.Attempts+1)
	p.Attempts++
	p.IsWeakTopic = p.AverageScore < WeakTopicThreshold
	p.RecommendedDifficulty = DifficultyForScore(p.AverageScore)
	p.UpdatedAt = time.Now().UTC()
}

// NewPerformance creates the first aggregate row for a topic.
func NewPerformance(courseID, studentEmail, topicID string, score float64) (*Performance, error) {
	if courseID == "" || studentEmail == "" || topicID == "" {
		return nil, shared.NewDomainError("adaptive", "NewPerformance", shared.ErrEmptyValue,
			"course id, student email and topic id are required")
	}
	p := &Performance{
		CourseID:     courseID,
		StudentEmail: studentEmail,
		TopicID:      topicID,
	}
	p.Record(score)
	return p, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MASTERY SUMMARY
// ══════════════════════════════════════════════════════════════════════════════

// NextAction is the single highest-priority topic a learner should study.
type NextAction struct {
	TopicID               string
	AverageScore          float64
	RecommendedDifficulty Difficulty
	IsWeakTopic           bool
}

// Summary is the mastery roll-up over every topic of a (course, student).
type Summary struct {
	CourseID       string
	StudentEmail   string
	OverallMastery float64 // percentage 0-100
	MasteredTopics int
	WeakTopics     int
	TotalTopics    int

	// NextAction is nil when no performance rows exist yet.
	NextAction *NextAction
}

// Summarize computes the mastery summary from all performance rows of one
// (course, student). Next-action selection: weak topics first, then lowest
// average score within each tier.
func Summarize(courseID, studentEmail string, rows []*Performance) *Summary {
	s := &Summary{
		CourseID:     courseID,
		StudentEmail: studentEmail,
		TotalTopics:  len(rows),
	}
	if len(rows) == 0 {
		return s
	}

	var scoreSum float64
	for _, r := range rows {
		scoreSum += r.AverageScore
		if r.IsWeakTopic {
			s.WeakTopics++
		} else {
			s.MasteredTopics++
		}
	}
	s.OverallMastery = scoreSum / float64(len(rows))

	candidates := make([]*Performance, len(rows))
	copy(candidates, rows)
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].IsWeakTopic != candidates[j].IsWeakTopic {
			return candidates[i].IsWeakTopic
		}
		return candidates[i].AverageScore < candidates[j].AverageScore
	})

	top := candidates[0]
	s.NextAction = &NextAction{
		TopicID:               top.TopicID,
		AverageScore:          top.AverageScore,
		RecommendedDifficulty: top.RecommendedDifficulty,
		IsWeakTopic:           top.IsWeakTopic,
	}
	return s
}
