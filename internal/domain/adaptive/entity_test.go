package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRunningMean(t *testing.T) {
	p, err := NewPerformance("course-1", "student@example.com", "topic-1", 80)
	require.NoError(t, err)

	assert.Equal(t, 1, p.Attempts)
	assert.InDelta(t, 80.0, p.AverageScore, 0.001)
	assert.False(t, p.IsWeakTopic)
	assert.Equal(t, DifficultyHard, p.RecommendedDifficulty)

	p.Record(40)
	assert.Equal(t, 2, p.Attempts)
	assert.InDelta(t, 60.0, p.AverageScore, 0.001)
	assert.True(t, p.IsWeakTopic)
	assert.Equal(t, DifficultyMedium, p.RecommendedDifficulty)

	p.Record(95)
	assert.Equal(t, 3, p.Attempts)
	assert.InDelta(t, 71.666, p.AverageScore, 0.001)
	assert.False(t, p.IsWeakTopic)
}

func TestWeakTopicThresholdBoundary(t *testing.T) {
	at, err := NewPerformance("c", "s", "t", WeakTopicThreshold)
	require.NoError(t, err)
	assert.False(t, at.IsWeakTopic, "exactly at the threshold counts as mastered")

	below, err := NewPerformance("c", "s", "t", WeakTopicThreshold-0.1)
	require.NoError(t, err)
	assert.True(t, below.IsWeakTopic)
}

func TestDifficultyForScore(t *testing.T) {
	assert.Equal(t, DifficultyEasy, DifficultyForScore(0))
	assert.Equal(t, DifficultyEasy, DifficultyForScore(49.9))
	assert.Equal(t, DifficultyMedium, DifficultyForScore(50))
	assert.Equal(t, DifficultyMedium, DifficultyForScore(79.9))
	assert.Equal(t, DifficultyHard, DifficultyForScore(80))
	assert.Equal(t, DifficultyHard, DifficultyForScore(100))
}

func TestSummarizeNextActionPicksLowestWeakTopic(t *testing.T) {
	rows := []*Performance{
		{CourseID: "c", StudentEmail: "s", TopicID: "strong", AverageScore: 80, IsWeakTopic: false, RecommendedDifficulty: DifficultyHard},
		{CourseID: "c", StudentEmail: "s", TopicID: "shaky", AverageScore: 50, IsWeakTopic: true, RecommendedDifficulty: DifficultyMedium},
		{CourseID: "c", StudentEmail: "s", TopicID: "struggling", AverageScore: 30, IsWeakTopic: true, RecommendedDifficulty: DifficultyEasy},
	}

	s := Summarize("c", "s", rows)

	assert.Equal(t, 3, s.TotalTopics)
	assert.Equal(t, 1, s.MasteredTopics)
	assert.Equal(t, 2, s.WeakTopics)
	assert.InDelta(t, 53.333, s.OverallMastery, 0.001)

	require.NotNil(t, s.NextAction)
	assert.Equal(t, "struggling", s.NextAction.TopicID)
	assert.InDelta(t, 30.0, s.NextAction.AverageScore, 0.001)
	assert.Equal(t, DifficultyEasy, s.NextAction.RecommendedDifficulty)
	assert.True(t, s.NextAction.IsWeakTopic)
}

func TestSummarizeWeakTopicsOutrankStrongOnes(t *testing.T) {
	// Weakness is the first sort key; raw averages only break ties within
	// the same tier.
	rows := []*Performance{
		{CourseID: "c", StudentEmail: "s", TopicID: "barely-mastered", AverageScore: 72, IsWeakTopic: false},
		{CourseID: "c", StudentEmail: "s", TopicID: "weak", AverageScore: 65, IsWeakTopic: true},
	}

	s := Summarize("c", "s", rows)
	require.NotNil(t, s.NextAction)
	assert.Equal(t, "weak", s.NextAction.TopicID)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize("c", "s", nil)

	assert.Equal(t, 0, s.TotalTopics)
	assert.Nil(t, s.NextAction)
	assert.Zero(t, s.OverallMastery)
}
