package command_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/application/command"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/application/query"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/adaptive"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/cache"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/persistence/memory"
)

func TestRecordAssessmentAggregates(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAdaptiveRepository()
	handler := command.NewRecordAssessmentHandler(repo, nil, nil)

	cmd := command.RecordAssessmentCommand{
		CourseID:     "course-1",
		StudentEmail: "s@example.com",
		TopicID:      "topic-1",
		Score:        80,
	}

	perf, err := handler.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, 1, perf.Attempts)
	assert.InDelta(t, 80.0, perf.AverageScore, 0.001)

	cmd.Score = 40
	perf, err = handler.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, 2, perf.Attempts)
	assert.InDelta(t, 60.0, perf.AverageScore, 0.001)
	assert.True(t, perf.IsWeakTopic)
}

func TestRecordAssessmentInvalidatesCachedSummary(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAdaptiveRepository()
	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	recorder := command.NewRecordAssessmentHandler(repo, store, nil)
	mastery := query.NewGetMasteryHandler(repo, store, nil)

	cmd := command.RecordAssessmentCommand{
		CourseID:     "course-1",
		StudentEmail: "s@example.com",
		TopicID:      "topic-1",
		Score:        90,
	}
	_, err := recorder.Handle(ctx, cmd)
	require.NoError(t, err)

	// Prime the cache through the query path.
	summary, err := mastery.Handle(ctx, "course-1", "s@example.com")
	require.NoError(t, err)
	assert.InDelta(t, 90.0, summary.OverallMastery, 0.001)

	// Recording a new score drops the cached summary, so the next read
	// reflects the new average instead of the stale one.
	cmd.Score = 50
	_, err = recorder.Handle(ctx, cmd)
	require.NoError(t, err)

	summary, err = mastery.Handle(ctx, "course-1", "s@example.com")
	require.NoError(t, err)
	assert.InDelta(t, 70.0, summary.OverallMastery, 0.001)
}

func TestRecordAssessmentValidation(t *testing.T) {
	handler := command.NewRecordAssessmentHandler(memory.NewAdaptiveRepository(), nil, nil)

	_, err := handler.Handle(context.Background(), command.RecordAssessmentCommand{
		CourseID: "c", StudentEmail: "s@example.com", TopicID: "t", Score: 101,
	})
	assert.Error(t, err)

	_, err = handler.Handle(context.Background(), command.RecordAssessmentCommand{
		CourseID: "", StudentEmail: "s@example.com", TopicID: "t", Score: 50,
	})
	assert.Error(t, err)
}

func TestMasterySummaryNextAction(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAdaptiveRepository()
	handler := command.NewRecordAssessmentHandler(repo, nil, nil)
	mastery := query.NewGetMasteryHandler(repo, nil, nil)

	scores := map[string]float64{"pointers": 80, "channels": 50, "generics": 30}
	for topic, score := range scores {
		_, err := handler.Handle(ctx, command.RecordAssessmentCommand{
			CourseID:     "course-1",
			StudentEmail: "s@example.com",
			TopicID:      topic,
			Score:        score,
		})
		require.NoError(t, err)
	}

	summary, err := mastery.Handle(ctx, "course-1", "s@example.com")
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalTopics)
	assert.Equal(t, 2, summary.WeakTopics)
	require.NotNil(t, summary.NextAction)
	assert.Equal(t, "generics", summary.NextAction.TopicID)
	assert.Equal(t, adaptive.DifficultyEasy, summary.NextAction.RecommendedDifficulty)
}
