package command_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/application/command"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/course"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/credit"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/cache"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/persistence/memory"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/ratelimit"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturePublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Events() []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]shared.Event(nil), p.events...)
}

type generateFixture struct {
	handler    *command.GenerateContentHandler
	courseRepo *memory.CourseRepository
	creditRepo *memory.CreditRepository
	ledger     *credit.Ledger
	publisher  *capturePublisher
	courseID   string
}

func newGenerateFixture(t *testing.T, userCredits int, member bool) *generateFixture {
	t.Helper()
	ctx := context.Background()

	courseRepo := memory.NewCourseRepository()
	creditRepo := memory.NewCreditRepository()
	ledger := credit.NewLedger(creditRepo)
	publisher := &capturePublisher{}

	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	limiter := ratelimit.New(store, ratelimit.DefaultConfig())

	c, err := course.NewCourse("Go Fundamentals", "teacher@example.com")
	require.NoError(t, err)
	require.NoError(t, courseRepo.CreateCourse(ctx, c))

	user, err := credit.NewUser("student@example.com", "Student")
	require.NoError(t, err)
	user.IsMember = member
	require.NoError(t, creditRepo.Create(ctx, user))
	if userCredits > 0 {
		_, err = ledger.Grant(ctx, user.Email, userCredits, "seed")
		require.NoError(t, err)
	}

	return &generateFixture{
		handler:    command.NewGenerateContentHandler(courseRepo, ledger, limiter, publisher, nil),
		courseRepo: courseRepo,
		creditRepo: creditRepo,
		ledger:     ledger,
		publisher:  publisher,
		courseID:   c.ID,
	}
}

func generateCmd(f *generateFixture) command.GenerateContentCommand {
	return command.GenerateContentCommand{
		CourseID:       f.courseID,
		StudyType:      course.StudyTypeQuiz,
		Topic:          "goroutines",
		RequesterEmail: "student@example.com",
	}
}

func TestGenerateContentHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newGenerateFixture(t, 5, false)

	result, err := f.handler.Handle(ctx, generateCmd(f))
	require.NoError(t, err)
	require.NotEmpty(t, result.ContentID)

	// One credit debited.
	balance, err := f.ledger.Balance(ctx, "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, 4, balance)

	// A pending anchor exists and the job is enqueued.
	anchor, err := f.courseRepo.GetStudyContent(ctx, result.ContentID)
	require.NoError(t, err)
	assert.True(t, anchor.InFlight())

	events := f.publisher.Events()
	require.Len(t, events, 1)
	evt, err := shared.DecodeEvent[shared.StudyContentRequestedEvent](events[0])
	require.NoError(t, err)
	assert.Equal(t, result.ContentID, evt.ContentID)
	assert.Equal(t, f.courseID, evt.CourseID)
	assert.Equal(t, string(course.StudyTypeQuiz), evt.StudyType)
}

func TestGenerateContentInsufficientCredits(t *testing.T) {
	ctx := context.Background()
	f := newGenerateFixture(t, 0, false)

	_, err := f.handler.Handle(ctx, generateCmd(f))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientCredits)

	// The refusal left no trace: nothing enqueued, nothing written.
	assert.Empty(t, f.publisher.Events())
	history, err := f.ledger.History(ctx, "student@example.com", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestGenerateContentUnknownCourse(t *testing.T) {
	ctx := context.Background()
	f := newGenerateFixture(t, 5, false)

	cmd := generateCmd(f)
	cmd.CourseID = "no-such-course"

	_, err := f.handler.Handle(ctx, cmd)
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))

	// No debit for an unknown course.
	balance, err := f.ledger.Balance(ctx, "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, 5, balance)
	assert.Empty(t, f.publisher.Events())
}

func TestGenerateContentTwentyFirstRequestIsRefused(t *testing.T) {
	ctx := context.Background()
	f := newGenerateFixture(t, 0, true) // member: credits never run out

	for i := 0; i < 20; i++ {
		_, err := f.handler.Handle(ctx, generateCmd(f))
		require.NoError(t, err, "request %d should pass", i+1)
	}

	_, err := f.handler.Handle(ctx, generateCmd(f))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrRateLimited)

	// The refused request enqueued nothing and debited nothing.
	assert.Len(t, f.publisher.Events(), 20)
	user, err := f.creditRepo.GetByEmail(ctx, "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, 20, user.TotalCreditsUsed)
}

func TestGenerateContentValidation(t *testing.T) {
	ctx := context.Background()
	f := newGenerateFixture(t, 5, false)

	cmd := generateCmd(f)
	cmd.StudyType = course.StudyType("Podcast")
	_, err := f.handler.Handle(ctx, cmd)
	assert.Error(t, err)

	cmd = generateCmd(f)
	cmd.RequesterEmail = ""
	_, err = f.handler.Handle(ctx, cmd)
	assert.Error(t, err)
}
