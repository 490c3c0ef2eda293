package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amarchal/majordome/internal/domain"
	"github.com/amarchal/majordome/internal/intelligence"
	"github.com/amarchal/majordome/internal/llm"
	"github.com/amarchal/majordome/internal/repository"
	"github.com/amarchal/majordome/internal/testutil"
)

type mockLLMClient struct {
	response string
	err      error
	calls    int
}

func (m *mockLLMClient) Generate(context.Context, llm.GenerateRequest) (*llm.GenerateResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &llm.GenerateResponse{Text: m.response, Model: "mistral"}, nil
}

func (m *mockLLMClient) Available(context.Context) bool {
	return m.err == nil
}

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

type runnerFixture struct {
	runner   *Runner
	tasks    repository.TaskRepo
	history  repository.HistoryRepo
	content  repository.ContentRepo
	notifier *fakeNotifier
	client   *mockLLMClient
	now      time.Time
}

func newRunnerFixture(t *testing.T, client *mockLLMClient) *runnerFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	now := time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC)

	tasks := repository.NewSQLiteTaskRepo(database)
	history := repository.NewSQLiteHistoryRepo(database)
	content := repository.NewSQLiteContentRepo(database)
	notifier := &fakeNotifier{}
	extract := intelligence.NewExtractService(client)

	runner := NewRunner(tasks, history, content, extract, notifier, zerolog.Nop()).
		WithClock(func() time.Time { return now })
	return &runnerFixture{runner: runner, tasks: tasks, history: history, content: content, notifier: notifier, client: client, now: now}
}

func TestCheckDeadlineReminders_WindowAndIdempotence(t *testing.T) {
	f := newRunnerFixture(t, &mockLLMClient{})
	ctx := context.Background()

	soon := testutil.NewTestTask("Payer l'URSSAF", testutil.WithDeadline(f.now.Add(30*time.Minute)))
	later := testutil.NewTestTask("Préparer la démo", testutil.WithDeadline(f.now.Add(2*time.Hour)))
	require.NoError(t, f.tasks.Create(ctx, soon))
	require.NoError(t, f.tasks.Create(ctx, later))

	sent, err := f.runner.CheckDeadlineReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0], "Payer l'URSSAF")
	assert.Contains(t, f.notifier.sent[0], "deadline proche")

	// Same window, second run: the flag suppresses the repeat.
	sent, err = f.runner.CheckDeadlineReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Len(t, f.notifier.sent, 1)
}

func TestCheckDeadlineReminders_FailedDeliveryRetries(t *testing.T) {
	f := newRunnerFixture(t, &mockLLMClient{})
	ctx := context.Background()

	task := testutil.NewTestTask("Relancer le notaire", testutil.WithDeadline(f.now.Add(45*time.Minute)))
	require.NoError(t, f.tasks.Create(ctx, task))

	f.notifier.err = errors.New("telegram: 502")
	sent, err := f.runner.CheckDeadlineReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	f.notifier.err = nil
	sent, err = f.runner.CheckDeadlineReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestSendDailyRecap_WritesHistoryAndNotifies(t *testing.T) {
	f := newRunnerFixture(t, &mockLLMClient{})
	ctx := context.Background()

	done := testutil.NewTestTask("Envoyer le rapport", testutil.WithCreatedAt(f.now.Add(-8*time.Hour)))
	require.NoError(t, f.tasks.Create(ctx, done))
	require.NoError(t, f.tasks.Complete(ctx, done.ID, f.now.Add(-1*time.Hour)))
	require.NoError(t, f.tasks.Create(ctx, testutil.NewTestTask("Payer le loyer",
		testutil.WithPriority(domain.PriorityUrgent), testutil.WithCreatedAt(f.now.Add(-2*time.Hour)))))

	require.NoError(t, f.content.Insert(ctx, &domain.DailyContent{
		Date:        "2025-03-10",
		Quote:       "Fais-le.",
		QuoteAuthor: "Quelqu'un",
		CreatedAt:   f.now,
	}))

	require.NoError(t, f.runner.SendDailyRecap(ctx))

	require.Len(t, f.notifier.sent, 1)
	msg := f.notifier.sent[0]
	assert.Contains(t, msg, "Récap du 10/03/2025")
	assert.Contains(t, msg, "complétées aujourd'hui: 1")
	assert.Contains(t, msg, "en attente: 1")
	assert.Contains(t, msg, "[urgent] Payer le loyer")
	assert.Contains(t, msg, "Fais-le.")

	history, err := f.history.Recent(ctx, 7)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "2025-03-10", history[0].Date)
	assert.Equal(t, 1, history[0].CompletedCount)
	assert.Equal(t, 2, history[0].CreatedCount)
	assert.Equal(t, 1, history[0].PendingCount)
}

func TestSendDailyRecap_HistorySurvivesDeliveryFailure(t *testing.T) {
	f := newRunnerFixture(t, &mockLLMClient{})
	ctx := context.Background()

	f.notifier.err = errors.New("telegram down")
	err := f.runner.SendDailyRecap(ctx)
	require.Error(t, err)

	history, herr := f.history.Recent(ctx, 7)
	require.NoError(t, herr)
	assert.Len(t, history, 1)
}

func TestGenerateDailyContent_OncePerDay(t *testing.T) {
	f := newRunnerFixture(t, &mockLLMClient{
		response: `{"quote": "Le code est de la prose.", "author": "Quelqu'un", "fun_fact": "ENIAC pesait 27 tonnes."}`,
	})
	ctx := context.Background()

	created, err := f.runner.GenerateDailyContent(ctx)
	require.NoError(t, err)
	assert.True(t, created)

	stored, err := f.content.GetByDate(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "Le code est de la prose.", stored.Quote)
	assert.Equal(t, "ENIAC pesait 27 tonnes.", stored.FunFact)

	created, err = f.runner.GenerateDailyContent(ctx)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, f.client.calls)
}

func TestGenerateDailyContent_LLMFailure(t *testing.T) {
	f := newRunnerFixture(t, &mockLLMClient{err: errors.New("llm down")})

	created, err := f.runner.GenerateDailyContent(context.Background())
	require.Error(t, err)
	assert.False(t, created)

	_, err = f.content.GetByDate(context.Background(), "2025-03-10")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
