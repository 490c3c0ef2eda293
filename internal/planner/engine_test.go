package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
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
	lastReq  llm.GenerateRequest
}

func (m *mockLLMClient) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &llm.GenerateResponse{Text: m.response, Model: "mistral"}, nil
}

func (m *mockLLMClient) Available(context.Context) bool {
	return m.err == nil
}

type engineFixture struct {
	engine  *Engine
	tasks   repository.TaskRepo
	history repository.HistoryRepo
	cache   repository.CacheStore
	client  *mockLLMClient
	now     time.Time
}

func newEngineFixture(t *testing.T, client *mockLLMClient) *engineFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tasks := repository.NewSQLiteTaskRepo(database)
	history := repository.NewSQLiteHistoryRepo(database)
	cache := repository.NewSQLiteCacheStore(database).WithClock(clock)
	extract := intelligence.NewExtractService(client)

	engine := NewEngine(tasks, history, cache, client, extract, zerolog.Nop()).WithClock(clock)
	return &engineFixture{engine: engine, tasks: tasks, history: history, cache: cache, client: client, now: now}
}

func TestSuggestDeadline_FewSamplesFallsBackToLLM(t *testing.T) {
	client := &mockLLMClient{response: `{"days": 3, "reason": "configuration serveur simple"}`}
	f := newEngineFixture(t, client)
	ctx := context.Background()

	// 4 completed tasks: one short of trusting the historical average.
	for i := 0; i < 4; i++ {
		task := testutil.NewTestTask(fmt.Sprintf("Tâche %d", i),
			testutil.WithCategory(domain.CategoryEasynode),
			testutil.WithCreatedAt(f.now.AddDate(0, 0, -10)))
		require.NoError(t, f.tasks.Create(ctx, task))
		require.NoError(t, f.tasks.Complete(ctx, task.ID, f.now.AddDate(0, 0, -8)))
	}

	s, err := f.engine.SuggestDeadline(ctx, domain.CategoryEasynode, "Configurer le monitoring")
	require.NoError(t, err)

	assert.Equal(t, SourceAI, s.Source)
	assert.Equal(t, 3, s.SuggestedDays)
	assert.Equal(t, "2025-03-13", s.SuggestedDate)
	assert.Equal(t, 1, client.calls)
}

func TestSuggestDeadline_VelocityFromHistory(t *testing.T) {
	client := &mockLLMClient{err: errors.New("should not be called")}
	f := newEngineFixture(t, client)
	ctx := context.Background()

	// 5 tasks all completed exactly 2 days after creation.
	for i := 0; i < 5; i++ {
		task := testutil.NewTestTask(fmt.Sprintf("Tâche %d", i),
			testutil.WithCategory(domain.CategoryImmobilier),
			testutil.WithCreatedAt(f.now.AddDate(0, 0, -12)))
		require.NoError(t, f.tasks.Create(ctx, task))
		require.NoError(t, f.tasks.Complete(ctx, task.ID, f.now.AddDate(0, 0, -10)))
	}

	s, err := f.engine.SuggestDeadline(ctx, domain.CategoryImmobilier, "Relancer le notaire")
	require.NoError(t, err)

	assert.Equal(t, SourceVelocity, s.Source)
	assert.Equal(t, 2, s.SuggestedDays)
	assert.Equal(t, "2025-03-12", s.SuggestedDate)
	assert.Equal(t, 0, client.calls)
}

func TestSuggestDeadline_VelocityIsCached(t *testing.T) {
	client := &mockLLMClient{err: errors.New("unreachable")}
	f := newEngineFixture(t, client)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		task := testutil.NewTestTask(fmt.Sprintf("Tâche %d", i),
			testutil.WithCategory(domain.CategoryEasynode),
			testutil.WithCreatedAt(f.now.AddDate(0, 0, -6)))
		require.NoError(t, f.tasks.Create(ctx, task))
		require.NoError(t, f.tasks.Complete(ctx, task.ID, f.now.AddDate(0, 0, -3)))
	}

	first, err := f.engine.SuggestDeadline(ctx, domain.CategoryEasynode, "Déployer la v2")
	require.NoError(t, err)

	// Second call must come from the cache, not re-aggregate.
	entry, err := f.cache.Get(ctx, domain.VelocityKey(domain.CategoryEasynode, f.now))
	require.NoError(t, err)
	assert.Equal(t, domain.CacheVelocity, entry.Kind)

	second, err := f.engine.SuggestDeadline(ctx, domain.CategoryEasynode, "Déployer la v2")
	require.NoError(t, err)
	assert.Equal(t, first.SuggestedDays, second.SuggestedDays)
	assert.Equal(t, first.SuggestedDate, second.SuggestedDate)
}

func TestSuggestDailyPriorities_LLMRanking(t *testing.T) {
	client := &mockLLMClient{response: `{"priorities": [{"id": 2, "title": "Payer l'URSSAF", "reason": "deadline proche"}, {"id": 1, "title": "Écrire le post", "reason": "impact business"}], "summary": "Focus administratif ce matin."}`}
	f := newEngineFixture(t, client)
	ctx := context.Background()

	require.NoError(t, f.tasks.Create(ctx, testutil.NewTestTask("Écrire le post")))
	require.NoError(t, f.tasks.Create(ctx, testutil.NewTestTask("Payer l'URSSAF", testutil.WithPriority(domain.PriorityUrgent))))

	plan, err := f.engine.SuggestDailyPriorities(ctx)
	require.NoError(t, err)

	require.Len(t, plan.Priorities, 2)
	assert.Equal(t, int64(2), plan.Priorities[0].ID)
	assert.Equal(t, "Focus administratif ce matin.", plan.Summary)
	assert.Contains(t, client.lastReq.UserPrompt, "Payer l'URSSAF")
	assert.Contains(t, client.lastReq.UserPrompt, "Lundi")
}

func TestSuggestDailyPriorities_SameDayIsIdempotent(t *testing.T) {
	client := &mockLLMClient{response: `{"priorities": [{"id": 1, "title": "Tâche A", "reason": "urgente"}], "summary": "Une seule chose à faire."}`}
	f := newEngineFixture(t, client)
	ctx := context.Background()

	require.NoError(t, f.tasks.Create(ctx, testutil.NewTestTask("Tâche A")))

	first, err := f.engine.SuggestDailyPriorities(ctx)
	require.NoError(t, err)

	second, err := f.engine.SuggestDailyPriorities(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, first, second)
}

func TestSuggestDailyPriorities_FallbackOnLLMFailure(t *testing.T) {
	client := &mockLLMClient{err: errors.New("connection refused")}
	f := newEngineFixture(t, client)
	ctx := context.Background()

	require.NoError(t, f.tasks.Create(ctx, testutil.NewTestTask("Ranger le bureau")))
	require.NoError(t, f.tasks.Create(ctx, testutil.NewTestTask("Payer le loyer", testutil.WithPriority(domain.PriorityUrgent))))
	require.NoError(t, f.tasks.Create(ctx, testutil.NewTestTask("Préparer la réunion", testutil.WithPriority(domain.PriorityImportant))))

	plan, err := f.engine.SuggestDailyPriorities(ctx)
	require.NoError(t, err)

	require.Len(t, plan.Priorities, 3)
	assert.Equal(t, "Payer le loyer", plan.Priorities[0].Title)
	assert.Equal(t, "urgent", plan.Priorities[0].Reason)
	assert.Equal(t, "Préparer la réunion", plan.Priorities[1].Title)
	assert.Equal(t, "Ordre basé sur les priorités.", plan.Summary)

	// The fallback plan is cached like a normal one.
	_, err = f.cache.Get(ctx, domain.PrioritizeKey(f.now))
	assert.NoError(t, err)
}

func TestSuggestDailyPriorities_NoPendingTasks(t *testing.T) {
	client := &mockLLMClient{err: errors.New("should not be called")}
	f := newEngineFixture(t, client)
	ctx := context.Background()

	plan, err := f.engine.SuggestDailyPriorities(ctx)
	require.NoError(t, err)

	assert.Empty(t, plan.Priorities)
	assert.Equal(t, "Aucune tâche en attente.", plan.Summary)
	assert.Equal(t, 0, client.calls)

	// An empty plan is never cached so a later task shows up immediately.
	_, err = f.cache.Get(ctx, domain.PrioritizeKey(f.now))
	assert.ErrorIs(t, err, repository.ErrCacheMiss)
}

func TestDecomposeTask(t *testing.T) {
	client := &mockLLMClient{response: `{"subtasks": [{"title": "Rédiger le plan", "priority": "important", "estimated_time": "30min"}, {"title": "Écrire le brouillon", "priority": "normal", "estimated_time": "2h"}]}`}
	f := newEngineFixture(t, client)
	ctx := context.Background()

	task := testutil.NewTestTask("Écrire l'article de blog", testutil.WithCategory(domain.CategoryContent))
	require.NoError(t, f.tasks.Create(ctx, task))

	d, err := f.engine.DecomposeTask(ctx, task.ID)
	require.NoError(t, err)

	require.Len(t, d.Subtasks, 2)
	assert.Equal(t, "Rédiger le plan", d.Subtasks[0].Title)
	assert.Equal(t, task.ID, d.ParentID)
	assert.Equal(t, "Écrire l'article de blog", d.ParentTitle)

	// Cached: a second call survives an LLM outage.
	client.err = errors.New("unreachable")
	again, err := f.engine.DecomposeTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, d, again)
}

func TestDecomposeTask_UnknownTask(t *testing.T) {
	client := &mockLLMClient{response: `{"subtasks": [{"title": "x", "priority": "normal", "estimated_time": "1h"}]}`}
	f := newEngineFixture(t, client)
	ctx := context.Background()

	_, err := f.engine.DecomposeTask(ctx, 999)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 0, client.calls)

	_, err = f.cache.Get(ctx, domain.DecomposeKey(999))
	assert.ErrorIs(t, err, repository.ErrCacheMiss)
}

func TestDecomposeTask_NoCacheOnLLMFailure(t *testing.T) {
	client := &mockLLMClient{err: errors.New("timeout")}
	f := newEngineFixture(t, client)
	ctx := context.Background()

	task := testutil.NewTestTask("Refondre le site")
	require.NoError(t, f.tasks.Create(ctx, task))

	_, err := f.engine.DecomposeTask(ctx, task.ID)
	require.Error(t, err)

	_, err = f.cache.Get(ctx, domain.DecomposeKey(task.ID))
	assert.ErrorIs(t, err, repository.ErrCacheMiss)
}

func TestGenerateWeeklyReview_LLMNarrative(t *testing.T) {
	client := &mockLLMClient{response: "Bonne semaine: 8 tâches bouclées, continue comme ça."}
	f := newEngineFixture(t, client)
	ctx := context.Background()

	require.NoError(t, f.history.Upsert(ctx, domain.DailyCounters{Date: "2025-03-08", CompletedCount: 5, CreatedCount: 6, PendingCount: 4}))
	require.NoError(t, f.history.Upsert(ctx, domain.DailyCounters{Date: "2025-03-09", CompletedCount: 3, CreatedCount: 2, PendingCount: 2}))

	r, err := f.engine.GenerateWeeklyReview(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Bonne semaine: 8 tâches bouclées, continue comme ça.", r.Review)
	assert.Equal(t, 8, r.Stats.Completed)
	assert.Equal(t, 8, r.Stats.Created)
	assert.Equal(t, "2025-W11", r.Week)
	assert.Contains(t, client.lastReq.UserPrompt, "Complétées: 8")
}

func TestGenerateWeeklyReview_FallbackOnLLMFailure(t *testing.T) {
	client := &mockLLMClient{err: errors.New("connection refused")}
	f := newEngineFixture(t, client)
	ctx := context.Background()

	require.NoError(t, f.history.Upsert(ctx, domain.DailyCounters{Date: "2025-03-09", CompletedCount: 4, CreatedCount: 7, PendingCount: 3}))
	overdue := testutil.NewTestTask("Déclaration TVA", testutil.WithDeadline(f.now.AddDate(0, 0, -2)))
	require.NoError(t, f.tasks.Create(ctx, overdue))

	r, err := f.engine.GenerateWeeklyReview(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Bilan semaine 2025-W11: 4 tâches complétées, 7 créées, 1 en retard.", r.Review)
	assert.Equal(t, 1, r.Stats.Overdue)
}

func TestGenerateWeeklyReview_CachedForWeek(t *testing.T) {
	client := &mockLLMClient{response: "Semaine solide."}
	f := newEngineFixture(t, client)
	ctx := context.Background()

	first, err := f.engine.GenerateWeeklyReview(ctx)
	require.NoError(t, err)

	second, err := f.engine.GenerateWeeklyReview(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, first.Review, second.Review)
}

func TestSessionContext_SummaryKeepsLastFive(t *testing.T) {
	f := newEngineFixture(t, &mockLLMClient{})
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		require.NoError(t, f.engine.UpdateSessionContext(ctx, "task_added", fmt.Sprintf("Tâche %d", i)))
	}

	summary := f.engine.SessionContextSummary(ctx)
	assert.True(t, strings.HasPrefix(summary, "Contexte du jour:\n"))
	assert.NotContains(t, summary, "Tâche 2")
	assert.Contains(t, summary, "- task_added: Tâche 3")
	assert.Contains(t, summary, "- task_added: Tâche 7")
}

func TestSessionContext_EmptyWithoutEvents(t *testing.T) {
	f := newEngineFixture(t, &mockLLMClient{})

	assert.Equal(t, "", f.engine.SessionContextSummary(context.Background()))
}
