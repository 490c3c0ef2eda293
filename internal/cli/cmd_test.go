package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amarchal/majordome/internal/assistant"
	"github.com/amarchal/majordome/internal/briefing"
	"github.com/amarchal/majordome/internal/conversation"
	"github.com/amarchal/majordome/internal/intelligence"
	"github.com/amarchal/majordome/internal/jobs"
	"github.com/amarchal/majordome/internal/llm"
	"github.com/amarchal/majordome/internal/planner"
	"github.com/amarchal/majordome/internal/repository"
	"github.com/amarchal/majordome/internal/testutil"
)

// scriptedLLM pops responses in order; an empty queue fails the call so
// deterministic fallbacks kick in.
type scriptedLLM struct {
	responses []string
}

func (s *scriptedLLM) Generate(context.Context, llm.GenerateRequest) (*llm.GenerateResponse, error) {
	if len(s.responses) == 0 {
		return nil, errors.New("no scripted response")
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	return &llm.GenerateResponse{Text: next, Model: "mistral"}, nil
}

func (s *scriptedLLM) Available(context.Context) bool {
	return len(s.responses) > 0
}

type cliFixture struct {
	app   *App
	tasks repository.TaskRepo
}

// testApp wires a full App backed by an in-memory DB.
func testApp(t *testing.T, client llm.Client) *cliFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tasks := repository.NewSQLiteTaskRepo(database)
	history := repository.NewSQLiteHistoryRepo(database)
	content := repository.NewSQLiteContentRepo(database)
	cache := repository.NewSQLiteCacheStore(database).WithClock(clock)

	extract := intelligence.NewExtractService(client)
	calendar := intelligence.NewCalendarService(client, "Europe/Paris")
	engine := planner.NewEngine(tasks, history, cache, client, extract, zerolog.Nop()).WithClock(clock)
	aggregator := briefing.NewAggregator(tasks, content, extract, client, nil, nil, engine, zerolog.Nop()).WithClock(clock)
	conv := conversation.NewManager().WithClock(clock)
	router := assistant.NewRouter(conv, extract, calendar, nil, tasks, engine, aggregator, zerolog.Nop()).WithClock(clock)
	runner := jobs.NewRunner(tasks, history, content, extract, &nullNotifier{}, zerolog.Nop()).WithClock(clock)

	return &cliFixture{
		app: &App{
			Router:        router,
			Planner:       engine,
			Jobs:          runner,
			IsInteractive: func() bool { return false },
		},
		tasks: tasks,
	}
}

type nullNotifier struct{}

func (n *nullNotifier) Send(context.Context, string) error { return nil }

// executeCommand runs the root command and captures everything written to
// stdout, including direct fmt.Print calls from handlers.
func executeCommand(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	pr, pw, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = pw

	root := NewRootCmd(app)
	root.SetOut(pw)
	root.SetErr(pw)
	root.SetArgs(args)
	root.SilenceUsage = true
	execErr := root.Execute()

	require.NoError(t, pw.Close())
	os.Stdout = origStdout
	out, err := io.ReadAll(pr)
	require.NoError(t, err)
	return string(out), execErr
}

func TestListCmd_Empty(t *testing.T) {
	f := testApp(t, &scriptedLLM{})

	out, err := executeCommand(t, f.app, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Aucune tâche en attente")
}

func TestAddCmd_Force(t *testing.T) {
	f := testApp(t, &scriptedLLM{})

	out, err := executeCommand(t, f.app, "add", "--force", "urgent", "immobilier", "Appeler", "le", "notaire")
	require.NoError(t, err)
	assert.Contains(t, out, "Tâche ajoutée")
	assert.Contains(t, out, "Appeler le notaire")

	pending, err := f.tasks.List(context.Background(), repository.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Appeler le notaire", pending[0].Title)
}

func TestAddCmd_RequiresTextWithoutTerminal(t *testing.T) {
	f := testApp(t, &scriptedLLM{})

	_, err := executeCommand(t, f.app, "add")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task text is required")
}

func TestDoneCmd_ByTitle(t *testing.T) {
	f := testApp(t, &scriptedLLM{})
	_, err := executeCommand(t, f.app, "add", "--force", "Envoyer", "le", "rapport")
	require.NoError(t, err)

	// The completion resolver degrades to a prefix strip when the LLM is
	// out of responses.
	out, err := executeCommand(t, f.app, "done", "rapport")
	require.NoError(t, err)
	assert.Contains(t, out, "Tâche terminée")
	assert.Contains(t, out, "Envoyer le rapport")
}

func TestStatsCmd(t *testing.T) {
	f := testApp(t, &scriptedLLM{})
	_, err := executeCommand(t, f.app, "add", "--force", "Tâche", "unique")
	require.NoError(t, err)

	out, err := executeCommand(t, f.app, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "STATISTIQUES")
	assert.Contains(t, out, "en attente 1")
}

func TestPlanCmd_FallbackWithoutLLM(t *testing.T) {
	f := testApp(t, &scriptedLLM{})
	_, err := executeCommand(t, f.app, "add", "--force", "urgent", "Payer", "le", "loyer")
	require.NoError(t, err)

	out, err := executeCommand(t, f.app, "plan")
	require.NoError(t, err)
	assert.Contains(t, out, "Payer le loyer")
	assert.Contains(t, out, "Ordre basé sur les priorités.")
}

func TestJobsRemindersCmd(t *testing.T) {
	f := testApp(t, &scriptedLLM{})

	out, err := executeCommand(t, f.app, "jobs", "reminders")
	require.NoError(t, err)
	assert.Contains(t, out, "0 rappel(s)")
}

func TestBotCmd_Unconfigured(t *testing.T) {
	f := testApp(t, &scriptedLLM{})

	_, err := executeCommand(t, f.app, "bot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram is not configured")
}
