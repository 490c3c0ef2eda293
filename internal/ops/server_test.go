package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amarchal/majordome/internal/domain"
	"github.com/amarchal/majordome/internal/repository"
	"github.com/amarchal/majordome/internal/testutil"
)

func newServerFixture(t *testing.T) (*Server, repository.TaskRepo, repository.CacheStore) {
	t.Helper()
	database := testutil.NewTestDB(t)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tasks := repository.NewSQLiteTaskRepo(database)
	cache := repository.NewSQLiteCacheStore(database)
	server := NewServer(database, tasks, cache, zerolog.Nop()).
		WithClock(func() time.Time { return now })
	return server, tasks, cache
}

func TestHealthz(t *testing.T) {
	server, _, _ := newServerFixture(t)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestStatus(t *testing.T) {
	server, tasks, _ := newServerFixture(t)
	ctx := context.Background()

	done := testutil.NewTestTask("Envoyer le rapport")
	require.NoError(t, tasks.Create(ctx, done))
	require.NoError(t, tasks.Complete(ctx, done.ID, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)))
	require.NoError(t, tasks.Create(ctx, testutil.NewTestTask("Payer le loyer",
		testutil.WithPriority(domain.PriorityUrgent))))

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 2, status.Total)
	assert.Equal(t, 1, status.Pending)
	assert.Equal(t, 1, status.TodayCompleted)
	assert.Equal(t, 50, status.CompletionRate)
}

func TestCacheCleanup(t *testing.T) {
	server, _, cache := newServerFixture(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "prioritize:2025-03-01", domain.CachePrioritize, []byte(`{}`), -time.Hour, nil))
	require.NoError(t, cache.Set(ctx, "prioritize:2025-03-10", domain.CachePrioritize, []byte(`{}`), time.Hour, nil))

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cache/cleanup", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed": 1}`, rec.Body.String())
}

func TestCacheCleanup_RejectsGet(t *testing.T) {
	server, _, _ := newServerFixture(t)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cache/cleanup", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
