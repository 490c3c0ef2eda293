package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/amarchal/majordome/internal/domain"
	"github.com/amarchal/majordome/internal/testutil"
)

func newCacheStoreAt(t *testing.T, at time.Time) (*SQLiteCacheStore, *time.Time) {
	t.Helper()
	current := at
	store := NewSQLiteCacheStore(testutil.NewTestDB(t)).WithClock(func() time.Time {
		return current
	})
	return store, &current
}

func TestSQLiteCacheStore_SetAndGet(t *testing.T) {
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	store, _ := newCacheStoreAt(t, now)
	ctx := context.Background()

	payload := []byte(`{"priorities":[{"id":1}]}`)
	require.NoError(t, store.Set(ctx, "prioritize:2024-05-02", domain.CachePrioritize, payload, 20*time.Hour, nil))

	entry, err := store.Get(ctx, "prioritize:2024-05-02")
	require.NoError(t, err)
	assert.Equal(t, domain.CachePrioritize, entry.Kind)
	assert.JSONEq(t, string(payload), string(entry.Payload))
	assert.True(t, entry.ExpiresAt.Equal(now.Add(20*time.Hour)))
}

func TestSQLiteCacheStore_Get_MissAfterExpiry(t *testing.T) {
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	store, clock := newCacheStoreAt(t, now)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", domain.CacheVelocity, []byte(`{}`), time.Hour, nil))

	_, err := store.Get(ctx, "k")
	require.NoError(t, err)

	// One second past the deadline the entry is a miss, cleanup or not.
	*clock = now.Add(time.Hour + time.Second)
	_, err = store.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestSQLiteCacheStore_Set_OverwritesAndResetsTTL(t *testing.T) {
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	store, clock := newCacheStoreAt(t, now)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", domain.CacheDecompose, []byte(`{"v":1}`), time.Hour, nil))
	*clock = now.Add(50 * time.Minute)
	require.NoError(t, store.Set(ctx, "k", domain.CacheDecompose, []byte(`{"v":2}`), time.Hour, nil))

	// Past the first deadline but within the refreshed one.
	*clock = now.Add(90 * time.Minute)
	entry, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(2), gjson.GetBytes(entry.Payload, "v").Int())
}

func TestSQLiteCacheStore_Get_UnknownKey(t *testing.T) {
	store, _ := newCacheStoreAt(t, time.Now())

	_, err := store.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestSQLiteCacheStore_Append_CapsOldest(t *testing.T) {
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	store, _ := newCacheStoreAt(t, now)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		event := []byte(fmt.Sprintf(`{"n":%d}`, i))
		require.NoError(t, store.Append(ctx, "session:2024-05-02", domain.CacheSession, event, 24*time.Hour, 3))
	}

	entry, err := store.Get(ctx, "session:2024-05-02")
	require.NoError(t, err)
	events := gjson.GetBytes(entry.Payload, "events").Array()
	require.Len(t, events, 3)
	// Oldest event evicted first.
	assert.Equal(t, int64(1), events[0].Get("n").Int())
	assert.Equal(t, int64(3), events[2].Get("n").Int())
}

func TestSQLiteCacheStore_InvalidatePrefix(t *testing.T) {
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	store, _ := newCacheStoreAt(t, now)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "velocity:easynode:2024-05-02", domain.CacheVelocity, []byte(`{}`), time.Hour, nil))
	require.NoError(t, store.Set(ctx, "velocity:admin:2024-05-02", domain.CacheVelocity, []byte(`{}`), time.Hour, nil))
	require.NoError(t, store.Set(ctx, "prioritize:2024-05-02", domain.CachePrioritize, []byte(`{}`), time.Hour, nil))

	require.NoError(t, store.InvalidatePrefix(ctx, "velocity:"))

	_, err := store.Get(ctx, "velocity:easynode:2024-05-02")
	assert.True(t, errors.Is(err, ErrCacheMiss))
	_, err = store.Get(ctx, "prioritize:2024-05-02")
	assert.NoError(t, err)
}

func TestSQLiteCacheStore_CleanupExpired(t *testing.T) {
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	store, clock := newCacheStoreAt(t, now)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "old", domain.CacheVelocity, []byte(`{}`), time.Minute, nil))
	require.NoError(t, store.Set(ctx, "fresh", domain.CacheVelocity, []byte(`{}`), time.Hour, nil))

	*clock = now.Add(10 * time.Minute)
	n, err := store.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Get(ctx, "fresh")
	assert.NoError(t, err)
}
