package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/amarchal/majordome/internal/domain"
)

// SQLiteCacheStore implements CacheStore on the ai_cache table. Expiry is
// lazy: Get filters on expires_at, so stale rows are invisible whether or
// not CleanupExpired ever runs.
type SQLiteCacheStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteCacheStore creates a new SQLiteCacheStore using the wall clock.
func NewSQLiteCacheStore(db *sql.DB) *SQLiteCacheStore {
	return &SQLiteCacheStore{db: db, now: time.Now}
}

// WithClock overrides the store's clock. Test use only.
func (s *SQLiteCacheStore) WithClock(now func() time.Time) *SQLiteCacheStore {
	s.now = now
	return s
}

func (s *SQLiteCacheStore) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	query := `SELECT cache_key, cache_type, result_json, todo_id, created_at, expires_at
		FROM ai_cache WHERE cache_key = ? AND expires_at > ?`
	row := s.db.QueryRowContext(ctx, query, key, s.now().UTC().Format(time.RFC3339))

	var e domain.CacheEntry
	var payload string
	var todoID sql.NullInt64
	var createdAtStr, expiresAtStr string
	err := row.Scan(&e.Key, &e.Kind, &payload, &todoID, &createdAtStr, &expiresAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("cache key %q: %w", key, ErrCacheMiss)
		}
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	e.Payload = json.RawMessage(payload)
	if todoID.Valid {
		e.TaskID = &todoID.Int64
	}
	e.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing cache created_at: %w", err)
	}
	e.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing cache expires_at: %w", err)
	}
	return &e, nil
}

func (s *SQLiteCacheStore) Set(ctx context.Context, key string, kind domain.CacheKind, payload []byte, ttl time.Duration, taskID *int64) error {
	now := s.now().UTC()
	query := `INSERT INTO ai_cache (cache_key, cache_type, result_json, todo_id, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			cache_type  = excluded.cache_type,
			result_json = excluded.result_json,
			todo_id     = excluded.todo_id,
			created_at  = excluded.created_at,
			expires_at  = excluded.expires_at`
	_, err := s.db.ExecContext(ctx, query,
		key,
		kind,
		string(payload),
		nullableInt64ToValue(taskID),
		now.Format(time.RFC3339),
		now.Add(ttl).Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Append adds an event to a list-shaped entry {"events": [...]}, creating
// the entry if absent and dropping the oldest events beyond maxItems. Each
// append refreshes the TTL.
func (s *SQLiteCacheStore) Append(ctx context.Context, key string, kind domain.CacheKind, event []byte, ttl time.Duration, maxItems int) error {
	doc := `{"events":[]}`
	entry, err := s.Get(ctx, key)
	if err == nil {
		doc = string(entry.Payload)
	}

	doc, err = sjson.SetRaw(doc, "events.-1", string(event))
	if err != nil {
		return fmt.Errorf("appending cache event: %w", err)
	}
	if maxItems > 0 {
		for int(gjson.Get(doc, "events.#").Int()) > maxItems {
			doc, err = sjson.Delete(doc, "events.0")
			if err != nil {
				return fmt.Errorf("trimming cache events: %w", err)
			}
		}
	}
	return s.Set(ctx, key, kind, []byte(doc), ttl, nil)
}

func (s *SQLiteCacheStore) Invalidate(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ai_cache WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("invalidating cache key: %w", err)
	}
	return nil
}

func (s *SQLiteCacheStore) InvalidatePrefix(ctx context.Context, prefix string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ai_cache WHERE cache_key LIKE ? || '%'`, prefix); err != nil {
		return fmt.Errorf("invalidating cache prefix: %w", err)
	}
	return nil
}

func (s *SQLiteCacheStore) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM ai_cache WHERE expires_at <= ?`,
		s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("cleaning expired cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting cleaned rows: %w", err)
	}
	return n, nil
}
