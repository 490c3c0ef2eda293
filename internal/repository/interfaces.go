package repository

import (
	"context"
	"errors"
	"time"

	"github.com/amarchal/majordome/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrCacheMiss is returned when a cache key is absent or expired.
// A miss is the normal trigger for recomputation, never a failure.
var ErrCacheMiss = errors.New("cache miss")

// TaskFilter narrows task listings.
type TaskFilter struct {
	Status   domain.TaskStatus // empty matches all
	Category domain.Category   // empty matches all
	Limit    int               // 0 means unlimited
}

// Velocity is the completion-velocity aggregate for one category.
type Velocity struct {
	AvgDays     float64
	SampleCount int
}

type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	List(ctx context.Context, f TaskFilter) ([]*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	// Complete marks a task completed and stamps completed_at.
	Complete(ctx context.Context, id int64, at time.Time) error
	// CompletionVelocity averages completion minus creation, in days,
	// over all completed tasks of the category.
	CompletionVelocity(ctx context.Context, category domain.Category) (*Velocity, error)
	Stats(ctx context.Context, now time.Time) (*domain.TaskStats, error)
	CompletedByCategorySince(ctx context.Context, since time.Time) ([]domain.CategoryCount, error)
	OverdueCount(ctx context.Context, now time.Time) (int, error)
	// DueForReminder lists pending tasks with a deadline inside [from, to]
	// that have not been reminded yet.
	DueForReminder(ctx context.Context, from, to time.Time) ([]*domain.Task, error)
	MarkReminderSent(ctx context.Context, id int64) error
}

type HistoryRepo interface {
	// Recent returns daily counters for the last n days, oldest first.
	Recent(ctx context.Context, days int) ([]domain.DailyCounters, error)
	Upsert(ctx context.Context, c domain.DailyCounters) error
}

type ContentRepo interface {
	GetByDate(ctx context.Context, date string) (*domain.DailyContent, error)
	Insert(ctx context.Context, c *domain.DailyContent) error
}

// CacheStore is the key-value layer backing all AI results. Reads must
// treat expired entries as misses even if background cleanup never runs.
type CacheStore interface {
	Get(ctx context.Context, key string) (*domain.CacheEntry, error)
	Set(ctx context.Context, key string, kind domain.CacheKind, payload []byte, ttl time.Duration, taskID *int64) error
	// Append adds an event object to a list-shaped entry ({"events": [...]}),
	// creating it if absent, evicting oldest entries beyond maxItems.
	Append(ctx context.Context, key string, kind domain.CacheKind, event []byte, ttl time.Duration, maxItems int) error
	Invalidate(ctx context.Context, key string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
	// CleanupExpired removes expired rows. Advisory only: correctness does
	// not depend on it ever running.
	CleanupExpired(ctx context.Context) (int64, error)
}
