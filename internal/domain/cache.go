package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// CacheKind classifies the payload shape of a cache entry.
type CacheKind string

const (
	CachePrioritize   CacheKind = "prioritize"
	CacheVelocity     CacheKind = "velocity"
	CacheDecompose    CacheKind = "decompose"
	CacheSession      CacheKind = "session"
	CacheWeeklyReview CacheKind = "weekly_review"
	CacheEmailDigest  CacheKind = "email_digest"
)

// CacheEntry is one cached AI artifact. At most one live entry exists per
// key; a write overwrites any previous entry and resets both timestamps.
type CacheEntry struct {
	Key       string
	Kind      CacheKind
	Payload   json.RawMessage
	TaskID    *int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the entry must be treated as a miss.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

const cacheDayLayout = "2006-01-02"

// PrioritizeKey scopes the daily priority plan to a calendar day.
func PrioritizeKey(t time.Time) string {
	return "prioritize:" + t.Format(cacheDayLayout)
}

// VelocityKey scopes a category's completion velocity to a calendar day.
func VelocityKey(category Category, t time.Time) string {
	return fmt.Sprintf("velocity:%s:%s", category, t.Format(cacheDayLayout))
}

// DecomposeKey scopes a decomposition to its parent task.
func DecomposeKey(taskID int64) string {
	return fmt.Sprintf("decompose:%d", taskID)
}

// SessionKey scopes the session-context event log to a calendar day.
func SessionKey(t time.Time) string {
	return "session:" + t.Format(cacheDayLayout)
}

// WeeklyReviewKey scopes a review to an ISO week, e.g. "weekly_review:2024-W18".
func WeeklyReviewKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("weekly_review:%d-W%02d", year, week)
}
