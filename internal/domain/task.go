package domain

import "time"

// Task is a todo item owned by the relational store. The assistant core
// composes creation/update payloads and reads lists for planning.
type Task struct {
	ID          int64
	Title       string
	Description string
	Category    Category
	Priority    Priority
	Status      TaskStatus
	Deadline    *time.Time
	// ReminderSent marks that a deadline reminder has already been delivered.
	ReminderSent bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

// Overdue reports whether the task is pending with a deadline in the past.
func (t *Task) Overdue(now time.Time) bool {
	return t.Status == TaskPending && t.Deadline != nil && t.Deadline.Before(now)
}

// TaskStats is the dashboard aggregate consumed by briefings and recaps.
type TaskStats struct {
	Total          int
	Pending        int
	Completed      int
	Overdue        int
	TodayCompleted int
	TodayCreated   int
	CompletionRate int // percent, 0-100
}

// DailyCounters is one row of productivity history, one per calendar day.
type DailyCounters struct {
	Date           string // YYYY-MM-DD
	CompletedCount int
	CreatedCount   int
	PendingCount   int
}

// DailyContent is the motivational quote/fact generated once per day.
type DailyContent struct {
	Date        string // YYYY-MM-DD
	Quote       string
	QuoteAuthor string
	FunFact     string
	CreatedAt   time.Time
}

// CategoryCount pairs a category with a completion count.
type CategoryCount struct {
	Category Category
	Count    int
}
