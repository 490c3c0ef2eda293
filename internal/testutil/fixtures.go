package testutil

import (
	"time"

	"github.com/amarchal/majordome/internal/domain"
)

// Task options
type TaskOption func(*domain.Task)

func WithCategory(c domain.Category) TaskOption {
	return func(t *domain.Task) {
		t.Category = c
	}
}

func WithPriority(p domain.Priority) TaskOption {
	return func(t *domain.Task) {
		t.Priority = p
	}
}

func WithDeadline(d time.Time) TaskOption {
	return func(t *domain.Task) {
		t.Deadline = &d
	}
}

func WithCreatedAt(d time.Time) TaskOption {
	return func(t *domain.Task) {
		t.CreatedAt = d
		t.UpdatedAt = d
	}
}

func WithCompleted(at time.Time) TaskOption {
	return func(t *domain.Task) {
		t.Status = domain.TaskCompleted
		t.CompletedAt = &at
	}
}

func NewTestTask(title string, opts ...TaskOption) *domain.Task {
	now := time.Now().UTC()
	t := &domain.Task{
		Title:     title,
		Category:  domain.CategoryGeneral,
		Priority:  domain.PriorityNormal,
		Status:    domain.TaskPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}
