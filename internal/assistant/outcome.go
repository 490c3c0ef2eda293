package assistant

import (
	"github.com/amarchal/majordome/internal/domain"
	"github.com/amarchal/majordome/internal/intelligence"
	"github.com/amarchal/majordome/internal/planner"
)

// OutcomeKind says what the router did with a message. Shells switch on
// it to pick a reply format; the core never produces chat markup.
type OutcomeKind string

const (
	OutcomeBriefing       OutcomeKind = "briefing"
	OutcomeEmailSummary   OutcomeKind = "email_summary"
	OutcomeTaskCreated    OutcomeKind = "task_created"
	OutcomeClarification  OutcomeKind = "clarification"
	OutcomeCancelled      OutcomeKind = "cancelled"
	OutcomeTaskCompleted  OutcomeKind = "task_completed"
	OutcomeNoMatch        OutcomeKind = "no_match"
	OutcomeAmbiguousMatch OutcomeKind = "ambiguous_match"
	OutcomeEventCreated   OutcomeKind = "event_created"
	OutcomeTaskList       OutcomeKind = "task_list"
	OutcomeStats          OutcomeKind = "stats"
	OutcomeContent        OutcomeKind = "content"
	OutcomeFocus          OutcomeKind = "focus"
	OutcomeWeeklyReview   OutcomeKind = "weekly_review"
)

// Outcome is the typed result of handling one inbound message. Only the
// fields relevant to the Kind are set.
type Outcome struct {
	Kind OutcomeKind

	// Text carries narrative payloads: briefing, email summary, review.
	Text string

	// Task is the created or completed task.
	Task *domain.Task

	// Analysis accompanies task creation and clarification: guide steps,
	// time estimate, open questions.
	Analysis *intelligence.TaskAnalysis

	// Deadline is the suggestion attached when the analysis had none.
	Deadline *planner.DeadlineSuggestion

	// EventDraft and Event cover the calendar track.
	EventDraft *domain.CalendarEventDraft
	Event      *domain.CalendarEvent

	// Tasks carries listings and disambiguation candidates.
	Tasks []*domain.Task

	Stats   *domain.TaskStats
	Plan    *planner.DailyPlan
	Review  *planner.WeeklyReview
	Content *intelligence.ContentBundle

	// Identifier is the unmatched completion target for no_match.
	Identifier string
}
