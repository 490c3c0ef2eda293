package assistant

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/amarchal/majordome/internal/briefing"
	"github.com/amarchal/majordome/internal/conversation"
	"github.com/amarchal/majordome/internal/domain"
	"github.com/amarchal/majordome/internal/intelligence"
	"github.com/amarchal/majordome/internal/planner"
	"github.com/amarchal/majordome/internal/repository"
)

// ErrNoEventTime means an event request could not be pinned to a start
// time, even after clarification.
var ErrNoEventTime = errors.New("event start time could not be determined")

// ErrNoSubject means a content request carried no subject to write about.
var ErrNoSubject = errors.New("content subject is missing")

var completionPrefixes = []string{"fait ", "done ", "terminé ", "fini ", "✅ "}

var contentPrefixes = []string{"content ", "tweet ", "post ", "linkedin "}

// Router is the pipeline entry point: it resolves pending clarifications
// first, then classifies fresh messages and dispatches to the services.
// It returns typed Outcomes; chat markup is the shell's concern.
type Router struct {
	conv     *conversation.Manager
	extract  intelligence.ExtractService
	calendar intelligence.CalendarService
	events   briefing.CalendarProvider
	tasks    repository.TaskRepo
	planner  *planner.Engine
	briefing *briefing.Aggregator
	log      zerolog.Logger
	now      func() time.Time
}

// NewRouter creates a Router. events may be nil when no calendar backend
// is configured; event intents then fail with an explicit error.
func NewRouter(
	conv *conversation.Manager,
	extract intelligence.ExtractService,
	calendar intelligence.CalendarService,
	events briefing.CalendarProvider,
	tasks repository.TaskRepo,
	plannerEngine *planner.Engine,
	aggregator *briefing.Aggregator,
	log zerolog.Logger,
) *Router {
	return &Router{
		conv:     conv,
		extract:  extract,
		calendar: calendar,
		events:   events,
		tasks:    tasks,
		planner:  plannerEngine,
		briefing: aggregator,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the router's clock. Test use only.
func (r *Router) WithClock(now func() time.Time) *Router {
	r.now = now
	return r
}

// HandleMessage processes one inbound message for a chat. A pending
// clarification always wins over fresh classification; message handling
// is serialized per chat.
func (r *Router) HandleMessage(ctx context.Context, chatID int64, text string) (*Outcome, error) {
	unlock := r.conv.LockChat(chatID)
	defer unlock()

	if ex, ok := r.conv.Take(chatID); ok {
		return r.resolvePending(ctx, ex, text)
	}

	switch intelligence.Classify(text) {
	case intelligence.IntentDailyBriefing:
		return r.dailyBriefing(ctx)
	case intelligence.IntentCheckEmails:
		return r.emailSummary(ctx)
	case intelligence.IntentCreateEvent:
		return r.createEvent(ctx, chatID, text)
	case intelligence.IntentCompleteTask:
		return r.completeTask(ctx, text)
	case intelligence.IntentGenerateContent:
		return r.generateContent(ctx, text)
	case intelligence.IntentListTasks:
		return r.listTasks(ctx)
	case intelligence.IntentShowStats:
		return r.showStats(ctx)
	case intelligence.IntentFocus:
		return r.focus(ctx)
	case intelligence.IntentWeeklyReview:
		return r.weeklyReview(ctx)
	default:
		return r.smartAddTask(ctx, chatID, text)
	}
}

// resolvePending routes a follow-up to the consumed exchange's track.
func (r *Router) resolvePending(ctx context.Context, ex *conversation.PendingExchange, reply string) (*Outcome, error) {
	if ex.Kind == conversation.KindEvent {
		return r.resolvePendingEvent(ctx, ex, reply)
	}
	return r.resolvePendingTask(ctx, ex, reply)
}

func (r *Router) resolvePendingTask(ctx context.Context, ex *conversation.PendingExchange, reply string) (*Outcome, error) {
	switch conversation.ClassifyReply(reply) {
	case conversation.ReplyCancel:
		return &Outcome{Kind: OutcomeCancelled}, nil
	case conversation.ReplyAccept:
		return r.createFromAnalysis(ctx, ex.TaskDraft, nil)
	default:
		final, err := r.extract.FinalizeTask(ctx, ex.TaskDraft, reply)
		if err != nil {
			return nil, fmt.Errorf("finalizing task: %w", err)
		}
		return r.createFromAnalysis(ctx, final, nil)
	}
}

// resolvePendingEvent has no accept shortcut: everything that is not a
// cancellation is fed back to extraction as the clarification answer.
func (r *Router) resolvePendingEvent(ctx context.Context, ex *conversation.PendingExchange, reply string) (*Outcome, error) {
	if conversation.ClassifyReply(reply) == conversation.ReplyCancel {
		return &Outcome{Kind: OutcomeCancelled}, nil
	}

	final, err := r.calendar.FinalizeEventRequest(ctx, ex.EventDraft, reply)
	if err != nil {
		return nil, fmt.Errorf("finalizing event: %w", err)
	}
	if final.NeedsClarification || final.StartTime == "" {
		return nil, ErrNoEventTime
	}
	return r.insertEvent(ctx, final)
}

func (r *Router) dailyBriefing(ctx context.Context) (*Outcome, error) {
	text, err := r.briefing.GenerateDailyBriefing(ctx)
	if err != nil {
		return nil, err
	}
	return &Outcome{Kind: OutcomeBriefing, Text: text}, nil
}

func (r *Router) emailSummary(ctx context.Context) (*Outcome, error) {
	text, err := r.briefing.CheckEmailsSummary(ctx)
	if err != nil {
		return nil, err
	}
	return &Outcome{Kind: OutcomeEmailSummary, Text: text}, nil
}

// smartAddTask analyzes the message with today's session context. A
// clarification request parks the draft; otherwise the task is created
// immediately, enriched with a deadline suggestion when the analysis
// carries none.
func (r *Router) smartAddTask(ctx context.Context, chatID int64, text string) (*Outcome, error) {
	sessionContext := r.planner.SessionContextSummary(ctx)

	analysis, err := r.extract.AnalyzeTask(ctx, text, sessionContext)
	if err != nil {
		return nil, fmt.Errorf("analyzing task: %w", err)
	}

	if analysis.NeedsClarification && len(analysis.Questions) > 0 {
		r.conv.BeginTask(chatID, text, analysis)
		return &Outcome{Kind: OutcomeClarification, Analysis: analysis}, nil
	}

	var suggestion *planner.DeadlineSuggestion
	if intelligence.ParseDeadline(analysis.Deadline) == nil {
		// Best effort: a failed suggestion never blocks creation.
		s, err := r.planner.SuggestDeadline(ctx, domain.CategoryOrDefault(analysis.Category), analysis.Title)
		if err != nil {
			r.log.Warn().Err(err).Msg("deadline suggestion failed")
		} else {
			suggestion = s
		}
	}
	return r.createFromAnalysis(ctx, analysis, suggestion)
}

// createFromAnalysis turns an analysis into a stored task. The guide and
// time estimate land in the description.
func (r *Router) createFromAnalysis(ctx context.Context, analysis *intelligence.TaskAnalysis, suggestion *planner.DeadlineSuggestion) (*Outcome, error) {
	now := r.now()
	deadline := intelligence.ParseDeadline(analysis.Deadline)
	if deadline == nil && suggestion != nil {
		if d, err := time.Parse("2006-01-02", suggestion.SuggestedDate); err == nil {
			deadline = &d
		}
	}

	task := &domain.Task{
		Title:       analysis.Title,
		Description: guideDescription(analysis),
		Category:    domain.CategoryOrDefault(analysis.Category),
		Priority:    domain.PriorityOrDefault(analysis.Priority),
		Status:      domain.TaskPending,
		Deadline:    deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	r.recordSession(ctx, "task_added", task.Title)
	return &Outcome{Kind: OutcomeTaskCreated, Task: task, Analysis: analysis, Deadline: suggestion}, nil
}

// guideDescription renders the analysis extras as the task description.
func guideDescription(a *intelligence.TaskAnalysis) string {
	var parts []string
	if a.TimeEstimate != "" {
		parts = append(parts, "Temps estimé: "+a.TimeEstimate)
	}
	if len(a.Guide) > 0 {
		parts = append(parts, "Guide de réalisation:")
		for i, step := range a.Guide {
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, step))
		}
	}
	return strings.Join(parts, "\n")
}

// ForceAddTask creates a task without any LLM call: priority and category
// keywords are stripped from the message, the remainder is the title.
func (r *Router) ForceAddTask(ctx context.Context, text string) (*Outcome, error) {
	title, category, priority := parseForceAdd(text)
	if title == "" {
		return nil, fmt.Errorf("task title is missing")
	}

	now := r.now()
	task := &domain.Task{
		Title:     title,
		Category:  category,
		Priority:  priority,
		Status:    domain.TaskPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	r.recordSession(ctx, "task_added", task.Title)
	return &Outcome{Kind: OutcomeTaskCreated, Task: task}, nil
}

func parseForceAdd(text string) (string, domain.Category, domain.Priority) {
	words := strings.Fields(text)
	category := domain.CategoryGeneral
	priority := domain.PriorityNormal

	var rest []string
	for _, w := range words {
		lower := strings.ToLower(w)
		switch {
		case lower == "urgent" && priority == domain.PriorityNormal:
			priority = domain.PriorityUrgent
		case lower == "important" && priority == domain.PriorityNormal:
			priority = domain.PriorityImportant
		case domain.ValidCategories[lower] && category == domain.CategoryGeneral:
			category = domain.Category(lower)
		default:
			rest = append(rest, w)
		}
	}
	return strings.Join(rest, " "), category, priority
}

func (r *Router) createEvent(ctx context.Context, chatID int64, text string) (*Outcome, error) {
	if r.events == nil {
		return nil, fmt.Errorf("no calendar backend configured")
	}

	draft, err := r.calendar.ParseEventRequest(ctx, text, r.now())
	if err != nil {
		return nil, fmt.Errorf("parsing event request: %w", err)
	}

	if draft.NeedsClarification {
		r.conv.BeginEvent(chatID, text, draft)
		return &Outcome{Kind: OutcomeClarification, EventDraft: draft}, nil
	}
	if draft.StartTime == "" {
		return nil, ErrNoEventTime
	}
	return r.insertEvent(ctx, draft)
}

func (r *Router) insertEvent(ctx context.Context, draft *domain.CalendarEventDraft) (*Outcome, error) {
	if r.events == nil {
		return nil, fmt.Errorf("no calendar backend configured")
	}
	event, err := r.events.Insert(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("inserting calendar event: %w", err)
	}

	r.recordSession(ctx, "event_created", event.Summary)
	return &Outcome{Kind: OutcomeEventCreated, Event: event, EventDraft: draft}, nil
}

// completeTask resolves which pending task the user means. Numeric
// identifiers match by id, anything else by case-insensitive substring;
// multiple candidates surface as a disambiguation, not a failure.
func (r *Router) completeTask(ctx context.Context, text string) (*Outcome, error) {
	identifier := completionIdentifier(ctx, r.extract, text)

	pending, err := r.tasks.List(ctx, repository.TaskFilter{Status: domain.TaskPending})
	if err != nil {
		return nil, fmt.Errorf("listing pending tasks: %w", err)
	}
	if len(pending) == 0 {
		return &Outcome{Kind: OutcomeNoMatch, Identifier: identifier}, nil
	}

	var matches []*domain.Task
	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		for _, t := range pending {
			if t.ID == id {
				matches = append(matches, t)
			}
		}
	} else {
		needle := strings.ToLower(identifier)
		for _, t := range pending {
			if strings.Contains(strings.ToLower(t.Title), needle) {
				matches = append(matches, t)
			}
		}
	}

	switch len(matches) {
	case 0:
		return &Outcome{Kind: OutcomeNoMatch, Identifier: identifier}, nil
	case 1:
		task := matches[0]
		if err := r.tasks.Complete(ctx, task.ID, r.now()); err != nil {
			return nil, fmt.Errorf("completing task %d: %w", task.ID, err)
		}
		r.recordSession(ctx, "task_completed", task.Title)
		return &Outcome{Kind: OutcomeTaskCompleted, Task: task}, nil
	default:
		return &Outcome{Kind: OutcomeAmbiguousMatch, Tasks: matches, Identifier: identifier}, nil
	}
}

// completionIdentifier extracts what the user wants done. The LLM
// resolver goes first; on failure a deterministic prefix strip applies.
func completionIdentifier(ctx context.Context, extract intelligence.ExtractService, text string) string {
	if target, err := extract.ResolveCompletionTarget(ctx, text); err == nil && target.Identifier != "" {
		return target.Identifier
	}

	lower := strings.ToLower(text)
	for _, prefix := range completionPrefixes {
		if i := strings.Index(lower, prefix); i >= 0 {
			return strings.TrimSpace(text[i+len(prefix):])
		}
	}
	return strings.TrimSpace(text)
}

// generateContent has no fallback: fabricated social copy is worse than
// an error.
func (r *Router) generateContent(ctx context.Context, text string) (*Outcome, error) {
	subject := contentSubject(text)
	if subject == "" {
		return nil, ErrNoSubject
	}

	bundle, err := r.extract.GenerateSocialContent(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}
	return &Outcome{Kind: OutcomeContent, Content: bundle}, nil
}

func contentSubject(text string) string {
	lower := strings.ToLower(text)
	for _, prefix := range contentPrefixes {
		if i := strings.Index(lower, prefix); i >= 0 {
			return strings.TrimSpace(text[i+len(prefix):])
		}
	}
	return ""
}

func (r *Router) listTasks(ctx context.Context) (*Outcome, error) {
	tasks, err := r.tasks.List(ctx, repository.TaskFilter{Status: domain.TaskPending})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return &Outcome{Kind: OutcomeTaskList, Tasks: tasks}, nil
}

func (r *Router) showStats(ctx context.Context) (*Outcome, error) {
	stats, err := r.tasks.Stats(ctx, r.now())
	if err != nil {
		return nil, fmt.Errorf("computing stats: %w", err)
	}
	return &Outcome{Kind: OutcomeStats, Stats: stats}, nil
}

// focus surfaces the day's top suggested priority.
func (r *Router) focus(ctx context.Context) (*Outcome, error) {
	plan, err := r.planner.SuggestDailyPriorities(ctx)
	if err != nil {
		return nil, err
	}
	return &Outcome{Kind: OutcomeFocus, Plan: plan}, nil
}

func (r *Router) weeklyReview(ctx context.Context) (*Outcome, error) {
	review, err := r.planner.GenerateWeeklyReview(ctx)
	if err != nil {
		return nil, err
	}
	return &Outcome{Kind: OutcomeWeeklyReview, Review: review}, nil
}

func (r *Router) recordSession(ctx context.Context, eventType, detail string) {
	if err := r.planner.UpdateSessionContext(ctx, eventType, detail); err != nil {
		r.log.Warn().Err(err).Msg("session context update failed")
	}
}
