package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/amarchal/majordome/internal/briefing"
	"github.com/amarchal/majordome/internal/domain"
	"github.com/amarchal/majordome/internal/intelligence"
	"github.com/amarchal/majordome/internal/repository"
)

// reminderWindow is how far ahead a deadline triggers a reminder.
const reminderWindow = time.Hour

// Runner holds the scheduler-triggered jobs. Timing is the host
// scheduler's concern; each method here is a single idempotent run.
type Runner struct {
	tasks    repository.TaskRepo
	history  repository.HistoryRepo
	content  repository.ContentRepo
	extract  intelligence.ExtractService
	notifier briefing.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

// NewRunner creates a job runner.
func NewRunner(
	tasks repository.TaskRepo,
	history repository.HistoryRepo,
	content repository.ContentRepo,
	extract intelligence.ExtractService,
	notifier briefing.Notifier,
	log zerolog.Logger,
) *Runner {
	return &Runner{
		tasks:    tasks,
		history:  history,
		content:  content,
		extract:  extract,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the runner's clock. Test use only.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// CheckDeadlineReminders notifies about pending tasks whose deadline
// falls within the next hour. A task is reminded at most once: the flag
// is only set after a successful send, so a failed delivery retries on
// the next run. Returns how many reminders went out.
func (r *Runner) CheckDeadlineReminders(ctx context.Context) (int, error) {
	now := r.now()
	due, err := r.tasks.DueForReminder(ctx, now, now.Add(reminderWindow))
	if err != nil {
		return 0, fmt.Errorf("listing tasks due for reminder: %w", err)
	}

	sent := 0
	for _, t := range due {
		msg := reminderMessage(t)
		if err := r.notifier.Send(ctx, msg); err != nil {
			r.log.Warn().Err(err).Int64("task_id", t.ID).Msg("reminder delivery failed")
			continue
		}
		if err := r.tasks.MarkReminderSent(ctx, t.ID); err != nil {
			return sent, fmt.Errorf("marking reminder sent for task %d: %w", t.ID, err)
		}
		sent++
	}
	return sent, nil
}

func reminderMessage(t *domain.Task) string {
	var b strings.Builder
	b.WriteString("⏰ Rappel, deadline proche!\n\n")
	fmt.Fprintf(&b, "%s\nCatégorie: %s\n", t.Title, t.Category)
	if t.Deadline != nil {
		fmt.Fprintf(&b, "Deadline: %s\n", t.Deadline.Format("02/01/2006 15:04"))
	}
	b.WriteString("\nIl est temps de finaliser cette tâche!")
	return b.String()
}

// SendDailyRecap snapshots the day's counters into task history and
// notifies a short evening summary. The history write happens even when
// delivery fails: the weekly review depends on it.
func (r *Runner) SendDailyRecap(ctx context.Context) error {
	now := r.now()
	stats, err := r.tasks.Stats(ctx, now)
	if err != nil {
		return fmt.Errorf("aggregating stats for recap: %w", err)
	}

	counters := domain.DailyCounters{
		Date:           now.Format("2006-01-02"),
		CompletedCount: stats.TodayCompleted,
		CreatedCount:   stats.TodayCreated,
		PendingCount:   stats.Pending,
	}
	if err := r.history.Upsert(ctx, counters); err != nil {
		return fmt.Errorf("recording daily counters: %w", err)
	}

	top, err := r.tasks.List(ctx, repository.TaskFilter{Status: domain.TaskPending, Limit: 5})
	if err != nil {
		r.log.Warn().Err(err).Msg("recap priorities unavailable")
	}

	var quote *domain.DailyContent
	if dc, err := r.content.GetByDate(ctx, counters.Date); err == nil {
		quote = dc
	}

	if err := r.notifier.Send(ctx, recapMessage(now, stats, top, quote)); err != nil {
		return fmt.Errorf("sending daily recap: %w", err)
	}
	return nil
}

func recapMessage(now time.Time, stats *domain.TaskStats, top []*domain.Task, quote *domain.DailyContent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Récap du %s\n\n", now.Format("02/01/2006"))
	fmt.Fprintf(&b, "✅ Tâches complétées aujourd'hui: %d\n", stats.TodayCompleted)
	fmt.Fprintf(&b, "📋 Tâches en attente: %d\n", stats.Pending)

	if len(top) > 0 {
		b.WriteString("\nProchaines priorités:\n")
		for _, t := range top {
			fmt.Fprintf(&b, "- [%s] %s\n", t.Priority, t.Title)
		}
	}
	if quote != nil && quote.Quote != "" {
		fmt.Fprintf(&b, "\n💭 %q\n— %s\n", quote.Quote, quote.QuoteAuthor)
	}

	b.WriteString("\nBonne soirée Alexandre! 💪")
	return b.String()
}

// GenerateDailyContent fills in today's quote and fun fact, at most once
// per day. Reports whether a new row was created.
func (r *Runner) GenerateDailyContent(ctx context.Context) (bool, error) {
	date := r.now().Format("2006-01-02")

	if _, err := r.content.GetByDate(ctx, date); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("checking daily content: %w", err)
	}

	draft, err := r.extract.GenerateDailyContent(ctx)
	if err != nil {
		return false, fmt.Errorf("generating daily content: %w", err)
	}

	err = r.content.Insert(ctx, &domain.DailyContent{
		Date:        date,
		Quote:       draft.Quote,
		QuoteAuthor: draft.Author,
		FunFact:     draft.FunFact,
		CreatedAt:   r.now(),
	})
	if err != nil {
		return false, fmt.Errorf("storing daily content: %w", err)
	}
	return true, nil
}
