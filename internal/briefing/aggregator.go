package briefing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/amarchal/majordome/internal/domain"
	"github.com/amarchal/majordome/internal/intelligence"
	"github.com/amarchal/majordome/internal/llm"
	"github.com/amarchal/majordome/internal/repository"
)

const (
	briefingEmailLookbackHours = 24
	briefingEmailMax           = 10
	briefingCalendarDaysAhead  = 2
	briefingCalendarMax        = 10
)

var frenchDays = []string{"Dimanche", "Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi"}

// Aggregator assembles the morning briefing and the email digest from
// tasks, history, mailbox, calendar and the day's session context. Every
// external section degrades independently; only the task store is load
// bearing.
type Aggregator struct {
	tasks    repository.TaskRepo
	content  repository.ContentRepo
	extract  intelligence.ExtractService
	client   llm.Client
	emails   EmailProvider
	calendar CalendarProvider
	session  SessionContext
	log      zerolog.Logger
	now      func() time.Time
}

// NewAggregator creates a briefing aggregator. emails, calendar and
// session may be nil; the matching sections are then simply omitted.
func NewAggregator(
	tasks repository.TaskRepo,
	content repository.ContentRepo,
	extract intelligence.ExtractService,
	client llm.Client,
	emails EmailProvider,
	calendar CalendarProvider,
	session SessionContext,
	log zerolog.Logger,
) *Aggregator {
	return &Aggregator{
		tasks:    tasks,
		content:  content,
		extract:  extract,
		client:   client,
		emails:   emails,
		calendar: calendar,
		session:  session,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the aggregator's clock. Test use only.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// GenerateDailyBriefing answers "qu'est-ce que je dois faire ?". The LLM
// turns the assembled context into a short narrative; on failure a
// deterministic briefing is built from tasks and emails alone.
func (a *Aggregator) GenerateDailyBriefing(ctx context.Context) (string, error) {
	now := a.now()

	tasks, err := a.tasks.List(ctx, repository.TaskFilter{Status: domain.TaskPending})
	if err != nil {
		return "", fmt.Errorf("listing tasks for briefing: %w", err)
	}

	var emails []domain.EmailSummary
	var emailErr error
	if a.emails != nil {
		emails, emailErr = a.emails.ListRecent(ctx, briefingEmailLookbackHours, briefingEmailMax)
		if emailErr != nil {
			a.log.Warn().Err(emailErr).Msg("email fetch failed, degrading briefing section")
		}
	}

	promptContext := a.buildContext(ctx, now, tasks, emails, emailErr)

	text, err := a.narrate(ctx, now, promptContext)
	if err != nil {
		a.log.Warn().Err(err).Msg("llm briefing failed, using deterministic fallback")
		return fallbackBriefing(now, tasks, emails), nil
	}
	return text, nil
}

// buildContext assembles the compact prompt context, one block per
// source, skipping or annotating sources that are empty or failed.
func (a *Aggregator) buildContext(ctx context.Context, now time.Time, tasks []*domain.Task, emails []domain.EmailSummary, emailErr error) string {
	var parts []string

	if dc, err := a.content.GetByDate(ctx, now.Format("2006-01-02")); err == nil && dc.Quote != "" {
		parts = append(parts, fmt.Sprintf("CITATION: %q — %s", dc.Quote, dc.QuoteAuthor))
	}

	if len(tasks) > 0 {
		parts = append(parts, taskContext(tasks))
	}

	if stats, err := a.tasks.Stats(ctx, now); err == nil {
		parts = append(parts, fmt.Sprintf("STATS: %d terminées, %d en attente, %d en retard",
			stats.Completed, stats.Pending, stats.Overdue))
	} else {
		a.log.Warn().Err(err).Msg("stats unavailable for briefing")
	}

	switch {
	case emailErr != nil:
		parts = append(parts, "EMAILS: indisponibles")
	case len(emails) > 0:
		parts = append(parts, emailContext(emails))
	}

	if a.calendar != nil {
		events, err := a.calendar.ListUpcoming(ctx, briefingCalendarDaysAhead, briefingCalendarMax)
		switch {
		case err != nil:
			a.log.Warn().Err(err).Msg("calendar fetch failed, degrading briefing section")
			parts = append(parts, "CALENDRIER: indisponible")
		case len(events) > 0:
			parts = append(parts, calendarContext(events))
		}
	}

	result := strings.Join(parts, "\n\n")

	if a.session != nil {
		if sessionCtx := a.session.SessionContextSummary(ctx); sessionCtx != "" {
			result += "\n\n" + sessionCtx
		}
	}
	return result
}

func taskContext(tasks []*domain.Task) string {
	byPriority := map[domain.Priority][]*domain.Task{}
	for _, t := range tasks {
		byPriority[t.Priority] = append(byPriority[t.Priority], t)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "TÂCHES (%d en attente):\n", len(tasks))
	if urgent := byPriority[domain.PriorityUrgent]; len(urgent) > 0 {
		fmt.Fprintf(&b, "URGENT: %s\n", joinTitles(urgent, len(urgent), 0))
	}
	if important := byPriority[domain.PriorityImportant]; len(important) > 0 {
		fmt.Fprintf(&b, "IMPORTANT: %s\n", joinTitles(important, len(important), 0))
	}
	if normal := byPriority[domain.PriorityNormal]; len(normal) > 0 {
		fmt.Fprintf(&b, "NORMAL: %s\n", joinTitles(normal, 5, 30))
	}
	return b.String()
}

func emailContext(emails []domain.EmailSummary) string {
	var unread, important []domain.EmailSummary
	for _, e := range emails {
		if e.IsUnread {
			unread = append(unread, e)
		}
		if e.IsImportant {
			important = append(important, e)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "EMAILS (%d récents):\n", len(emails))
	if len(unread) > 0 {
		var lines []string
		for _, e := range capEmails(unread, 5) {
			lines = append(lines, fmt.Sprintf("%s: %s", senderName(e.From), truncate(e.Subject, 30)))
		}
		fmt.Fprintf(&b, "Non lus (%d): %s\n", len(unread), strings.Join(lines, ", "))
	}
	if len(important) > 0 {
		var subjects []string
		for _, e := range capEmails(important, 3) {
			subjects = append(subjects, truncate(e.Subject, 40))
		}
		fmt.Fprintf(&b, "Importants: %s", strings.Join(subjects, ", "))
	}
	return b.String()
}

func calendarContext(events []domain.CalendarEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CALENDRIER (%d prochains):\n", len(events))
	for i, e := range events {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "- %s: %s\n", e.Start.Format("02/01 15:04"), e.Summary)
	}
	return b.String()
}

func (a *Aggregator) narrate(ctx context.Context, now time.Time, promptContext string) (string, error) {
	prompt := fmt.Sprintf(`Date: %s %s
User: Alexandre, CPO EasyNode (IA souveraine)

%s

Génère un briefing matinal en 5-8 lignes:
1. Salutation + météo productivité
2. Citation inspirante (si fournie)
3. Top priorités
4. Emails (si pertinent)
5. Conseil du jour

Sois direct, motivant, concis.`,
		frenchDays[now.Weekday()], now.Format("02/01/2006 15:04"), promptContext)

	resp, err := a.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskBriefing,
		SystemPrompt: "Tu es l'assistant personnel d'Alexandre. Briefings concis, motivants, actionnables. Tutoie.",
		UserPrompt:   prompt,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// fallbackBriefing builds the no-LLM briefing from tasks and emails only.
func fallbackBriefing(now time.Time, tasks []*domain.Task, emails []domain.EmailSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 %s %s\n\n", frenchDays[now.Weekday()], now.Format("02/01/2006"))

	if len(tasks) > 0 {
		var top []*domain.Task
		for _, t := range tasks {
			if t.Priority == domain.PriorityUrgent {
				top = append(top, t)
			}
		}
		for _, t := range tasks {
			if t.Priority == domain.PriorityImportant {
				top = append(top, t)
			}
		}
		if len(top) > 3 {
			top = top[:3]
		}

		b.WriteString("🎯 Priorités du jour:\n")
		for _, t := range top {
			marker := "🟠"
			if t.Priority == domain.PriorityUrgent {
				marker = "🔴"
			}
			fmt.Fprintf(&b, "%s %s\n", marker, t.Title)
		}
		fmt.Fprintf(&b, "\n📊 %d tâches en attente\n", len(tasks))
	}

	unread := 0
	for _, e := range emails {
		if e.IsUnread {
			unread++
		}
	}
	if unread > 0 {
		fmt.Fprintf(&b, "\n📬 %d emails non lus\n", unread)
	}

	b.WriteString("\n💪 Bonne journée Alexandre!")
	return b.String()
}

func joinTitles(tasks []*domain.Task, max, titleLen int) string {
	var titles []string
	for i, t := range tasks {
		if i == max {
			break
		}
		title := t.Title
		if titleLen > 0 {
			title = truncate(title, titleLen)
		}
		titles = append(titles, title)
	}
	return strings.Join(titles, ", ")
}

func capEmails(emails []domain.EmailSummary, max int) []domain.EmailSummary {
	if len(emails) > max {
		return emails[:max]
	}
	return emails
}

// senderName strips the address part of a "Name <addr>" header.
func senderName(from string) string {
	if i := strings.Index(from, "<"); i >= 0 {
		from = from[:i]
	}
	return strings.TrimSpace(from)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
