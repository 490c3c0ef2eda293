package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amarchal/majordome/internal/assistant"
	"github.com/amarchal/majordome/internal/domain"
	"github.com/amarchal/majordome/internal/intelligence"
	"github.com/amarchal/majordome/internal/planner"
)

var priorityEmoji = map[domain.Priority]string{
	domain.PriorityUrgent:    "🔴",
	domain.PriorityImportant: "🟠",
	domain.PriorityNormal:    "🟡",
}

func emojiFor(p domain.Priority) string {
	if e, ok := priorityEmoji[p]; ok {
		return e
	}
	return "⚪"
}

// FormatOutcome renders a router outcome as a French chat reply.
func FormatOutcome(out *assistant.Outcome) string {
	switch out.Kind {
	case assistant.OutcomeBriefing, assistant.OutcomeEmailSummary:
		return out.Text
	case assistant.OutcomeTaskCreated:
		return formatTaskCreated(out)
	case assistant.OutcomeClarification:
		return formatClarification(out)
	case assistant.OutcomeCancelled:
		return "❌ Annulé."
	case assistant.OutcomeTaskCompleted:
		return fmt.Sprintf("✅ Tâche terminée!\n\n~%s~\n\n🎉 Bravo Alexandre!", out.Task.Title)
	case assistant.OutcomeNoMatch:
		return fmt.Sprintf("❌ Aucune tâche trouvée pour: %s", out.Identifier)
	case assistant.OutcomeAmbiguousMatch:
		return formatAmbiguous(out)
	case assistant.OutcomeEventCreated:
		return formatEventCreated(out)
	case assistant.OutcomeTaskList:
		return FormatTaskList(out.Tasks)
	case assistant.OutcomeStats:
		return FormatStats(out.Stats)
	case assistant.OutcomeContent:
		return formatContent(out.Content)
	case assistant.OutcomeFocus:
		return formatFocus(out.Plan)
	case assistant.OutcomeWeeklyReview:
		return out.Review.Review
	default:
		return "🤔 Je n'ai pas compris."
	}
}

// FormatError maps router errors to a short user-visible notice.
func FormatError(err error) string {
	switch {
	case errors.Is(err, assistant.ErrNoEventTime):
		return "❌ Impossible de déterminer la date/heure. Reformule avec une date précise."
	case errors.Is(err, assistant.ErrNoSubject):
		return "Usage: content <sujet>"
	default:
		return fmt.Sprintf("❌ Erreur: %v", err)
	}
}

func formatTaskCreated(out *assistant.Outcome) string {
	t := out.Task

	var b strings.Builder
	b.WriteString("✅ Tâche ajoutée!\n\n")
	fmt.Fprintf(&b, "%s *%s*\n", emojiFor(t.Priority), t.Title)
	estimate := "?"
	if out.Analysis != nil && out.Analysis.TimeEstimate != "" {
		estimate = out.Analysis.TimeEstimate
	}
	fmt.Fprintf(&b, "📁 %s | ⏱️ %s\n", t.Category, estimate)
	fmt.Fprintf(&b, "🔢 ID: %d\n", t.ID)

	if out.Deadline != nil {
		fmt.Fprintf(&b, "📅 Deadline suggérée: %s (%d jours)\n", out.Deadline.SuggestedDate, out.Deadline.SuggestedDays)
	} else if t.Deadline != nil {
		fmt.Fprintf(&b, "📅 Deadline: %s\n", t.Deadline.Format("2006-01-02"))
	}
	if out.Analysis != nil && len(out.Analysis.Guide) > 0 {
		b.WriteString("\n🧭 Guide de réalisation:\n")
		for i, step := range out.Analysis.Guide {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
		}
	}
	b.WriteString("\n💡 Bonne chance!")
	return b.String()
}

func formatClarification(out *assistant.Outcome) string {
	if out.EventDraft != nil {
		var b strings.Builder
		b.WriteString("🗓️ Besoin de précisions\n\n")
		for i, q := range out.EventDraft.Questions {
			if i == 2 {
				break
			}
			fmt.Fprintf(&b, "  %d. %s\n", i+1, q)
		}
		b.WriteString("\n💬 Réponds avec les détails pour finaliser l'événement.")
		return b.String()
	}

	a := out.Analysis
	var b strings.Builder
	b.WriteString("🤖 Assistant Todo\n\n")
	b.WriteString("📝 Tâche proposée:\n")
	fmt.Fprintf(&b, "• Titre: %q\n", a.Title)
	fmt.Fprintf(&b, "• Catégorie: %s\n", domain.CategoryOrDefault(a.Category))
	fmt.Fprintf(&b, "• Priorité: %s %s\n", emojiFor(domain.PriorityOrDefault(a.Priority)), domain.PriorityOrDefault(a.Priority))
	if a.TimeEstimate != "" {
		fmt.Fprintf(&b, "• ⏱️ Temps estimé: %s\n", a.TimeEstimate)
	}
	if len(a.Guide) > 0 {
		b.WriteString("\n🧭 Guide de réalisation:\n")
		for i, step := range a.Guide {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
		}
	}
	b.WriteString("\n❓ Questions:\n")
	for i, q := range a.Questions {
		if i == 2 {
			break
		}
		fmt.Fprintf(&b, "  %d. %s\n", i+1, q)
	}
	b.WriteString("\n💬 Réponds aux questions, ou envoie *ok* pour valider tel quel, ou *annule* pour annuler.")
	return b.String()
}

func formatAmbiguous(out *assistant.Outcome) string {
	var b strings.Builder
	b.WriteString("⚠️ Plusieurs tâches correspondent:\n")
	for _, t := range out.Tasks {
		fmt.Fprintf(&b, "  • ID %d: %s\n", t.ID, t.Title)
	}
	b.WriteString("\nPrécise l'ID: /done <id>")
	return b.String()
}

func formatEventCreated(out *assistant.Outcome) string {
	var b strings.Builder
	b.WriteString("✅ Événement créé\n\n")
	fmt.Fprintf(&b, "🗓️ %s\n", out.Event.Summary)
	if out.EventDraft != nil && out.EventDraft.StartTime != "" {
		fmt.Fprintf(&b, "📅 %s\n", out.EventDraft.StartTime)
	}
	if out.EventDraft != nil && out.EventDraft.Recurrence != "" {
		fmt.Fprintf(&b, "🔁 %s\n", out.EventDraft.Recurrence)
	}
	if out.Event.Link != "" {
		fmt.Fprintf(&b, "\n🔗 %s", out.Event.Link)
	}
	return b.String()
}

// FormatTaskList renders pending tasks grouped by priority tier.
func FormatTaskList(tasks []*domain.Task) string {
	if len(tasks) == 0 {
		return "📭 Aucune tâche en attente. Profite!"
	}

	byPriority := map[domain.Priority][]*domain.Task{}
	for _, t := range tasks {
		byPriority[t.Priority] = append(byPriority[t.Priority], t)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 Tâches en attente (%d)\n", len(tasks))
	for _, p := range []domain.Priority{domain.PriorityUrgent, domain.PriorityImportant, domain.PriorityNormal} {
		group := byPriority[p]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s %s:\n", emojiFor(p), strings.ToUpper(string(p)))
		for _, t := range group {
			fmt.Fprintf(&b, "  • [%d] %s", t.ID, t.Title)
			if t.Deadline != nil {
				fmt.Fprintf(&b, " (📅 %s)", t.Deadline.Format("02/01"))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FormatStats renders the dashboard numbers with a completion bar.
func FormatStats(s *domain.TaskStats) string {
	var b strings.Builder
	b.WriteString("📊 Statistiques\n\n")
	fmt.Fprintf(&b, "📋 Total: %d\n", s.Total)
	fmt.Fprintf(&b, "⏳ En attente: %d\n", s.Pending)
	fmt.Fprintf(&b, "✅ Complétées: %d\n", s.Completed)
	fmt.Fprintf(&b, "⚠️ En retard: %d\n", s.Overdue)
	fmt.Fprintf(&b, "🎯 Aujourd'hui: %d complétées\n", s.TodayCompleted)
	fmt.Fprintf(&b, "\n%s %d%%", progressBar(s.CompletionRate, 10), s.CompletionRate)
	return b.String()
}

func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func formatContent(c *intelligence.ContentBundle) string {
	return fmt.Sprintf("🐦 Tweet:\n%s\n\n💼 LinkedIn:\n%s", c.Tweet, c.LinkedIn)
}

// FormatPlan renders the full day plan, one numbered line per priority.
func FormatPlan(plan *planner.DailyPlan) string {
	if len(plan.Priorities) == 0 {
		return "📭 " + plan.Summary
	}

	var b strings.Builder
	b.WriteString("📋 Plan du jour\n\n")
	for i, p := range plan.Priorities {
		fmt.Fprintf(&b, "%d. %s\n   💡 %s\n", i+1, p.Title, p.Reason)
	}
	fmt.Fprintf(&b, "\n%s", plan.Summary)
	return b.String()
}

// FormatDecomposition renders a subtask breakdown.
func FormatDecomposition(d *planner.Decomposition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔨 Découpage: %s\n\n", d.ParentTitle)
	for i, s := range d.Subtasks {
		fmt.Fprintf(&b, "%d. %s %s", i+1, emojiFor(domain.PriorityOrDefault(s.Priority)), s.Title)
		if s.EstimatedTime != "" {
			fmt.Fprintf(&b, " (⏱️ %s)", s.EstimatedTime)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nAttaque la première! 💪")
	return b.String()
}

func formatFocus(plan *planner.DailyPlan) string {
	if len(plan.Priorities) == 0 {
		return "📭 Rien à prioriser. " + plan.Summary
	}
	top := plan.Priorities[0]
	return fmt.Sprintf("🎯 Focus du moment:\n\n*%s*\n💡 %s\n\n%s", top.Title, top.Reason, plan.Summary)
}
