package formatter

import (
	"fmt"
	"strings"

	"github.com/amarchal/majordome/internal/assistant"
	"github.com/amarchal/majordome/internal/domain"
	"github.com/amarchal/majordome/internal/planner"
)

// FormatOutcome renders a router outcome for the terminal.
func FormatOutcome(out *assistant.Outcome) string {
	switch out.Kind {
	case assistant.OutcomeBriefing, assistant.OutcomeEmailSummary:
		return out.Text + "\n"
	case assistant.OutcomeTaskCreated:
		return formatTaskCreated(out)
	case assistant.OutcomeClarification:
		return formatClarification(out)
	case assistant.OutcomeCancelled:
		return Dim("Annulé.") + "\n"
	case assistant.OutcomeTaskCompleted:
		return StyleGreen.Render("✓ Tâche terminée: "+out.Task.Title) + "\n"
	case assistant.OutcomeNoMatch:
		return StyleYellow.Render("Aucune tâche trouvée pour: "+out.Identifier) + "\n"
	case assistant.OutcomeAmbiguousMatch:
		return formatAmbiguous(out)
	case assistant.OutcomeEventCreated:
		return formatEventCreated(out)
	case assistant.OutcomeTaskList:
		return FormatTaskList(out.Tasks)
	case assistant.OutcomeStats:
		return FormatStats(out.Stats)
	case assistant.OutcomeContent:
		return fmt.Sprintf("%s\n%s\n\n%s\n%s\n", Header("Tweet"), out.Content.Tweet, Header("LinkedIn"), out.Content.LinkedIn)
	case assistant.OutcomeFocus:
		return formatFocus(out.Plan)
	case assistant.OutcomeWeeklyReview:
		return fmt.Sprintf("%s\n%s\n", Header("Bilan "+out.Review.Week), out.Review.Review)
	default:
		return Dim("Je n'ai pas compris.") + "\n"
	}
}

func formatTaskCreated(out *assistant.Outcome) string {
	t := out.Task
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", StyleGreen.Render("✓ Tâche ajoutée:"), Bold(t.Title))
	fmt.Fprintf(&b, "  %s  %s  %s\n", PriorityIndicator(t.Priority), Dim(string(t.Category)), Dim(fmt.Sprintf("id %d", t.ID)))
	if out.Deadline != nil {
		fmt.Fprintf(&b, "  %s\n", Dim(fmt.Sprintf("deadline suggérée: %s (%d jours, %s)",
			out.Deadline.SuggestedDate, out.Deadline.SuggestedDays, out.Deadline.Source)))
	} else if t.Deadline != nil {
		fmt.Fprintf(&b, "  %s\n", Dim("deadline: "+t.Deadline.Format("2006-01-02")))
	}
	if out.Analysis != nil {
		for i, step := range out.Analysis.Guide {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
		}
	}
	return b.String()
}

func formatClarification(out *assistant.Outcome) string {
	var b strings.Builder
	b.WriteString(StyleYellow.Render("Besoin de précisions:") + "\n")

	var questions []string
	switch {
	case out.EventDraft != nil:
		questions = out.EventDraft.Questions
	case out.Analysis != nil:
		questions = out.Analysis.Questions
	}
	for i, q := range questions {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, q)
	}
	b.WriteString(Dim("Réponds, ou \"ok\" pour valider, ou \"annule\".") + "\n")
	return b.String()
}

func formatAmbiguous(out *assistant.Outcome) string {
	var b strings.Builder
	b.WriteString(StyleYellow.Render("Plusieurs tâches correspondent:") + "\n")
	for _, t := range out.Tasks {
		fmt.Fprintf(&b, "  [%d] %s\n", t.ID, t.Title)
	}
	b.WriteString(Dim("Précise l'id: majordome done <id>") + "\n")
	return b.String()
}

func formatEventCreated(out *assistant.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", StyleGreen.Render("✓ Événement créé:"), Bold(out.Event.Summary))
	if out.EventDraft != nil && out.EventDraft.StartTime != "" {
		fmt.Fprintf(&b, "  %s\n", Dim(out.EventDraft.StartTime))
	}
	if out.Event.Link != "" {
		fmt.Fprintf(&b, "  %s\n", Dim(out.Event.Link))
	}
	return b.String()
}

// FormatTaskList renders pending tasks grouped by priority.
func FormatTaskList(tasks []*domain.Task) string {
	if len(tasks) == 0 {
		return Dim("Aucune tâche en attente.") + "\n"
	}

	byPriority := map[domain.Priority][]*domain.Task{}
	for _, t := range tasks {
		byPriority[t.Priority] = append(byPriority[t.Priority], t)
	}

	var b strings.Builder
	b.WriteString(Header(fmt.Sprintf("Tâches en attente (%d)", len(tasks))) + "\n")
	for _, p := range []domain.Priority{domain.PriorityUrgent, domain.PriorityImportant, domain.PriorityNormal} {
		group := byPriority[p]
		if len(group) == 0 {
			continue
		}
		b.WriteString("\n" + PriorityIndicator(p) + "\n")
		for _, t := range group {
			fmt.Fprintf(&b, "  [%d] %s", t.ID, t.Title)
			if t.Deadline != nil {
				b.WriteString(" " + Dim(t.Deadline.Format("02/01")))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FormatStats renders the dashboard aggregate with a completion bar.
func FormatStats(s *domain.TaskStats) string {
	var b strings.Builder
	b.WriteString(Header("Statistiques") + "\n")
	fmt.Fprintf(&b, "  total      %d\n", s.Total)
	fmt.Fprintf(&b, "  en attente %d\n", s.Pending)
	fmt.Fprintf(&b, "  complétées %d\n", s.Completed)
	fmt.Fprintf(&b, "  en retard  %d\n", s.Overdue)
	fmt.Fprintf(&b, "  %s %d%%\n", ProgressBar(s.CompletionRate, 20), s.CompletionRate)
	return b.String()
}

// ProgressBar renders a colored completion bar of the given width.
func ProgressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	return StyleGreen.Render(strings.Repeat("█", filled)) + Dim(strings.Repeat("░", width-filled))
}

// FormatPlan renders the full day plan.
func FormatPlan(plan *planner.DailyPlan) string {
	var b strings.Builder
	b.WriteString(Header("Plan du jour") + "\n")
	for i, p := range plan.Priorities {
		fmt.Fprintf(&b, "  %d. %s\n     %s\n", i+1, Bold(p.Title), Dim(p.Reason))
	}
	if plan.Summary != "" {
		b.WriteString("\n" + plan.Summary + "\n")
	}
	return b.String()
}

func formatFocus(plan *planner.DailyPlan) string {
	if len(plan.Priorities) == 0 {
		return Dim(plan.Summary) + "\n"
	}
	top := plan.Priorities[0]
	return fmt.Sprintf("%s %s\n  %s\n", StyleBlue.Render("▶ Focus:"), Bold(top.Title), Dim(top.Reason))
}

// FormatDecomposition renders a subtask breakdown.
func FormatDecomposition(d *planner.Decomposition) string {
	var b strings.Builder
	b.WriteString(Header("Découpage: "+d.ParentTitle) + "\n")
	for i, s := range d.Subtasks {
		fmt.Fprintf(&b, "  %d. %s", i+1, s.Title)
		if s.EstimatedTime != "" {
			b.WriteString(" " + Dim(s.EstimatedTime))
		}
		b.WriteString("\n")
	}
	return b.String()
}
