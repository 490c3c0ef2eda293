package intelligence

import "strings"

// Intent is the detected purpose of an inbound message.
type Intent string

const (
	IntentDailyBriefing   Intent = "daily_briefing"
	IntentCheckEmails     Intent = "check_emails"
	IntentCreateEvent     Intent = "create_event"
	IntentAddTask         Intent = "add_task"
	IntentCompleteTask    Intent = "complete_task"
	IntentGenerateContent Intent = "generate_content"
	IntentListTasks       Intent = "list_tasks"
	IntentShowStats       Intent = "show_stats"
	IntentFocus           Intent = "focus"
	IntentWeeklyReview    Intent = "weekly_review"
)

// intentGroup binds an intent to its trigger substrings. Groups are checked
// in order and the first match wins, so broad patterns ("faire") sit behind
// more specific ones ("qu'est-ce que je dois faire").
type intentGroup struct {
	intent   Intent
	patterns []string
}

var intentGroups = []intentGroup{
	{IntentDailyBriefing, []string{
		"qu'est-ce que je dois faire",
		"quoi faire",
		"que dois-je faire",
		"what should i do",
		"briefing",
		"ma journée",
		"mon planning",
		"mes priorités",
		"par quoi commencer",
	}},
	{IntentCheckEmails, []string{
		"email", "mail", "mails", "emails", "inbox", "messagerie",
	}},
	{IntentCreateEvent, []string{
		"calendrier", "agenda", "event", "événement", "evenement",
		"meeting", "rdv", "rendez-vous", "rendez vous", "planifie", "programme",
	}},
	{IntentAddTask, []string{
		"ajoute", "add", "nouvelle", "créer", "crée", "faire", "todo", "tâche",
	}},
	{IntentCompleteTask, []string{
		"done", "fait", "terminé", "fini", "complete", "check", "✓", "✅",
	}},
	{IntentGenerateContent, []string{
		"content", "tweet", "post", "linkedin", "publie", "écris",
	}},
	{IntentListTasks, []string{
		"list", "liste", "show", "affiche",
	}},
	{IntentShowStats, []string{
		"stats", "résumé", "summary", "progression", "combien",
	}},
	{IntentFocus, []string{
		"focus", "pomodoro", "concentre", "timer", "minuteur",
	}},
	{IntentWeeklyReview, []string{
		"review", "revue", "bilan", "semaine",
	}},
}

// Classify maps free text to an Intent without any LLM call. It is a total
// function: unmatched text is treated as a new task to add.
func Classify(text string) Intent {
	lower := strings.ToLower(text)
	for _, g := range intentGroups {
		for _, p := range g.patterns {
			if strings.Contains(lower, p) {
				return g.intent
			}
		}
	}
	return IntentAddTask
}
