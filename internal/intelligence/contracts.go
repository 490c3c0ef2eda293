package intelligence

import (
	"fmt"

	"github.com/amarchal/majordome/internal/domain"
)

// TaskDraft is the one-shot extraction of a task from free text.
type TaskDraft struct {
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Priority string  `json:"priority"`
	Deadline *string `json:"deadline"` // YYYY-MM-DD or null
}

// TaskAnalysis is the richer planning variant: it carries an actionable
// guide and decides whether clarification is required before creation.
type TaskAnalysis struct {
	Title              string   `json:"title"`
	Category           string   `json:"category"`
	Priority           string   `json:"priority"`
	TimeEstimate       string   `json:"time_estimate"`
	Deadline           *string  `json:"deadline"`
	Guide              []string `json:"guide"`
	Questions          []string `json:"questions"`
	NeedsClarification bool     `json:"needs_clarification"`
}

// MatchType says how a completion target should be looked up.
type MatchType string

const (
	MatchByID           MatchType = "id"
	MatchByTitlePartial MatchType = "title_partial"
)

// CompletionTarget identifies which task the user wants to mark done.
type CompletionTarget struct {
	Identifier string    `json:"task_identifier"`
	MatchType  MatchType `json:"match_type"`
}

// EmailActionItem is a concrete follow-up extracted from an email batch.
type EmailActionItem struct {
	Title    string  `json:"title"`
	DueDate  *string `json:"due_date"`
	Priority string  `json:"priority"`
}

// EmailDigest is the LLM summary of a batch of fetched emails.
type EmailDigest struct {
	Summary     string            `json:"summary"`
	ActionItems []EmailActionItem `json:"action_items"`
}

// DeadlineEstimate is the LLM's whole-day duration guess for a task.
type DeadlineEstimate struct {
	Days   int    `json:"days"`
	Reason string `json:"reason"`
}

// ContentBundle is generated social content for one subject.
type ContentBundle struct {
	Tweet    string `json:"tweet_easynode"`
	LinkedIn string `json:"linkedin_souverain"`
}

// DailyContentDraft is the generated quote/fact pair for one day.
type DailyContentDraft struct {
	Quote   string `json:"quote"`
	Author  string `json:"author"`
	FunFact string `json:"fun_fact"`
}

func validateTaskDraft(d TaskDraft) error {
	if d.Title == "" {
		return fmt.Errorf("title field is required")
	}
	return nil
}

func validateTaskAnalysis(a TaskAnalysis) error {
	if a.Title == "" {
		return fmt.Errorf("title field is required")
	}
	if a.NeedsClarification && len(a.Questions) == 0 {
		return fmt.Errorf("needs_clarification set but no questions given")
	}
	return nil
}

func validateCompletionTarget(t CompletionTarget) error {
	if t.Identifier == "" {
		return fmt.Errorf("task_identifier field is required")
	}
	if t.MatchType != MatchByID && t.MatchType != MatchByTitlePartial {
		return fmt.Errorf("match_type must be %q or %q, got %q", MatchByID, MatchByTitlePartial, t.MatchType)
	}
	return nil
}

func validateEventDraft(d domain.CalendarEventDraft) error {
	if d.Summary == "" {
		return fmt.Errorf("summary field is required")
	}
	if !d.NeedsClarification && d.StartTime == "" {
		return fmt.Errorf("start_time is required when no clarification is needed")
	}
	return nil
}

func validateDailyContent(c DailyContentDraft) error {
	if c.Quote == "" {
		return fmt.Errorf("quote field is required")
	}
	return nil
}
