package domain

import "time"

// CalendarEventDraft is an unconfirmed event specification produced by
// extraction. It may carry open questions needing a follow-up answer.
type CalendarEventDraft struct {
	Summary            string   `json:"summary"`
	StartTime          string   `json:"start_time"` // RFC 3339, empty when unknown
	EndTime            string   `json:"end_time,omitempty"`
	Recurrence         string   `json:"recurrence,omitempty"` // RRULE string
	Timezone           string   `json:"timezone"`
	NeedsClarification bool     `json:"needs_clarification"`
	Questions          []string `json:"questions"`
}

// CalendarEvent is a confirmed event as returned by the calendar provider.
type CalendarEvent struct {
	ID      string
	Summary string
	Start   time.Time
	Link    string
}

// EmailSummary is one fetched email header plus snippet.
type EmailSummary struct {
	ID          string
	From        string
	Subject     string
	Date        string
	Snippet     string
	IsUnread    bool
	IsImportant bool
}
