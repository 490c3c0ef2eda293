package briefing

import (
	"context"

	"github.com/amarchal/majordome/internal/domain"
)

// EmailProvider fetches recent mailbox activity. Implementations talk to
// an external mail API; the aggregator treats any error as a degraded
// section, never a fatal one.
type EmailProvider interface {
	ListRecent(ctx context.Context, lookbackHours, maxResults int) ([]domain.EmailSummary, error)
	GetBody(ctx context.Context, id string) (string, error)
}

// CalendarProvider reads upcoming events and inserts confirmed ones.
type CalendarProvider interface {
	ListUpcoming(ctx context.Context, daysAhead, maxResults int) ([]domain.CalendarEvent, error)
	Insert(ctx context.Context, draft *domain.CalendarEventDraft) (*domain.CalendarEvent, error)
}

// Notifier pushes a message to the user's chat channel.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// SessionContext exposes the rolling record of today's interactions.
type SessionContext interface {
	SessionContextSummary(ctx context.Context) string
}
