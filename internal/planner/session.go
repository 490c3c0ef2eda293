package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/amarchal/majordome/internal/domain"
)

// SessionEvent is one interaction recorded in the day's rolling context.
type SessionEvent struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

// UpdateSessionContext appends an event to today's session log. The log
// is capped; the oldest events are evicted first.
func (e *Engine) UpdateSessionContext(ctx context.Context, eventType, detail string) error {
	payload, err := json.Marshal(SessionEvent{Type: eventType, Detail: detail})
	if err != nil {
		return fmt.Errorf("encoding session event: %w", err)
	}
	key := domain.SessionKey(e.now())
	if err := e.cache.Append(ctx, key, domain.CacheSession, payload, sessionTTL, sessionMaxEvents); err != nil {
		return fmt.Errorf("appending session event: %w", err)
	}
	return nil
}

// SessionContextSummary renders the last few session events as prompt
// context. Returns "" when today has no recorded events.
func (e *Engine) SessionContextSummary(ctx context.Context) string {
	entry, err := e.cache.Get(ctx, domain.SessionKey(e.now()))
	if err != nil {
		return ""
	}

	var doc struct {
		Events []SessionEvent `json:"events"`
	}
	if err := json.Unmarshal(entry.Payload, &doc); err != nil || len(doc.Events) == 0 {
		return ""
	}

	events := doc.Events
	if len(events) > 5 {
		events = events[len(events)-5:]
	}

	var b strings.Builder
	b.WriteString("Contexte du jour:\n")
	for _, ev := range events {
		fmt.Fprintf(&b, "- %s: %s\n", ev.Type, ev.Detail)
	}
	return b.String()
}
