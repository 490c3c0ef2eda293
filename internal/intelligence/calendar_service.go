package intelligence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amarchal/majordome/internal/domain"
	"github.com/amarchal/majordome/internal/llm"
)

// CalendarService turns natural-language event requests into calendar
// event drafts, including the clarification follow-up round.
type CalendarService interface {
	ParseEventRequest(ctx context.Context, message string, now time.Time) (*domain.CalendarEventDraft, error)
	FinalizeEventRequest(ctx context.Context, original *domain.CalendarEventDraft, userReply string) (*domain.CalendarEventDraft, error)
}

type calendarService struct {
	client   llm.Client
	timezone string
}

// NewCalendarService creates a CalendarService. timezone is an IANA name
// like "Europe/Paris" used verbatim in prompts and drafts.
func NewCalendarService(client llm.Client, timezone string) CalendarService {
	return &calendarService{client: client, timezone: timezone}
}

func (s *calendarService) ParseEventRequest(ctx context.Context, message string, now time.Time) (*domain.CalendarEventDraft, error) {
	prompt := fmt.Sprintf(`Date actuelle: %s (%s)
Message: %q

Réponds en JSON:
{
  "summary": "titre clair",
  "start_time": "YYYY-MM-DDTHH:MM:SS+02:00",
  "end_time": "YYYY-MM-DDTHH:MM:SS+02:00 ou null",
  "recurrence": "RRULE:FREQ=..." ou null,
  "timezone": %q,
  "needs_clarification": false,
  "questions": []
}

Règles:
- Si l'heure n'est pas donnée, propose 09:00 locale.
- Si récurrence (ex: "tous les lundis"), génère une RRULE valide et utilise la prochaine occurrence comme start_time.
- Si c'est ambigu, mets needs_clarification à true et ajoute 1-2 questions ciblées.
- Réponds uniquement en JSON valide.`, now.Format("2006-01-02 15:04"), s.timezone, message, s.timezone)

	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskCalendar,
		SystemPrompt: systemPromptCalendarParse,
		UserPrompt:   prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("parsing event request: %w", err)
	}

	draft, err := llm.DecodeJSON[domain.CalendarEventDraft](resp.Text, validateEventDraft)
	if err != nil {
		return nil, fmt.Errorf("parsing event request: %w", err)
	}
	if draft.Timezone == "" {
		draft.Timezone = s.timezone
	}
	return &draft, nil
}

func (s *calendarService) FinalizeEventRequest(ctx context.Context, original *domain.CalendarEventDraft, userReply string) (*domain.CalendarEventDraft, error) {
	originalJSON, err := json.Marshal(original)
	if err != nil {
		return nil, fmt.Errorf("encoding event draft: %w", err)
	}

	prompt := fmt.Sprintf(`Demande initiale:
%s

Réponse utilisateur: %q

Rends un JSON final:
{
  "summary": "titre clair",
  "start_time": "YYYY-MM-DDTHH:MM:SS+02:00",
  "end_time": "YYYY-MM-DDTHH:MM:SS+02:00 ou null",
  "recurrence": "RRULE:FREQ=..." ou null,
  "timezone": %q,
  "needs_clarification": false,
  "questions": []
}

Réponds uniquement en JSON valide.`, originalJSON, userReply, s.timezone)

	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskCalendar,
		SystemPrompt: systemPromptCalendarFinalize,
		UserPrompt:   prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("finalizing event request: %w", err)
	}

	draft, err := llm.DecodeJSON[domain.CalendarEventDraft](resp.Text, validateEventDraft)
	if err != nil {
		return nil, fmt.Errorf("finalizing event request: %w", err)
	}
	if draft.Timezone == "" {
		draft.Timezone = s.timezone
	}
	draft.NeedsClarification = false
	draft.Questions = nil
	return &draft, nil
}
