package intelligence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amarchal/majordome/internal/domain"
	"github.com/amarchal/majordome/internal/llm"
)

func TestParseEventRequest_Clear(t *testing.T) {
	client := &mockLLMClient{response: `{
		"summary": "Démo client",
		"start_time": "2024-05-03T14:00:00+02:00",
		"end_time": null,
		"recurrence": null,
		"timezone": "Europe/Paris",
		"needs_clarification": false,
		"questions": []
	}`}
	svc := NewCalendarService(client, "Europe/Paris")

	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	draft, err := svc.ParseEventRequest(context.Background(), "planifie la démo client demain 14h", now)
	require.NoError(t, err)
	assert.Equal(t, "Démo client", draft.Summary)
	assert.Equal(t, "2024-05-03T14:00:00+02:00", draft.StartTime)
	assert.False(t, draft.NeedsClarification)
	assert.Contains(t, client.lastReq.UserPrompt, "2024-05-02 09:00")
}

func TestParseEventRequest_Ambiguous(t *testing.T) {
	client := &mockLLMClient{response: `{
		"summary": "Meeting",
		"start_time": "",
		"timezone": "Europe/Paris",
		"needs_clarification": true,
		"questions": ["Quelle heure ?"]
	}`}
	svc := NewCalendarService(client, "Europe/Paris")

	draft, err := svc.ParseEventRequest(context.Background(), "planifie un meeting", time.Now())
	require.NoError(t, err)
	assert.True(t, draft.NeedsClarification)
	assert.Equal(t, []string{"Quelle heure ?"}, draft.Questions)
}

func TestParseEventRequest_MissingStartRejected(t *testing.T) {
	// No clarification requested and no start time is a contract violation.
	client := &mockLLMClient{response: `{"summary":"x","start_time":"","needs_clarification":false,"questions":[]}`}
	svc := NewCalendarService(client, "Europe/Paris")

	_, err := svc.ParseEventRequest(context.Background(), "x", time.Now())
	assert.ErrorIs(t, err, llm.ErrInvalidOutput)
}

func TestFinalizeEventRequest_RoundTrip(t *testing.T) {
	client := &mockLLMClient{response: `{
		"summary": "Meeting équipe",
		"start_time": "2024-05-03T10:00:00+02:00",
		"timezone": "Europe/Paris",
		"needs_clarification": false,
		"questions": []
	}`}
	svc := NewCalendarService(client, "Europe/Paris")

	original := &domain.CalendarEventDraft{
		Summary:            "Meeting équipe",
		Timezone:           "Europe/Paris",
		NeedsClarification: true,
		Questions:          []string{"Quelle heure ?"},
	}
	final, err := svc.FinalizeEventRequest(context.Background(), original, "demain 10h")
	require.NoError(t, err)
	assert.False(t, final.NeedsClarification)
	assert.Empty(t, final.Questions)
	assert.Equal(t, "2024-05-03T10:00:00+02:00", final.StartTime)
	assert.Contains(t, client.lastReq.UserPrompt, "demain 10h")
}

func TestFinalizeEventRequest_LLMFailure(t *testing.T) {
	client := &mockLLMClient{err: llm.ErrTimeout}
	svc := NewCalendarService(client, "Europe/Paris")

	_, err := svc.FinalizeEventRequest(context.Background(), &domain.CalendarEventDraft{Summary: "x"}, "10h")
	assert.ErrorIs(t, err, llm.ErrTimeout)
}
