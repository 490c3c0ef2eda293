package conversation

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amarchal/majordome/internal/domain"
	"github.com/amarchal/majordome/internal/intelligence"
)

// Kind says which clarification track a pending exchange belongs to.
type Kind string

const (
	KindTask  Kind = "task_clarification"
	KindEvent Kind = "event_clarification"
)

// ExchangeTTL is how long a clarification waits for an answer before
// being silently dropped.
const ExchangeTTL = 5 * time.Minute

// PendingExchange is one awaiting-answer clarification. A chat holds at
// most one exchange at a time, whichever track it belongs to.
type PendingExchange struct {
	ID              string
	ChatID          int64
	Kind            Kind
	OriginalMessage string
	TaskDraft       *intelligence.TaskAnalysis
	EventDraft      *domain.CalendarEventDraft
	CreatedAt       time.Time
}

// ReplyKind classifies a follow-up message against the lexicons.
type ReplyKind int

const (
	ReplyCancel ReplyKind = iota
	ReplyAccept
	ReplyAnswer
)

var cancelLexicon = map[string]bool{
	"annule": true, "annuler": true, "cancel": true, "non": true, "stop": true,
}

var acceptLexicon = map[string]bool{
	"ok": true, "oui": true, "yes": true, "valide": true, "valider": true, "go": true, "👍": true,
}

// ClassifyReply matches a follow-up against the cancel and accept
// lexicons. Anything else is treated as an answer to the questions.
func ClassifyReply(text string) ReplyKind {
	normalized := strings.ToLower(strings.TrimSpace(text))
	switch {
	case cancelLexicon[normalized]:
		return ReplyCancel
	case acceptLexicon[normalized]:
		return ReplyAccept
	default:
		return ReplyAnswer
	}
}

// Manager holds the per-chat pending exchanges. State is keyed strictly
// by chat id and access is serialized per chat, so two concurrent replies
// can never both consume the same exchange.
type Manager struct {
	mu        sync.Mutex
	exchanges map[int64]*PendingExchange
	chatLocks map[int64]*sync.Mutex
	now       func() time.Time
}

// NewManager creates an empty Manager using the wall clock.
func NewManager() *Manager {
	return &Manager{
		exchanges: make(map[int64]*PendingExchange),
		chatLocks: make(map[int64]*sync.Mutex),
		now:       time.Now,
	}
}

// WithClock overrides the manager's clock. Test use only.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// LockChat acquires the per-chat mutex and returns its release func.
// Callers hold it for the whole handling of one inbound message.
func (m *Manager) LockChat(chatID int64) func() {
	m.mu.Lock()
	l, ok := m.chatLocks[chatID]
	if !ok {
		l = &sync.Mutex{}
		m.chatLocks[chatID] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// BeginTask stores a task clarification, replacing any previous exchange.
func (m *Manager) BeginTask(chatID int64, originalMessage string, draft *intelligence.TaskAnalysis) *PendingExchange {
	return m.begin(&PendingExchange{
		ChatID:          chatID,
		Kind:            KindTask,
		OriginalMessage: originalMessage,
		TaskDraft:       draft,
	})
}

// BeginEvent stores an event clarification, replacing any previous exchange.
func (m *Manager) BeginEvent(chatID int64, originalMessage string, draft *domain.CalendarEventDraft) *PendingExchange {
	return m.begin(&PendingExchange{
		ChatID:          chatID,
		Kind:            KindEvent,
		OriginalMessage: originalMessage,
		EventDraft:      draft,
	})
}

func (m *Manager) begin(ex *PendingExchange) *PendingExchange {
	ex.ID = uuid.New().String()
	ex.CreatedAt = m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.exchanges[ex.ChatID] = ex
	return ex
}

// Take removes and returns the chat's pending exchange. Expired exchanges
// are dropped as a side effect and reported as absent; this check runs
// before any other routing decision on an inbound message.
func (m *Manager) Take(chatID int64) (*PendingExchange, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ex, ok := m.exchanges[chatID]
	if !ok {
		return nil, false
	}
	delete(m.exchanges, chatID)
	if m.now().Sub(ex.CreatedAt) > ExchangeTTL {
		return nil, false
	}
	return ex, true
}

// Peek reports whether a live exchange exists without consuming it.
// Expired exchanges are dropped as a side effect.
func (m *Manager) Peek(chatID int64) (*PendingExchange, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ex, ok := m.exchanges[chatID]
	if !ok {
		return nil, false
	}
	if m.now().Sub(ex.CreatedAt) > ExchangeTTL {
		delete(m.exchanges, chatID)
		return nil, false
	}
	return ex, true
}

// Clear drops the chat's pending exchange, if any.
func (m *Manager) Clear(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.exchanges, chatID)
}
