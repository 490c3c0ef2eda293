package llm

import (
	"github.com/rs/zerolog"
)

// CallEvent records metadata about a single LLM invocation.
type CallEvent struct {
	Task      TaskType
	Model     string
	LatencyMs int64
	Success   bool
	ErrorCode string
}

// Observer receives events about LLM calls for logging and metrics.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// ZerologObserver writes LLM call events as structured log lines.
type ZerologObserver struct {
	log zerolog.Logger
}

// NewZerologObserver creates an Observer that logs events through log.
func NewZerologObserver(log zerolog.Logger) *ZerologObserver {
	return &ZerologObserver{log: log}
}

func (o *ZerologObserver) OnCallComplete(event CallEvent) {
	e := o.log.Info()
	if !event.Success {
		e = o.log.Warn().Str("error_code", event.ErrorCode)
	}
	e.Str("task", string(event.Task)).
		Str("model", event.Model).
		Int64("latency_ms", event.LatencyMs).
		Bool("success", event.Success).
		Msg("llm_call")
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}
