package planner

import (
	"context"
	"encoding/json"
	"math"

	"github.com/amarchal/majordome/internal/domain"
)

// DeadlineSource says which path produced a suggestion.
type DeadlineSource string

const (
	SourceVelocity DeadlineSource = "velocity"
	SourceAI       DeadlineSource = "ai"
)

// DeadlineSuggestion is a proposed deadline for a new task.
type DeadlineSuggestion struct {
	SuggestedDate string         `json:"suggested_date"` // YYYY-MM-DD
	SuggestedDays int            `json:"suggested_days"`
	Source        DeadlineSource `json:"source"`
}

// velocityPayload is the cached shape for a category's velocity.
type velocityPayload struct {
	AvgDays int `json:"avg_days"`
	Count   int `json:"count"`
}

const defaultEstimateDays = 7

// SuggestDeadline proposes a deadline for a task in the given category,
// preferring historical completion velocity over an LLM guess. The
// velocity average is only trusted with at least 5 completed samples.
func (e *Engine) SuggestDeadline(ctx context.Context, category domain.Category, title string) (*DeadlineSuggestion, error) {
	now := e.now()
	key := domain.VelocityKey(category, now)

	if entry, err := e.cache.Get(ctx, key); err == nil {
		var cached velocityPayload
		if err := json.Unmarshal(entry.Payload, &cached); err == nil && cached.AvgDays > 0 {
			return e.suggestion(cached.AvgDays, SourceVelocity), nil
		}
	}

	v, err := e.tasks.CompletionVelocity(ctx, category)
	if err != nil {
		e.log.Warn().Err(err).Str("category", string(category)).Msg("velocity aggregation failed")
	} else if v.SampleCount >= minVelocitySamples && v.AvgDays > 0 {
		days := int(math.Round(v.AvgDays))
		if days < 1 {
			days = 1
		}
		e.cacheVelocity(ctx, key, velocityPayload{AvgDays: days, Count: v.SampleCount})
		return e.suggestion(days, SourceVelocity), nil
	}

	// Not enough history: ask the LLM, defaulting on any failure.
	days := defaultEstimateDays
	if est, err := e.extract.EstimateDays(ctx, category, title); err == nil && est.Days > 0 {
		days = est.Days
	} else if err != nil {
		e.log.Warn().Err(err).Msg("llm deadline estimate failed, using default")
	}

	e.cacheVelocity(ctx, key, velocityPayload{AvgDays: days, Count: 0})
	return e.suggestion(days, SourceAI), nil
}

func (e *Engine) suggestion(days int, source DeadlineSource) *DeadlineSuggestion {
	return &DeadlineSuggestion{
		SuggestedDate: e.now().AddDate(0, 0, days).Format("2006-01-02"),
		SuggestedDays: days,
		Source:        source,
	}
}

func (e *Engine) cacheVelocity(ctx context.Context, key string, p velocityPayload) {
	payload, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, domain.CacheVelocity, payload, velocityTTL, nil); err != nil {
		e.log.Warn().Err(err).Msg("caching velocity failed")
	}
}
