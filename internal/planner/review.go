package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/amarchal/majordome/internal/domain"
	"github.com/amarchal/majordome/internal/llm"
)

// WeeklyStats are the aggregated numbers behind a weekly review.
type WeeklyStats struct {
	Completed  int                    `json:"completed"`
	Created    int                    `json:"created"`
	AvgPending int                    `json:"avg_pending"`
	Overdue    int                    `json:"overdue"`
	ByCategory []domain.CategoryCount `json:"by_category"`
}

// WeeklyReview is the narrative review plus its underlying stats.
type WeeklyReview struct {
	Review      string      `json:"review"`
	Stats       WeeklyStats `json:"stats"`
	Week        string      `json:"week"` // e.g. "2024-W18"
	GeneratedAt time.Time   `json:"generated_at"`
}

// GenerateWeeklyReview aggregates the last 7 days of counters plus a live
// category breakdown and overdue count into a narrative review. On LLM
// failure the review degrades to a single templated sentence; either way
// the result is cached for the ISO week.
func (e *Engine) GenerateWeeklyReview(ctx context.Context) (*WeeklyReview, error) {
	now := e.now()
	key := domain.WeeklyReviewKey(now)

	if entry, err := e.cache.Get(ctx, key); err == nil {
		var r WeeklyReview
		if err := json.Unmarshal(entry.Payload, &r); err == nil {
			return &r, nil
		}
	}

	history, err := e.history.Recent(ctx, 7)
	if err != nil {
		return nil, fmt.Errorf("loading task history: %w", err)
	}

	stats := WeeklyStats{}
	for _, h := range history {
		stats.Completed += h.CompletedCount
		stats.Created += h.CreatedCount
		stats.AvgPending += h.PendingCount
	}
	if len(history) > 0 {
		stats.AvgPending = (stats.AvgPending + len(history)/2) / len(history)
	}

	if byCategory, err := e.tasks.CompletedByCategorySince(ctx, now.AddDate(0, 0, -7)); err == nil {
		stats.ByCategory = byCategory
	} else {
		e.log.Warn().Err(err).Msg("category breakdown unavailable")
	}
	if overdue, err := e.tasks.OverdueCount(ctx, now); err == nil {
		stats.Overdue = overdue
	} else {
		e.log.Warn().Err(err).Msg("overdue count unavailable")
	}

	year, week := now.ISOWeek()
	weekKey := fmt.Sprintf("%d-W%02d", year, week)

	reviewText, err := e.narrateReview(ctx, weekKey, stats)
	if err != nil {
		e.log.Warn().Err(err).Msg("llm weekly review failed, using templated fallback")
		reviewText = fmt.Sprintf("Bilan semaine %s: %d tâches complétées, %d créées, %d en retard.",
			weekKey, stats.Completed, stats.Created, stats.Overdue)
	}

	result := &WeeklyReview{
		Review:      reviewText,
		Stats:       stats,
		Week:        weekKey,
		GeneratedAt: now,
	}
	if payload, err := json.Marshal(result); err == nil {
		if err := e.cache.Set(ctx, key, domain.CacheWeeklyReview, payload, reviewTTL, nil); err != nil {
			e.log.Warn().Err(err).Msg("caching weekly review failed")
		}
	}
	return result, nil
}

func (e *Engine) narrateReview(ctx context.Context, weekKey string, stats WeeklyStats) (string, error) {
	var categories []string
	for _, c := range stats.ByCategory {
		categories = append(categories, fmt.Sprintf("%s(%d)", c.Category, c.Count))
	}

	prompt := fmt.Sprintf(`Semaine %s:
- Complétées: %d
- Créées: %d
- Pending moyen: %d
- En retard: %d
- Par catégorie: %s

Génère un bilan hebdomadaire concis (5-8 lignes):
1. Résumé de la semaine (productif? en retard?)
2. Points forts
3. Points d'amélioration
4. Objectif pour la semaine prochaine

Sois direct et motivant.`,
		weekKey, stats.Completed, stats.Created, stats.AvgPending, stats.Overdue,
		strings.Join(categories, ", "))

	resp, err := e.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskReview,
		SystemPrompt: "Tu fais des bilans hebdomadaires de productivité. Concis et motivant. Tutoie Alexandre.",
		UserPrompt:   prompt,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}
