package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/amarchal/majordome/internal/domain"
	"github.com/amarchal/majordome/internal/llm"
	"github.com/amarchal/majordome/internal/repository"
)

// PriorityItem is one ranked task in the daily plan.
type PriorityItem struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// DailyPlan is the suggested work order for the day.
type DailyPlan struct {
	Priorities []PriorityItem `json:"priorities"`
	Summary    string         `json:"summary"`
}

const prioritizeTaskCap = 20
const prioritizeResultCap = 7

var frenchDays = []string{"Dimanche", "Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi"}

// SuggestDailyPriorities ranks pending tasks for the day. The result is
// cached for the calendar day; within the TTL, repeat calls return the
// identical plan whichever path produced it.
func (e *Engine) SuggestDailyPriorities(ctx context.Context) (*DailyPlan, error) {
	now := e.now()
	key := domain.PrioritizeKey(now)

	if entry, err := e.cache.Get(ctx, key); err == nil {
		var plan DailyPlan
		if err := json.Unmarshal(entry.Payload, &plan); err == nil {
			return &plan, nil
		}
	}

	tasks, err := e.tasks.List(ctx, repository.TaskFilter{
		Status: domain.TaskPending,
		Limit:  prioritizeTaskCap,
	})
	if err != nil {
		return nil, fmt.Errorf("listing pending tasks: %w", err)
	}
	if len(tasks) == 0 {
		return &DailyPlan{Priorities: []PriorityItem{}, Summary: "Aucune tâche en attente."}, nil
	}

	plan, err := e.rankWithLLM(ctx, now, tasks)
	if err != nil {
		e.log.Warn().Err(err).Msg("llm prioritization failed, using priority-rank fallback")
		plan = fallbackPlan(tasks)
	}

	if payload, err := json.Marshal(plan); err == nil {
		if err := e.cache.Set(ctx, key, domain.CachePrioritize, payload, prioritizeTTL, nil); err != nil {
			e.log.Warn().Err(err).Msg("caching daily plan failed")
		}
	}
	return plan, nil
}

func (e *Engine) rankWithLLM(ctx context.Context, now time.Time, tasks []*domain.Task) (*DailyPlan, error) {
	prompt := fmt.Sprintf(`Date: %s %s
Tâches en attente:
%s
Propose un ordre optimal pour la journée (max %d tâches). Critères: urgence, deadlines proches, impact business.

Réponds en JSON:
{"priorities": [{"id": 1, "title": "...", "reason": "courte raison"}], "summary": "phrase motivante"}`,
		frenchDays[now.Weekday()], now.Format("02/01/2006"), buildTaskLines(tasks), prioritizeResultCap)

	resp, err := e.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskPrioritize,
		SystemPrompt: "Tu optimises l'ordre des tâches pour la productivité. JSON uniquement.",
		UserPrompt:   prompt,
	})
	if err != nil {
		return nil, err
	}

	plan, err := llm.DecodeJSON[DailyPlan](resp.Text, func(p DailyPlan) error {
		if len(p.Priorities) == 0 {
			return fmt.Errorf("priorities list is empty")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(plan.Priorities) > prioritizeResultCap {
		plan.Priorities = plan.Priorities[:prioritizeResultCap]
	}
	return &plan, nil
}

// fallbackPlan sorts the first tasks by priority rank, stable for ties,
// and uses the task's own priority label as the reason.
func fallbackPlan(tasks []*domain.Task) *DailyPlan {
	sorted := make([]*domain.Task, len(tasks))
	copy(sorted, tasks)
	if len(sorted) > prioritizeResultCap {
		sorted = sorted[:prioritizeResultCap]
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return domain.PriorityRank[sorted[i].Priority] < domain.PriorityRank[sorted[j].Priority]
	})

	items := make([]PriorityItem, 0, len(sorted))
	for _, t := range sorted {
		items = append(items, PriorityItem{ID: t.ID, Title: t.Title, Reason: string(t.Priority)})
	}
	return &DailyPlan{Priorities: items, Summary: "Ordre basé sur les priorités."}
}

func buildTaskLines(tasks []*domain.Task) string {
	var b strings.Builder
	for _, t := range tasks {
		deadline := ""
		if t.Deadline != nil {
			deadline = fmt.Sprintf(" (deadline: %s)", t.Deadline.Format("2006-01-02"))
		}
		fmt.Fprintf(&b, "- [%d] %s | %s | %s%s\n", t.ID, t.Title, t.Category, t.Priority, deadline)
	}
	return b.String()
}
