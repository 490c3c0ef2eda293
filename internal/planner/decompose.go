package planner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/amarchal/majordome/internal/domain"
	"github.com/amarchal/majordome/internal/llm"
)

// Subtask is one actionable step of a decomposed task.
type Subtask struct {
	Title         string `json:"title"`
	Priority      string `json:"priority"`
	EstimatedTime string `json:"estimated_time"`
}

// Decomposition is the subtask breakdown for a parent task.
type Decomposition struct {
	Subtasks    []Subtask `json:"subtasks"`
	ParentID    int64     `json:"parent_id"`
	ParentTitle string    `json:"parent_title"`
}

// DecomposeTask breaks a task into 3-6 actionable subtasks. There is no
// deterministic fallback: decomposition without real step content is not
// useful, so LLM failure surfaces as an error and nothing is cached.
func (e *Engine) DecomposeTask(ctx context.Context, taskID int64) (*Decomposition, error) {
	key := domain.DecomposeKey(taskID)

	if entry, err := e.cache.Get(ctx, key); err == nil {
		var d Decomposition
		if err := json.Unmarshal(entry.Payload, &d); err == nil {
			return &d, nil
		}
	}

	task, err := e.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("decomposing task %d: %w", taskID, err)
	}

	description := task.Description
	if description == "" {
		description = "Aucune"
	}
	prompt := fmt.Sprintf(`Tâche: %q
Description: %s
Catégorie: %s

Décompose cette tâche en 3-6 sous-tâches concrètes et actionnables.

Réponds en JSON:
{"subtasks": [{"title": "sous-tâche claire", "priority": "normal|important", "estimated_time": "30min|1h|2h"}]}`,
		task.Title, description, task.Category)

	resp, err := e.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskDecompose,
		SystemPrompt: "Tu décomposes des tâches en sous-tâches actionnables. JSON uniquement.",
		UserPrompt:   prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("decomposing task %d: %w", taskID, err)
	}

	d, err := llm.DecodeJSON[Decomposition](resp.Text, func(d Decomposition) error {
		if len(d.Subtasks) == 0 {
			return fmt.Errorf("subtasks list is empty")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decomposing task %d: %w", taskID, err)
	}

	d.ParentID = task.ID
	d.ParentTitle = task.Title

	if payload, err := json.Marshal(d); err == nil {
		if err := e.cache.Set(ctx, key, domain.CacheDecompose, payload, decomposeTTL, &task.ID); err != nil {
			e.log.Warn().Err(err).Msg("caching decomposition failed")
		}
	}
	return &d, nil
}
