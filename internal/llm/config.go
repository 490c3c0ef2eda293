package llm

import (
	"os"
	"strconv"
)

// TaskType identifies the kind of LLM task being performed.
type TaskType string

const (
	TaskParse      TaskType = "parse"       // free text -> task draft
	TaskAnalyze    TaskType = "analyze"     // task draft -> full analysis
	TaskCalendar   TaskType = "calendar"    // free text -> event draft
	TaskPrioritize TaskType = "prioritize"  // pending tasks -> ranked plan
	TaskEstimate   TaskType = "estimate"    // task -> deadline estimate
	TaskDecompose  TaskType = "decompose"   // task -> subtasks
	TaskReview     TaskType = "review"      // week stats -> review text
	TaskBriefing   TaskType = "briefing"    // day state -> briefing text
	TaskEmails     TaskType = "emails"      // inbox -> digest
	TaskContent    TaskType = "content"     // -> quotes, posts, fun facts
)

// TaskConfig holds per-task LLM parameters.
type TaskConfig struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
}

// Config holds all configuration for the LLM subsystem.
type Config struct {
	Enabled    bool
	Provider   string // "ollama" or "openai"
	Endpoint   string
	Model      string
	APIKey     string
	TimeoutMs  int
	MaxRetries int
	Tasks      map[TaskType]TaskConfig
}

// DefaultConfig returns a Config with sensible defaults for a local
// Ollama instance.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		Provider:   "ollama",
		Endpoint:   "http://localhost:11434",
		Model:      "mistral",
		TimeoutMs:  15000,
		MaxRetries: 1,
		Tasks: map[TaskType]TaskConfig{
			TaskParse:      {Temperature: 0.1, MaxTokens: 512, TimeoutMs: 10000},
			TaskAnalyze:    {Temperature: 0.2, MaxTokens: 1024, TimeoutMs: 15000},
			TaskCalendar:   {Temperature: 0.1, MaxTokens: 512, TimeoutMs: 10000},
			TaskPrioritize: {Temperature: 0.2, MaxTokens: 1024, TimeoutMs: 20000},
			TaskEstimate:   {Temperature: 0.1, MaxTokens: 256, TimeoutMs: 10000},
			TaskDecompose:  {Temperature: 0.3, MaxTokens: 1024, TimeoutMs: 20000},
			TaskReview:     {Temperature: 0.5, MaxTokens: 1024, TimeoutMs: 30000},
			TaskBriefing:   {Temperature: 0.4, MaxTokens: 1024, TimeoutMs: 30000},
			TaskEmails:     {Temperature: 0.2, MaxTokens: 1024, TimeoutMs: 20000},
			TaskContent:    {Temperature: 0.8, MaxTokens: 1024, TimeoutMs: 30000},
		},
	}
}

// LoadConfig reads LLM configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("MAJORDOME_LLM_ENABLED"); v != "" {
		cfg.Enabled, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("MAJORDOME_LLM_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("MAJORDOME_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("MAJORDOME_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("MAJORDOME_LLM_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("MAJORDOME_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("MAJORDOME_LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}

	applyTaskTimeoutEnv(&cfg, TaskParse, "MAJORDOME_LLM_PARSE_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskAnalyze, "MAJORDOME_LLM_ANALYZE_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskCalendar, "MAJORDOME_LLM_CALENDAR_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskPrioritize, "MAJORDOME_LLM_PRIORITIZE_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskEstimate, "MAJORDOME_LLM_ESTIMATE_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskDecompose, "MAJORDOME_LLM_DECOMPOSE_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskReview, "MAJORDOME_LLM_REVIEW_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskBriefing, "MAJORDOME_LLM_BRIEFING_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskEmails, "MAJORDOME_LLM_EMAILS_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskContent, "MAJORDOME_LLM_CONTENT_TIMEOUT_MS")

	return cfg
}

// TaskTimeout returns the effective timeout for a given task type.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c Config) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}

func applyTaskTimeoutEnv(cfg *Config, task TaskType, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	tc := cfg.Tasks[task]
	tc.TimeoutMs = n
	cfg.Tasks[task] = tc
}
