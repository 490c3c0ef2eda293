package planner

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/amarchal/majordome/internal/intelligence"
	"github.com/amarchal/majordome/internal/llm"
	"github.com/amarchal/majordome/internal/repository"
)

// Cache TTLs per artifact kind.
const (
	prioritizeTTL = 20 * time.Hour
	velocityTTL   = 24 * time.Hour
	decomposeTTL  = 7 * 24 * time.Hour
	reviewTTL     = 7 * 24 * time.Hour
	sessionTTL    = 20 * time.Hour
)

// minVelocitySamples is the minimum completed-task count before the
// historical average is trusted over an LLM estimate.
const minVelocitySamples = 5

// sessionMaxEvents caps the per-day session log (FIFO eviction).
const sessionMaxEvents = 20

// Engine computes prioritized orderings, deadline suggestions, task
// decompositions and weekly reviews, all mediated through the cache.
type Engine struct {
	tasks   repository.TaskRepo
	history repository.HistoryRepo
	cache   repository.CacheStore
	client  llm.Client
	extract intelligence.ExtractService
	log     zerolog.Logger
	now     func() time.Time
}

// NewEngine creates a planning engine.
func NewEngine(
	tasks repository.TaskRepo,
	history repository.HistoryRepo,
	cache repository.CacheStore,
	client llm.Client,
	extract intelligence.ExtractService,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		tasks:   tasks,
		history: history,
		cache:   cache,
		client:  client,
		extract: extract,
		log:     log,
		now:     time.Now,
	}
}

// WithClock overrides the engine's clock. Test use only.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}
