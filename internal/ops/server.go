package ops

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/amarchal/majordome/internal/repository"
)

// Server exposes the operational endpoints: liveness, a status snapshot
// and a cache cleanup trigger. It never serves assistant functionality.
type Server struct {
	db      *sql.DB
	tasks   repository.TaskRepo
	cache   repository.CacheStore
	log     zerolog.Logger
	now     func() time.Time
	started time.Time
}

// NewServer creates the ops server.
func NewServer(database *sql.DB, tasks repository.TaskRepo, cache repository.CacheStore, log zerolog.Logger) *Server {
	s := &Server{
		db:    database,
		tasks: tasks,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
	s.started = s.now()
	return s
}

// WithClock overrides the server's clock. Test use only.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	s.started = now()
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/cache/cleanup", s.handleCacheCleanup).Methods(http.MethodPost)
	return r
}

// ListenAndServe blocks until the context is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info().Str("addr", addr).Msg("ops server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	UptimeSeconds  int64 `json:"uptime_seconds"`
	Total          int   `json:"total_tasks"`
	Pending        int   `json:"pending_tasks"`
	Overdue        int   `json:"overdue_tasks"`
	TodayCompleted int   `json:"today_completed"`
	CompletionRate int   `json:"completion_rate"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	stats, err := s.tasks.Stats(r.Context(), now)
	if err != nil {
		s.log.Error().Err(err).Msg("status aggregation failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		UptimeSeconds:  int64(now.Sub(s.started).Seconds()),
		Total:          stats.Total,
		Pending:        stats.Pending,
		Overdue:        stats.Overdue,
		TodayCompleted: stats.TodayCompleted,
		CompletionRate: stats.CompletionRate,
	})
}

func (s *Server) handleCacheCleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := s.cache.CleanupExpired(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("cache cleanup failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
