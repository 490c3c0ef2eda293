package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/amarchal/majordome/internal/domain"
)

// SQLiteHistoryRepo implements HistoryRepo on the task_history table.
type SQLiteHistoryRepo struct {
	db *sql.DB
}

// NewSQLiteHistoryRepo creates a new SQLiteHistoryRepo.
func NewSQLiteHistoryRepo(db *sql.DB) *SQLiteHistoryRepo {
	return &SQLiteHistoryRepo{db: db}
}

func (r *SQLiteHistoryRepo) Recent(ctx context.Context, days int) ([]domain.DailyCounters, error) {
	query := `SELECT date, completed_count, created_count, pending_count
		FROM task_history ORDER BY date DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("listing task history: %w", err)
	}
	defer rows.Close()

	var counters []domain.DailyCounters
	for rows.Next() {
		var c domain.DailyCounters
		if err := rows.Scan(&c.Date, &c.CompletedCount, &c.CreatedCount, &c.PendingCount); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		counters = append(counters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task history: %w", err)
	}

	// Stored newest-first for the LIMIT; callers want oldest-first.
	for i, j := 0, len(counters)-1; i < j; i, j = i+1, j-1 {
		counters[i], counters[j] = counters[j], counters[i]
	}
	return counters, nil
}

func (r *SQLiteHistoryRepo) Upsert(ctx context.Context, c domain.DailyCounters) error {
	query := `INSERT INTO task_history (date, completed_count, created_count, pending_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			completed_count = excluded.completed_count,
			created_count   = excluded.created_count,
			pending_count   = excluded.pending_count`
	if _, err := r.db.ExecContext(ctx, query, c.Date, c.CompletedCount, c.CreatedCount, c.PendingCount); err != nil {
		return fmt.Errorf("upserting task history: %w", err)
	}
	return nil
}
