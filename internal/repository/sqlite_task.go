package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/amarchal/majordome/internal/domain"
)

// SQLiteTaskRepo implements TaskRepo using a SQLite database.
type SQLiteTaskRepo struct {
	db *sql.DB
}

// NewSQLiteTaskRepo creates a new SQLiteTaskRepo.
func NewSQLiteTaskRepo(db *sql.DB) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: db}
}

const taskColumns = `id, title, description, category, priority, status,
	deadline, reminder_sent, created_at, updated_at, completed_at`

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	query := `INSERT INTO todos (title, description, category, priority, status, deadline, reminder_sent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		t.Title,
		t.Description,
		t.Category,
		t.Priority,
		t.Status,
		nullableTimeToString(t.Deadline),
		boolToInt(t.ReminderSent),
		t.CreatedAt.Format(time.RFC3339),
		t.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading task id: %w", err)
	}
	t.ID = id
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM todos WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return r.scanTask(row)
}

func (r *SQLiteTaskRepo) List(ctx context.Context, f TaskFilter) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM todos WHERE 1=1`
	var args []interface{}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	query += ` ORDER BY
		CASE priority WHEN 'urgent' THEN 0 WHEN 'important' THEN 1 ELSE 2 END,
		created_at ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()
	return r.scanTasks(rows)
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	query := `UPDATE todos
		SET title = ?, description = ?, category = ?, priority = ?, status = ?,
		    deadline = ?, reminder_sent = ?, updated_at = ?, completed_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		t.Title,
		t.Description,
		t.Category,
		t.Priority,
		t.Status,
		nullableTimeToString(t.Deadline),
		boolToInt(t.ReminderSent),
		t.UpdatedAt.Format(time.RFC3339),
		nullableTimeToString(t.CompletedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", t.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteTaskRepo) Complete(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE todos
		SET status = 'completed', completed_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`
	ts := at.Format(time.RFC3339)
	res, err := r.db.ExecContext(ctx, query, ts, ts, id)
	if err != nil {
		return fmt.Errorf("completing task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking completion result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("pending task %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteTaskRepo) CompletionVelocity(ctx context.Context, category domain.Category) (*Velocity, error) {
	query := `SELECT AVG(julianday(completed_at) - julianday(created_at)), COUNT(*)
		FROM todos
		WHERE category = ? AND status = 'completed' AND completed_at IS NOT NULL`
	var avg sql.NullFloat64
	var count int
	if err := r.db.QueryRowContext(ctx, query, category).Scan(&avg, &count); err != nil {
		return nil, fmt.Errorf("aggregating completion velocity: %w", err)
	}
	v := &Velocity{SampleCount: count}
	if avg.Valid {
		v.AvgDays = avg.Float64
	}
	return v, nil
}

func (r *SQLiteTaskRepo) Stats(ctx context.Context, now time.Time) (*domain.TaskStats, error) {
	var s domain.TaskStats
	today := now.Format("2006-01-02")
	query := `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'pending' AND deadline IS NOT NULL AND deadline < ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'completed' AND date(completed_at) = ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN date(created_at) = ? THEN 1 ELSE 0 END), 0)
		FROM todos`
	err := r.db.QueryRowContext(ctx, query, now.Format(time.RFC3339), today, today).
		Scan(&s.Total, &s.Pending, &s.Completed, &s.Overdue, &s.TodayCompleted, &s.TodayCreated)
	if err != nil {
		return nil, fmt.Errorf("aggregating task stats: %w", err)
	}
	if s.Total > 0 {
		s.CompletionRate = s.Completed * 100 / s.Total
	}
	return &s, nil
}

func (r *SQLiteTaskRepo) CompletedByCategorySince(ctx context.Context, since time.Time) ([]domain.CategoryCount, error) {
	query := `SELECT category, COUNT(*)
		FROM todos
		WHERE status = 'completed' AND completed_at >= ?
		GROUP BY category ORDER BY COUNT(*) DESC`
	rows, err := r.db.QueryContext(ctx, query, since.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("listing completions by category: %w", err)
	}
	defer rows.Close()

	var counts []domain.CategoryCount
	for rows.Next() {
		var c domain.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning category count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category counts: %w", err)
	}
	return counts, nil
}

func (r *SQLiteTaskRepo) OverdueCount(ctx context.Context, now time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM todos
		WHERE status = 'pending' AND deadline IS NOT NULL AND deadline < ?`
	var n int
	if err := r.db.QueryRowContext(ctx, query, now.Format(time.RFC3339)).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting overdue tasks: %w", err)
	}
	return n, nil
}

func (r *SQLiteTaskRepo) DueForReminder(ctx context.Context, from, to time.Time) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM todos
		WHERE status = 'pending'
		  AND deadline IS NOT NULL
		  AND deadline >= ? AND deadline <= ?
		  AND reminder_sent = 0
		ORDER BY deadline ASC`
	rows, err := r.db.QueryContext(ctx, query, from.Format(time.RFC3339), to.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("listing tasks due for reminder: %w", err)
	}
	defer rows.Close()
	return r.scanTasks(rows)
}

func (r *SQLiteTaskRepo) MarkReminderSent(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE todos SET reminder_sent = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("marking reminder sent: %w", err)
	}
	return nil
}

// scanTask scans a single task from a *sql.Row.
func (r *SQLiteTaskRepo) scanTask(row *sql.Row) (*domain.Task, error) {
	var t domain.Task
	var deadline, completedAt sql.NullString
	var createdAtStr, updatedAtStr string
	var reminderSent int

	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Category, &t.Priority, &t.Status,
		&deadline, &reminderSent, &createdAtStr, &updatedAtStr, &completedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("task: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	return r.populateTask(&t, deadline, completedAt, createdAtStr, updatedAtStr, reminderSent)
}

// scanTasks scans multiple tasks from *sql.Rows.
func (r *SQLiteTaskRepo) scanTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		var t domain.Task
		var deadline, completedAt sql.NullString
		var createdAtStr, updatedAtStr string
		var reminderSent int

		err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &t.Category, &t.Priority, &t.Status,
			&deadline, &reminderSent, &createdAtStr, &updatedAtStr, &completedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}

		task, err := r.populateTask(&t, deadline, completedAt, createdAtStr, updatedAtStr, reminderSent)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

func (r *SQLiteTaskRepo) populateTask(t *domain.Task, deadline, completedAt sql.NullString, createdAtStr, updatedAtStr string, reminderSent int) (*domain.Task, error) {
	var err error
	t.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	t.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	t.Deadline = parseNullableTime(deadline)
	t.CompletedAt = parseNullableTime(completedAt)
	t.ReminderSent = intToBool(reminderSent)
	return t, nil
}
