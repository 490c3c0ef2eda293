package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/amarchal/majordome/internal/domain"
)

// SQLiteContentRepo implements ContentRepo on the daily_content table.
type SQLiteContentRepo struct {
	db *sql.DB
}

// NewSQLiteContentRepo creates a new SQLiteContentRepo.
func NewSQLiteContentRepo(db *sql.DB) *SQLiteContentRepo {
	return &SQLiteContentRepo{db: db}
}

func (r *SQLiteContentRepo) GetByDate(ctx context.Context, date string) (*domain.DailyContent, error) {
	query := `SELECT date, quote, quote_author, fun_fact, created_at
		FROM daily_content WHERE date = ?`
	row := r.db.QueryRowContext(ctx, query, date)

	var c domain.DailyContent
	var createdAtStr string
	if err := row.Scan(&c.Date, &c.Quote, &c.QuoteAuthor, &c.FunFact, &createdAtStr); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("daily content for %s: %w", date, ErrNotFound)
		}
		return nil, fmt.Errorf("reading daily content: %w", err)
	}
	var err error
	c.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing content created_at: %w", err)
	}
	return &c, nil
}

func (r *SQLiteContentRepo) Insert(ctx context.Context, c *domain.DailyContent) error {
	query := `INSERT INTO daily_content (date, quote, quote_author, fun_fact, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			quote        = excluded.quote,
			quote_author = excluded.quote_author,
			fun_fact     = excluded.fun_fact`
	_, err := r.db.ExecContext(ctx, query,
		c.Date, c.Quote, c.QuoteAuthor, c.FunFact, c.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting daily content: %w", err)
	}
	return nil
}
