package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// migrations are run in order on every startup. Statements must be
// idempotent; ALTER TABLE duplicates are tolerated by Migrate.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS todos (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		title         TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		category      TEXT NOT NULL DEFAULT 'general'
		              CHECK(category IN ('easynode','immobilier','content','personnel','admin','general')),
		priority      TEXT NOT NULL DEFAULT 'normal'
		              CHECK(priority IN ('urgent','important','normal')),
		status        TEXT NOT NULL DEFAULT 'pending'
		              CHECK(status IN ('pending','completed')),
		deadline      TEXT,
		reminder_sent INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL,
		completed_at  TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_todos_status ON todos(status)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_category_status ON todos(category, status)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_deadline ON todos(deadline) WHERE deadline IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS ai_cache (
		cache_key   TEXT PRIMARY KEY,
		cache_type  TEXT NOT NULL,
		result_json TEXT NOT NULL,
		todo_id     INTEGER,
		created_at  TEXT NOT NULL,
		expires_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_ai_cache_expires ON ai_cache(expires_at)`,

	`CREATE TABLE IF NOT EXISTS task_history (
		date            TEXT PRIMARY KEY,
		completed_count INTEGER NOT NULL DEFAULT 0,
		created_count   INTEGER NOT NULL DEFAULT 0,
		pending_count   INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS daily_content (
		date         TEXT PRIMARY KEY,
		quote        TEXT NOT NULL,
		quote_author TEXT NOT NULL DEFAULT '',
		fun_fact     TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL
	)`,
}

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
