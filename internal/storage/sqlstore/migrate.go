package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
            username TEXT PRIMARY KEY,
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'user',
            coins INTEGER NOT NULL DEFAULT 0,
            created_at {{timestamp}} NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS tasks_config (
            id {{serial}},
            catalog TEXT NOT NULL,
            updated_at {{timestamp}} NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS daily_tasks (
            date TEXT PRIMARY KEY,
            tasks TEXT NOT NULL,
            created_at {{timestamp}} NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS board_tasks (
            id {{serial}},
            text TEXT NOT NULL,
            difficulty TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'free',
            claimant TEXT,
            taken_at {{timestamp}},
            done_at {{timestamp}},
            created_at {{timestamp}} NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE INDEX IF NOT EXISTS idx_board_tasks_status ON board_tasks(status);`,
	`CREATE TABLE IF NOT EXISTS user_progress (
            username TEXT NOT NULL,
            date TEXT NOT NULL,
            tasks_done TEXT NOT NULL,
            PRIMARY KEY (username, date)
        );`,
	`CREATE TABLE IF NOT EXISTS map_config (
            id {{serial}},
            config TEXT NOT NULL,
            updated_at {{timestamp}} NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_by TEXT NOT NULL DEFAULT ''
        );`,
	`CREATE TABLE IF NOT EXISTS user_positions (
            username TEXT PRIMARY KEY,
            x {{float}} NOT NULL,
            y {{float}} NOT NULL,
            updated_at {{timestamp}} NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
}

func (s *Store) dialectTypes() *strings.Replacer {
	if s.driver == DriverPostgres {
		return strings.NewReplacer(
			"{{serial}}", "BIGSERIAL PRIMARY KEY",
			"{{timestamp}}", "TIMESTAMPTZ",
			"{{float}}", "DOUBLE PRECISION",
		)
	}
	return strings.NewReplacer(
		"{{serial}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{timestamp}}", "DATETIME",
		"{{float}}", "REAL",
	)
}

func (s *Store) migrate(ctx context.Context) error {
	types := s.dialectTypes()
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, types.Replace(stmt)); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
