package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"taskflow/internal/models"
	"taskflow/internal/storage"
)

// GetTasksConfig returns the most recently saved catalog.
func (s *Store) GetTasksConfig(ctx context.Context) (models.TaskCatalog, error) {
	var raw string
	err := s.queryRow(ctx, s.db, `SELECT catalog FROM tasks_config ORDER BY id DESC LIMIT 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tasks config: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tasks config: %w", err)
	}

	var catalog models.TaskCatalog
	if err := json.Unmarshal([]byte(raw), &catalog); err != nil {
		return nil, fmt.Errorf("tasks config: %w: %v", storage.ErrCorrupt, err)
	}
	return catalog, nil
}

// UpdateTasksConfig appends a new catalog revision.
func (s *Store) UpdateTasksConfig(ctx context.Context, catalog models.TaskCatalog) error {
	raw, err := json.Marshal(catalog)
	if err != nil {
		return fmt.Errorf("encode tasks config: %w", err)
	}
	if _, err := s.exec(ctx, s.db, `INSERT INTO tasks_config(catalog, updated_at) VALUES(?, ?)`, string(raw), s.timestamp()); err != nil {
		return fmt.Errorf("insert tasks config: %w", err)
	}
	return nil
}

// GetDailyTasks loads the set generated for date.
func (s *Store) GetDailyTasks(ctx context.Context, date string) (models.DailyTaskSet, error) {
	var raw string
	err := s.queryRow(ctx, s.db, `SELECT tasks FROM daily_tasks WHERE date = ?`, date).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DailyTaskSet{}, fmt.Errorf("daily tasks %s: %w", date, storage.ErrNotFound)
	}
	if err != nil {
		return models.DailyTaskSet{}, fmt.Errorf("get daily tasks: %w", err)
	}

	set := models.DailyTaskSet{Date: date}
	if err := json.Unmarshal([]byte(raw), &set.Tasks); err != nil {
		return models.DailyTaskSet{}, fmt.Errorf("daily tasks %s: %w: %v", date, storage.ErrCorrupt, err)
	}
	return set, nil
}

// SaveDailyTasks upserts the set for its date and drops older days.
func (s *Store) SaveDailyTasks(ctx context.Context, set models.DailyTaskSet) error {
	tasks := set.Tasks
	if tasks == nil {
		tasks = []string{}
	}
	raw, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode daily tasks: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, `INSERT INTO daily_tasks(date, tasks, created_at) VALUES(?, ?, ?)
            ON CONFLICT(date) DO UPDATE SET tasks = excluded.tasks, created_at = excluded.created_at`,
			set.Date, string(raw), s.timestamp()); err != nil {
			return fmt.Errorf("save daily tasks: %w", err)
		}
		if _, err := s.exec(ctx, tx, `DELETE FROM daily_tasks WHERE date < ?`, set.Date); err != nil {
			return fmt.Errorf("prune daily tasks: %w", err)
		}
		return nil
	})
}
