package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"taskflow/internal/models"
	"taskflow/internal/storage"
)

// GetUserProgress returns the task texts a user finished on date.
func (s *Store) GetUserProgress(ctx context.Context, username, date string) ([]string, error) {
	var raw string
	err := s.queryRow(ctx, s.db, `SELECT tasks_done FROM user_progress WHERE username = ? AND date = ?`, username, date).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user progress: %w", err)
	}

	var done []string
	if err := json.Unmarshal([]byte(raw), &done); err != nil {
		return nil, fmt.Errorf("user progress %s/%s: %w: %v", username, date, storage.ErrCorrupt, err)
	}
	return done, nil
}

// SaveUserProgress upserts the done list for (username, date).
func (s *Store) SaveUserProgress(ctx context.Context, username, date string, done []string) error {
	if done == nil {
		done = []string{}
	}
	raw, err := json.Marshal(done)
	if err != nil {
		return fmt.Errorf("encode user progress: %w", err)
	}
	_, err = s.exec(ctx, s.db, `INSERT INTO user_progress(username, date, tasks_done) VALUES(?, ?, ?)
        ON CONFLICT(username, date) DO UPDATE SET tasks_done = excluded.tasks_done`, username, date, string(raw))
	if err != nil {
		return fmt.Errorf("save user progress: %w", err)
	}
	return nil
}

// GetAllProgress concatenates every day's done list for username. Rows that
// cannot be decoded are skipped and logged.
func (s *Store) GetAllProgress(ctx context.Context, username string) ([]string, error) {
	rows, err := s.query(ctx, s.db, `SELECT date, tasks_done FROM user_progress WHERE username = ? ORDER BY date`, username)
	if err != nil {
		return nil, fmt.Errorf("list user progress: %w", err)
	}
	defer rows.Close()

	all := []string{}
	for rows.Next() {
		var date, raw string
		if err := rows.Scan(&date, &raw); err != nil {
			return nil, fmt.Errorf("scan user progress: %w", err)
		}
		var done []string
		if err := json.Unmarshal([]byte(raw), &done); err != nil {
			s.logger.Warn("skipping corrupt progress row", slog.String("user", username), slog.String("date", date), slog.String("error", err.Error()))
			continue
		}
		all = append(all, done...)
	}
	return all, rows.Err()
}

// GetUserPosition returns the user's map pin or the default start pin.
func (s *Store) GetUserPosition(ctx context.Context, username string) (models.Point, error) {
	var p models.Point
	err := s.queryRow(ctx, s.db, `SELECT x, y FROM user_positions WHERE username = ?`, username).Scan(&p.X, &p.Y)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultPosition, nil
	}
	if err != nil {
		return models.Point{}, fmt.Errorf("get user position: %w", err)
	}
	return p, nil
}

// SaveUserPosition upserts the user's map pin.
func (s *Store) SaveUserPosition(ctx context.Context, username string, p models.Point) error {
	_, err := s.exec(ctx, s.db, `INSERT INTO user_positions(username, x, y, updated_at) VALUES(?, ?, ?, ?)
        ON CONFLICT(username) DO UPDATE SET x = excluded.x, y = excluded.y, updated_at = excluded.updated_at`,
		username, p.X, p.Y, s.timestamp())
	if err != nil {
		return fmt.Errorf("save user position: %w", err)
	}
	return nil
}
