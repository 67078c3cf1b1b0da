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

// GetMapConfig returns the latest saved map layout.
func (s *Store) GetMapConfig(ctx context.Context) (models.MapConfig, error) {
	var (
		raw string
		cfg models.MapConfig
	)
	err := s.queryRow(ctx, s.db, `SELECT config, updated_at, updated_by FROM map_config ORDER BY id DESC LIMIT 1`).
		Scan(&raw, &cfg.UpdatedAt, &cfg.UpdatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MapConfig{}, fmt.Errorf("map config: %w", storage.ErrNotFound)
	}
	if err != nil {
		return models.MapConfig{}, fmt.Errorf("get map config: %w", err)
	}

	updatedAt, updatedBy := cfg.UpdatedAt, cfg.UpdatedBy
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return models.MapConfig{}, fmt.Errorf("map config: %w: %v", storage.ErrCorrupt, err)
	}
	cfg.UpdatedAt, cfg.UpdatedBy = updatedAt, updatedBy
	return cfg, nil
}

// SaveMapConfig appends a new map layout revision attributed to editor.
func (s *Store) SaveMapConfig(ctx context.Context, cfg models.MapConfig, editor string) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode map config: %w", err)
	}
	_, err = s.exec(ctx, s.db, `INSERT INTO map_config(config, updated_at, updated_by) VALUES(?, ?, ?)`, string(raw), s.timestamp(), editor)
	if err != nil {
		return fmt.Errorf("insert map config: %w", err)
	}
	return nil
}
