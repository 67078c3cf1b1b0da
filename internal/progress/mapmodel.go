package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"taskflow/internal/cache"
	"taskflow/internal/models"
	"taskflow/internal/storage"
)

// Resolution is where a completed count lands on the map.
type Resolution struct {
	Position     models.Point        `json:"position"`
	NextRequired int                 `json:"next_required"`
	Unlocked     []models.Checkpoint `json:"unlocked"`
}

// ResolvePosition places total on cfg. Checkpoints are read in stored order,
// which SaveMapConfig keeps ascending by Required, so the last reached one is
// the most advanced. NextRequired is 0 once every checkpoint is passed.
func ResolvePosition(total int, cfg models.MapConfig) Resolution {
	res := Resolution{Position: cfg.StartPoint, NextRequired: 1, Unlocked: []models.Checkpoint{}}
	if len(cfg.Checkpoints) == 0 {
		return res
	}

	for _, cp := range cfg.Checkpoints {
		if cp.Required <= total {
			res.Unlocked = append(res.Unlocked, cp)
		}
	}
	if len(res.Unlocked) == 0 {
		res.NextRequired = cfg.Checkpoints[0].Required
		return res
	}

	res.Position = res.Unlocked[len(res.Unlocked)-1].Position
	res.NextRequired = 0
	for _, cp := range cfg.Checkpoints {
		if cp.Required > total {
			res.NextRequired = cp.Required
			break
		}
	}
	return res
}

// ValidateMap checks thresholds and coordinates and sorts checkpoints
// ascending by Required.
func ValidateMap(cfg *models.MapConfig) error {
	points := []models.Point{cfg.StartPoint, cfg.EndPoint}
	points = append(points, cfg.ActivePoints...)
	for i, cp := range cfg.Checkpoints {
		if cp.Required < 0 {
			return fmt.Errorf("checkpoint %d: required must not be negative: %w", i, ErrInvalid)
		}
		points = append(points, cp.Position)
	}
	for _, p := range points {
		if err := validatePoint(p); err != nil {
			return err
		}
	}
	cfg.SortCheckpoints()
	return nil
}

func validatePoint(p models.Point) error {
	if p.X < 0 || p.X > 100 || p.Y < 0 || p.Y > 100 {
		return fmt.Errorf("point (%g, %g) outside the map: %w", p.X, p.Y, ErrInvalid)
	}
	return nil
}

// MapConfig returns the map layout, falling back to the default layout when
// none was saved or the stored one is unreadable.
func (s *Service) MapConfig(ctx context.Context) (models.MapConfig, error) {
	return cache.Fetch(s.cache, keyMap, s.ttl.Map, func() (models.MapConfig, error) {
		cfg, err := s.store.GetMapConfig(ctx)
		switch {
		case err == nil:
			cfg.SortCheckpoints()
			return cfg, nil
		case errors.Is(err, storage.ErrNotFound):
			return models.DefaultMapConfig(), nil
		case errors.Is(err, storage.ErrCorrupt):
			s.logger.Warn("map config unreadable; using default", slog.String("error", err.Error()))
			return models.DefaultMapConfig(), nil
		default:
			return models.MapConfig{}, err
		}
	})
}

// SaveMapConfig validates and stores cfg on behalf of editor.
func (s *Service) SaveMapConfig(ctx context.Context, editor models.User, cfg models.MapConfig) (models.MapConfig, error) {
	if err := requireAdmin(editor); err != nil {
		return models.MapConfig{}, err
	}
	if err := ValidateMap(&cfg); err != nil {
		return models.MapConfig{}, err
	}
	if err := s.store.SaveMapConfig(ctx, cfg, editor.Username); err != nil {
		return models.MapConfig{}, err
	}
	s.cache.Invalidate(keyMap)
	s.logger.Info("map config saved", slog.String("by", editor.Username), slog.Int("checkpoints", len(cfg.Checkpoints)))
	return s.MapConfig(ctx)
}

// SetPin stores the user's cosmetic map pin.
func (s *Service) SetPin(ctx context.Context, username string, p models.Point) error {
	if err := validatePoint(p); err != nil {
		return err
	}
	return s.store.SaveUserPosition(ctx, username, p)
}

// Snapshot is the full derived progress view for username.
func (s *Service) Snapshot(ctx context.Context, username string) (models.UserProgressSnapshot, error) {
	snap, err := s.ComputeProgress(ctx, username)
	if err != nil {
		return models.UserProgressSnapshot{}, err
	}
	cfg, err := s.MapConfig(ctx)
	if err != nil {
		return models.UserProgressSnapshot{}, err
	}
	pin, err := s.store.GetUserPosition(ctx, username)
	if err != nil {
		return models.UserProgressSnapshot{}, err
	}

	res := ResolvePosition(snap.TotalCompleted, cfg)
	snap.Position = res.Position
	snap.NextRequired = res.NextRequired
	snap.Unlocked = res.Unlocked
	snap.Pin = pin
	return snap, nil
}
