// Package seed provides the initial users, task catalog and map layout.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"taskflow/internal/auth"
	"taskflow/internal/models"
	"taskflow/internal/storage"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// User is a seeded account with a clear-text password that is hashed on apply.
type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	Coins    int    `yaml:"coins"`
}

// Data is the full seed document.
type Data struct {
	Users   []User             `yaml:"users"`
	Catalog models.TaskCatalog `yaml:"catalog"`
	Map     *models.MapConfig  `yaml:"map"`
}

// Default returns the built-in seed document.
func Default() (Data, error) {
	var d Data
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		return Data{}, fmt.Errorf("parse default seed: %w", err)
	}
	return d, nil
}

// Load reads a seed document from path. Sections missing from the file are
// taken from the built-in defaults. An empty path returns the defaults.
func Load(path string) (Data, error) {
	d, err := Default()
	if err != nil {
		return Data{}, err
	}
	if path == "" {
		return d, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("read seed file: %w", err)
	}
	var override Data
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return Data{}, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if override.Users != nil {
		d.Users = override.Users
	}
	if override.Catalog != nil {
		d.Catalog = override.Catalog
	}
	if override.Map != nil {
		d.Map = override.Map
	}
	return d, nil
}

// Apply writes the seed into store without overwriting existing data: users
// are created only when absent, the catalog and map only when never saved.
func Apply(ctx context.Context, store storage.Store, d Data, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	for _, u := range d.Users {
		if _, err := store.GetUser(ctx, u.Username); err == nil {
			continue
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return err
		}
		role := models.Role(u.Role)
		if role != models.RoleAdmin {
			role = models.RoleUser
		}
		err = store.CreateUser(ctx, models.User{Username: u.Username, PasswordHash: hash, Role: role, Coins: u.Coins})
		if err != nil && !errors.Is(err, storage.ErrConflict) {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		logger.Info("seeded user", slog.String("user", u.Username), slog.String("role", string(role)))
	}

	if d.Catalog != nil {
		if _, err := store.GetTasksConfig(ctx); errors.Is(err, storage.ErrNotFound) {
			if err := store.UpdateTasksConfig(ctx, d.Catalog.Normalize()); err != nil {
				return fmt.Errorf("seed catalog: %w", err)
			}
			logger.Info("seeded task catalog")
		} else if err != nil && !errors.Is(err, storage.ErrCorrupt) {
			return err
		}
	}

	if d.Map != nil {
		if _, err := store.GetMapConfig(ctx); errors.Is(err, storage.ErrNotFound) {
			cfg := *d.Map
			cfg.SortCheckpoints()
			if err := store.SaveMapConfig(ctx, cfg, "system"); err != nil {
				return fmt.Errorf("seed map config: %w", err)
			}
			logger.Info("seeded map config")
		} else if err != nil && !errors.Is(err, storage.ErrCorrupt) {
			return err
		}
	}
	return nil
}
