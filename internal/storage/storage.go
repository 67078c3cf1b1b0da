// Package storage defines the persistence contract shared by every backend.
package storage

import (
	"context"
	"errors"
	"time"

	"taskflow/internal/models"
)

var (
	// ErrNotFound reports a record that was never written.
	ErrNotFound = errors.New("not found")
	// ErrCorrupt reports a record that exists but cannot be decoded.
	ErrCorrupt = errors.New("corrupt record")
	// ErrConflict reports a write that collides with an existing record.
	ErrConflict = errors.New("already exists")
)

// Store is the get/set contract the progress layer consumes.
type Store interface {
	GetUser(ctx context.Context, username string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, user models.User) error
	UpdateCoins(ctx context.Context, username string, coins int) error

	GetTasksConfig(ctx context.Context) (models.TaskCatalog, error)
	UpdateTasksConfig(ctx context.Context, catalog models.TaskCatalog) error

	GetDailyTasks(ctx context.Context, date string) (models.DailyTaskSet, error)
	SaveDailyTasks(ctx context.Context, set models.DailyTaskSet) error

	ListBoardTasks(ctx context.Context) ([]models.BoardTask, error)
	GetBoardTask(ctx context.Context, id int64) (models.BoardTask, error)
	CreateBoardTask(ctx context.Context, text, difficulty string) (models.BoardTask, error)
	// SyncBoardTasks replaces the board: tasks with a known id are updated,
	// id-less tasks are inserted and every other task is removed.
	SyncBoardTasks(ctx context.Context, tasks []models.BoardTask) ([]models.BoardTask, error)
	// ClaimBoardTask moves a free task to taken and reports whether it changed.
	ClaimBoardTask(ctx context.Context, id int64, username string, at time.Time) (bool, error)
	// CompleteBoardTask moves a task taken by username to done and reports whether it changed.
	CompleteBoardTask(ctx context.Context, id int64, username string, at time.Time) (bool, error)

	GetUserProgress(ctx context.Context, username, date string) ([]string, error)
	SaveUserProgress(ctx context.Context, username, date string, done []string) error
	GetAllProgress(ctx context.Context, username string) ([]string, error)

	GetMapConfig(ctx context.Context) (models.MapConfig, error)
	SaveMapConfig(ctx context.Context, cfg models.MapConfig, editor string) error

	GetUserPosition(ctx context.Context, username string) (models.Point, error)
	SaveUserPosition(ctx context.Context, username string, p models.Point) error

	Close() error
}
