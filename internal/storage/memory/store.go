// Package memory is a non-durable Store used for tests and as the fallback
// when no database is reachable.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"taskflow/internal/models"
	"taskflow/internal/storage"
)

type progressKey struct {
	username string
	date     string
}

// Store keeps all data in process memory.
type Store struct {
	mu        sync.Mutex
	users     map[string]models.User
	catalog   models.TaskCatalog
	daily     map[string]models.DailyTaskSet
	board     []models.BoardTask
	nextID    int64
	progress  map[progressKey][]string
	mapConfig *models.MapConfig
	positions map[string]models.Point
	now       func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		users:     make(map[string]models.User),
		daily:     make(map[string]models.DailyTaskSet),
		progress:  make(map[progressKey][]string),
		positions: make(map[string]models.Point),
		now:       time.Now,
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) GetUser(_ context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return models.User{}, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *Store) CreateUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; ok {
		return fmt.Errorf("user %q: %w", user.Username, storage.ErrConflict)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	s.users[user.Username] = user
	return nil
}

func (s *Store) UpdateCoins(_ context.Context, username string, coins int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	u.Coins = coins
	s.users[username] = u
	return nil
}

func (s *Store) GetTasksConfig(_ context.Context) (models.TaskCatalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.catalog == nil {
		return nil, fmt.Errorf("tasks config: %w", storage.ErrNotFound)
	}
	return copyCatalog(s.catalog), nil
}

func (s *Store) UpdateTasksConfig(_ context.Context, catalog models.TaskCatalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = copyCatalog(catalog)
	return nil
}

func (s *Store) GetDailyTasks(_ context.Context, date string) (models.DailyTaskSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.daily[date]
	if !ok {
		return models.DailyTaskSet{}, fmt.Errorf("daily tasks %s: %w", date, storage.ErrNotFound)
	}
	return models.DailyTaskSet{Date: set.Date, Tasks: append([]string(nil), set.Tasks...)}, nil
}

// SaveDailyTasks stores set and drops every older day, keeping one set live.
func (s *Store) SaveDailyTasks(_ context.Context, set models.DailyTaskSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for date := range s.daily {
		if date < set.Date {
			delete(s.daily, date)
		}
	}
	s.daily[set.Date] = models.DailyTaskSet{Date: set.Date, Tasks: append([]string(nil), set.Tasks...)}
	return nil
}

func (s *Store) ListBoardTasks(_ context.Context) ([]models.BoardTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.BoardTask, len(s.board))
	copy(out, s.board)
	return out, nil
}

func (s *Store) GetBoardTask(_ context.Context, id int64) (models.BoardTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.board[i], nil
	}
	return models.BoardTask{}, fmt.Errorf("board task %d: %w", id, storage.ErrNotFound)
}

func (s *Store) CreateBoardTask(_ context.Context, text, difficulty string) (models.BoardTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := models.BoardTask{ID: s.allocID(), Text: text, Difficulty: difficulty, Status: models.BoardFree}
	s.board = append(s.board, t)
	return t, nil
}

func (s *Store) SyncBoardTasks(_ context.Context, tasks []models.BoardTask) ([]models.BoardTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.BoardTask, 0, len(tasks))
	for _, t := range tasks {
		if t.ID > 0 {
			i := s.indexOf(t.ID)
			if i < 0 {
				continue
			}
			cur := s.board[i]
			cur.Text = t.Text
			cur.Difficulty = t.Difficulty
			next = append(next, cur)
			continue
		}
		next = append(next, models.BoardTask{ID: s.allocID(), Text: t.Text, Difficulty: t.Difficulty, Status: models.BoardFree})
	}
	sort.Slice(next, func(i, j int) bool { return next[i].ID < next[j].ID })
	s.board = next

	out := make([]models.BoardTask, len(next))
	copy(out, next)
	return out, nil
}

func (s *Store) ClaimBoardTask(_ context.Context, id int64, username string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 || s.board[i].Status != models.BoardFree {
		return false, nil
	}
	s.board[i].Status = models.BoardTaken
	s.board[i].Claimant = username
	s.board[i].TakenAt = &at
	return true, nil
}

func (s *Store) CompleteBoardTask(_ context.Context, id int64, username string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 || s.board[i].Status != models.BoardTaken || s.board[i].Claimant != username {
		return false, nil
	}
	s.board[i].Status = models.BoardDone
	s.board[i].DoneAt = &at
	return true, nil
}

func (s *Store) GetUserProgress(_ context.Context, username, date string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.progress[progressKey{username, date}]...), nil
}

func (s *Store) SaveUserProgress(_ context.Context, username, date string, done []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[progressKey{username, date}] = append([]string{}, done...)
	return nil
}

func (s *Store) GetAllProgress(_ context.Context, username string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []string
	for key, done := range s.progress {
		if key.username == username {
			all = append(all, done...)
		}
	}
	return all, nil
}

func (s *Store) GetMapConfig(_ context.Context) (models.MapConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mapConfig == nil {
		return models.MapConfig{}, fmt.Errorf("map config: %w", storage.ErrNotFound)
	}
	return copyMap(*s.mapConfig), nil
}

func (s *Store) SaveMapConfig(_ context.Context, cfg models.MapConfig, editor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg = copyMap(cfg)
	cfg.UpdatedAt = s.now()
	cfg.UpdatedBy = editor
	s.mapConfig = &cfg
	return nil
}

func (s *Store) GetUserPosition(_ context.Context, username string) (models.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.positions[username]; ok {
		return p, nil
	}
	return models.DefaultPosition, nil
}

func (s *Store) SaveUserPosition(_ context.Context, username string, p models.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[username] = p
	return nil
}

func (s *Store) indexOf(id int64) int {
	for i := range s.board {
		if s.board[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) allocID() int64 {
	s.nextID++
	return s.nextID
}

func copyCatalog(c models.TaskCatalog) models.TaskCatalog {
	out := make(models.TaskCatalog, len(c))
	for k, v := range c {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func copyMap(m models.MapConfig) models.MapConfig {
	m.ActivePoints = append([]models.Point(nil), m.ActivePoints...)
	m.Checkpoints = append([]models.Checkpoint(nil), m.Checkpoints...)
	return m
}
