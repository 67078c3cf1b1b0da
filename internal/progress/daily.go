package progress

import (
	"context"
	"errors"
	"log/slog"

	"taskflow/internal/cache"
	"taskflow/internal/models"
	"taskflow/internal/storage"
)

// DailyTaskLimit is the maximum number of tasks offered per day.
const DailyTaskLimit = 3

// Catalog returns the task catalog, or an empty one if none was saved or the
// stored record is unreadable.
func (s *Service) Catalog(ctx context.Context) (models.TaskCatalog, error) {
	return cache.Fetch(s.cache, keyCatalog, s.ttl.Catalog, func() (models.TaskCatalog, error) {
		catalog, err := s.store.GetTasksConfig(ctx)
		switch {
		case err == nil:
			return catalog.Normalize(), nil
		case errors.Is(err, storage.ErrNotFound):
			return models.EmptyCatalog(), nil
		case errors.Is(err, storage.ErrCorrupt):
			s.logger.Warn("task catalog unreadable; using empty catalog", slog.String("error", err.Error()))
			return models.EmptyCatalog(), nil
		default:
			return nil, err
		}
	})
}

// ReplaceCatalog swaps the whole catalog. Blank entries are dropped.
func (s *Service) ReplaceCatalog(ctx context.Context, editor models.User, catalog models.TaskCatalog) (models.TaskCatalog, error) {
	if err := requireAdmin(editor); err != nil {
		return nil, err
	}
	catalog = catalog.Normalize()
	if err := s.store.UpdateTasksConfig(ctx, catalog); err != nil {
		return nil, err
	}
	s.cache.Invalidate(keyCatalog)
	s.logger.Info("task catalog replaced", slog.String("by", editor.Username), slog.Int("tasks", len(catalog.Flatten())))
	return catalog, nil
}

// DailyTasks returns today's task set, generating it on the first read of a
// new day. Repeated calls on the same day return the same set.
func (s *Service) DailyTasks(ctx context.Context) (models.DailyTaskSet, error) {
	today := s.Today()
	return cache.Fetch(s.cache, dailyKey(today), s.ttl.Daily, func() (models.DailyTaskSet, error) {
		s.dailyMu.Lock()
		defer s.dailyMu.Unlock()

		set, err := s.store.GetDailyTasks(ctx, today)
		switch {
		case err == nil:
			return set, nil
		case errors.Is(err, storage.ErrNotFound):
		case errors.Is(err, storage.ErrCorrupt):
			s.logger.Warn("daily tasks unreadable; regenerating", slog.String("date", today), slog.String("error", err.Error()))
		default:
			return models.DailyTaskSet{}, err
		}
		return s.generateDaily(ctx, today)
	})
}

// RegenerateDailyTasks draws a fresh set for today, replacing the current one.
func (s *Service) RegenerateDailyTasks(ctx context.Context, editor models.User) (models.DailyTaskSet, error) {
	if err := requireAdmin(editor); err != nil {
		return models.DailyTaskSet{}, err
	}
	today := s.Today()

	s.dailyMu.Lock()
	set, err := s.generateDaily(ctx, today)
	s.dailyMu.Unlock()
	if err != nil {
		return models.DailyTaskSet{}, err
	}
	s.cache.Invalidate(dailyKey(today))
	s.logger.Info("daily tasks regenerated", slog.String("by", editor.Username), slog.String("date", today))
	return set, nil
}

func (s *Service) generateDaily(ctx context.Context, date string) (models.DailyTaskSet, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return models.DailyTaskSet{}, err
	}
	set := models.DailyTaskSet{Date: date, Tasks: s.sample(distinct(catalog.Flatten()), DailyTaskLimit)}
	if err := s.store.SaveDailyTasks(ctx, set); err != nil {
		return models.DailyTaskSet{}, err
	}
	s.logger.Debug("daily tasks generated", slog.String("date", date), slog.Any("tasks", set.Tasks))
	return set, nil
}

// sample picks min(n, len(pool)) items uniformly without replacement.
func (s *Service) sample(pool []string, n int) []string {
	if n > len(pool) {
		n = len(pool)
	}
	s.rngMu.Lock()
	perm := s.rng.Perm(len(pool))
	s.rngMu.Unlock()

	out := make([]string, 0, n)
	for _, i := range perm[:n] {
		out = append(out, pool[i])
	}
	return out
}

func distinct(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
