package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"taskflow/internal/cache"
	"taskflow/internal/storage"
)

// BoardTaskPrefix marks ledger entries recorded for completed board tasks.
const BoardTaskPrefix = "Board task: "

// DailyTask is one of today's tasks with the viewer's done flag.
type DailyTask struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// DailyView is the day's task list as seen by one user.
type DailyView struct {
	Date  string      `json:"date"`
	Tasks []DailyTask `json:"tasks"`
}

// DoneOn returns the task texts username marked done on date.
func (s *Service) DoneOn(ctx context.Context, username, date string) ([]string, error) {
	return cache.Fetch(s.cache, ledgerKey(username, date), s.ttl.Progress, func() ([]string, error) {
		return s.loadDay(ctx, username, date)
	})
}

func (s *Service) loadDay(ctx context.Context, username, date string) ([]string, error) {
	done, err := s.store.GetUserProgress(ctx, username, date)
	if errors.Is(err, storage.ErrCorrupt) {
		s.logger.Warn("ledger day unreadable; treating as empty", slog.String("user", username), slog.String("date", date), slog.String("error", err.Error()))
		return []string{}, nil
	}
	return done, err
}

// IsDone reports whether username marked task done on date.
func (s *Service) IsDone(ctx context.Context, username, date, task string) (bool, error) {
	task = strings.TrimSpace(task)
	done, err := s.DoneOn(ctx, username, date)
	if err != nil {
		return false, err
	}
	return contains(done, task), nil
}

// MarkDone records task as done for (username, date). Marking an already
// done task changes nothing and writes nothing.
func (s *Service) MarkDone(ctx context.Context, username, date, task string) error {
	task = strings.TrimSpace(task)
	if task == "" {
		return fmt.Errorf("task text is required: %w", ErrInvalid)
	}
	return s.appendDone(ctx, username, date, task, true)
}

// recordBoardCredit appends a board completion entry. Every completed board
// task adds one entry, even when another task with the same text was
// completed the same day.
func (s *Service) recordBoardCredit(ctx context.Context, username, date, text string) error {
	return s.appendDone(ctx, username, date, BoardTaskPrefix+text, false)
}

func (s *Service) appendDone(ctx context.Context, username, date, task string, unique bool) error {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	done, err := s.loadDay(ctx, username, date)
	if err != nil {
		return err
	}
	if unique && contains(done, task) {
		return nil
	}
	if err := s.store.SaveUserProgress(ctx, username, date, append(done, task)); err != nil {
		return err
	}
	s.invalidateUser(username, date)
	return nil
}

// UnmarkDone removes task from (username, date). It returns false, without
// writing, when the task was not marked.
func (s *Service) UnmarkDone(ctx context.Context, username, date, task string) (bool, error) {
	task = strings.TrimSpace(task)

	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	done, err := s.loadDay(ctx, username, date)
	if err != nil {
		return false, err
	}
	idx := -1
	for i, t := range done {
		if t == task {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	rest := append(append([]string{}, done[:idx]...), done[idx+1:]...)
	if err := s.store.SaveUserProgress(ctx, username, date, rest); err != nil {
		return false, err
	}
	s.invalidateUser(username, date)
	return true, nil
}

// AllCompletedTexts returns every completion username ever recorded. The same
// text on different days appears once per day.
func (s *Service) AllCompletedTexts(ctx context.Context, username string) ([]string, error) {
	return s.store.GetAllProgress(ctx, username)
}

// TodayView lists today's tasks with username's done flags. An empty
// username yields all flags false.
func (s *Service) TodayView(ctx context.Context, username string) (DailyView, error) {
	set, err := s.DailyTasks(ctx)
	if err != nil {
		return DailyView{}, err
	}

	var done []string
	if username != "" {
		if done, err = s.DoneOn(ctx, username, set.Date); err != nil {
			return DailyView{}, err
		}
	}

	view := DailyView{Date: set.Date, Tasks: make([]DailyTask, 0, len(set.Tasks))}
	for _, text := range set.Tasks {
		view.Tasks = append(view.Tasks, DailyTask{Text: text, Done: contains(done, text)})
	}
	return view, nil
}

func (s *Service) invalidateUser(username, date string) {
	s.cache.Invalidate(ledgerKey(username, date))
	s.cache.Invalidate(progressKey(username))
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
