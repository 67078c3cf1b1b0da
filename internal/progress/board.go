package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"taskflow/internal/cache"
	"taskflow/internal/models"
	"taskflow/internal/storage"
)

// Outcome says whether a board transition took effect and, if not, why.
type Outcome int

const (
	Applied Outcome = iota
	NotFound
	WrongState
	NotClaimant
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case NotFound:
		return "not_found"
	case WrongState:
		return "wrong_state"
	case NotClaimant:
		return "not_claimant"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Transition is the result of a claim or complete request. Task holds the
// current state whether or not the transition applied; it is zero for NotFound.
type Transition struct {
	Outcome Outcome          `json:"-"`
	Task    models.BoardTask `json:"task"`
}

// NewBoardTask is an admin submission for the board.
type NewBoardTask struct {
	ID         int64  `json:"id,omitempty"`
	Text       string `json:"text"`
	Difficulty string `json:"difficulty"`
}

// Board returns every board task ordered by id.
func (s *Service) Board(ctx context.Context) ([]models.BoardTask, error) {
	return cache.Fetch(s.cache, keyBoard, s.ttl.Board, func() ([]models.BoardTask, error) {
		return s.store.ListBoardTasks(ctx)
	})
}

// Archive returns the completed board tasks.
func (s *Service) Archive(ctx context.Context) ([]models.BoardTask, error) {
	board, err := s.Board(ctx)
	if err != nil {
		return nil, err
	}
	done := []models.BoardTask{}
	for _, t := range board {
		if t.Status == models.BoardDone {
			done = append(done, t)
		}
	}
	return done, nil
}

// AddBoardTasks appends free tasks. Blank texts are skipped.
func (s *Service) AddBoardTasks(ctx context.Context, editor models.User, tasks []NewBoardTask) ([]models.BoardTask, error) {
	if err := requireAdmin(editor); err != nil {
		return nil, err
	}
	var added []models.BoardTask
	for _, t := range tasks {
		text, difficulty, ok := cleanBoardInput(t)
		if !ok {
			continue
		}
		created, err := s.store.CreateBoardTask(ctx, text, difficulty)
		if err != nil {
			return added, err
		}
		added = append(added, created)
	}
	s.cache.Invalidate(keyBoard)
	return added, nil
}

// ReplaceBoard makes the board match tasks: submitted ids are kept with their
// state, id-less entries become new free tasks, everything else is removed.
func (s *Service) ReplaceBoard(ctx context.Context, editor models.User, tasks []NewBoardTask) ([]models.BoardTask, error) {
	if err := requireAdmin(editor); err != nil {
		return nil, err
	}
	wanted := make([]models.BoardTask, 0, len(tasks))
	for _, t := range tasks {
		text, difficulty, ok := cleanBoardInput(t)
		if !ok {
			continue
		}
		wanted = append(wanted, models.BoardTask{ID: t.ID, Text: text, Difficulty: difficulty})
	}
	board, err := s.store.SyncBoardTasks(ctx, wanted)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(keyBoard)
	s.logger.Info("board replaced", slog.String("by", editor.Username), slog.Int("tasks", len(board)))
	return board, nil
}

func cleanBoardInput(t NewBoardTask) (string, string, bool) {
	text := strings.TrimSpace(t.Text)
	if text == "" {
		return "", "", false
	}
	difficulty := strings.TrimSpace(t.Difficulty)
	if difficulty == "" {
		difficulty = models.DefaultDifficulty
	}
	return text, difficulty, true
}

// Claim moves a free task to taken by username.
func (s *Service) Claim(ctx context.Context, id int64, username string) (Transition, error) {
	ok, err := s.store.ClaimBoardTask(ctx, id, username, s.now())
	if err != nil {
		return Transition{}, err
	}
	if ok {
		s.cache.Invalidate(keyBoard)
		task, err := s.store.GetBoardTask(ctx, id)
		if err != nil {
			return Transition{}, err
		}
		s.logger.Info("board task claimed", slog.Int64("id", id), slog.String("user", username))
		return Transition{Outcome: Applied, Task: task}, nil
	}
	return s.rejected(ctx, "claim", id, username)
}

// Complete moves a task taken by username to done and records a completion
// in username's ledger for today. Only the claimant may complete a task.
func (s *Service) Complete(ctx context.Context, id int64, username string) (Transition, error) {
	now := s.now()
	ok, err := s.store.CompleteBoardTask(ctx, id, username, now)
	if err != nil {
		return Transition{}, err
	}
	if !ok {
		return s.rejected(ctx, "complete", id, username)
	}

	s.cache.Invalidate(keyBoard)
	task, err := s.store.GetBoardTask(ctx, id)
	if err != nil {
		return Transition{}, err
	}
	if err := s.recordBoardCredit(ctx, username, now.Format(models.DateLayout), task.Text); err != nil {
		return Transition{}, fmt.Errorf("record board completion: %w", err)
	}
	s.logger.Info("board task completed", slog.Int64("id", id), slog.String("user", username))
	return Transition{Outcome: Applied, Task: task}, nil
}

// rejected classifies a transition that did not apply.
func (s *Service) rejected(ctx context.Context, action string, id int64, username string) (Transition, error) {
	task, err := s.store.GetBoardTask(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Debug("board transition ignored", slog.String("action", action), slog.Int64("id", id), slog.String("reason", NotFound.String()))
		return Transition{Outcome: NotFound}, nil
	}
	if err != nil {
		return Transition{}, err
	}

	outcome := WrongState
	if action == "complete" && task.Status == models.BoardTaken && task.Claimant != username {
		outcome = NotClaimant
	}
	s.logger.Debug("board transition ignored",
		slog.String("action", action),
		slog.Int64("id", id),
		slog.String("user", username),
		slog.String("status", string(task.Status)),
		slog.String("reason", outcome.String()))
	return Transition{Outcome: outcome, Task: task}, nil
}
