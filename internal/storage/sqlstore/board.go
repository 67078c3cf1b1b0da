package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskflow/internal/models"
	"taskflow/internal/storage"
)

const boardColumns = `id, text, difficulty, status, claimant, taken_at, done_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBoardTask(row rowScanner) (models.BoardTask, error) {
	var (
		t        models.BoardTask
		status   string
		claimant sql.NullString
		takenAt  sql.NullTime
		doneAt   sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.Text, &t.Difficulty, &status, &claimant, &takenAt, &doneAt); err != nil {
		return models.BoardTask{}, err
	}
	t.Status = models.BoardStatus(status)
	t.Claimant = claimant.String
	if takenAt.Valid {
		ts := takenAt.Time
		t.TakenAt = &ts
	}
	if doneAt.Valid {
		ts := doneAt.Time
		t.DoneAt = &ts
	}
	return t, nil
}

// ListBoardTasks returns the board ordered by id.
func (s *Store) ListBoardTasks(ctx context.Context) ([]models.BoardTask, error) {
	return s.listBoardTasks(ctx, s.db)
}

func (s *Store) listBoardTasks(ctx context.Context, q querier) ([]models.BoardTask, error) {
	rows, err := s.query(ctx, q, `SELECT `+boardColumns+` FROM board_tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list board tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.BoardTask{}
	for rows.Next() {
		t, err := scanBoardTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan board task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetBoardTask retrieves a board task by id.
func (s *Store) GetBoardTask(ctx context.Context, id int64) (models.BoardTask, error) {
	t, err := scanBoardTask(s.queryRow(ctx, s.db, `SELECT `+boardColumns+` FROM board_tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.BoardTask{}, fmt.Errorf("board task %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.BoardTask{}, fmt.Errorf("get board task: %w", err)
	}
	return t, nil
}

// CreateBoardTask inserts a free task; the id comes from the table's sequence.
func (s *Store) CreateBoardTask(ctx context.Context, text, difficulty string) (models.BoardTask, error) {
	id, err := s.insertBoardTask(ctx, s.db, text, difficulty)
	if err != nil {
		return models.BoardTask{}, err
	}
	return s.GetBoardTask(ctx, id)
}

func (s *Store) insertBoardTask(ctx context.Context, q querier, text, difficulty string) (int64, error) {
	var id int64
	err := s.queryRow(ctx, q, `INSERT INTO board_tasks(text, difficulty, status, created_at) VALUES(?, ?, ?, ?) RETURNING id`,
		text, difficulty, string(models.BoardFree), s.timestamp()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert board task: %w", err)
	}
	return id, nil
}

// SyncBoardTasks merges the submitted board into the stored one by id.
func (s *Store) SyncBoardTasks(ctx context.Context, tasks []models.BoardTask) ([]models.BoardTask, error) {
	var out []models.BoardTask
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		keep := []any{}
		for _, t := range tasks {
			if t.ID > 0 {
				res, err := s.exec(ctx, tx, `UPDATE board_tasks SET text = ?, difficulty = ? WHERE id = ?`, t.Text, t.Difficulty, t.ID)
				if err != nil {
					return fmt.Errorf("update board task: %w", err)
				}
				if n, err := res.RowsAffected(); err != nil {
					return err
				} else if n > 0 {
					keep = append(keep, t.ID)
				}
				continue
			}
			id, err := s.insertBoardTask(ctx, tx, t.Text, t.Difficulty)
			if err != nil {
				return err
			}
			keep = append(keep, id)
		}

		del := `DELETE FROM board_tasks`
		if len(keep) > 0 {
			del += ` WHERE id NOT IN (` + strings.TrimSuffix(strings.Repeat("?, ", len(keep)), ", ") + `)`
		}
		if _, err := s.exec(ctx, tx, del, keep...); err != nil {
			return fmt.Errorf("prune board tasks: %w", err)
		}

		var err error
		out, err = s.listBoardTasks(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ClaimBoardTask atomically moves a free task to taken.
func (s *Store) ClaimBoardTask(ctx context.Context, id int64, username string, at time.Time) (bool, error) {
	res, err := s.exec(ctx, s.db, `UPDATE board_tasks SET status = ?, claimant = ?, taken_at = ? WHERE id = ? AND status = ?`,
		string(models.BoardTaken), username, at.UTC(), id, string(models.BoardFree))
	if err != nil {
		return false, fmt.Errorf("claim board task: %w", err)
	}
	return changed(res)
}

// CompleteBoardTask atomically moves a task taken by username to done.
func (s *Store) CompleteBoardTask(ctx context.Context, id int64, username string, at time.Time) (bool, error) {
	res, err := s.exec(ctx, s.db, `UPDATE board_tasks SET status = ?, done_at = ? WHERE id = ? AND status = ? AND claimant = ?`,
		string(models.BoardDone), at.UTC(), id, string(models.BoardTaken), username)
	if err != nil {
		return false, fmt.Errorf("complete board task: %w", err)
	}
	return changed(res)
}

func changed(res sql.Result) (bool, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
