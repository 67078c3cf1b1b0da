package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"taskflow/internal/models"
	"taskflow/internal/storage"
)

func TestClaimIsExclusive(t *testing.T) {
	ctx := context.Background()
	s := New()
	task, err := s.CreateBoardTask(ctx, "Write docs", models.DefaultDifficulty)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, user := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			ok, err := s.ClaimBoardTask(ctx, task.ID, user, time.Now())
			if err != nil {
				t.Errorf("claim: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(user)
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("wins = %d, want 1", wins)
	}
}

func TestCompleteRequiresClaimant(t *testing.T) {
	ctx := context.Background()
	s := New()
	task, _ := s.CreateBoardTask(ctx, "Review PR", "Hard")
	if ok, _ := s.CompleteBoardTask(ctx, task.ID, "a", time.Now()); ok {
		t.Fatalf("completed a free task")
	}
	if ok, _ := s.ClaimBoardTask(ctx, task.ID, "a", time.Now()); !ok {
		t.Fatalf("claim failed")
	}
	if ok, _ := s.CompleteBoardTask(ctx, task.ID, "b", time.Now()); ok {
		t.Fatalf("non-claimant completed")
	}
	if ok, _ := s.CompleteBoardTask(ctx, task.ID, "a", time.Now()); !ok {
		t.Fatalf("claimant could not complete")
	}
	got, _ := s.GetBoardTask(ctx, task.ID)
	if got.Status != models.BoardDone || got.DoneAt == nil {
		t.Fatalf("task = %+v", got)
	}
}

func TestSyncKeepsStateAndIDs(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, _ := s.CreateBoardTask(ctx, "A", "Easy")
	b, _ := s.CreateBoardTask(ctx, "B", "Easy")
	_, _ = s.ClaimBoardTask(ctx, a.ID, "u", time.Now())

	out, err := s.SyncBoardTasks(ctx, []models.BoardTask{
		{ID: a.ID, Text: "A2", Difficulty: "Hard"},
		{Text: "C", Difficulty: "Medium"},
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(out) != 2 || out[0].ID != a.ID || out[0].Status != models.BoardTaken || out[0].Text != "A2" {
		t.Fatalf("out = %+v", out)
	}
	if out[1].ID <= b.ID {
		t.Fatalf("new id %d reused an old one", out[1].ID)
	}
	if _, err := s.GetBoardTask(ctx, b.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("removed task still present: %v", err)
	}
}

func TestDailyPrunesOlderDays(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.SaveDailyTasks(ctx, models.DailyTaskSet{Date: "2026-01-01", Tasks: []string{"x"}})
	_ = s.SaveDailyTasks(ctx, models.DailyTaskSet{Date: "2026-01-02", Tasks: []string{"y"}})
	if _, err := s.GetDailyTasks(ctx, "2026-01-01"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("old day kept: %v", err)
	}
	set, err := s.GetDailyTasks(ctx, "2026-01-02")
	if err != nil || len(set.Tasks) != 1 {
		t.Fatalf("set = %+v err = %v", set, err)
	}
}

func TestUserPositionDefault(t *testing.T) {
	p, err := New().GetUserPosition(context.Background(), "nobody")
	if err != nil || p != models.DefaultPosition {
		t.Fatalf("p = %+v err = %v", p, err)
	}
}
