package progress

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"taskflow/internal/cache"
	"taskflow/internal/models"
	"taskflow/internal/storage"
	"taskflow/internal/storage/memory"
)

var (
	admin = models.User{Username: "admin", Role: models.RoleAdmin}
	alice = models.User{Username: "alice", Role: models.RoleUser}
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(t *testing.T) (*Service, *memory.Store, *clock) {
	t.Helper()
	store := memory.New()
	c := &clock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)}
	svc := NewService(store, Options{
		Cache: cache.New(c.now),
		Now:   c.now,
		Rand:  rand.New(rand.NewSource(1)),
	})
	return svc, store, c
}

func seedCatalog(t *testing.T, svc *Service, catalog models.TaskCatalog) {
	t.Helper()
	if _, err := svc.ReplaceCatalog(context.Background(), admin, catalog); err != nil {
		t.Fatalf("replace catalog: %v", err)
	}
}

func TestLevelBoundaries(t *testing.T) {
	cases := []struct {
		total int
		want  models.Level
	}{
		{0, models.LevelBeginner},
		{4, models.LevelBeginner},
		{5, models.LevelExplorer},
		{9, models.LevelExplorer},
		{10, models.LevelMaster},
		{19, models.LevelMaster},
		{20, models.LevelExpert},
		{29, models.LevelExpert},
		{30, models.LevelLegend},
		{300, models.LevelLegend},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.total); got != tc.want {
			t.Fatalf("LevelFor(%d)=%s, want %s", tc.total, got, tc.want)
		}
	}
}

func TestPercentage(t *testing.T) {
	cases := map[int]int{0: 0, 1: 3, 15: 50, 29: 96, 30: 100, 45: 100}
	for total, want := range cases {
		if got := PercentageFor(total); got != want {
			t.Fatalf("PercentageFor(%d)=%d, want %d", total, got, want)
		}
	}
}

func TestResolvePosition(t *testing.T) {
	a := models.Point{X: 40, Y: 40}
	b := models.Point{X: 60, Y: 30}
	start := models.Point{X: 10, Y: 90}
	cfg := models.MapConfig{
		StartPoint: start,
		Checkpoints: []models.Checkpoint{
			{Required: 5, Position: a, Name: "A"},
			{Required: 10, Position: b, Name: "B"},
		},
	}

	cases := []struct {
		total    int
		pos      models.Point
		next     int
		unlocked int
	}{
		{0, start, 5, 0},
		{4, start, 5, 0},
		{5, a, 10, 1},
		{7, a, 10, 1},
		{10, b, 0, 2},
		{12, b, 0, 2},
	}
	for _, tc := range cases {
		got := ResolvePosition(tc.total, cfg)
		if got.Position != tc.pos || got.NextRequired != tc.next || len(got.Unlocked) != tc.unlocked {
			t.Fatalf("ResolvePosition(%d)=%+v, want pos %v next %d unlocked %d", tc.total, got, tc.pos, tc.next, tc.unlocked)
		}
	}

	empty := ResolvePosition(50, models.MapConfig{StartPoint: start})
	if empty.Position != start || empty.NextRequired != 1 {
		t.Fatalf("no checkpoints = %+v", empty)
	}
}

func TestValidateMapSortsAndRejects(t *testing.T) {
	cfg := models.MapConfig{
		Checkpoints: []models.Checkpoint{
			{Required: 10, Name: "late", Position: models.Point{X: 50, Y: 50}},
			{Required: 5, Name: "early", Position: models.Point{X: 20, Y: 50}},
		},
	}
	if err := ValidateMap(&cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Checkpoints[0].Name != "early" {
		t.Fatalf("checkpoints not sorted: %+v", cfg.Checkpoints)
	}

	bad := models.MapConfig{Checkpoints: []models.Checkpoint{{Required: -1}}}
	if err := ValidateMap(&bad); !errors.Is(err, ErrInvalid) {
		t.Fatalf("negative required err = %v", err)
	}
	off := models.MapConfig{StartPoint: models.Point{X: 120}}
	if err := ValidateMap(&off); !errors.Is(err, ErrInvalid) {
		t.Fatalf("off-map err = %v", err)
	}
}

func TestLedgerMarkIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	date := "2024-05-01"

	for i := 0; i < 2; i++ {
		if err := svc.MarkDone(ctx, "alice", date, "Write tests"); err != nil {
			t.Fatalf("mark: %v", err)
		}
	}
	done, err := svc.IsDone(ctx, "alice", date, "Write tests")
	if err != nil || !done {
		t.Fatalf("IsDone = %v, %v", done, err)
	}
	raw, _ := store.GetUserProgress(ctx, "alice", date)
	if len(raw) != 1 {
		t.Fatalf("ledger = %v, want one entry", raw)
	}
	if err := svc.MarkDone(ctx, "alice", date, "   "); !errors.Is(err, ErrInvalid) {
		t.Fatalf("blank mark err = %v", err)
	}
}

func TestLedgerIsDoneTrimsText(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	date := "2024-05-01"

	if err := svc.MarkDone(ctx, "alice", date, "  Read docs "); err != nil {
		t.Fatalf("mark: %v", err)
	}
	for _, text := range []string{"  Read docs ", "Read docs"} {
		if done, err := svc.IsDone(ctx, "alice", date, text); err != nil || !done {
			t.Fatalf("IsDone(%q) = %v, %v", text, done, err)
		}
	}
}

func TestLedgerUnmark(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	date := "2024-05-01"

	removed, err := svc.UnmarkDone(ctx, "alice", date, "Write tests")
	if err != nil || removed {
		t.Fatalf("unmark without mark = %v, %v", removed, err)
	}

	_ = svc.MarkDone(ctx, "alice", date, "Write tests")
	if done, _ := svc.IsDone(ctx, "alice", date, "Write tests"); !done {
		t.Fatalf("not done after mark")
	}
	removed, err = svc.UnmarkDone(ctx, "alice", date, "Write tests")
	if err != nil || !removed {
		t.Fatalf("unmark after mark = %v, %v", removed, err)
	}
	if done, _ := svc.IsDone(ctx, "alice", date, "Write tests"); done {
		t.Fatalf("still done after unmark")
	}
}

func TestProgressCountsAcrossDays(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_ = svc.MarkDone(ctx, "alice", "2024-04-29", "Write tests")
	_ = svc.MarkDone(ctx, "alice", "2024-04-30", "Write tests")
	_ = svc.MarkDone(ctx, "alice", "2024-04-30", "Read docs")

	snap, err := svc.ComputeProgress(ctx, "alice")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if snap.TotalCompleted != 3 || snap.Level != models.LevelBeginner || snap.ProgressPercentage != 10 {
		t.Fatalf("snapshot = %+v", snap)
	}

	for i := 0; i < 2; i++ {
		_ = svc.MarkDone(ctx, "alice", "2024-05-01", string(rune('a'+i)))
	}
	snap, _ = svc.ComputeProgress(ctx, "alice")
	if snap.TotalCompleted != 5 || snap.Level != models.LevelExplorer {
		t.Fatalf("snapshot after invalidation = %+v", snap)
	}

	other, _ := svc.ComputeProgress(ctx, "bob")
	if other.TotalCompleted != 0 || other.Level != models.LevelBeginner {
		t.Fatalf("bob = %+v", other)
	}
}

func TestSnapshotUsesMapAndPin(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	for i := 0; i < 7; i++ {
		_ = svc.MarkDone(ctx, "alice", "2024-05-01", string(rune('a'+i)))
	}
	if err := svc.SetPin(ctx, "alice", models.Point{X: 33, Y: 44}); err != nil {
		t.Fatalf("pin: %v", err)
	}

	snap, err := svc.Snapshot(ctx, "alice")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	def := models.DefaultMapConfig()
	if snap.Position != def.Checkpoints[0].Position || snap.NextRequired != 10 {
		t.Fatalf("snapshot position = %+v", snap)
	}
	if len(snap.Unlocked) != 1 || snap.Pin != (models.Point{X: 33, Y: 44}) {
		t.Fatalf("snapshot = %+v", snap)
	}
	if err := svc.SetPin(ctx, "alice", models.Point{X: -1, Y: 0}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("bad pin err = %v", err)
	}
}

func TestSaveMapConfigRequiresAdminAndInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	if cfg, _ := svc.MapConfig(ctx); len(cfg.Checkpoints) != 2 {
		t.Fatalf("default map not served: %+v", cfg)
	}

	cfg := models.MapConfig{
		StartPoint:  models.Point{X: 1, Y: 1},
		Checkpoints: []models.Checkpoint{{Required: 3, Name: "only", Position: models.Point{X: 9, Y: 9}}},
	}
	if _, err := svc.SaveMapConfig(ctx, alice, cfg); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-admin save err = %v", err)
	}
	saved, err := svc.SaveMapConfig(ctx, admin, cfg)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.UpdatedBy != "admin" || len(saved.Checkpoints) != 1 {
		t.Fatalf("saved = %+v", saved)
	}
	got, _ := svc.MapConfig(ctx)
	if len(got.Checkpoints) != 1 {
		t.Fatalf("stale map served after save: %+v", got)
	}
}

func TestDailyTasksStableWithinDay(t *testing.T) {
	ctx := context.Background()
	svc, store, c := newTestService(t)
	seedCatalog(t, svc, models.TaskCatalog{
		"button1": {"a", "b", "c"},
		"button2": {"d", "e"},
		"button3": {"f", "a"},
	})

	first, err := svc.DailyTasks(ctx)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if first.Date != "2024-05-01" || len(first.Tasks) != DailyTaskLimit {
		t.Fatalf("daily = %+v", first)
	}
	assertUnique(t, first.Tasks)

	second, _ := svc.DailyTasks(ctx)
	if !equal(first.Tasks, second.Tasks) {
		t.Fatalf("same day differs: %v vs %v", first.Tasks, second.Tasks)
	}

	c.t = c.t.Add(24 * time.Hour)
	next, err := svc.DailyTasks(ctx)
	if err != nil {
		t.Fatalf("next day: %v", err)
	}
	if next.Date != "2024-05-02" || len(next.Tasks) != DailyTaskLimit {
		t.Fatalf("next day = %+v", next)
	}
	assertUnique(t, next.Tasks)
	if _, err := store.GetDailyTasks(ctx, "2024-05-01"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("previous day kept: %v", err)
	}
}

func TestDailyTasksSmallAndEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	svc, _, c := newTestService(t)

	set, err := svc.DailyTasks(ctx)
	if err != nil || len(set.Tasks) != 0 {
		t.Fatalf("empty catalog daily = %+v, %v", set, err)
	}

	seedCatalog(t, svc, models.TaskCatalog{"button1": {"x", "x"}, "button3": {"y"}})
	c.t = c.t.Add(24 * time.Hour)
	set, err = svc.DailyTasks(ctx)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if len(set.Tasks) != 2 {
		t.Fatalf("daily = %v, want both distinct tasks", set.Tasks)
	}
	assertUnique(t, set.Tasks)
}

func TestDailyTasksRecoverFromCorruptRecord(t *testing.T) {
	ctx := context.Background()
	store := &corruptDaily{Store: memory.New()}
	c := &clock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)}
	svc := NewService(store, Options{Now: c.now, Rand: rand.New(rand.NewSource(2))})
	seedCatalog(t, svc, models.TaskCatalog{"button1": {"a", "b", "c", "d"}})

	set, err := svc.DailyTasks(ctx)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if len(set.Tasks) != 3 {
		t.Fatalf("regenerated set = %v", set.Tasks)
	}
}

type corruptDaily struct {
	*memory.Store
	served bool
}

func (c *corruptDaily) GetDailyTasks(ctx context.Context, date string) (models.DailyTaskSet, error) {
	if !c.served {
		c.served = true
		return models.DailyTaskSet{}, storage.ErrCorrupt
	}
	return c.Store.GetDailyTasks(ctx, date)
}

func TestRegenerateDailyTasks(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	seedCatalog(t, svc, models.TaskCatalog{"button1": {"a", "b", "c", "d", "e", "f", "g", "h"}})

	if _, err := svc.RegenerateDailyTasks(ctx, alice); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-admin regenerate err = %v", err)
	}
	fresh, err := svc.RegenerateDailyTasks(ctx, admin)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	got, _ := svc.DailyTasks(ctx)
	if !equal(fresh.Tasks, got.Tasks) {
		t.Fatalf("cache served stale set: %v vs %v", got.Tasks, fresh.Tasks)
	}
}

func TestTodayView(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	seedCatalog(t, svc, models.TaskCatalog{"button1": {"a", "b", "c"}})

	set, _ := svc.DailyTasks(ctx)
	_ = svc.MarkDone(ctx, "alice", set.Date, set.Tasks[1])

	view, err := svc.TodayView(ctx, "alice")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	for i, task := range view.Tasks {
		if task.Done != (i == 1) {
			t.Fatalf("view = %+v", view)
		}
	}
	anon, _ := svc.TodayView(ctx, "")
	for _, task := range anon.Tasks {
		if task.Done {
			t.Fatalf("anonymous view has done task: %+v", anon)
		}
	}
}

func TestBoardStateMachine(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	added, err := svc.AddBoardTasks(ctx, admin, []NewBoardTask{{Text: "Fix printer"}, {Text: "  "}, {Text: "Ship it", Difficulty: "Hard"}})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(added) != 2 || added[0].Difficulty != models.DefaultDifficulty {
		t.Fatalf("added = %+v", added)
	}
	id := added[0].ID

	tr, err := svc.Claim(ctx, id, "alice")
	if err != nil || tr.Outcome != Applied || tr.Task.Status != models.BoardTaken || tr.Task.Claimant != "alice" || tr.Task.TakenAt == nil {
		t.Fatalf("claim = %+v, %v", tr, err)
	}
	if tr, _ := svc.Claim(ctx, id, "bob"); tr.Outcome != WrongState || tr.Task.Claimant != "alice" {
		t.Fatalf("double claim = %+v", tr)
	}
	if tr, _ := svc.Complete(ctx, id, "bob"); tr.Outcome != NotClaimant || tr.Task.Status != models.BoardTaken {
		t.Fatalf("complete by non-claimant = %+v", tr)
	}
	if done, _ := store.GetAllProgress(ctx, "bob"); len(done) != 0 {
		t.Fatalf("bob credited: %v", done)
	}

	tr, err = svc.Complete(ctx, id, "alice")
	if err != nil || tr.Outcome != Applied || tr.Task.Status != models.BoardDone || tr.Task.DoneAt == nil {
		t.Fatalf("complete = %+v, %v", tr, err)
	}
	ledger, _ := store.GetUserProgress(ctx, "alice", svc.Today())
	if len(ledger) != 1 || ledger[0] != BoardTaskPrefix+"Fix printer" {
		t.Fatalf("ledger = %v", ledger)
	}

	if tr, _ := svc.Claim(ctx, id, "carol"); tr.Outcome != WrongState || tr.Task.Status != models.BoardDone {
		t.Fatalf("claim done task = %+v", tr)
	}
	if tr, _ := svc.Complete(ctx, id, "alice"); tr.Outcome != WrongState {
		t.Fatalf("complete twice = %+v", tr)
	}
	if tr, _ := svc.Claim(ctx, 999, "alice"); tr.Outcome != NotFound {
		t.Fatalf("claim missing = %+v", tr)
	}
	if tr, _ := svc.Complete(ctx, added[1].ID, "alice"); tr.Outcome != WrongState {
		t.Fatalf("complete free task = %+v", tr)
	}

	archive, _ := svc.Archive(ctx)
	if len(archive) != 1 || archive[0].ID != id {
		t.Fatalf("archive = %+v", archive)
	}
	if snap, _ := svc.ComputeProgress(ctx, "alice"); snap.TotalCompleted != 1 {
		t.Fatalf("board completion not counted: %+v", snap)
	}
}

func TestSameTextBoardTasksCountSeparately(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	added, err := svc.AddBoardTasks(ctx, admin, []NewBoardTask{{Text: "Fix printer"}, {Text: "Fix printer"}})
	if err != nil || len(added) != 2 {
		t.Fatalf("add = %+v, %v", added, err)
	}
	for _, task := range added {
		if tr, err := svc.Claim(ctx, task.ID, "alice"); err != nil || tr.Outcome != Applied {
			t.Fatalf("claim %d = %+v, %v", task.ID, tr, err)
		}
		if tr, err := svc.Complete(ctx, task.ID, "alice"); err != nil || tr.Outcome != Applied {
			t.Fatalf("complete %d = %+v, %v", task.ID, tr, err)
		}
	}

	ledger, _ := store.GetUserProgress(ctx, "alice", svc.Today())
	if len(ledger) != 2 {
		t.Fatalf("ledger = %v, want two entries", ledger)
	}
	snap, err := svc.ComputeProgress(ctx, "alice")
	if err != nil || snap.TotalCompleted != 2 {
		t.Fatalf("TotalCompleted = %d, %v, want 2", snap.TotalCompleted, err)
	}

	archive, _ := svc.Archive(ctx)
	if len(archive) != 2 || archive[0].ID != added[0].ID || archive[1].ID != added[1].ID {
		t.Fatalf("archive = %+v, want id order", archive)
	}
}

func TestReplaceBoard(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	added, _ := svc.AddBoardTasks(ctx, admin, []NewBoardTask{{Text: "a"}, {Text: "b"}})
	_, _ = svc.Claim(ctx, added[1].ID, "alice")

	if _, err := svc.ReplaceBoard(ctx, alice, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-admin replace err = %v", err)
	}
	board, err := svc.ReplaceBoard(ctx, admin, []NewBoardTask{{ID: added[1].ID, Text: "b!"}, {Text: "c", Difficulty: "Easy"}})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(board) != 2 || board[0].ID != added[1].ID || board[0].Status != models.BoardTaken || board[0].Text != "b!" {
		t.Fatalf("board = %+v", board)
	}
	if board[1].ID <= added[1].ID {
		t.Fatalf("new task reused id: %+v", board[1])
	}
	cached, _ := svc.Board(ctx)
	if len(cached) != 2 {
		t.Fatalf("stale board served: %+v", cached)
	}
}

func TestSetCoins(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	_ = store.CreateUser(ctx, models.User{Username: "alice", Role: models.RoleUser})

	if err := svc.SetCoins(ctx, alice, "alice", 1000); !errors.Is(err, ErrForbidden) {
		t.Fatalf("self-award err = %v", err)
	}
	if err := svc.SetCoins(ctx, admin, "alice", -5); !errors.Is(err, ErrInvalid) {
		t.Fatalf("negative coins err = %v", err)
	}
	if err := svc.SetCoins(ctx, admin, "alice", 25); err != nil {
		t.Fatalf("set coins: %v", err)
	}
	if u, _ := store.GetUser(ctx, "alice"); u.Coins != 25 {
		t.Fatalf("coins = %d", u.Coins)
	}
}

func assertUnique(t *testing.T, items []string) {
	t.Helper()
	seen := map[string]bool{}
	for _, item := range items {
		if seen[item] {
			t.Fatalf("duplicate %q in %v", item, items)
		}
		seen[item] = true
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
