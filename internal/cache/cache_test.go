package cache

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestFetchMemoizesUntilTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	c := New(clock.now)

	calls := 0
	produce := func() (int, error) {
		calls++
		return calls, nil
	}

	for i := 0; i < 3; i++ {
		v, err := Fetch(c, "board", 30*time.Second, produce)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if v != 1 {
			t.Fatalf("fetch #%d = %d, want 1", i, v)
		}
	}

	clock.advance(29 * time.Second)
	if v, _ := Fetch(c, "board", 30*time.Second, produce); v != 1 {
		t.Fatalf("value before expiry = %d, want 1", v)
	}

	clock.advance(time.Second)
	if v, _ := Fetch(c, "board", 30*time.Second, produce); v != 2 {
		t.Fatalf("value after expiry = %d, want 2", v)
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	c := New(nil)
	stored := "old"
	load := func() (string, error) { return stored, nil }

	if v, _ := Fetch(c, "catalog", time.Minute, load); v != "old" {
		t.Fatalf("initial = %q", v)
	}

	stored = "new"
	if v, _ := Fetch(c, "catalog", time.Minute, load); v != "old" {
		t.Fatalf("cached = %q, want old until invalidated", v)
	}

	c.Invalidate("catalog")
	if v, _ := Fetch(c, "catalog", time.Minute, load); v != "new" {
		t.Fatalf("after invalidate = %q, want new", v)
	}
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	c := New(nil)
	boom := errors.New("boom")

	if _, err := Fetch(c, "map", time.Minute, func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if c.Len() != 0 {
		t.Fatalf("len = %d, want 0", c.Len())
	}
	v, err := Fetch(c, "map", time.Minute, func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("fetch = %d, %v", v, err)
	}
}

func TestInvalidatePrefix(t *testing.T) {
	c := New(nil)
	c.Set("progress:alice", 1, time.Minute)
	c.Set("progress:bob", 2, time.Minute)
	c.Set("board", 3, time.Minute)

	c.InvalidatePrefix("progress:")

	if _, ok := c.Get("progress:alice"); ok {
		t.Fatalf("progress:alice still cached")
	}
	if _, ok := c.Get("board"); !ok {
		t.Fatalf("board evicted")
	}
}

func TestNilCacheAlwaysProduces(t *testing.T) {
	calls := 0
	for i := 0; i < 2; i++ {
		_, _ = Fetch(nil, "k", time.Minute, func() (int, error) { calls++; return calls, nil })
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}
