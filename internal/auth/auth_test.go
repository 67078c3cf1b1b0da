package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskflow/internal/models"
	"taskflow/internal/storage"
	"taskflow/internal/storage/memory"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	u, err := Register(ctx, store, "  carol ", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Username != "carol" || u.Role != models.RoleUser || u.Coins != 0 {
		t.Fatalf("registered user = %+v", u)
	}
	if u.PasswordHash == "secret" {
		t.Fatalf("password stored in clear text")
	}

	if _, err := Register(ctx, store, "carol", "other"); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate register err = %v", err)
	}
	if _, err := Register(ctx, store, "", "x"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("blank register err = %v", err)
	}

	if _, err := Authenticate(ctx, store, "carol", "secret"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := Authenticate(ctx, store, "carol", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := Authenticate(ctx, store, "nobody", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user err = %v", err)
	}
}

func TestSessionsExpire(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessions(func() time.Time { return now })

	token := s.Create("alice", time.Hour)
	if user, ok := s.Lookup(token); !ok || user != "alice" {
		t.Fatalf("lookup = %q, %v", user, ok)
	}
	if _, ok := s.Lookup("not-a-token"); ok {
		t.Fatalf("garbage token accepted")
	}

	now = now.Add(time.Hour)
	if _, ok := s.Lookup(token); ok {
		t.Fatalf("expired token accepted")
	}

	other := s.Create("bob", time.Hour)
	s.Revoke(other)
	if _, ok := s.Lookup(other); ok {
		t.Fatalf("revoked token accepted")
	}
}
