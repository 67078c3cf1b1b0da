// Package progress turns task completions into levels, map positions and
// unlocked checkpoints, and owns the daily task rotation and the task board.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"taskflow/internal/cache"
	"taskflow/internal/models"
	"taskflow/internal/storage"
)

var (
	// ErrForbidden is returned when a non-admin edits shared configuration.
	ErrForbidden = errors.New("admin role required")
	// ErrInvalid is returned for input that fails validation.
	ErrInvalid = errors.New("invalid input")
)

// TTLs bounds how long each kind of read is served from the cache.
type TTLs struct {
	Catalog  time.Duration
	Daily    time.Duration
	Board    time.Duration
	Progress time.Duration
	Map      time.Duration
}

// DefaultTTLs returns the standard cache lifetimes.
func DefaultTTLs() TTLs {
	return TTLs{
		Catalog:  300 * time.Second,
		Daily:    3600 * time.Second,
		Board:    30 * time.Second,
		Progress: 30 * time.Second,
		Map:      300 * time.Second,
	}
}

// Options tune a Service. Zero values select defaults.
type Options struct {
	Cache  *cache.Cache
	TTLs   *TTLs
	Logger *slog.Logger
	Now    func() time.Time
	Rand   *rand.Rand
}

// Service is the entry point for every progress-related read and write.
type Service struct {
	store  storage.Store
	cache  *cache.Cache
	ttl    TTLs
	logger *slog.Logger
	now    func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	dailyMu  sync.Mutex
	ledgerMu sync.Mutex
}

// NewService builds a Service over store.
func NewService(store storage.Store, opts Options) *Service {
	s := &Service{
		store:  store,
		cache:  opts.Cache,
		ttl:    DefaultTTLs(),
		logger: opts.Logger,
		now:    opts.Now,
		rng:    opts.Rand,
	}
	if s.cache == nil {
		s.cache = cache.New(opts.Now)
	}
	if opts.TTLs != nil {
		s.ttl = *opts.TTLs
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Store exposes the underlying persistence backend.
func (s *Service) Store() storage.Store {
	return s.store
}

// Today returns the current calendar date key.
func (s *Service) Today() string {
	return s.now().Format(models.DateLayout)
}

func requireAdmin(editor models.User) error {
	if !editor.IsAdmin() {
		return fmt.Errorf("%s: %w", editor.Username, ErrForbidden)
	}
	return nil
}

// SetCoins overwrites a user's coin balance.
func (s *Service) SetCoins(ctx context.Context, editor models.User, username string, coins int) error {
	if err := requireAdmin(editor); err != nil {
		return err
	}
	if coins < 0 {
		return fmt.Errorf("coins must not be negative: %w", ErrInvalid)
	}
	return s.store.UpdateCoins(ctx, username, coins)
}

const (
	keyCatalog     = "catalog"
	keyBoard       = "board"
	keyMap         = "map"
	prefixDaily    = "daily:"
	prefixProgress = "progress:"
	prefixLedger   = "ledger:"
)

func dailyKey(date string) string            { return prefixDaily + date }
func progressKey(username string) string     { return prefixProgress + username }
func ledgerKey(username, date string) string { return prefixLedger + username + ":" + date }
