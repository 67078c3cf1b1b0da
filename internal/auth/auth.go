// Package auth verifies credentials and tracks login sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"taskflow/internal/models"
	"taskflow/internal/storage"
)

var (
	// ErrInvalidCredentials is returned for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrMissingFields is returned when registration lacks a username or password.
	ErrMissingFields = errors.New("username and password are required")
)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Authenticate checks username and password against the store.
func Authenticate(ctx context.Context, store storage.Store, username, password string) (models.User, error) {
	user, err := store.GetUser(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Register creates a regular user with no coins.
func Register(ctx context.Context, store storage.Store, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.User{}, ErrMissingFields
	}
	hash, err := HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{Username: username, PasswordHash: hash, Role: models.RoleUser}
	if err := store.CreateUser(ctx, user); err != nil {
		return models.User{}, err
	}
	return store.GetUser(ctx, username)
}

type session struct {
	username string
	expires  time.Time
}

// Sessions maps opaque tokens to usernames. Tokens live in process memory.
type Sessions struct {
	mu   sync.Mutex
	byID map[string]session
	now  func() time.Time
}

// NewSessions builds an empty session table. A nil clock uses time.Now.
func NewSessions(now func() time.Time) *Sessions {
	if now == nil {
		now = time.Now
	}
	return &Sessions{byID: make(map[string]session), now: now}
}

// Create issues a token for username valid for ttl.
func (s *Sessions) Create(username string, ttl time.Duration) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.byID[token] = session{username: username, expires: s.now().Add(ttl)}
	s.mu.Unlock()
	return token
}

// Lookup returns the username bound to token if it has not expired.
func (s *Sessions) Lookup(token string) (string, bool) {
	if _, err := uuid.Parse(token); err != nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[token]
	if !ok {
		return "", false
	}
	if !s.now().Before(sess.expires) {
		delete(s.byID, token)
		return "", false
	}
	return sess.username, true
}

// Revoke forgets token.
func (s *Sessions) Revoke(token string) {
	s.mu.Lock()
	delete(s.byID, token)
	s.mu.Unlock()
}
