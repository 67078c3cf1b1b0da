package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"taskflow/internal/models"
	"taskflow/internal/storage"
)

// GetUser fetches a single user by name.
func (s *Store) GetUser(ctx context.Context, username string) (models.User, error) {
	var u models.User
	var role string
	err := s.queryRow(ctx, s.db, `SELECT username, password_hash, role, coins, created_at FROM users WHERE username = ?`, username).
		Scan(&u.Username, &u.PasswordHash, &role, &u.Coins, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	u.Role = models.Role(role)
	return u, nil
}

// ListUsers returns every user ordered by name.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.query(ctx, s.db, `SELECT username, password_hash, role, coins, created_at FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var role string
		if err := rows.Scan(&u.Username, &u.PasswordHash, &role, &u.Coins, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Role = models.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateUser inserts a user, failing with storage.ErrConflict if the name is taken.
func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	res, err := s.exec(ctx, s.db, `INSERT INTO users(username, password_hash, role, coins, created_at) VALUES(?, ?, ?, ?, ?)
        ON CONFLICT(username) DO NOTHING`, user.Username, user.PasswordHash, string(user.Role), user.Coins, s.timestamp())
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("user %q: %w", user.Username, storage.ErrConflict)
	}
	return nil
}

// UpdateCoins sets a user's coin balance.
func (s *Store) UpdateCoins(ctx context.Context, username string, coins int) error {
	res, err := s.exec(ctx, s.db, `UPDATE users SET coins = ? WHERE username = ?`, coins, username)
	if err != nil {
		return fmt.Errorf("update coins: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	return nil
}
