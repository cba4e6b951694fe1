package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const userColumns = "id, full_name, email, avatar, online, last_seen"

// UpsertUser inserts u or overwrites the existing profile with the same id.
func (s *SQLiteStore) UpsertUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO users (id, full_name, email, avatar, online, last_seen)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            full_name = excluded.full_name,
            email = excluded.email,
            avatar = excluded.avatar,
            online = excluded.online,
            last_seen = excluded.last_seen
    `, u.ID, u.FullName, u.Email, u.Avatar, u.Online, u.LastSeen)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// SetUserOnline patches presence for an existing user. It reports false when
// the user does not exist.
func (s *SQLiteStore) SetUserOnline(ctx context.Context, userID string, online bool, lastSeen int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET online = ?, last_seen = ? WHERE id = ?", online, lastSeen, userID)
	if err != nil {
		return false, fmt.Errorf("failed to update user presence: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}
	return affected > 0, nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", userID).
		Scan(&u.ID, &u.FullName, &u.Email, &u.Avatar, &u.Online, &u.LastSeen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY full_name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.Avatar, &u.Online, &u.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
