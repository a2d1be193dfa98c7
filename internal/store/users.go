package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type User struct {
	ID          int64
	Email       string
	Username    string
	IsStaff     bool
	AccessToken string
	DateJoined  time.Time
	LastLogin   time.Time
}

const userColumns = "id, email, username, is_staff, access_token, date_joined, last_login"

func scanUser(scan func(...any) error) (User, error) {
	var (
		u              User
		joined, lastIn int64
	)
	if err := scan(&u.ID, &u.Email, &u.Username, &u.IsStaff, &u.AccessToken, &joined, &lastIn); err != nil {
		return User{}, err
	}
	u.DateJoined = fromMillis(joined)
	u.LastLogin = fromMillis(lastIn)
	return u, nil
}

// UpsertUser creates the user identified by email or refreshes its login
// details. Staff is only ever granted here, never revoked.
func (s *Store) UpsertUser(ctx context.Context, u User) (User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Email == "" {
		return User{}, fmt.Errorf("user email is required")
	}
	if u.Username == "" {
		u.Username = u.Email
	}
	now := time.Now()
	if u.LastLogin.IsZero() {
		u.LastLogin = now
	}

	row := s.queryRow(ctx, s.db, `
INSERT INTO users (email, username, is_staff, access_token, date_joined, last_login)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (email) DO UPDATE SET
    is_staff = (users.is_staff OR excluded.is_staff),
    access_token = excluded.access_token,
    last_login = excluded.last_login
RETURNING `+userColumns,
		u.Email, u.Username, u.IsStaff, u.AccessToken, toMillis(now), toMillis(u.LastLogin))

	saved, err := scanUser(row.Scan)
	if err != nil {
		return User{}, fmt.Errorf("upsert user %s: %w", u.Email, err)
	}
	return saved, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (User, error) {
	row := s.queryRow(ctx, s.db, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	u, err := scanUser(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := s.queryRow(ctx, s.db, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	u, err := scanUser(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user %s: %w", email, err)
	}
	return u, nil
}
