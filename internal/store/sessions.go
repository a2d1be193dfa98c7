package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SessionRecord is the persisted form of a session. Data is opaque to the
// store.
type SessionRecord struct {
	Key    string
	Data   []byte
	Expiry time.Time
}

// LoadSession returns the session stored under key. Expired sessions are
// reported as ErrNotFound.
func (s *Store) LoadSession(ctx context.Context, key string) (SessionRecord, error) {
	var (
		data   []byte
		expiry int64
	)
	err := s.queryRow(ctx, s.db,
		"SELECT session_data, expire_date FROM sessions WHERE session_key = ?", key,
	).Scan(&data, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, ErrNotFound
	}
	if err != nil {
		return SessionRecord{}, fmt.Errorf("load session: %w", err)
	}

	rec := SessionRecord{Key: key, Data: data, Expiry: fromMillis(expiry)}
	if !rec.Expiry.After(time.Now()) {
		return SessionRecord{}, ErrNotFound
	}
	return rec, nil
}

// SaveSession inserts or replaces a session.
func (s *Store) SaveSession(ctx context.Context, rec SessionRecord) error {
	_, err := s.exec(ctx, s.db, `
INSERT INTO sessions (session_key, session_data, expire_date) VALUES (?, ?, ?)
ON CONFLICT (session_key) DO UPDATE SET
    session_data = excluded.session_data,
    expire_date = excluded.expire_date`,
		rec.Key, rec.Data, toMillis(rec.Expiry))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, key string) error {
	if _, err := s.exec(ctx, s.db, "DELETE FROM sessions WHERE session_key = ?", key); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions removes sessions that expired before now and reports
// how many were deleted.
func (s *Store) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.exec(ctx, s.db, "DELETE FROM sessions WHERE expire_date < ?", toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}
