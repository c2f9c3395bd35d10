package repository

import "time"

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithMaxOpenConns caps concurrent database connections.
func WithMaxOpenConns(n int) Option {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.db.SetMaxOpenConns(n)
		}
	}
}

// WithClock replaces the time source used for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		if now != nil {
			s.now = now
		}
	}
}
