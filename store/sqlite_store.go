package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
)

// SQLiteStore keeps checkpoints in the checkpoints table of a SQLite
// database opened with engine.Open.
type SQLiteStore struct {
	db    *sql.DB
	clock clockwork.Clock
}

// SQLiteOpt configures a SQLiteStore.
type SQLiteOpt func(*SQLiteStore)

// WithClock sets the clock used for updated_at.
func WithClock(clock clockwork.Clock) SQLiteOpt {
	return func(s *SQLiteStore) {
		s.clock = clock
	}
}

// NewSQLiteStore creates a SQLite-backed Store. It ensures the checkpoints
// table exists in the provided database.
func NewSQLiteStore(db *sql.DB, opts ...SQLiteOpt) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("store: db is nil")
	}
	if err := EnsureSchema(db); err != nil {
		return nil, fmt.Errorf("store: ensure schema: %w", err)
	}
	s := &SQLiteStore{db: db, clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM checkpoints WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}
	return body, nil
}

func (s *SQLiteStore) Put(ctx context.Context, id string, body []byte) error {
	if id == "" {
		return fmt.Errorf("store: Put called with empty id")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO checkpoints(id, body, updated_at) VALUES(?, ?, ?)
ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		id, body, s.clock.Now().Unix())
	if err != nil {
		return fmt.Errorf("store: put %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	return nil
}

// List returns the stored checkpoint IDs in ascending order.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM checkpoints ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatedAt returns the unix time of the last Put for id.
func (s *SQLiteStore) UpdatedAt(ctx context.Context, id string) (int64, error) {
	var ts int64
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM checkpoints WHERE id = ?`, id).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return ts, err
}

var _ Store = (*SQLiteStore)(nil)
