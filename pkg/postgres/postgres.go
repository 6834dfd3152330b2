// Package postgres provides a storefront.Storage over a PostgreSQL key-value
// table and a Watcher using LISTEN/NOTIFY.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zoobzio/storefront"
)

// Defaults for the backing table and notification channel.
const (
	DefaultTable   = "storefront_kv"
	DefaultChannel = "storefront_changed"
)

// Storage keeps each key as a row of a key-value table.
type Storage struct {
	pool    *pgxpool.Pool
	table   string
	channel string
}

// Option configures a Storage.
type Option func(*Storage)

// WithTable sets the table name. Defaults to DefaultTable.
func WithTable(table string) Option {
	return func(s *Storage) {
		s.table = table
	}
}

// WithChannel sets the notification channel. Defaults to DefaultChannel.
func WithChannel(channel string) Option {
	return func(s *Storage) {
		s.channel = channel
	}
}

// New creates a Storage over pool. Call Migrate once before use.
func New(pool *pgxpool.Pool, opts ...Option) *Storage {
	s := &Storage{
		pool:    pool,
		table:   DefaultTable,
		channel: DefaultChannel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the table and a trigger that notifies the channel with the
// key of every inserted, updated or deleted row. It is idempotent.
func (s *Storage) Migrate(ctx context.Context) error {
	ident := pgx.Identifier{s.table}.Sanitize()
	fn := pgx.Identifier{s.table + "_notify"}.Sanitize()
	trigger := pgx.Identifier{s.table + "_notify_trigger"}.Sanitize()

	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			key TEXT PRIMARY KEY,
			value BYTEA NOT NULL
		);

		CREATE OR REPLACE FUNCTION %[2]s() RETURNS trigger AS $$
		BEGIN
			IF TG_OP = 'DELETE' THEN
				PERFORM pg_notify(TG_ARGV[0], OLD.key);
			ELSE
				PERFORM pg_notify(TG_ARGV[0], NEW.key);
			END IF;
			RETURN NULL;
		END;
		$$ LANGUAGE plpgsql;

		DROP TRIGGER IF EXISTS %[3]s ON %[1]s;
		CREATE TRIGGER %[3]s
			AFTER INSERT OR UPDATE OR DELETE ON %[1]s
			FOR EACH ROW EXECUTE FUNCTION %[2]s(%[4]s);
	`, ident, fn, trigger, quoteLiteral(s.channel)))
	if err != nil {
		return fmt.Errorf("failed to migrate %s: %w", s.table, err)
	}
	return nil
}

// Get reads key. A missing row is reported as absent.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	query := fmt.Sprintf("SELECT value FROM %s WHERE key = $1", pgx.Identifier{s.table}.Sanitize())
	err := s.pool.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set upserts key.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value",
		pgx.Identifier{s.table}.Sanitize(),
	)
	_, err := s.pool.Exec(ctx, query, key, value)
	return err
}

// Remove deletes key.
func (s *Storage) Remove(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE key = $1", pgx.Identifier{s.table}.Sanitize())
	_, err := s.pool.Exec(ctx, query, key)
	return err
}

// Watcher returns a Watcher on this storage's notification channel.
func (s *Storage) Watcher() *Watcher {
	return &Watcher{pool: s.pool, channel: s.channel}
}

// Watcher reports keys changed in the table, as notified by the trigger
// installed by Migrate.
type Watcher struct {
	pool    *pgxpool.Pool
	channel string
}

// Watch listens on the channel and returns a channel that emits the key of
// every notification.
func (w *Watcher) Watch(ctx context.Context) (<-chan string, error) {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	_, err = conn.Exec(ctx, "LISTEN "+pgx.Identifier{w.channel}.Sanitize())
	if err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to listen on channel %s: %w", w.channel, err)
	}

	out := make(chan string)

	go func() {
		defer close(out)
		defer conn.Release()

		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}

			select {
			case out <- notification.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

var (
	_ storefront.Storage = (*Storage)(nil)
	_ storefront.Watcher = (*Watcher)(nil)
)
