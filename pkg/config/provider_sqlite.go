package config

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/chrissnell/decoplanner/pkg/migrate"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore implements PreferenceStore on a SQLite database file
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	logger *zap.SugaredLogger

	mu       sync.Mutex
	watchers map[chan Change]context.Context
	closed   bool
	done     chan struct{}
}

// NewSQLiteStore opens (and if needed creates) the preference database at
// dbPath and brings its schema up to date.
func NewSQLiteStore(dbPath string, logger *zap.SugaredLogger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// one writer keeps SQLite from reporting busy under concurrent Sets
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	provider := migrate.NewFSProvider(migrations, "migrations", "preference_migrations", "sqlite")
	if err := migrate.NewMigrator(db, provider, logger).MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate preference database: %w", err)
	}

	return &SQLiteStore{
		db:       db,
		dbPath:   dbPath,
		logger:   logger,
		watchers: make(map[chan Change]context.Context),
		done:     make(chan struct{}),
	}, nil
}

// Close closes the database and every open watch channel
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	for ch := range s.watchers {
		delete(s.watchers, ch)
		close(ch)
	}
	s.mu.Unlock()
	return s.db.Close()
}

func (s *SQLiteStore) get(ctx context.Context, key string, kind Kind) (string, bool, error) {
	var stored Kind
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT kind, value FROM preferences WHERE key = ?", key).Scan(&stored, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	if stored != kind {
		return "", false, fmt.Errorf("preference %s is %s, not %s: %w", key, stored, kind, ErrWrongKind)
	}
	return value, true, nil
}

func (s *SQLiteStore) set(ctx context.Context, key string, kind Kind, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, kind, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET kind = excluded.kind, value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, string(kind), value)
	if err != nil {
		return fmt.Errorf("failed to write preference %s: %w", key, err)
	}

	s.logger.Debugw("preference updated", "key", key, "kind", kind, "value", value)
	s.publish(Change{Key: key, Kind: kind, Value: value})
	return nil
}

func (s *SQLiteStore) GetString(ctx context.Context, key, def string) (string, error) {
	value, ok, err := s.get(ctx, key, KindString)
	if err != nil || !ok {
		return def, err
	}
	return value, nil
}

func (s *SQLiteStore) SetString(ctx context.Context, key, value string) error {
	return s.set(ctx, key, KindString, value)
}

func (s *SQLiteStore) GetInt(ctx context.Context, key string, def int) (int, error) {
	value, ok, err := s.get(ctx, key, KindInt)
	if err != nil || !ok {
		return def, err
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return def, fmt.Errorf("preference %s: %w", key, err)
	}
	return i, nil
}

func (s *SQLiteStore) SetInt(ctx context.Context, key string, value int) error {
	return s.set(ctx, key, KindInt, strconv.Itoa(value))
}

func (s *SQLiteStore) GetFloat(ctx context.Context, key string, def float64) (float64, error) {
	value, ok, err := s.get(ctx, key, KindFloat)
	if err != nil || !ok {
		return def, err
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def, fmt.Errorf("preference %s: %w", key, err)
	}
	return f, nil
}

func (s *SQLiteStore) SetFloat(ctx context.Context, key string, value float64) error {
	return s.set(ctx, key, KindFloat, strconv.FormatFloat(value, 'g', -1, 64))
}

func (s *SQLiteStore) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	value, ok, err := s.get(ctx, key, KindBool)
	if err != nil || !ok {
		return def, err
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return def, fmt.Errorf("preference %s: %w", key, err)
	}
	return b, nil
}

func (s *SQLiteStore) SetBool(ctx context.Context, key string, value bool) error {
	return s.set(ctx, key, KindBool, strconv.FormatBool(value))
}

// All returns every stored preference ordered by key
func (s *SQLiteStore) All(ctx context.Context) ([]Change, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, kind, value FROM preferences ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	var prefs []Change
	for rows.Next() {
		var c Change
		if err := rows.Scan(&c.Key, &c.Kind, &c.Value); err != nil {
			return nil, fmt.Errorf("failed to scan preference row: %w", err)
		}
		prefs = append(prefs, c)
	}
	return prefs, rows.Err()
}

// Watch returns a channel receiving every subsequent write. The channel is
// closed once ctx is done or the store is closed.
func (s *SQLiteStore) Watch(ctx context.Context) <-chan Change {
	ch := make(chan Change, 16)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	s.watchers[ch] = ctx
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.watchers[ch]; ok {
			delete(s.watchers, ch)
			close(ch)
		}
	}()
	return ch
}

func (s *SQLiteStore) publish(c Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch, ctx := range s.watchers {
		select {
		case ch <- c:
		case <-ctx.Done():
		default:
			s.logger.Warnw("dropping preference change for slow watcher", "key", c.Key)
		}
	}
}
