// Package migrate applies versioned SQL migrations. It backs both the SQLite
// preference store and the Postgres plan archive.
package migrate

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Latest asks MigrateTo for the newest known version
const Latest = -1

// ErrUnknownVersion is returned for a target no migration leads to
var ErrUnknownVersion = errors.New("unknown schema version")

// Migration is a single versioned schema change
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// DB is satisfied by both *sql.DB and *sql.Tx
type DB interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// MigrationProvider loads migrations and tracks the applied version
type MigrationProvider interface {
	GetMigrations() ([]Migration, error)
	GetCurrentVersion(db *sql.DB) (int, error)
	SetVersion(db DB, version int) error
	CreateMigrationTable(db *sql.DB) error
}

// step is one migration applied in one direction
type step struct {
	migration Migration
	up        bool
}

func (s step) sql() string {
	if s.up {
		return s.migration.Up
	}
	return s.migration.Down
}

func (s step) direction() string {
	if s.up {
		return "up"
	}
	return "down"
}

// resultVersion is the schema version once the step has run
func (s step) resultVersion() int {
	if s.up {
		return s.migration.Version
	}
	return s.migration.Version - 1
}

// plan orders the steps that take a schema from current to target.
// Migrations must be sorted by ascending version.
func plan(migrations []Migration, current, target int) []step {
	var steps []step
	if target >= current {
		for _, m := range migrations {
			if m.Version > current && m.Version <= target {
				steps = append(steps, step{migration: m, up: true})
			}
		}
		return steps
	}
	for i := len(migrations) - 1; i >= 0; i-- {
		if m := migrations[i]; m.Version > target && m.Version <= current {
			steps = append(steps, step{migration: m, up: false})
		}
	}
	return steps
}

// Migrator runs migrations from a provider against a database
type Migrator struct {
	db       *sql.DB
	provider MigrationProvider
	logger   *zap.SugaredLogger
}

// NewMigrator creates a migrator. A nil logger disables logging.
func NewMigrator(db *sql.DB, provider MigrationProvider, logger *zap.SugaredLogger) *Migrator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Migrator{db: db, provider: provider, logger: logger}
}

// MigrateUp applies every pending migration
func (m *Migrator) MigrateUp() error {
	return m.MigrateTo(Latest)
}

// MigrateTo moves the schema up or down to target. Zero removes every
// migration; Latest applies all of them.
func (m *Migrator) MigrateTo(target int) error {
	current, err := m.CurrentVersion()
	if err != nil {
		return err
	}

	migrations, err := m.provider.GetMigrations()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	known := target == 0
	for _, mig := range migrations {
		known = known || mig.Version == target
	}
	switch {
	case target == Latest && len(migrations) > 0:
		target = migrations[len(migrations)-1].Version
	case target == Latest:
		target = 0
	case !known:
		return fmt.Errorf("%w: %d", ErrUnknownVersion, target)
	}

	for _, s := range plan(migrations, current, target) {
		if err := m.run(s); err != nil {
			return fmt.Errorf("migration %d %s: %w", s.migration.Version, s.direction(), err)
		}
	}
	return nil
}

// CurrentVersion returns the applied schema version, zero for a fresh database
func (m *Migrator) CurrentVersion() (int, error) {
	if err := m.provider.CreateMigrationTable(m.db); err != nil {
		return 0, fmt.Errorf("creating migration table: %w", err)
	}
	return m.provider.GetCurrentVersion(m.db)
}

func (m *Migrator) run(s step) error {
	statement := s.sql()
	if statement == "" {
		return errors.New("no SQL for this direction")
	}

	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(statement); err != nil {
		return err
	}
	if err := m.provider.SetVersion(tx, s.resultVersion()); err != nil {
		return fmt.Errorf("recording version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	m.logger.Infow("applied migration", "version", s.migration.Version, "name", s.migration.Name, "direction", s.direction())
	return nil
}
