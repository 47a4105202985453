package migrate

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var testMigrations = fstest.MapFS{
	"migrations/001_create_plans.up.sql":   {Data: []byte("CREATE TABLE plans (id INTEGER PRIMARY KEY, name TEXT);")},
	"migrations/001_create_plans.down.sql": {Data: []byte("DROP TABLE plans;")},
	"migrations/002_add_runtime.up.sql":    {Data: []byte("ALTER TABLE plans ADD COLUMN runtime INTEGER;")},
	"migrations/002_add_runtime.down.sql":  {Data: []byte("ALTER TABLE plans DROP COLUMN runtime;")},
	"migrations/README.md":                 {Data: []byte("not a migration")},
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetMigrations(t *testing.T) {
	provider := NewFSProvider(testMigrations, "migrations", "", "")
	migrations, err := provider.GetMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "create plans", migrations[0].Name)
	assert.Contains(t, migrations[0].Up, "CREATE TABLE")
	assert.Contains(t, migrations[0].Down, "DROP TABLE")
	assert.Equal(t, 2, migrations[1].Version)
}

func TestMigrateUpAndDown(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, NewFSProvider(testMigrations, "migrations", "", "sqlite"), nil)

	require.NoError(t, m.MigrateUp())
	version, err := m.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	_, err = db.Exec("INSERT INTO plans (name, runtime) VALUES ('test', 50)")
	require.NoError(t, err)

	// running again is a no-op
	require.NoError(t, m.MigrateUp())

	require.NoError(t, m.MigrateTo(1))
	version, err = m.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	_, err = db.Exec("INSERT INTO plans (name, runtime) VALUES ('test', 50)")
	assert.Error(t, err, "runtime column is gone")

	require.NoError(t, m.MigrateTo(0))
	version, err = m.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 0, version)
}

func TestMigrateToRejectsUnknownVersion(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, NewFSProvider(testMigrations, "migrations", "", "sqlite"), nil)
	require.NoError(t, m.MigrateTo(1))

	err := m.MigrateTo(7)
	assert.True(t, errors.Is(err, ErrUnknownVersion))

	version, err := m.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestPlan(t *testing.T) {
	migrations := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}

	tests := []struct {
		name            string
		current, target int
		want            []int
		up              bool
	}{
		{name: "fresh to latest", current: 0, target: 3, want: []int{1, 2, 3}, up: true},
		{name: "partial up", current: 1, target: 2, want: []int{2}, up: true},
		{name: "down to zero", current: 3, target: 0, want: []int{3, 2, 1}},
		{name: "nothing to do", current: 2, target: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := plan(migrations, tt.current, tt.target)
			var got []int
			for _, s := range steps {
				got = append(got, s.migration.Version)
				assert.Equal(t, tt.up, s.up)
			}
			assert.Equal(t, tt.want, got)
			if len(steps) > 0 {
				assert.Equal(t, tt.target, steps[len(steps)-1].resultVersion())
			}
		})
	}
}
