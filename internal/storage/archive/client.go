// Package archive keeps computed dive plans in Postgres so that they can be
// listed and fetched again later.
package archive

import (
	"embed"
	"fmt"
	"time"

	"github.com/chrissnell/decoplanner/internal/log"
	"github.com/chrissnell/decoplanner/pkg/migrate"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

func gormLogger() logger.Interface {
	return logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// Connect opens the Postgres connection without touching the schema
func Connect(connectionString string) (*Store, error) {
	log.Info("connecting to plan archive...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: gormLogger()})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to plan archive: %w", err)
	}
	log.Info("plan archive connection successful")
	return NewStore(db), nil
}

// Open connects to Postgres, applies the archive migrations and returns a
// ready Store.
func Open(connectionString string) (*Store, error) {
	store, err := Connect(connectionString)
	if err != nil {
		return nil, err
	}

	migrator, err := store.Migrator()
	if err == nil {
		err = migrator.MigrateUp()
	}
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("unable to migrate plan archive: %w", err)
	}
	return store, nil
}

// Migrator returns a migrator for the archive schema
func (s *Store) Migrator() (*migrate.Migrator, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("unable to get archive connection pool: %w", err)
	}
	provider := migrate.NewFSProvider(migrations, "migrations", "archive_migrations", "postgres")
	return migrate.NewMigrator(sqlDB, provider, log.GetSugaredLogger()), nil
}
