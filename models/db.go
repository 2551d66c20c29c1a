package models

import (
	"context"

	"github.com/glebarez/sqlite"
	_ "github.com/lib/pq"
	"github.com/mytheresa/go-catalog-query/config"
	"github.com/mytheresa/go-catalog-query/logging"
	"github.com/mytheresa/go-catalog-query/query"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to the configured store. Connection failures are query.ErrDataUnavailable.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case config.DriverPQ:
		// lib/pq registers itself as "postgres".
		dialector = postgres.New(postgres.Config{DriverName: "postgres", DSN: cfg.DSN})
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, errors.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logging.GormLogger(cfg.LogLevel),
	})
	if err != nil {
		return nil, query.Unavailable(errors.Wrap(err, "failed to connect database"))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, query.Unavailable(err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	return db, nil
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates the catalog tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Category{}, &Product{}); err != nil {
		return query.Unavailable(errors.Wrap(err, "migrate catalog"))
	}
	return nil
}

// Scope runs fn on a single pooled connection held for the whole call.
// The connection is returned to the pool when fn returns, whether or not it failed.
// Failure to acquire the connection is query.ErrDataUnavailable; errors from fn are returned as is.
func Scope(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	entered := false
	err := db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		entered = true
		return fn(tx.Session(&gorm.Session{NewDB: true}))
	})
	if err != nil && !entered {
		return query.Unavailable(errors.Wrap(err, "acquire connection"))
	}
	return err
}
