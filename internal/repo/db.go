// Package repo implements the data persistence layer for marketplace
// entities, backed by GORM. This file contains database bootstrapping for
// SQLite (pure Go driver), PostgreSQL and MySQL, plus schema migrations.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
)

// Supported values for Options.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Options selects and configures the backing store.
type Options struct {
	// Driver is one of sqlite, postgres or mysql. Empty means sqlite.
	Driver string
	// DSN is the connection string for postgres/mysql. MySQL DSNs need parseTime=true.
	DSN string
	// Path is the SQLite database file.
	Path string
	// Tracing installs the GORM OpenTelemetry plugin.
	Tracing bool
	// LogLevel is the GORM logger level; zero means logger.Warn.
	LogLevel logger.LogLevel
}

// Open connects to the store selected by opts and tunes the pool.
func Open(opts Options) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel(opts.LogLevel))}

	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverSQLite:
		db, err = openSQLite(opts.Path, gcfg)
	case DriverPostgres:
		db, err = gorm.Open(postgres.Open(opts.DSN), gcfg)
		if err == nil {
			tunePool(db, 25)
		}
	case DriverMySQL:
		db, err = gorm.Open(mysql.Open(opts.DSN), gcfg)
		if err == nil {
			tunePool(db, 25)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	if opts.Tracing {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	return openSQLite(path, &gorm.Config{})
}

func openSQLite(path string, gcfg *gorm.Config) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gcfg)
	if err != nil {
		return nil, err
	}

	// SQLite has a single writer. One connection makes transactions queue in
	// the pool instead of failing with SQLITE_BUSY on lock upgrade, and keeps
	// the PRAGMAs below in force for every statement.
	tunePool(db, 1)

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	return db, nil
}

func tunePool(db *gorm.DB, maxOpen int) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetMaxIdleConns(maxOpen)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
}

func logLevel(l logger.LogLevel) logger.LogLevel {
	if l == 0 {
		return logger.Warn
	}
	return l
}

// AutoMigrate creates or updates every table the service uses.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Item{},
		&domain.Request{},
		&domain.Order{},
		&domain.Message{},
		&domain.Feedback{},
		&domain.Idempotency{},
	); err != nil {
		return err
	}
	return backfillSearchText(db)
}

// backfillSearchText indexes listings stored before items.search_text existed.
func backfillSearchText(db *gorm.DB) error {
	var batch []domain.Item
	return db.Model(&domain.Item{}).
		Where("search_text IS NULL OR search_text = ''").
		FindInBatches(&batch, 200, func(_ *gorm.DB, _ int) error {
			for _, it := range batch {
				err := db.Model(&domain.Item{}).Where("id = ?", it.ID).
					UpdateColumn("search_text", domain.ItemSearchText(it.Title, it.Description)).Error
				if err != nil {
					return err
				}
			}
			return nil
		}).Error
}

// supportsRowLocks reports whether db supports SELECT ... FOR UPDATE.
func supportsRowLocks(db *gorm.DB) bool {
	switch db.Dialector.Name() {
	case DriverPostgres, DriverMySQL:
		return true
	}
	return false
}
