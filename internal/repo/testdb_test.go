package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
)

// newTestDB opens a unique in-memory database per test to avoid schema
// leaking across tests.
func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

// newMarketDB opens a file-backed database with the production PRAGMAs and
// the full schema.
func newMarketDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := openSQLite(filepath.Join(t.TempDir(), "market.db"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id, name string) {
	t.Helper()
	if err := db.Create(&domain.User{ID: id, Name: name, Email: id + "@campus.test"}).Error; err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func seedItem(t *testing.T, db *gorm.DB, owner, title, price string) *domain.Item {
	t.Helper()
	it := &domain.Item{
		OwnerID:   owner,
		Title:     title,
		Category:  "books",
		Price:     decimal.RequireFromString(price),
		Condition: "good",
		Hostel:    "H1",
	}
	if err := CreateItem(context.Background(), db, it); err != nil {
		t.Fatalf("seed item %q: %v", title, err)
	}
	return it
}
