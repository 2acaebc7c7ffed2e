package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
	"github.com/tbourn/roomie-mart-backend/internal/events"
	"github.com/tbourn/roomie-mart-backend/internal/repo"
)

// newTestDB opens a file-backed SQLite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.Open(repo.Options{
		Path:     filepath.Join(t.TempDir(), "market.db"),
		LogLevel: logger.Silent,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// market bundles the services over one database.
type market struct {
	db       *gorm.DB
	bus      *events.InProcess
	catalog  *CatalogService
	messages *MessagingService
	orders   *OrderService
	requests *RequestService
	payments *PaymentService
	feedback *FeedbackService
}

func newMarket(t *testing.T) *market {
	t.Helper()
	db := newTestDB(t)
	bus := events.NewInProcess(nil)
	t.Cleanup(func() { _ = bus.Close() })

	n := NewNotifier(db, bus, events.DefaultPrefix)
	orders := &OrderService{DB: db, Currency: "INR"}
	requests := NewRequestService(db, orders, n)
	return &market{
		db:       db,
		bus:      bus,
		catalog:  NewCatalogService(db),
		messages: &MessagingService{DB: db},
		orders:   orders,
		requests: requests,
		payments: &PaymentService{DB: db, Requests: requests, Notify: n},
		feedback: &FeedbackService{DB: db},
	}
}

func (m *market) listItem(t *testing.T, owner, title, price string) *domain.Item {
	t.Helper()
	it, err := m.catalog.Create(context.Background(), owner, ItemInput{
		Title:     title,
		Category:  "electronics",
		Condition: "good",
		Price:     decimal.RequireFromString(price),
	})
	if err != nil {
		t.Fatalf("list item %q: %v", title, err)
	}
	return it
}

func (m *market) item(t *testing.T, id uint64) *domain.Item {
	t.Helper()
	it, err := repo.GetItem(context.Background(), m.db, id)
	if err != nil {
		t.Fatalf("load item %d: %v", id, err)
	}
	return it
}

func (m *market) request(t *testing.T, id uint64) *domain.Request {
	t.Helper()
	r, err := repo.GetRequest(context.Background(), m.db, id)
	if err != nil {
		t.Fatalf("load request %d: %v", id, err)
	}
	return r
}

func (m *market) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := m.db.Model(&domain.Order{}).Count(&n).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	return n
}

// inbox returns the messages addressed to user, oldest first.
func (m *market) inbox(t *testing.T, user string) []domain.Message {
	t.Helper()
	var out []domain.Message
	if err := m.db.Where("receiver_id = ?", user).Order("id ASC").Find(&out).Error; err != nil {
		t.Fatalf("load inbox: %v", err)
	}
	return out
}
