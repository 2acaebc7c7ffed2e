// Package repo implements the data persistence layer for marketplace
// entities. This file provides repository functions for the Item model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business rules, only persistence and query composition.
//
// Error semantics:
//   - When an item is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - Conditional writes (UpdateItemFields, MarkItemSold, DeleteItem) report
//     how many rows they touched; the service layer decides what a zero means.
//
// Functions:
//
//   - CreateItem(ctx, db, item) -> error
//   - GetItem(ctx, db, id) -> *domain.Item, error
//   - LockItem(ctx, db, id) -> *domain.Item, error
//     Like GetItem, with SELECT ... FOR UPDATE on drivers that support it.
//   - GetItemWithSeller(ctx, db, id) -> *domain.ItemWithSeller, error
//   - ListAvailableItems(ctx, db, filter, offset, limit) -> []domain.ItemWithSeller, error
//   - CountAvailableItems(ctx, db, filter) -> int64, error
//   - ListItemsByOwner(ctx, db, ownerID) -> []domain.Item, error
//   - UpdateItemFields(ctx, db, id, ownerID, fields) -> rows, error
//   - MarkItemSold(ctx, db, id) -> transitioned, error
//     The compare-and-swap that makes a sale happen at most once.
//   - DeleteItem(ctx, db, id, ownerID) -> rows, error
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ItemFilter holds the optional, AND-combined predicates for catalog queries.
// Zero values are ignored.
type ItemFilter struct {
	Category  string
	Condition string
	Hostel    string
	Block     string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	// Query is matched case-insensitively against title and description.
	// Callers pass it already lower-cased.
	Query string
}

// CreateItem inserts a new Item row. Status defaults to available.
func CreateItem(ctx context.Context, db *gorm.DB, it *domain.Item) error {
	now := time.Now().UTC()
	if it.Status == "" {
		it.Status = domain.ItemAvailable
	}
	it.CreatedAt, it.UpdatedAt = now, now
	it.SearchText = domain.ItemSearchText(it.Title, it.Description)
	return db.WithContext(ctx).Create(it).Error
}

// GetItem fetches an item by id or returns ErrNotFound.
func GetItem(ctx context.Context, db *gorm.DB, id uint64) (*domain.Item, error) {
	var it domain.Item
	if err := db.WithContext(ctx).Where("id = ?", id).First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

// LockItem fetches an item and, on PostgreSQL and MySQL, holds a row lock
// until the surrounding transaction ends. SQLite serializes writers itself.
func LockItem(ctx context.Context, db *gorm.DB, id uint64) (*domain.Item, error) {
	q := db.WithContext(ctx)
	if supportsRowLocks(db) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var it domain.Item
	if err := q.Where("id = ?", id).First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func itemsWithSeller(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Table("items").
		Select("items.*, COALESCE(users.name, '') AS seller_name, COALESCE(users.email, '') AS seller_email").
		Joins("LEFT JOIN users ON users.id = items.owner_id")
}

// GetItemWithSeller fetches an item joined with its owner's profile.
func GetItemWithSeller(ctx context.Context, db *gorm.DB, id uint64) (*domain.ItemWithSeller, error) {
	var out domain.ItemWithSeller
	if err := itemsWithSeller(ctx, db).Where("items.id = ?", id).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// applyItemFilter composes the optional predicates onto q.
func applyItemFilter(q *gorm.DB, f ItemFilter) *gorm.DB {
	if f.Category != "" {
		q = q.Where("items.category = ?", f.Category)
	}
	if f.Condition != "" {
		q = q.Where("items.condition = ?", f.Condition)
	}
	if f.Hostel != "" {
		q = q.Where("items.hostel = ?", f.Hostel)
	}
	if f.Block != "" {
		q = q.Where("items.block = ?", f.Block)
	}
	if f.MinPrice != nil {
		q = q.Where("items.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("items.price <= ?", *f.MaxPrice)
	}
	if f.Query != "" {
		like := "%" + escapeLike(domain.FoldSearch(f.Query)) + "%"
		q = q.Where("items.search_text LIKE ? ESCAPE '!'", like)
	}
	return q
}

// escapeLike neutralizes LIKE wildcards using '!' as the escape character,
// which every supported dialect accepts without string-literal escaping.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

// ListAvailableItems returns available items matching f, newest first.
// A limit <= 0 returns every match.
func ListAvailableItems(ctx context.Context, db *gorm.DB, f ItemFilter, offset, limit int) ([]domain.ItemWithSeller, error) {
	out := []domain.ItemWithSeller{}
	q := applyItemFilter(itemsWithSeller(ctx, db).Where("items.status = ?", domain.ItemAvailable), f).
		Order("items.created_at DESC, items.id DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountAvailableItems returns the number of available items matching f.
func CountAvailableItems(ctx context.Context, db *gorm.DB, f ItemFilter) (int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.Item{}).Where("items.status = ?", domain.ItemAvailable)
	err := applyItemFilter(q, f).Count(&total).Error
	return total, err
}

// ListItemsByOwner returns every item the owner listed, newest first.
func ListItemsByOwner(ctx context.Context, db *gorm.DB, ownerID string) ([]domain.Item, error) {
	out := []domain.Item{}
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// UpdateItemFields updates the given columns of an available item owned by
// ownerID. It returns the number of rows changed (0 or 1). Changing the
// title or description refreshes the search text.
func UpdateItemFields(ctx context.Context, db *gorm.DB, id uint64, ownerID string, fields map[string]any) (int64, error) {
	title, hasTitle := fields["title"].(string)
	desc, hasDesc := fields["description"].(string)
	if hasTitle || hasDesc {
		if !hasTitle || !hasDesc {
			cur, err := GetItem(ctx, db, id)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return 0, nil
				}
				return 0, err
			}
			if !hasTitle {
				title = cur.Title
			}
			if !hasDesc {
				desc = cur.Description
			}
		}
		fields["search_text"] = domain.ItemSearchText(title, desc)
	}
	fields["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Item{}).
		Where("id = ? AND owner_id = ? AND status = ?", id, ownerID, domain.ItemAvailable).
		Updates(fields)
	return res.RowsAffected, res.Error
}

// MarkItemSold flips an available item to sold. It reports false when the
// item is missing or was already sold.
func MarkItemSold(ctx context.Context, db *gorm.DB, id uint64) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Item{}).
		Where("id = ? AND status = ?", id, domain.ItemAvailable).
		Updates(map[string]any{"status": domain.ItemSold, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteItem removes an available item owned by ownerID, returning the number
// of rows deleted.
func DeleteItem(ctx context.Context, db *gorm.DB, id uint64, ownerID string) (int64, error) {
	res := db.WithContext(ctx).
		Where("id = ? AND owner_id = ? AND status = ?", id, ownerID, domain.ItemAvailable).
		Delete(&domain.Item{})
	return res.RowsAffected, res.Error
}
