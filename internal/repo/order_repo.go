// Package repo implements the data persistence layer for marketplace
// entities. This file provides repository functions for the Order model.
//
// Orders are write-once settlement receipts: there is deliberately no update
// or delete function here. Uniqueness of request_id, item_id and
// transaction_ref is enforced by the schema and surfaces as a raw DB error.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
)

// CreateOrder inserts an order row. CreatedAt is stamped by GORM when zero.
func CreateOrder(ctx context.Context, db *gorm.DB, o *domain.Order) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(o).Error
}

// GetOrder fetches an order by id or returns ErrNotFound.
func GetOrder(ctx context.Context, db *gorm.DB, id uint64) (*domain.Order, error) {
	var o domain.Order
	if err := db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func ordersWithParties(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Table("orders").
		Select(`orders.*,
			COALESCE(b.name, '') AS buyer_name, COALESCE(b.email, '') AS buyer_email,
			COALESCE(s.name, '') AS seller_name, COALESCE(s.email, '') AS seller_email`).
		Joins("LEFT JOIN users b ON b.id = orders.buyer_id").
		Joins("LEFT JOIN users s ON s.id = orders.seller_id")
}

// GetOrderWithParties fetches an order joined with both parties' profiles.
func GetOrderWithParties(ctx context.Context, db *gorm.DB, id uint64) (*domain.OrderWithParties, error) {
	var out domain.OrderWithParties
	if err := ordersWithParties(ctx, db).Where("orders.id = ?", id).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOrdersForBuyer returns orders bought by buyerID, newest first.
func ListOrdersForBuyer(ctx context.Context, db *gorm.DB, buyerID string) ([]domain.OrderWithParties, error) {
	out := []domain.OrderWithParties{}
	err := ordersWithParties(ctx, db).
		Where("orders.buyer_id = ?", buyerID).
		Order("orders.created_at DESC, orders.id DESC").
		Find(&out).Error
	return out, err
}

// ListOrdersForSeller returns orders sold by sellerID, newest first.
func ListOrdersForSeller(ctx context.Context, db *gorm.DB, sellerID string) ([]domain.OrderWithParties, error) {
	out := []domain.OrderWithParties{}
	err := ordersWithParties(ctx, db).
		Where("orders.seller_id = ?", sellerID).
		Order("orders.created_at DESC, orders.id DESC").
		Find(&out).Error
	return out, err
}

// LatestOrderForItemAndUser returns the most recent order on itemID in which
// userID is buyer or seller. It returns (nil, nil) when there is none.
func LatestOrderForItemAndUser(ctx context.Context, db *gorm.DB, itemID uint64, userID string) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).
		Where("item_id = ? AND (buyer_id = ? OR seller_id = ?)", itemID, userID, userID).
		Order("created_at DESC, id DESC").
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
