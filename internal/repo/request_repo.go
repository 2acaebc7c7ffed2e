// Package repo implements the data persistence layer for marketplace
// entities. This file provides repository functions for the Request model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
)

// CreateRequest inserts a new purchase request. Status defaults to pending.
func CreateRequest(ctx context.Context, db *gorm.DB, r *domain.Request) error {
	now := time.Now().UTC()
	if r.Status == "" {
		r.Status = domain.RequestPending
	}
	r.CreatedAt, r.UpdatedAt = now, now
	return db.WithContext(ctx).Omit(clause.Associations).Create(r).Error
}

// GetRequest fetches a request by id or returns ErrNotFound.
func GetRequest(ctx context.Context, db *gorm.DB, id uint64) (*domain.Request, error) {
	var r domain.Request
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRequestsForOwner returns requests addressed to ownerID, newest first,
// joined with the item and the requester's profile.
func ListRequestsForOwner(ctx context.Context, db *gorm.DB, ownerID string) ([]domain.RequestWithItemAndRequester, error) {
	out := []domain.RequestWithItemAndRequester{}
	err := db.WithContext(ctx).
		Table("requests").
		Select(`requests.*, items.title AS item_title, items.price AS item_price, items.status AS item_status,
			COALESCE(users.name, '') AS requester_name, COALESCE(users.email, '') AS requester_email`).
		Joins("JOIN items ON items.id = requests.item_id").
		Joins("LEFT JOIN users ON users.id = requests.requester_id").
		Where("requests.owner_id = ?", ownerID).
		Order("requests.created_at DESC, requests.id DESC").
		Find(&out).Error
	return out, err
}

// ListRequestsForRequester returns requests made by requesterID, newest
// first, joined with the item and the owner's profile.
func ListRequestsForRequester(ctx context.Context, db *gorm.DB, requesterID string) ([]domain.RequestWithItemAndOwner, error) {
	out := []domain.RequestWithItemAndOwner{}
	err := db.WithContext(ctx).
		Table("requests").
		Select(`requests.*, items.title AS item_title, items.price AS item_price, items.status AS item_status,
			COALESCE(users.name, '') AS owner_name, COALESCE(users.email, '') AS owner_email`).
		Joins("JOIN items ON items.id = requests.item_id").
		Joins("LEFT JOIN users ON users.id = requests.owner_id").
		Where("requests.requester_id = ?", requesterID).
		Order("requests.created_at DESC, requests.id DESC").
		Find(&out).Error
	return out, err
}

// TransitionRequest moves request id to status `to` only if its current
// status is one of `from`. It reports whether the row changed.
func TransitionRequest(ctx context.Context, db *gorm.DB, id uint64, to domain.RequestStatus, from ...domain.RequestStatus) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	res := db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountPendingForOwner counts requests awaiting ownerID's decision. Paid
// requests are not included.
func CountPendingForOwner(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("owner_id = ? AND status = ?", ownerID, domain.RequestPending).
		Count(&n).Error
	return n, err
}
