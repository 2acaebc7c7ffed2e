// Package repo implements the data persistence layer for marketplace
// entities, backed by GORM. This file provides small aggregate queries used
// for conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
)

// AvailableItemsStats returns the number of available items and the greatest
// UpdatedAt among them. When there are none, count is 0 and latest is nil.
func AvailableItemsStats(ctx context.Context, db *gorm.DB) (count int64, latest *time.Time, err error) {
	scope := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.Item{}).Where("status = ?", domain.ItemAvailable)
	}

	if err = scope().Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// avoid MAX() -> TEXT in SQLite
	var row struct {
		UpdatedAt time.Time
	}
	if err = scope().Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// InboxStats returns the number of messages touching userID, how many of
// them are unread by userID, and the newest CreatedAt among them.
//
// The unread count is part of the result because marking a message read
// changes the inbox without adding rows.
func InboxStats(ctx context.Context, db *gorm.DB, userID string) (count, unread int64, latest *time.Time, err error) {
	scope := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.Message{}).
			Where("sender_id = ? OR receiver_id = ?", userID, userID)
	}

	if err = scope().Count(&count).Error; err != nil {
		return 0, 0, nil, err
	}
	if count == 0 {
		return 0, 0, nil, nil
	}
	if unread, err = CountUnread(ctx, db, userID); err != nil {
		return 0, 0, nil, err
	}

	var row struct {
		CreatedAt time.Time
	}
	if err = scope().Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, nil, err
	}
	return count, unread, &row.CreatedAt, nil
}
