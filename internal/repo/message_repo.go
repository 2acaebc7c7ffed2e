// Package repo implements the data persistence layer for marketplace
// entities. This file provides repository functions for the Message model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
)

// InboxRow is a message touching a user, joined with its item title.
type InboxRow struct {
	domain.Message
	ItemTitle string
}

// CreateMessage inserts a new message row.
func CreateMessage(ctx context.Context, db *gorm.DB, m *domain.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Omit(clause.Associations).Create(m).Error
}

// GetMessage fetches a message by ID.
func GetMessage(ctx context.Context, db *gorm.DB, id uint64) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListConversation returns the messages exchanged between a and b about
// itemID, ordered deterministically (CreatedAt ASC, ID ASC). The result does
// not depend on argument order.
func ListConversation(ctx context.Context, db *gorm.DB, a, b string, itemID uint64) ([]domain.Message, error) {
	out := []domain.Message{}
	err := db.WithContext(ctx).
		Where("item_id = ? AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))",
			itemID, a, b, b, a).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// MarkMessageRead sets is_read on an unread message. It returns the number of
// rows changed, so 0 means missing or already read.
func MarkMessageRead(ctx context.Context, db *gorm.DB, id uint64) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ? AND is_read = ?", id, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// MarkConversationRead marks every unread message from other to viewer about
// itemID as read.
func MarkConversationRead(ctx context.Context, db *gorm.DB, viewer, other string, itemID uint64) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("item_id = ? AND sender_id = ? AND receiver_id = ? AND is_read = ?", itemID, other, viewer, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// CountUnread counts unread messages addressed to userID.
func CountUnread(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

// ListMessagesInvolving returns every message sent or received by userID,
// newest first (CreatedAt DESC, ID DESC), with the item title attached.
func ListMessagesInvolving(ctx context.Context, db *gorm.DB, userID string) ([]InboxRow, error) {
	out := []InboxRow{}
	err := db.WithContext(ctx).
		Table("messages").
		Select("messages.*, COALESCE(items.title, '') AS item_title").
		Joins("LEFT JOIN items ON items.id = messages.item_id").
		Where("messages.sender_id = ? OR messages.receiver_id = ?", userID, userID).
		Order("messages.created_at DESC, messages.id DESC").
		Find(&out).Error
	return out, err
}
