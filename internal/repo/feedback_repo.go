// Package repo implements the data persistence layer for marketplace
// entities. This file provides repository functions for the Feedback model.
//
// Error semantics:
//   - Duplicate feedback (same order_id,user_id) relies on the database
//     unique constraint and is returned as a raw DB error. The service layer
//     translates that into ErrDuplicateFeedback.
//   - On other DB errors (connectivity, constraints, etc.), the raw gorm
//     error is propagated.
//
// Functions:
//
//   - CreateFeedback(ctx, db, fb) -> error
//     Inserts a feedback row. The (order_id,user_id) pair must be unique.
//
//   - ListFeedbackForSeller(ctx, db, sellerID) -> []domain.Feedback, error
//     Returns ratings received by a seller, newest first.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
)

// CreateFeedback inserts a feedback row.
//
// Rating must be within 1..5. Validation is expected to be enforced at
// higher layers and is backed by a CHECK constraint.
func CreateFeedback(ctx context.Context, db *gorm.DB, fb *domain.Feedback) error {
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Omit(clause.Associations).Create(fb).Error
}

// ListFeedbackForSeller returns feedback left on sellerID's orders.
func ListFeedbackForSeller(ctx context.Context, db *gorm.DB, sellerID string) ([]domain.Feedback, error) {
	out := []domain.Feedback{}
	err := db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}
