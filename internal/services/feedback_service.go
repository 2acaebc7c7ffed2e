// Package services – FeedbackService
//
// This file implements the FeedbackService, which governs how buyers rate a
// completed order (1 to 5, with an optional comment). It enforces business
// rules (order existence, buyer-only restriction, uniqueness) and persists
// feedback atomically in the database. Service-level errors (ErrInvalidRating,
// ErrOrderNotFound, ErrForbidden, ErrDuplicateFeedback) are returned for
// predictable cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
	"github.com/tbourn/roomie-mart-backend/internal/repo"
)

// FeedbackService implements the use-cases around order feedback.
// The service is context-aware and opens its own transaction per call.
type FeedbackService struct {
	// DB is the database handle used for all feedback operations.
	DB *gorm.DB
}

// Leave records a rating for orderID on behalf of userID.
//
// Semantics and validation:
//   - rating must be within 1..5; otherwise ErrInvalidRating.
//   - orderID must exist; otherwise ErrOrderNotFound.
//   - Only the buyer of the order may rate it; otherwise ErrForbidden.
//   - A user may leave at most one feedback per order; attempting to do so
//     again yields ErrDuplicateFeedback.
//
// The existence/ownership checks and the insert run in one transaction.
func (s *FeedbackService) Leave(ctx context.Context, userID string, orderID uint64, rating int, comment string) (*domain.Feedback, error) {
	ctx, span := otel.Tracer("services/FeedbackService").Start(ctx, "Leave",
		trace.WithAttributes(
			attribute.Int64("order.id", int64(orderID)),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	var fb *domain.Feedback
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) Load order and verify it exists.
		o, err := repo.GetOrder(ctx, tx, orderID)
		if err != nil {
			if isNotFound(err) {
				return ErrOrderNotFound
			}
			return err
		}

		// 2) Only the buyer rates the seller.
		if o.BuyerID != userID {
			return ErrForbidden
		}

		// 3) Insert with (order_id, user_id) uniqueness semantics.
		fb = &domain.Feedback{
			OrderID:   o.ID,
			UserID:    userID,
			SellerID:  o.SellerID,
			ItemID:    o.ItemID,
			Rating:    rating,
			Comment:   strings.TrimSpace(comment),
			CreatedAt: time.Now().UTC(),
		}
		if err := repo.CreateFeedback(ctx, tx, fb); err != nil {
			// Map duplicate key to a stable service error.
			if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
				return ErrDuplicateFeedback
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fb, nil
}

// ListForSeller returns the ratings left on seller's orders, newest first.
func (s *FeedbackService) ListForSeller(ctx context.Context, seller string) ([]domain.Feedback, error) {
	return repo.ListFeedbackForSeller(ctx, s.DB, seller)
}

// isNotFound treats repo-level not found sentinels as "not found" in a
// driver-agnostic way.
func isNotFound(err error) bool {
	return errors.Is(err, repo.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	return repo.IsUniqueViolation(err)
}
