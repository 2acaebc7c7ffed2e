// Package services – OrderService
//
// This file implements the Order Ledger. Orders are write-once settlement
// receipts created by the request workflow inside its transaction; after
// that they are only read, by the buyer or the seller.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/roomie-mart-backend/internal/bill"
	"github.com/tbourn/roomie-mart-backend/internal/domain"
	"github.com/tbourn/roomie-mart-backend/internal/repo"
)

// OrderInput describes an order to create.
type OrderInput struct {
	RequestID *uint64
	BuyerID   string
	SellerID  string
	ItemID    uint64
	ItemTitle string
	UnitPrice decimal.Decimal
	// Quantity defaults to 1 when zero.
	Quantity int
	// TotalOverride replaces UnitPrice × Quantity when set.
	TotalOverride *decimal.Decimal
	// TransactionRef defaults to a fresh ULID when empty.
	TransactionRef string
}

// OrderService reads and creates orders.
type OrderService struct {
	DB *gorm.DB

	// Currency is printed on bills.
	Currency string
}

// Create inserts an order. When tx is non-nil the insert joins the caller's
// transaction.
func (s *OrderService) Create(ctx context.Context, tx *gorm.DB, in OrderInput) (*domain.Order, error) {
	ctx, span := otel.Tracer("services/OrderService").Start(ctx, "Create",
		trace.WithAttributes(
			attribute.Int64("item.id", int64(in.ItemID)),
			attribute.String("buyer.id", in.BuyerID),
		),
	)
	defer span.End()

	switch {
	case in.BuyerID == in.SellerID:
		return nil, ErrSelfReference
	case !in.UnitPrice.IsPositive():
		return nil, ErrInvalidPrice
	case in.Quantity < 0:
		return nil, ErrInvalidInput
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	total := in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity)))
	if in.TotalOverride != nil {
		total = *in.TotalOverride
	}
	ref := strings.TrimSpace(in.TransactionRef)
	if ref == "" {
		ref = ulid.Make().String()
	}

	db := tx
	if db == nil {
		db = s.DB
	}
	o := &domain.Order{
		RequestID:      in.RequestID,
		BuyerID:        in.BuyerID,
		SellerID:       in.SellerID,
		ItemID:         in.ItemID,
		ItemTitle:      in.ItemTitle,
		UnitPrice:      in.UnitPrice,
		Quantity:       in.Quantity,
		Total:          total,
		TransactionRef: ref,
		Status:         domain.OrderCompleted,
	}
	if err := repo.CreateOrder(ctx, db, o); err != nil {
		if repo.IsUniqueViolation(err) {
			// request_id and item_id are unique: the item settled elsewhere
			return nil, fmt.Errorf("order for item %d: %w", in.ItemID, ErrAlreadySold)
		}
		return nil, err
	}
	ordersCreated.Inc()
	return o, nil
}

// Get returns an order by id.
func (s *OrderService) Get(ctx context.Context, id uint64) (*domain.Order, error) {
	ctx, span := otel.Tracer("services/OrderService").Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("order.id", int64(id))),
	)
	defer span.End()

	o, err := repo.GetOrder(ctx, s.DB, id)
	if err != nil {
		return nil, notFoundAs(err, ErrOrderNotFound)
	}
	return o, nil
}

// GetForParty returns an order with both parties' profiles if actor is the
// buyer or the seller.
func (s *OrderService) GetForParty(ctx context.Context, id uint64, actor string) (*domain.OrderWithParties, error) {
	ctx, span := otel.Tracer("services/OrderService").Start(ctx, "GetForParty",
		trace.WithAttributes(
			attribute.Int64("order.id", int64(id)),
			attribute.String("user.id", actor),
		),
	)
	defer span.End()

	o, err := repo.GetOrderWithParties(ctx, s.DB, id)
	if err != nil {
		return nil, notFoundAs(err, ErrOrderNotFound)
	}
	if actor != o.BuyerID && actor != o.SellerID {
		return nil, ErrForbidden
	}
	return o, nil
}

// ListForBuyer returns the orders bought by buyer, newest first.
func (s *OrderService) ListForBuyer(ctx context.Context, buyer string) ([]domain.OrderWithParties, error) {
	ctx, span := otel.Tracer("services/OrderService").Start(ctx, "ListForBuyer",
		trace.WithAttributes(attribute.String("user.id", buyer)),
	)
	defer span.End()
	return repo.ListOrdersForBuyer(ctx, s.DB, buyer)
}

// ListForSeller returns the orders sold by seller, newest first.
func (s *OrderService) ListForSeller(ctx context.Context, seller string) ([]domain.OrderWithParties, error) {
	ctx, span := otel.Tracer("services/OrderService").Start(ctx, "ListForSeller",
		trace.WithAttributes(attribute.String("user.id", seller)),
	)
	defer span.End()
	return repo.ListOrdersForSeller(ctx, s.DB, seller)
}

// GetForItemAndUser returns the latest order on itemID in which user is a
// party, or nil when there is none.
func (s *OrderService) GetForItemAndUser(ctx context.Context, itemID uint64, user string) (*domain.Order, error) {
	return repo.LatestOrderForItemAndUser(ctx, s.DB, itemID, user)
}

// RenderBill renders the HTML bill of an order for one of its parties.
func (s *OrderService) RenderBill(ctx context.Context, id uint64, actor string) (string, []byte, error) {
	o, err := s.GetForParty(ctx, id, actor)
	if err != nil {
		return "", nil, err
	}
	body, err := bill.Render(bill.Data{Order: *o, Currency: s.Currency})
	if err != nil {
		return "", nil, err
	}
	return bill.Filename(o.ID), body, nil
}
