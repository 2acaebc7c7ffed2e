// Package services – PaymentService
//
// This file implements the simulated payment used by the direct "buy now"
// path: the buyer opens a request, is shown a checkout, and paying moves the
// request from pending to paid. Paying never creates an order; the seller
// still accepts the paid request through RequestService.
package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
	"github.com/tbourn/roomie-mart-backend/internal/events"
	"github.com/tbourn/roomie-mart-backend/internal/repo"
)

// Checkout is what the buyer sees before paying.
type Checkout struct {
	Request domain.Request  `json:"request"`
	Item    *domain.Item    `json:"item,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
}

// PaymentService simulates payment of a request.
type PaymentService struct {
	DB       *gorm.DB
	Requests *RequestService
	Notify   *Notifier
}

// Initiate opens a pending request for buyer on itemID without a message.
func (s *PaymentService) Initiate(ctx context.Context, itemID uint64, buyer string) (req *domain.Request, err error) {
	ctx, span := otel.Tracer("services/PaymentService").Start(ctx, "Initiate",
		trace.WithAttributes(
			attribute.Int64("item.id", int64(itemID)),
			attribute.String("user.id", buyer),
		),
	)
	defer span.End()
	defer func() { observeOp("initiate", err) }()

	req, err = s.Requests.open(ctx, itemID, buyer, "", ErrSelfReference)
	if err != nil {
		return nil, err
	}
	s.Notify.Message(ctx, buyer, req.OwnerID, itemID, msgPurchaseInitiate)
	s.Notify.Publish(ctx, events.TopicRequestCreated, key(req.ID), requestEvent(req))
	return req, nil
}

// Checkout returns the request, its item and the amount due. Only the
// requester may view it.
func (s *PaymentService) Checkout(ctx context.Context, requestID uint64, buyer string) (*Checkout, error) {
	ctx, span := otel.Tracer("services/PaymentService").Start(ctx, "Checkout",
		trace.WithAttributes(
			attribute.Int64("request.id", int64(requestID)),
			attribute.String("user.id", buyer),
		),
	)
	defer span.End()

	r, err := requesterRequest(ctx, s.DB, requestID, buyer)
	if err != nil {
		return nil, err
	}
	out := &Checkout{Request: *r, Amount: decimal.Zero}
	if it, err := repo.GetItem(ctx, s.DB, r.ItemID); err == nil {
		out.Item = it
		out.Amount = it.Price
	}
	return out, nil
}

// Pay marks a pending request as paid and notifies the seller.
func (s *PaymentService) Pay(ctx context.Context, requestID uint64, buyer string) (err error) {
	ctx, span := otel.Tracer("services/PaymentService").Start(ctx, "Pay",
		trace.WithAttributes(
			attribute.Int64("request.id", int64(requestID)),
			attribute.String("user.id", buyer),
		),
	)
	defer span.End()
	defer func() { observeOp("pay", err) }()

	var req *domain.Request
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := requesterRequest(ctx, tx, requestID, buyer)
		if err != nil {
			return err
		}
		if !r.Status.CanTransitionTo(domain.RequestPaid) {
			return ErrInvalidTransition
		}
		ok, err := repo.TransitionRequest(ctx, tx, r.ID, domain.RequestPaid, domain.RequestPaid.Sources()...)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}
		r.Status = domain.RequestPaid
		req = r
		return nil
	})
	if err != nil {
		return err
	}

	s.Notify.Message(ctx, req.RequesterID, req.OwnerID, req.ItemID,
		fmt.Sprintf("Buyer has completed payment for request #%d.", req.ID))
	s.Notify.Publish(ctx, events.TopicRequestPaid, key(req.ID), requestEvent(req))
	return nil
}

// requesterRequest loads a request and checks actor made it.
func requesterRequest(ctx context.Context, db *gorm.DB, id uint64, actor string) (*domain.Request, error) {
	r, err := repo.GetRequest(ctx, db, id)
	if err != nil {
		return nil, notFoundAs(err, ErrRequestNotFound)
	}
	if r.RequesterID != actor {
		return nil, ErrForbidden
	}
	return r, nil
}
