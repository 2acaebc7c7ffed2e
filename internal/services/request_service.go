// Package services – RequestService
//
// This file implements the request workflow that ties together the item,
// request and order state machines. A buyer expresses interest in an item,
// the owner accepts or declines, and acceptance atomically sells the item
// and records an order.
//
// Transition table (see domain.RequestStatus.CanTransitionTo):
//
//	pending  -> paid | accepted | declined
//	paid     -> accepted
//	accepted, declined: terminal
//
// A request whose item was sold to someone else is declined by the system
// from pending or paid.
//
// All guards and writes of one operation run in a single transaction. Item
// availability is claimed with a compare-and-swap update, so two concurrent
// accepts on the same item produce exactly one order. Notifications and
// events are sent after commit and never fail the operation.
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
	"github.com/tbourn/roomie-mart-backend/internal/events"
	"github.com/tbourn/roomie-mart-backend/internal/repo"
)

// RequestService runs the buyer/owner request workflow.
type RequestService struct {
	DB     *gorm.DB
	Orders *OrderService
	Notify *Notifier
}

// NewRequestService wires a RequestService.
func NewRequestService(db *gorm.DB, orders *OrderService, n *Notifier) *RequestService {
	if orders == nil {
		orders = &OrderService{DB: db}
	}
	return &RequestService{DB: db, Orders: orders, Notify: n}
}

// Create records requester's interest in itemID and notifies the owner.
func (s *RequestService) Create(ctx context.Context, itemID uint64, requester, message string) (req *domain.Request, err error) {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "Create",
		trace.WithAttributes(
			attribute.Int64("item.id", int64(itemID)),
			attribute.String("user.id", requester),
		),
	)
	defer span.End()
	defer func() { observeOp("create", err) }()

	message = strings.TrimSpace(message)
	req, err = s.open(ctx, itemID, requester, message, ErrSelfRequest)
	if err != nil {
		return nil, err
	}

	content := message
	if content == "" {
		content = msgDefaultRequest
	}
	s.Notify.Message(ctx, requester, req.OwnerID, itemID, content)
	s.Notify.Publish(ctx, events.TopicRequestCreated, key(req.ID), requestEvent(req))
	return req, nil
}

// open inserts a pending request after checking the item exists, is not
// owned by requester and is still available. self is returned when the
// requester owns the item.
func (s *RequestService) open(ctx context.Context, itemID uint64, requester, message string, self error) (*domain.Request, error) {
	var req *domain.Request
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		it, err := repo.GetItem(ctx, tx, itemID)
		if err != nil {
			return notFoundAs(err, ErrItemNotFound)
		}
		if it.OwnerID == requester {
			return self
		}
		if it.Status == domain.ItemSold {
			return ErrAlreadySold
		}
		req = &domain.Request{
			ItemID:      itemID,
			RequesterID: requester,
			OwnerID:     it.OwnerID,
			Message:     message,
			Status:      domain.RequestPending,
		}
		return repo.CreateRequest(ctx, tx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ListForOwner returns the requests addressed to owner, newest first.
func (s *RequestService) ListForOwner(ctx context.Context, owner string) ([]domain.RequestWithItemAndRequester, error) {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "ListForOwner",
		trace.WithAttributes(attribute.String("user.id", owner)),
	)
	defer span.End()
	return repo.ListRequestsForOwner(ctx, s.DB, owner)
}

// ListForRequester returns the requests made by requester, newest first.
func (s *RequestService) ListForRequester(ctx context.Context, requester string) ([]domain.RequestWithItemAndOwner, error) {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "ListForRequester",
		trace.WithAttributes(attribute.String("user.id", requester)),
	)
	defer span.End()
	return repo.ListRequestsForRequester(ctx, s.DB, requester)
}

// CountPendingForOwner counts the pending requests awaiting owner.
func (s *RequestService) CountPendingForOwner(ctx context.Context, owner string) (int64, error) {
	return repo.CountPendingForOwner(ctx, s.DB, owner)
}

// Accept sells the requested item to the requester and records the order.
//
// If the item was already sold, the request is declined, that decline is
// committed, and ErrAlreadySold is returned with no order.
func (s *RequestService) Accept(ctx context.Context, requestID uint64, actor string) (order *domain.Order, err error) {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "Accept",
		trace.WithAttributes(
			attribute.Int64("request.id", int64(requestID)),
			attribute.String("user.id", actor),
		),
	)
	defer span.End()
	defer func() { observeOp("accept", err) }()

	var (
		req    *domain.Request
		forced bool
	)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := ownedRequest(ctx, tx, requestID, actor)
		if err != nil {
			return err
		}
		if !r.Status.CanTransitionTo(domain.RequestAccepted) {
			return ErrInvalidTransition
		}
		req = r

		it, err := repo.LockItem(ctx, tx, r.ItemID)
		if err != nil {
			return notFoundAs(err, ErrItemNotFound)
		}
		sold, err := repo.MarkItemSold(ctx, tx, it.ID)
		if err != nil {
			return err
		}
		if !sold {
			if r.Status.CanForceDecline() {
				if _, err := repo.TransitionRequest(ctx, tx, r.ID, domain.RequestDeclined, domain.RequestPending, domain.RequestPaid); err != nil {
					return err
				}
				r.Status = domain.RequestDeclined
			}
			forced = true
			return nil
		}

		order, err = s.Orders.Create(ctx, tx, OrderInput{
			RequestID: &r.ID,
			BuyerID:   r.RequesterID,
			SellerID:  r.OwnerID,
			ItemID:    it.ID,
			ItemTitle: it.Title,
			UnitPrice: it.Price,
			Quantity:  1,
		})
		if err != nil {
			return err
		}

		ok, err := repo.TransitionRequest(ctx, tx, r.ID, domain.RequestAccepted, domain.RequestAccepted.Sources()...)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}
		r.Status = domain.RequestAccepted
		return nil
	})
	if err != nil {
		return nil, err
	}
	if forced {
		s.Notify.Publish(ctx, events.TopicRequestDeclined, key(req.ID), requestEvent(req))
		return nil, ErrAlreadySold
	}

	s.Notify.Message(ctx, req.OwnerID, req.RequesterID, req.ItemID,
		fmt.Sprintf("Your request was accepted. Order #%d created.", order.ID))
	s.Notify.Publish(ctx, events.TopicRequestAccepted, key(req.ID), requestEvent(req))
	s.Notify.Publish(ctx, events.TopicOrderCreated, key(order.ID), orderEvent(order))
	return order, nil
}

// Decline rejects a pending request on behalf of its owner.
func (s *RequestService) Decline(ctx context.Context, requestID uint64, actor string) (err error) {
	ctx, span := otel.Tracer("services/RequestService").Start(ctx, "Decline",
		trace.WithAttributes(
			attribute.Int64("request.id", int64(requestID)),
			attribute.String("user.id", actor),
		),
	)
	defer span.End()
	defer func() { observeOp("decline", err) }()

	var req *domain.Request
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := ownedRequest(ctx, tx, requestID, actor)
		if err != nil {
			return err
		}
		if r.Status != domain.RequestPending {
			return ErrInvalidTransition
		}
		ok, err := repo.TransitionRequest(ctx, tx, r.ID, domain.RequestDeclined, domain.RequestPending)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}
		r.Status = domain.RequestDeclined
		req = r
		return nil
	})
	if err != nil {
		return err
	}

	s.Notify.Message(ctx, req.OwnerID, req.RequesterID, req.ItemID, msgRequestDeclined)
	s.Notify.Publish(ctx, events.TopicRequestDeclined, key(req.ID), requestEvent(req))
	return nil
}

// ownedRequest loads a request and checks actor is its owner.
func ownedRequest(ctx context.Context, db *gorm.DB, id uint64, actor string) (*domain.Request, error) {
	r, err := repo.GetRequest(ctx, db, id)
	if err != nil {
		return nil, notFoundAs(err, ErrRequestNotFound)
	}
	if r.OwnerID != actor {
		return nil, ErrForbidden
	}
	return r, nil
}

func key(id uint64) string { return strconv.FormatUint(id, 10) }
