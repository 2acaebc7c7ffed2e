package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
	"github.com/tbourn/roomie-mart-backend/internal/events"
	"github.com/tbourn/roomie-mart-backend/internal/repo"
)

// Notification texts sent by the workflow.
const (
	msgDefaultRequest   = "I would like to request to buy this item."
	msgRequestDeclined  = "Your request was declined by the seller."
	msgPurchaseInitiate = "Buyer initiated purchase - pending payment."
)

// DefaultPublishTimeout bounds a single event publish.
const DefaultPublishTimeout = 2 * time.Second

// Notifier delivers post-commit side effects: an in-app message in the
// Messaging Log and a domain event. Both are best-effort; failures are
// logged and counted, never returned. A nil Notifier does nothing.
type Notifier struct {
	DB          *gorm.DB
	Events      events.Publisher
	TopicPrefix string
	// PublishTimeout caps how long Publish waits on the broker.
	// Zero means DefaultPublishTimeout.
	PublishTimeout time.Duration
}

// NewNotifier builds a Notifier. A nil publisher disables events.
func NewNotifier(db *gorm.DB, pub events.Publisher, prefix string) *Notifier {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Notifier{DB: db, Events: pub, TopicPrefix: prefix, PublishTimeout: DefaultPublishTimeout}
}

// Message appends a notification from sender to receiver about itemID.
func (n *Notifier) Message(ctx context.Context, sender, receiver string, itemID uint64, content string) {
	if n == nil || n.DB == nil {
		return
	}
	m := &domain.Message{SenderID: sender, ReceiverID: receiver, ItemID: itemID, Content: content}
	if err := repo.CreateMessage(ctx, n.DB, m); err != nil {
		notificationsFailed.Inc()
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("receiver_id", receiver).
			Uint64("item_id", itemID).
			Msg("notification not stored")
	}
}

// Publish sends event to the prefixed topic. The write runs on its own
// deadline, detached from ctx cancellation, so a committed change is
// still announced after the client goes away and a stalled broker never
// holds the caller past PublishTimeout.
func (n *Notifier) Publish(ctx context.Context, topic, key string, event any) {
	if n == nil || n.Events == nil {
		return
	}
	timeout := n.PublishTimeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	full := events.Topic(n.TopicPrefix, topic)
	if err := n.Events.Publish(pctx, full, key, event); err != nil {
		eventPublishFailures.Inc()
		zerolog.Ctx(ctx).Warn().Err(err).Str("topic", full).Str("key", key).Msg("event not published")
	}
}

func requestEvent(r *domain.Request) events.RequestEvent {
	return events.RequestEvent{
		RequestID:   r.ID,
		ItemID:      r.ItemID,
		RequesterID: r.RequesterID,
		OwnerID:     r.OwnerID,
		Status:      string(r.Status),
		OccurredAt:  time.Now().UTC(),
	}
}

func orderEvent(o *domain.Order) events.OrderEvent {
	return events.OrderEvent{
		OrderID:        o.ID,
		RequestID:      o.RequestID,
		ItemID:         o.ItemID,
		BuyerID:        o.BuyerID,
		SellerID:       o.SellerID,
		Total:          o.Total.StringFixed(2),
		TransactionRef: o.TransactionRef,
		OccurredAt:     time.Now().UTC(),
	}
}
