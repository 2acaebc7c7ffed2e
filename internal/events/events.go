// Package events publishes marketplace domain events. Delivery is
// best-effort: the workflow has already committed when an event is sent, so
// callers log publish failures instead of returning them.
package events

import (
	"context"
	"strings"
	"time"
)

// Topic names, relative to the configured prefix.
const (
	TopicRequestCreated  = "request.created"
	TopicRequestPaid     = "request.paid"
	TopicRequestAccepted = "request.accepted"
	TopicRequestDeclined = "request.declined"
	TopicOrderCreated    = "order.created"
)

// DefaultPrefix is prepended to every topic unless configured otherwise.
const DefaultPrefix = "marketplace"

// Publisher sends a JSON-encodable event to a topic, partitioned by key.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
	Close() error
}

// Topic joins prefix and name with a dot. An empty prefix yields name.
func Topic(prefix, name string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// RequestEvent describes a request lifecycle change.
type RequestEvent struct {
	RequestID   uint64    `json:"request_id"`
	ItemID      uint64    `json:"item_id"`
	RequesterID string    `json:"requester_id"`
	OwnerID     string    `json:"owner_id"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// OrderEvent describes a newly created order.
type OrderEvent struct {
	OrderID        uint64    `json:"order_id"`
	RequestID      *uint64   `json:"request_id,omitempty"`
	ItemID         uint64    `json:"item_id"`
	BuyerID        string    `json:"buyer_id"`
	SellerID       string    `json:"seller_id"`
	Total          string    `json:"total"`
	TransactionRef string    `json:"transaction_ref"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, string, string, any) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }
