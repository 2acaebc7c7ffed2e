package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemWithSeller is an item joined with its owner's display profile.
type ItemWithSeller struct {
	Item
	SellerName  string `json:"seller_name"`
	SellerEmail string `json:"seller_email,omitempty"`
}

// RequestWithItemAndRequester is the owner's view of an incoming request.
type RequestWithItemAndRequester struct {
	Request
	ItemTitle      string          `json:"item_title"`
	ItemPrice      decimal.Decimal `json:"item_price"`
	ItemStatus     ItemStatus      `json:"item_status"`
	RequesterName  string          `json:"requester_name"`
	RequesterEmail string          `json:"requester_email,omitempty"`
}

// RequestWithItemAndOwner is the requester's view of an outgoing request.
type RequestWithItemAndOwner struct {
	Request
	ItemTitle  string          `json:"item_title"`
	ItemPrice  decimal.Decimal `json:"item_price"`
	ItemStatus ItemStatus      `json:"item_status"`
	OwnerName  string          `json:"owner_name"`
	OwnerEmail string          `json:"owner_email,omitempty"`
}

// OrderWithParties is an order joined with both parties' display profiles.
type OrderWithParties struct {
	Order
	BuyerName   string `json:"buyer_name"`
	BuyerEmail  string `json:"buyer_email,omitempty"`
	SellerName  string `json:"seller_name"`
	SellerEmail string `json:"seller_email,omitempty"`
}

// Conversation summarizes the messages between a user and one counterparty
// about one item.
type Conversation struct {
	ItemID           uint64    `json:"item_id"`
	ItemTitle        string    `json:"item_title"`
	CounterpartyID   string    `json:"counterparty_id"`
	CounterpartyName string    `json:"counterparty_name"`
	LastMessageID    uint64    `json:"last_message_id"`
	LastMessage      string    `json:"last_message"`
	LastAt           time.Time `json:"last_at"`
	Unread           int64     `json:"unread"`
}
