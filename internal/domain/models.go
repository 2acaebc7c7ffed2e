// Package domain defines the persistence models for the marketplace: users,
// items, purchase requests, orders, messages and order feedback. These types
// are mapped with GORM and shared by the repository, service and HTTP layers.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// User is the display profile of an identity. Rows are written from identity
// claims; the identity provider remains the source of truth.
type User struct {
	ID        string    `json:"id"               gorm:"type:varchar(64);primaryKey"`
	Name      string    `json:"name"             gorm:"type:varchar(255)"`
	Email     string    `json:"email,omitempty"  gorm:"type:varchar(255);index"`
	Phone     string    `json:"phone,omitempty"  gorm:"type:varchar(32)"`
	Hostel    string    `json:"hostel,omitempty" gorm:"type:varchar(128)"`
	Block     string    `json:"block,omitempty"  gorm:"type:varchar(64)"`
	Room      string    `json:"room,omitempty"   gorm:"type:varchar(32)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Item is a listing for sale.
//
// Fields:
//   - OwnerID: identity that created the listing; only it may mutate the row.
//   - Price: positive decimal amount.
//   - Hostel/Block/Address/Latitude/Longitude: optional location.
//   - Status: available until sold; never reverts.
type Item struct {
	ID          uint64          `json:"id"                    gorm:"primaryKey;autoIncrement"`
	OwnerID     string          `json:"owner_id"              gorm:"type:varchar(64);not null;index:idx_items_owner"`
	Title       string          `json:"title"                 gorm:"type:varchar(255);not null"`
	Category    string          `json:"category"              gorm:"type:varchar(64);not null;index:idx_items_filter,priority:2"`
	Price       decimal.Decimal `json:"price"                 gorm:"type:decimal(12,2);not null"`
	Condition   string          `json:"condition"             gorm:"type:varchar(32);not null"`
	Description string          `json:"description"           gorm:"type:text"`
	Hostel      string          `json:"hostel,omitempty"      gorm:"type:varchar(128);index:idx_items_filter,priority:3"`
	Block       string          `json:"block,omitempty"       gorm:"type:varchar(64)"`
	Address     string          `json:"address,omitempty"     gorm:"type:varchar(255)"`
	Latitude    *float64        `json:"latitude,omitempty"`
	Longitude   *float64        `json:"longitude,omitempty"`
	Status      ItemStatus      `json:"status"                gorm:"type:varchar(16);not null;default:'available';check:items_status_chk,status IN ('available','sold');index:idx_items_filter,priority:1"`
	CreatedAt   time.Time       `json:"created_at"            gorm:"index"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// SearchText is the case-folded title and description that catalog
	// search matches against. Derived; never set it directly.
	SearchText string `json:"-" gorm:"type:text"`
}

// TableName returns the database table name for Item.
func (Item) TableName() string { return "items" }

// ItemSearchText builds the SearchText value for a title and description.
func ItemSearchText(title, description string) string {
	return FoldSearch(title + "\n" + description)
}

// FoldSearch applies full Unicode case folding, so "École", "ÉCOLE" and
// "école" compare equal, as do "Straße" and "STRASSE".
func FoldSearch(s string) string {
	return cases.Fold().String(s)
}

// Request is a buyer's intent to purchase an item, subject to owner approval.
// OwnerID is copied from the item at creation time. Only Status ever changes.
type Request struct {
	ID          uint64        `json:"id"           gorm:"primaryKey;autoIncrement"`
	ItemID      uint64        `json:"item_id"      gorm:"not null;index"`
	RequesterID string        `json:"requester_id" gorm:"type:varchar(64);not null;index"`
	OwnerID     string        `json:"owner_id"     gorm:"type:varchar(64);not null;index:idx_requests_owner_status,priority:1"`
	Message     string        `json:"message,omitempty" gorm:"type:text"`
	Status      RequestStatus `json:"status"       gorm:"type:varchar(16);not null;default:'pending';check:requests_status_chk,status IN ('pending','paid','accepted','declined');index:idx_requests_owner_status,priority:2"`
	CreatedAt   time.Time     `json:"created_at"   gorm:"index"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Item is the requested listing. Requests go with their item.
	Item Item `json:"-" gorm:"foreignKey:ItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Request.
func (Request) TableName() string { return "requests" }

// Order is the settlement receipt of an accepted request. It is never updated.
//
// RequestID and ItemID are unique so a request, or an item, can settle once.
type Order struct {
	ID             uint64          `json:"id"              gorm:"primaryKey;autoIncrement"`
	RequestID      *uint64         `json:"request_id,omitempty" gorm:"uniqueIndex:ux_orders_request"`
	BuyerID        string          `json:"buyer_id"        gorm:"type:varchar(64);not null;index"`
	SellerID       string          `json:"seller_id"       gorm:"type:varchar(64);not null;index"`
	ItemID         uint64          `json:"item_id"         gorm:"not null;uniqueIndex:ux_orders_item"`
	ItemTitle      string          `json:"item_title"      gorm:"type:varchar(255)"`
	UnitPrice      decimal.Decimal `json:"unit_price"      gorm:"type:decimal(12,2);not null"`
	Quantity       int             `json:"quantity"        gorm:"not null;default:1;check:orders_quantity_chk,quantity >= 1"`
	Total          decimal.Decimal `json:"total"           gorm:"type:decimal(14,2);not null"`
	TransactionRef string          `json:"transaction_ref" gorm:"type:varchar(32);not null;uniqueIndex:ux_orders_txref"`
	Status         OrderStatus     `json:"status"          gorm:"type:varchar(16);not null;default:'completed';check:orders_status_chk,status IN ('completed')"`
	CreatedAt      time.Time       `json:"created_at"      gorm:"index"`

	// Item is the settled listing. Sold items cannot be deleted.
	Item Item `json:"-" gorm:"foreignKey:ItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// Message is a single note between two identities about one item. Only IsRead
// changes after creation, and only from false to true.
type Message struct {
	ID         uint64    `json:"id"          gorm:"primaryKey;autoIncrement"`
	SenderID   string    `json:"sender_id"   gorm:"type:varchar(64);not null;index:idx_messages_thread,priority:2"`
	ReceiverID string    `json:"receiver_id" gorm:"type:varchar(64);not null;index:idx_messages_thread,priority:3;index:idx_messages_unread,priority:1"`
	ItemID     uint64    `json:"item_id"     gorm:"not null;index:idx_messages_thread,priority:1"`
	Content    string    `json:"content"     gorm:"type:text;not null"`
	IsRead     bool      `json:"is_read"     gorm:"not null;default:false;index:idx_messages_unread,priority:2"`
	CreatedAt  time.Time `json:"created_at"  gorm:"index"`

	Item Item `json:"-" gorm:"foreignKey:ItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Feedback is a buyer's rating of a completed order. A user can rate an order
// once (enforced by unique index).
//
// Fields:
//   - Rating: 1 (worst) to 5 (best).
//   - SellerID/ItemID: copied from the order so seller ratings need no join.
type Feedback struct {
	ID        uint64    `json:"id"         gorm:"primaryKey;autoIncrement"`
	OrderID   uint64    `json:"order_id"   gorm:"not null;uniqueIndex:ux_feedback_order_user"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_feedback_order_user"`
	SellerID  string    `json:"seller_id"  gorm:"type:varchar(64);not null;index"`
	ItemID    uint64    `json:"item_id"    gorm:"not null"`
	Rating    int       `json:"rating"     gorm:"not null;check:feedback_rating_chk,rating BETWEEN 1 AND 5"`
	Comment   string    `json:"comment,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`

	// Order is the rated settlement. Feedback is cascade-deleted with it.
	Order Order `json:"-" gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Feedback.
func (Feedback) TableName() string { return "feedback" }
