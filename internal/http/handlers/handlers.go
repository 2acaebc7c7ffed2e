// Package handlers exposes the marketplace over HTTP.
//
// Handlers are transport-thin: they read the actor from the Gin context (set
// by middleware.Identity), parse and validate input, delegate to application
// services, and translate results into JSON or, for classic form posts, a
// 303 redirect with a flash message.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
	"github.com/tbourn/roomie-mart-backend/internal/http/middleware"
	"github.com/tbourn/roomie-mart-backend/internal/repo"
	"github.com/tbourn/roomie-mart-backend/internal/services"
	"github.com/tbourn/roomie-mart-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// CatalogService manages listings.
type CatalogService interface {
	Create(ctx context.Context, owner string, in services.ItemInput) (*domain.Item, error)
	Get(ctx context.Context, id uint64) (*domain.ItemWithSeller, error)
	ListAvailable(ctx context.Context, f repo.ItemFilter, page, pageSize int) ([]domain.ItemWithSeller, int64, error)
	Search(ctx context.Context, query string, f repo.ItemFilter) ([]domain.ItemWithSeller, error)
	Update(ctx context.Context, id uint64, actor string, in services.ItemInput) (*domain.Item, error)
	MarkSold(ctx context.Context, id uint64, actor string) error
	Delete(ctx context.Context, id uint64, actor string) error
	ListForOwner(ctx context.Context, owner string) ([]domain.Item, error)
}

// RequestService runs the purchase request workflow.
type RequestService interface {
	Create(ctx context.Context, itemID uint64, requester, message string) (*domain.Request, error)
	ListForOwner(ctx context.Context, owner string) ([]domain.RequestWithItemAndRequester, error)
	ListForRequester(ctx context.Context, requester string) ([]domain.RequestWithItemAndOwner, error)
	CountPendingForOwner(ctx context.Context, owner string) (int64, error)
	Accept(ctx context.Context, requestID uint64, actor string) (*domain.Order, error)
	Decline(ctx context.Context, requestID uint64, actor string) error
}

// PaymentService simulates the buy-now path.
type PaymentService interface {
	Initiate(ctx context.Context, itemID uint64, buyer string) (*domain.Request, error)
	Checkout(ctx context.Context, requestID uint64, buyer string) (*services.Checkout, error)
	Pay(ctx context.Context, requestID uint64, buyer string) error
}

// OrderService reads settled orders.
type OrderService interface {
	GetForParty(ctx context.Context, id uint64, actor string) (*domain.OrderWithParties, error)
	ListForBuyer(ctx context.Context, buyer string) ([]domain.OrderWithParties, error)
	ListForSeller(ctx context.Context, seller string) ([]domain.OrderWithParties, error)
	RenderBill(ctx context.Context, id uint64, actor string) (string, []byte, error)
}

// MessagingService stores and reads conversations.
type MessagingService interface {
	Append(ctx context.Context, sender, receiver string, itemID uint64, content string) (*domain.Message, error)
	OpenConversation(ctx context.Context, viewer, other string, itemID uint64) ([]domain.Message, error)
	MarkRead(ctx context.Context, messageID uint64, actor string) error
	UnreadCount(ctx context.Context, user string) (int64, error)
	Inbox(ctx context.Context, user string) ([]domain.Conversation, error)
}

// FeedbackService captures order ratings.
type FeedbackService interface {
	Leave(ctx context.Context, userID string, orderID uint64, rating int, comment string) (*domain.Feedback, error)
	ListForSeller(ctx context.Context, seller string) ([]domain.Feedback, error)
}

//
// Handler wiring
//

// Deps bundles what the handlers need. DB is optional: when nil, ETags and
// Idempotency-Key replays are disabled.
type Deps struct {
	Catalog  CatalogService
	Requests RequestService
	Payments PaymentService
	Orders   OrderService
	Messages MessagingService
	Feedback FeedbackService

	DB             *gorm.DB
	IdempotencyTTL time.Duration
	// BasePath prefixes redirect targets, e.g. "/api/v1".
	BasePath string
}

// Handlers groups the HTTP endpoints of the marketplace.
type Handlers struct {
	catalog  CatalogService
	requests RequestService
	payments PaymentService
	orders   OrderService
	messages MessagingService
	feedback FeedbackService

	db       *gorm.DB
	idemTTL  time.Duration
	basePath string
}

// New constructs a Handlers instance bound to the given services.
func New(d Deps) *Handlers {
	ttl := d.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	base := strings.TrimRight(d.BasePath, "/")
	return &Handlers{
		catalog:  d.Catalog,
		requests: d.Requests,
		payments: d.Payments,
		orders:   d.Orders,
		messages: d.Messages,
		feedback: d.Feedback,
		db:       d.DB,
		idemTTL:  ttl,
		basePath: base,
	}
}

// userID returns the actor set by middleware.Identity, or "" for anonymous
// callers on routes that allow them.
func userID(c *gin.Context) string {
	return middleware.UserID(c)
}

// url builds a redirect target under the API base path.
func (h *Handlers) url(parts ...any) string {
	segs := make([]string, 0, len(parts)+1)
	segs = append(segs, "/"+h.basePath)
	for _, p := range parts {
		segs = append(segs, fmt.Sprint(p))
	}
	return path.Join(segs...)
}

// pathID parses the named path parameter as a row id, failing the request
// with 400 when it is not one.
func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// CountResponse wraps a single counter.
type CountResponse struct {
	Count int64 `json:"count" example:"3"`
}

//
// Helpers
//

// clampPagination parses and bounds the page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	p := utils.ParsePage(c.Query("page"), c.Query("page_size"))
	return p.Number, p.Size
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.NewPage(page, pageSize).Count(total)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// notModified sets a weak ETag and reports whether If-None-Match matched it,
// in which case a 304 has been written.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

func unixOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.Unix()
}

// replayID returns the resource id recorded for this caller's
// Idempotency-Key on this endpoint, if any.
func (h *Handlers) replayID(c *gin.Context) (uint64, bool) {
	key, has := middleware.GetIdempotencyKey(c)
	if !has || h.db == nil {
		return 0, false
	}
	rec, err := repo.GetIdempotency(c.Request.Context(), h.db, userID(c), middleware.IdempotencyScope(c), key, time.Now().UTC())
	if err != nil {
		return 0, false
	}
	c.Header("Idempotency-Replayed", "true")
	return rec.ResourceID, true
}

// remember records the resource produced for this caller's Idempotency-Key.
// Best effort: a failed write only costs a future replay.
func (h *Handlers) remember(c *gin.Context, resourceID uint64, status int) {
	key, has := middleware.GetIdempotencyKey(c)
	if !has || h.db == nil {
		return
	}
	if _, err := repo.CreateIdempotency(c.Request.Context(), h.db, userID(c), middleware.IdempotencyScope(c), key, resourceID, status, h.idemTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not stored")
	}
}
