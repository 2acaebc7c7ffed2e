package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
	"github.com/tbourn/roomie-mart-backend/internal/http/middleware"
	"github.com/tbourn/roomie-mart-backend/internal/repo"
	"github.com/tbourn/roomie-mart-backend/internal/services"
)

//
// Stubs
//

type stubCatalog struct {
	create       func(ctx context.Context, owner string, in services.ItemInput) (*domain.Item, error)
	get          func(ctx context.Context, id uint64) (*domain.ItemWithSeller, error)
	listAvail    func(ctx context.Context, f repo.ItemFilter, page, pageSize int) ([]domain.ItemWithSeller, int64, error)
	search       func(ctx context.Context, q string, f repo.ItemFilter) ([]domain.ItemWithSeller, error)
	update       func(ctx context.Context, id uint64, actor string, in services.ItemInput) (*domain.Item, error)
	markSold     func(ctx context.Context, id uint64, actor string) error
	del          func(ctx context.Context, id uint64, actor string) error
	listForOwner func(ctx context.Context, owner string) ([]domain.Item, error)
}

func (s *stubCatalog) Create(ctx context.Context, owner string, in services.ItemInput) (*domain.Item, error) {
	return s.create(ctx, owner, in)
}
func (s *stubCatalog) Get(ctx context.Context, id uint64) (*domain.ItemWithSeller, error) {
	return s.get(ctx, id)
}
func (s *stubCatalog) ListAvailable(ctx context.Context, f repo.ItemFilter, page, pageSize int) ([]domain.ItemWithSeller, int64, error) {
	return s.listAvail(ctx, f, page, pageSize)
}
func (s *stubCatalog) Search(ctx context.Context, q string, f repo.ItemFilter) ([]domain.ItemWithSeller, error) {
	return s.search(ctx, q, f)
}
func (s *stubCatalog) Update(ctx context.Context, id uint64, actor string, in services.ItemInput) (*domain.Item, error) {
	return s.update(ctx, id, actor, in)
}
func (s *stubCatalog) MarkSold(ctx context.Context, id uint64, actor string) error {
	return s.markSold(ctx, id, actor)
}
func (s *stubCatalog) Delete(ctx context.Context, id uint64, actor string) error {
	return s.del(ctx, id, actor)
}
func (s *stubCatalog) ListForOwner(ctx context.Context, owner string) ([]domain.Item, error) {
	return s.listForOwner(ctx, owner)
}

type stubRequests struct {
	create       func(ctx context.Context, itemID uint64, requester, message string) (*domain.Request, error)
	listOwner    func(ctx context.Context, owner string) ([]domain.RequestWithItemAndRequester, error)
	listMine     func(ctx context.Context, requester string) ([]domain.RequestWithItemAndOwner, error)
	countPending func(ctx context.Context, owner string) (int64, error)
	accept       func(ctx context.Context, id uint64, actor string) (*domain.Order, error)
	decline      func(ctx context.Context, id uint64, actor string) error
}

func (s *stubRequests) Create(ctx context.Context, itemID uint64, requester, message string) (*domain.Request, error) {
	return s.create(ctx, itemID, requester, message)
}
func (s *stubRequests) ListForOwner(ctx context.Context, owner string) ([]domain.RequestWithItemAndRequester, error) {
	return s.listOwner(ctx, owner)
}
func (s *stubRequests) ListForRequester(ctx context.Context, requester string) ([]domain.RequestWithItemAndOwner, error) {
	return s.listMine(ctx, requester)
}
func (s *stubRequests) CountPendingForOwner(ctx context.Context, owner string) (int64, error) {
	return s.countPending(ctx, owner)
}
func (s *stubRequests) Accept(ctx context.Context, id uint64, actor string) (*domain.Order, error) {
	return s.accept(ctx, id, actor)
}
func (s *stubRequests) Decline(ctx context.Context, id uint64, actor string) error {
	return s.decline(ctx, id, actor)
}

type stubPayments struct {
	initiate func(ctx context.Context, itemID uint64, buyer string) (*domain.Request, error)
	checkout func(ctx context.Context, id uint64, buyer string) (*services.Checkout, error)
	pay      func(ctx context.Context, id uint64, buyer string) error
}

func (s *stubPayments) Initiate(ctx context.Context, itemID uint64, buyer string) (*domain.Request, error) {
	return s.initiate(ctx, itemID, buyer)
}
func (s *stubPayments) Checkout(ctx context.Context, id uint64, buyer string) (*services.Checkout, error) {
	return s.checkout(ctx, id, buyer)
}
func (s *stubPayments) Pay(ctx context.Context, id uint64, buyer string) error {
	return s.pay(ctx, id, buyer)
}

type stubOrders struct {
	get        func(ctx context.Context, id uint64, actor string) (*domain.OrderWithParties, error)
	listBuyer  func(ctx context.Context, buyer string) ([]domain.OrderWithParties, error)
	listSeller func(ctx context.Context, seller string) ([]domain.OrderWithParties, error)
	bill       func(ctx context.Context, id uint64, actor string) (string, []byte, error)
}

func (s *stubOrders) GetForParty(ctx context.Context, id uint64, actor string) (*domain.OrderWithParties, error) {
	return s.get(ctx, id, actor)
}
func (s *stubOrders) ListForBuyer(ctx context.Context, buyer string) ([]domain.OrderWithParties, error) {
	return s.listBuyer(ctx, buyer)
}
func (s *stubOrders) ListForSeller(ctx context.Context, seller string) ([]domain.OrderWithParties, error) {
	return s.listSeller(ctx, seller)
}
func (s *stubOrders) RenderBill(ctx context.Context, id uint64, actor string) (string, []byte, error) {
	return s.bill(ctx, id, actor)
}

type stubMessages struct {
	appendFn func(ctx context.Context, sender, receiver string, itemID uint64, content string) (*domain.Message, error)
	open     func(ctx context.Context, viewer, other string, itemID uint64) ([]domain.Message, error)
	markRead func(ctx context.Context, id uint64, actor string) error
	unread   func(ctx context.Context, user string) (int64, error)
	inbox    func(ctx context.Context, user string) ([]domain.Conversation, error)
}

func (s *stubMessages) Append(ctx context.Context, sender, receiver string, itemID uint64, content string) (*domain.Message, error) {
	return s.appendFn(ctx, sender, receiver, itemID, content)
}
func (s *stubMessages) OpenConversation(ctx context.Context, viewer, other string, itemID uint64) ([]domain.Message, error) {
	return s.open(ctx, viewer, other, itemID)
}
func (s *stubMessages) MarkRead(ctx context.Context, id uint64, actor string) error {
	return s.markRead(ctx, id, actor)
}
func (s *stubMessages) UnreadCount(ctx context.Context, user string) (int64, error) {
	return s.unread(ctx, user)
}
func (s *stubMessages) Inbox(ctx context.Context, user string) ([]domain.Conversation, error) {
	return s.inbox(ctx, user)
}

type stubFeedback struct {
	leave      func(ctx context.Context, userID string, orderID uint64, rating int, comment string) (*domain.Feedback, error)
	listSeller func(ctx context.Context, seller string) ([]domain.Feedback, error)
}

func (s *stubFeedback) Leave(ctx context.Context, userID string, orderID uint64, rating int, comment string) (*domain.Feedback, error) {
	return s.leave(ctx, userID, orderID, rating, comment)
}
func (s *stubFeedback) ListForSeller(ctx context.Context, seller string) ([]domain.Feedback, error) {
	return s.listSeller(ctx, seller)
}

//
// Helpers
//

// newTestDB opens a migrated SQLite file under the test's temp dir.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.Open(repo.Options{
		Path:     filepath.Join(t.TempDir(), "handlers.db"),
		LogLevel: logger.Silent,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newTestRouter mounts every handler the way the production router does,
// with X-User-ID standing in for the identity middleware.
func newTestRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if uid := c.GetHeader(middleware.HeaderUserID); uid != "" {
			c.Set("userID", uid)
		}
		c.Next()
	})
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))

	r.GET("/items", h.ListItems)
	r.GET("/items/search", h.SearchItems)
	r.GET("/items/mine", h.ListMyItems)
	r.GET("/items/:id", h.GetItem)
	r.POST("/items", h.CreateItem)
	r.PUT("/items/:id", h.UpdateItem)
	r.DELETE("/items/:id", h.DeleteItem)
	r.POST("/items/:id/mark_sold", h.MarkItemSold)

	r.POST("/requests/create/:itemId", h.CreateRequest)
	r.GET("/requests", h.ListIncomingRequests)
	r.GET("/requests/my_requests", h.ListMyRequests)
	r.GET("/requests/pending_count", h.PendingRequestCount)
	r.POST("/requests/accept/:requestId", h.AcceptRequest)
	r.POST("/requests/decline/:requestId", h.DeclineRequest)

	r.POST("/orders/buy/:itemId", h.BuyItem)
	r.GET("/orders/pay/:requestId", h.CheckoutView)
	r.POST("/orders/pay/:requestId", h.PayRequest)
	r.GET("/orders/my_orders", h.ListMyOrders)
	r.GET("/orders/sales_history", h.ListSales)
	r.GET("/orders/:orderId", h.GetOrder)
	r.GET("/orders/:orderId/download", h.DownloadBill)
	r.POST("/orders/:orderId/feedback", h.LeaveFeedback)
	r.GET("/sellers/:sellerId/feedback", h.ListSellerFeedback)

	r.POST("/send_message", h.SendMessage)
	r.GET("/unread_count", h.UnreadCount)
	r.GET("/messages", h.Inbox)
	r.POST("/messages/:id/read", h.MarkMessageRead)
	r.GET("/conversation/:itemId/:otherUserId", h.Conversation)
	return r
}

// doJSON sends an API request; body may be empty.
func doJSON(r http.Handler, method, target, user, body string, hdr ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if user != "" {
		req.Header.Set(middleware.HeaderUserID, user)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// doForm sends a classic browser form post.
func doForm(r http.Handler, method, target, user string, form url.Values, hdr ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if user != "" {
		req.Header.Set(middleware.HeaderUserID, user)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// flashOf returns the decoded flash cookie value, or "".
func flashOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == FlashCookie {
			v, err := url.QueryUnescape(ck.Value)
			if err != nil {
				t.Fatalf("unescape flash: %v", err)
			}
			return v
		}
	}
	return ""
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return er.Code
}
