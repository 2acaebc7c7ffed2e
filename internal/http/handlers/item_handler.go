// Item HTTP handlers.
//
// This file exposes the catalog:
//   - GET    /items               (browse available items, paginated, ETag support)
//   - GET    /items/search        (substring search with the same filters)
//   - GET    /items/mine          (the caller's listings)
//   - GET    /items/{id}          (detail with seller profile)
//   - POST   /items               (create)
//   - PUT    /items/{id}          (edit, owner only)
//   - DELETE /items/{id}          (delete, owner only)
//   - POST   /items/{id}/mark_sold
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
	"github.com/tbourn/roomie-mart-backend/internal/repo"
	"github.com/tbourn/roomie-mart-backend/internal/services"
)

//
// DTOs
//

// flexString accepts either a JSON string or a JSON number, so prices can be
// posted as 12.5 or "12.50".
type flexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// ItemRequest is the JSON or form payload for creating or editing an item.
type ItemRequest struct {
	Title       string     `json:"title"       form:"title"       example:"Desk lamp"`
	Category    string     `json:"category"    form:"category"    example:"electronics"`
	Condition   string     `json:"condition"   form:"condition"   example:"good"`
	Description string     `json:"description" form:"description" example:"Warm white LED, barely used"`
	Price       flexString `json:"price"       form:"price"       swaggertype:"string" example:"250.00"`
	Hostel      string     `json:"hostel"      form:"hostel"      example:"H4"`
	Block       string     `json:"block"       form:"block"       example:"B"`
	Address     string     `json:"address"     form:"address"`
	Latitude    *float64   `json:"latitude"    form:"latitude"`
	Longitude   *float64   `json:"longitude"   form:"longitude"`
}

func (r ItemRequest) input() (services.ItemInput, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(string(r.Price)))
	if err != nil {
		return services.ItemInput{}, fmt.Errorf("price: %w", services.ErrInvalidPrice)
	}
	return services.ItemInput{
		Title:       r.Title,
		Category:    r.Category,
		Condition:   r.Condition,
		Description: r.Description,
		Price:       price,
		Hostel:      r.Hostel,
		Block:       r.Block,
		Address:     r.Address,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
	}, nil
}

// ListItemsResponse wraps a page of items and pagination information.
type ListItemsResponse struct {
	Items      []domain.ItemWithSeller `json:"items"`
	Pagination Pagination              `json:"pagination"`
}

//
// Helpers
//

// itemFilter reads the catalog filters from the query string. Prices that do
// not parse are ignored rather than rejected.
func itemFilter(c *gin.Context) repo.ItemFilter {
	f := repo.ItemFilter{
		Category:  strings.TrimSpace(c.Query("category")),
		Condition: strings.TrimSpace(c.Query("condition")),
		Hostel:    strings.TrimSpace(c.Query("hostel")),
		Block:     strings.TrimSpace(c.Query("block")),
	}
	if d, err := decimal.NewFromString(c.Query("min_price")); err == nil {
		f.MinPrice = &d
	}
	if d, err := decimal.NewFromString(c.Query("max_price")); err == nil {
		f.MaxPrice = &d
	}
	return f
}

func (h *Handlers) bindItem(c *gin.Context, back string) (services.ItemInput, bool) {
	var req ItemRequest
	if err := c.ShouldBind(&req); err != nil {
		failErr(c, fmt.Errorf("malformed item: %w", services.ErrInvalidInput), back)
		return services.ItemInput{}, false
	}
	in, err := req.input()
	if err != nil {
		failErr(c, err, back)
		return services.ItemInput{}, false
	}
	return in, true
}

//
// Handlers
//

// ListItems godoc
// @ID          listItems
// @Summary     Browse available items
// @Description Returns a page of available items, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Items
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       category       query   string  false "Category"
// @Param       condition      query   string  false "Condition"
// @Param       hostel         query   string  false "Hostel"
// @Param       block          query   string  false "Block"
// @Param       min_price      query   string  false "Minimum price"
// @Param       max_price      query   string  false "Maximum price"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListItemsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /items [get]
func (h *Handlers) ListItems(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort). The query string is part of the tag so
	// different pages and filters never share one.
	if h.db != nil {
		if count, latest, err := repo.AvailableItemsStats(ctx, h.db); err == nil {
			etag := fmt.Sprintf(`W/"items:%d:%d:%x"`, count, unixOrZero(latest), c.Request.URL.RawQuery)
			if notModified(c, etag) {
				return
			}
		}
	}

	items, total, err := h.catalog.ListAvailable(ctx, itemFilter(c), page, pageSize)
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, ListItemsResponse{Items: items, Pagination: newPagination(page, pageSize, total)})
}

// SearchItems godoc
// @ID          searchItems
// @Summary     Search available items
// @Description Case-insensitive substring match on title or description, combined with the browse filters.
// @Tags        Items
// @Produce     json
// @Param       q          query  string  false "Search text"
// @Param       category   query  string  false "Category"
// @Param       min_price  query  string  false "Minimum price"
// @Param       max_price  query  string  false "Maximum price"
// @Success     200  {array}  domain.ItemWithSeller
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /items/search [get]
func (h *Handlers) SearchItems(c *gin.Context) {
	items, err := h.catalog.Search(c.Request.Context(), c.Query("q"), itemFilter(c))
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, items)
}

// GetItem godoc
// @ID          getItem
// @Summary     Item detail
// @Tags        Items
// @Produce     json
// @Param       id   path  int  true  "Item ID"
// @Success     200  {object} domain.ItemWithSeller
// @Failure     400  {object} handlers.ErrorResponse "Bad id"
// @Failure     404  {object} handlers.ErrorResponse "Item not found"
// @Router      /items/{id} [get]
func (h *Handlers) GetItem(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	it, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, it)
}

// ListMyItems godoc
// @ID          listMyItems
// @Summary     The caller's listings
// @Tags        Items
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.Item
// @Failure     401  {object} handlers.ErrorResponse "No identity"
// @Router      /items/mine [get]
func (h *Handlers) ListMyItems(c *gin.Context) {
	items, err := h.catalog.ListForOwner(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, items)
}

// CreateItem godoc
// @ID          createItem
// @Summary     List an item for sale
// @Description Supports idempotency via the Idempotency-Key header (same key → same item).
// @Tags        Items
// @Accept      json,x-www-form-urlencoded
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       body  body  handlers.ItemRequest  true  "Item"
// @Success     201  {object} domain.Item
// @Success     303  {string} string "Form post: redirect to /items/mine"
// @Failure     400  {object} handlers.ErrorResponse "Invalid input"
// @Failure     401  {object} handlers.ErrorResponse "No identity"
// @Router      /items [post]
func (h *Handlers) CreateItem(c *gin.Context) {
	mine := h.url("items", "mine")
	if id, replay := h.replayID(c); replay {
		if it, err := h.catalog.Get(c.Request.Context(), id); err == nil {
			done(c, http.StatusCreated, it.Item, mine, "Item added successfully")
			return
		}
	}

	in, valid := h.bindItem(c, mine)
	if !valid {
		return
	}
	it, err := h.catalog.Create(c.Request.Context(), userID(c), in)
	if err != nil {
		failErr(c, err, mine)
		return
	}
	h.remember(c, it.ID, http.StatusCreated)
	c.Header("Location", h.url("items", it.ID))
	done(c, http.StatusCreated, it, mine, "Item added successfully")
}

// UpdateItem godoc
// @ID          updateItem
// @Summary     Edit an item
// @Tags        Items
// @Accept      json,x-www-form-urlencoded
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  int  true  "Item ID"
// @Param       body  body  handlers.ItemRequest  true  "Item"
// @Success     200  {object} domain.Item
// @Failure     400  {object} handlers.ErrorResponse "Invalid input"
// @Failure     403  {object} handlers.ErrorResponse "Not the owner"
// @Failure     404  {object} handlers.ErrorResponse "Item not found"
// @Failure     409  {object} handlers.ErrorResponse "Item already sold"
// @Router      /items/{id} [put]
func (h *Handlers) UpdateItem(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	mine := h.url("items", "mine")
	in, valid := h.bindItem(c, mine)
	if !valid {
		return
	}
	it, err := h.catalog.Update(c.Request.Context(), id, userID(c), in)
	if err != nil {
		failErr(c, err, mine)
		return
	}
	done(c, http.StatusOK, it, mine, "Item updated successfully")
}

// DeleteItem godoc
// @ID          deleteItem
// @Summary     Delete an item
// @Tags        Items
// @Security    BearerAuth
// @Param       id  path  int  true  "Item ID"
// @Success     204  {string} string "No Content"
// @Failure     403  {object} handlers.ErrorResponse "Not the owner"
// @Failure     404  {object} handlers.ErrorResponse "Item not found"
// @Failure     409  {object} handlers.ErrorResponse "Sold items are kept"
// @Router      /items/{id} [delete]
func (h *Handlers) DeleteItem(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	mine := h.url("items", "mine")
	if err := h.catalog.Delete(c.Request.Context(), id, userID(c)); err != nil {
		failErr(c, err, mine)
		return
	}
	if wantsJSON(c) || c.Request.Method == http.MethodDelete {
		noContent(c)
		return
	}
	redirect(c, mine, "success", "Item deleted successfully")
}

// MarkItemSold godoc
// @ID          markItemSold
// @Summary     Mark an item as sold outside the request workflow
// @Description Idempotent: marking a sold item again succeeds.
// @Tags        Items
// @Security    BearerAuth
// @Param       id  path  int  true  "Item ID"
// @Success     204  {string} string "No Content"
// @Failure     403  {object} handlers.ErrorResponse "Not the owner"
// @Failure     404  {object} handlers.ErrorResponse "Item not found"
// @Router      /items/{id}/mark_sold [post]
func (h *Handlers) MarkItemSold(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	mine := h.url("items", "mine")
	if err := h.catalog.MarkSold(c.Request.Context(), id, userID(c)); err != nil {
		failErr(c, err, mine)
		return
	}
	if wantsJSON(c) {
		noContent(c)
		return
	}
	redirect(c, mine, "success", "Item marked as sold")
}
