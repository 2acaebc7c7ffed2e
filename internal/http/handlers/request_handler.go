// Request HTTP handlers.
//
// This file exposes the purchase request workflow:
//   - POST /requests/create/{itemId}   (buyer asks to buy)
//   - GET  /requests                   (owner's incoming requests)
//   - GET  /requests/my_requests       (buyer's outgoing requests)
//   - GET  /requests/pending_count     (owner's badge counter)
//   - POST /requests/accept/{requestId}       (owner accepts; creates the order)
//   - POST /requests/decline/{requestId}      (owner declines)
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
	"github.com/tbourn/roomie-mart-backend/internal/services"
)

// CreateRequestRequest is the JSON or form payload for a purchase request.
type CreateRequestRequest struct {
	// Message is forwarded to the owner; a default text is used when empty.
	Message string `json:"message" form:"message" example:"Can I pick it up tonight?"`
	// FromBuy is "1" when the request was started from a Buy button.
	FromBuy string `json:"from_buy" form:"from_buy" example:"1"`
}

// CreateRequest godoc
// @ID          createRequest
// @Summary     Request to buy an item
// @Description Opens a pending request and notifies the owner. Supports the Idempotency-Key header.
// @Tags        Requests
// @Accept      json,x-www-form-urlencoded
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       itemId  path  int  true  "Item ID"
// @Param       body    body  handlers.CreateRequestRequest  false  "Request"
// @Success     201  {object} domain.Request
// @Success     303  {string} string "Form post: redirect to the item or to my requests"
// @Failure     400  {object} handlers.ErrorResponse "Own item or malformed body"
// @Failure     404  {object} handlers.ErrorResponse "Item not found"
// @Failure     409  {object} handlers.ErrorResponse "Item already sold"
// @Router      /requests/create/{itemId} [post]
func (h *Handlers) CreateRequest(c *gin.Context) {
	itemID, valid := pathID(c, "itemId")
	if !valid {
		return
	}
	itemPage := h.url("items", itemID)

	// Every field is optional, so an empty body is fine; a body that does not
	// parse is not.
	var req CreateRequestRequest
	if err := c.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
		failErr(c, fmt.Errorf("malformed request: %w", services.ErrInvalidInput), itemPage)
		return
	}

	to, msg := itemPage, "Request sent to the seller"
	if strings.TrimSpace(req.FromBuy) == "1" {
		to, msg = h.url("requests", "my_requests"), "Order request sent to the seller. Please wait for the seller to confirm."
	}

	if id, replay := h.replayID(c); replay {
		done(c, http.StatusCreated, gin.H{"id": id}, to, msg)
		return
	}

	r, err := h.requests.Create(c.Request.Context(), itemID, userID(c), req.Message)
	if err != nil {
		failErr(c, err, itemPage)
		return
	}
	h.remember(c, r.ID, http.StatusCreated)
	done(c, http.StatusCreated, r, to, msg)
}

// ListIncomingRequests godoc
// @ID          listIncomingRequests
// @Summary     Requests on my items
// @Tags        Requests
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.RequestWithItemAndRequester
// @Router      /requests [get]
func (h *Handlers) ListIncomingRequests(c *gin.Context) {
	rows, err := h.requests.ListForOwner(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, rows)
}

// ListMyRequests godoc
// @ID          listMyRequests
// @Summary     Requests I made
// @Tags        Requests
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.RequestWithItemAndOwner
// @Router      /requests/my_requests [get]
func (h *Handlers) ListMyRequests(c *gin.Context) {
	rows, err := h.requests.ListForRequester(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, rows)
}

// PendingRequestCount godoc
// @ID          pendingRequestCount
// @Summary     Number of pending requests on my items
// @Tags        Requests
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object} handlers.CountResponse
// @Router      /requests/pending_count [get]
func (h *Handlers) PendingRequestCount(c *gin.Context) {
	n, err := h.requests.CountPendingForOwner(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, CountResponse{Count: n})
}

// AcceptRequest godoc
// @ID          acceptRequest
// @Summary     Accept a request
// @Description Marks the item sold and creates the order atomically. When the item was sold in the meantime the request is declined and 409 already_sold is returned.
// @Tags        Requests
// @Produce     json
// @Security    BearerAuth
// @Param       requestId  path  int  true  "Request ID"
// @Success     200  {object} domain.Order
// @Success     303  {string} string "Form post: redirect to the order"
// @Failure     403  {object} handlers.ErrorResponse "Not the owner"
// @Failure     404  {object} handlers.ErrorResponse "Request not found"
// @Failure     409  {object} handlers.ErrorResponse "Already sold or invalid transition"
// @Router      /requests/accept/{requestId} [post]
func (h *Handlers) AcceptRequest(c *gin.Context) {
	id, valid := pathID(c, "requestId")
	if !valid {
		return
	}
	incoming := h.url("requests")
	o, err := h.requests.Accept(c.Request.Context(), id, userID(c))
	if err != nil {
		failErr(c, err, incoming)
		return
	}
	done(c, http.StatusOK, o, h.url("orders", o.ID), "Request accepted - order created")
}

// DeclineRequest godoc
// @ID          declineRequest
// @Summary     Decline a pending request
// @Tags        Requests
// @Security    BearerAuth
// @Param       requestId  path  int  true  "Request ID"
// @Success     200  {object} map[string]any
// @Failure     403  {object} handlers.ErrorResponse "Not the owner"
// @Failure     404  {object} handlers.ErrorResponse "Request not found"
// @Failure     409  {object} handlers.ErrorResponse "Not pending"
// @Router      /requests/decline/{requestId} [post]
func (h *Handlers) DeclineRequest(c *gin.Context) {
	id, valid := pathID(c, "requestId")
	if !valid {
		return
	}
	incoming := h.url("requests")
	if err := h.requests.Decline(c.Request.Context(), id, userID(c)); err != nil {
		failErr(c, err, incoming)
		return
	}
	if wantsJSON(c) {
		ok(c, http.StatusOK, gin.H{"id": id, "status": domain.RequestDeclined})
		return
	}
	redirect(c, incoming, "info", "Request declined")
}
