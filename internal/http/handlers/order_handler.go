// Order HTTP handlers.
//
// This file exposes the buy-now path and the order ledger:
//   - POST     /orders/buy/{itemId}          (open a request, then pay)
//   - GET,POST /orders/pay/{requestId}       (checkout view / simulated payment)
//   - GET      /orders/my_orders             (orders I bought)
//   - GET      /orders/sales_history         (orders I sold)
//   - GET      /orders/{orderId}             (order with both parties)
//   - GET      /orders/{orderId}/download    (HTML bill as attachment)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
)

// BuyResponse is returned to API clients by the buy-now endpoint.
type BuyResponse struct {
	Request *domain.Request `json:"request"`
	PayURL  string          `json:"pay_url" example:"/orders/pay/7"`
}

// BuyItem godoc
// @ID          buyItem
// @Summary     Buy now
// @Description Opens a pending request without a message and points the buyer at the payment page. Form posts are redirected there with 303.
// @Tags        Orders
// @Produce     json
// @Security    BearerAuth
// @Param       itemId  path  int  true  "Item ID"
// @Success     201  {object} handlers.BuyResponse
// @Success     303  {string} string "Form post: redirect to /orders/pay/{requestId}"
// @Failure     400  {object} handlers.ErrorResponse "Own item"
// @Failure     404  {object} handlers.ErrorResponse "Item not found"
// @Failure     409  {object} handlers.ErrorResponse "Item already sold"
// @Router      /orders/buy/{itemId} [post]
func (h *Handlers) BuyItem(c *gin.Context) {
	itemID, valid := pathID(c, "itemId")
	if !valid {
		return
	}
	r, err := h.payments.Initiate(c.Request.Context(), itemID, userID(c))
	if err != nil {
		failErr(c, err, h.url("items", itemID))
		return
	}
	pay := h.url("orders", "pay", r.ID)
	if !wantsJSON(c) {
		c.Redirect(http.StatusSeeOther, pay)
		return
	}
	c.Header("Location", pay)
	ok(c, http.StatusCreated, BuyResponse{Request: r, PayURL: pay})
}

// CheckoutView godoc
// @ID          checkoutView
// @Summary     Payment page data
// @Tags        Orders
// @Produce     json
// @Security    BearerAuth
// @Param       requestId  path  int  true  "Request ID"
// @Success     200  {object} services.Checkout
// @Failure     403  {object} handlers.ErrorResponse "Not the requester"
// @Failure     404  {object} handlers.ErrorResponse "Request not found"
// @Router      /orders/pay/{requestId} [get]
func (h *Handlers) CheckoutView(c *gin.Context) {
	id, valid := pathID(c, "requestId")
	if !valid {
		return
	}
	co, err := h.payments.Checkout(c.Request.Context(), id, userID(c))
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, co)
}

// PayRequest godoc
// @ID          payRequest
// @Summary     Simulate payment
// @Description Moves a pending request to paid and notifies the seller, who still has to accept it. No order is created here.
// @Tags        Orders
// @Produce     json
// @Security    BearerAuth
// @Param       requestId  path  int  true  "Request ID"
// @Success     200  {object} map[string]any
// @Success     303  {string} string "Form post: redirect to my requests"
// @Failure     403  {object} handlers.ErrorResponse "Not the requester"
// @Failure     404  {object} handlers.ErrorResponse "Request not found"
// @Failure     409  {object} handlers.ErrorResponse "Not pending"
// @Router      /orders/pay/{requestId} [post]
func (h *Handlers) PayRequest(c *gin.Context) {
	id, valid := pathID(c, "requestId")
	if !valid {
		return
	}
	if err := h.payments.Pay(c.Request.Context(), id, userID(c)); err != nil {
		failErr(c, err, h.url("orders", "pay", id))
		return
	}
	done(c, http.StatusOK, gin.H{"id": id, "status": domain.RequestPaid},
		h.url("requests", "my_requests"),
		"Payment successful. Seller has been notified to confirm the request.")
}

// ListMyOrders godoc
// @ID          listMyOrders
// @Summary     Orders I bought
// @Tags        Orders
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.OrderWithParties
// @Router      /orders/my_orders [get]
func (h *Handlers) ListMyOrders(c *gin.Context) {
	rows, err := h.orders.ListForBuyer(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, rows)
}

// ListSales godoc
// @ID          listSales
// @Summary     Orders I sold
// @Tags        Orders
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.OrderWithParties
// @Router      /orders/sales_history [get]
func (h *Handlers) ListSales(c *gin.Context) {
	rows, err := h.orders.ListForSeller(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, rows)
}

// GetOrder godoc
// @ID          getOrder
// @Summary     View an order
// @Tags        Orders
// @Produce     json
// @Security    BearerAuth
// @Param       orderId  path  int  true  "Order ID"
// @Success     200  {object} domain.OrderWithParties
// @Failure     403  {object} handlers.ErrorResponse "Not a party"
// @Failure     404  {object} handlers.ErrorResponse "Order not found"
// @Router      /orders/{orderId} [get]
func (h *Handlers) GetOrder(c *gin.Context) {
	id, valid := pathID(c, "orderId")
	if !valid {
		return
	}
	o, err := h.orders.GetForParty(c.Request.Context(), id, userID(c))
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, o)
}

// DownloadBill godoc
// @ID          downloadBill
// @Summary     Download the order bill
// @Tags        Orders
// @Produce     html
// @Security    BearerAuth
// @Param       orderId  path  int  true  "Order ID"
// @Success     200  {file}   file "order_{id}_bill.html"
// @Failure     403  {object} handlers.ErrorResponse "Not a party"
// @Failure     404  {object} handlers.ErrorResponse "Order not found"
// @Router      /orders/{orderId}/download [get]
func (h *Handlers) DownloadBill(c *gin.Context) {
	id, valid := pathID(c, "orderId")
	if !valid {
		return
	}
	name, body, err := h.orders.RenderBill(c.Request.Context(), id, userID(c))
	if err != nil {
		failErr(c, err, "")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}
