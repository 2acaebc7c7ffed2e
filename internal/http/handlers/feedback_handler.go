// Feedback HTTP handlers.
//
// This file exposes order ratings:
//   - POST /orders/{orderId}/feedback   (buyer rates the order)
//   - GET  /sellers/{sellerId}/feedback (ratings a seller received)
//
// Ratings are integers from 1 to 5.
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/roomie-mart-backend/internal/services"
)

// LeaveFeedbackRequest is the JSON or form payload for rating an order.
//
// The binding tag enforces the rating range at the transport layer; the
// service checks it again.
type LeaveFeedbackRequest struct {
	// Rating is 1 (worst) to 5 (best).
	Rating  int    `json:"rating"  form:"rating" binding:"required,min=1,max=5" example:"5"`
	Comment string `json:"comment" form:"comment" example:"Smooth handover"`
}

// LeaveFeedback godoc
// @ID          leaveFeedback
// @Summary     Rate an order
// @Description Records the buyer's rating of a completed order. One rating per order.
// @Tags        Feedback
// @Accept      json,x-www-form-urlencoded
// @Produce     json
// @Security    BearerAuth
//
// @Param       orderId  path  int  true  "Order ID"
// @Param       body     body  handlers.LeaveFeedbackRequest true "Feedback payload"
//
// @Success     201  {object} domain.Feedback
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     403  {object} handlers.ErrorResponse "Not the buyer"
// @Failure     404  {object} handlers.ErrorResponse "Order not found"
// @Failure     409  {object} handlers.ErrorResponse "Feedback already exists"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /orders/{orderId}/feedback [post]
func (h *Handlers) LeaveFeedback(c *gin.Context) {
	orderID, valid := pathID(c, "orderId")
	if !valid {
		return
	}
	back := h.url("orders", orderID)

	var req LeaveFeedbackRequest
	if err := c.ShouldBind(&req); err != nil {
		failErr(c, fmt.Errorf("please select a rating between 1 and 5: %w", services.ErrInvalidRating), back)
		return
	}

	fb, err := h.feedback.Leave(c.Request.Context(), userID(c), orderID, req.Rating, req.Comment)
	if err != nil {
		failErr(c, err, back)
		return
	}
	done(c, http.StatusCreated, fb, h.url("items", fb.ItemID), "Thank you for your feedback!")
}

// ListSellerFeedback godoc
// @ID          listSellerFeedback
// @Summary     Ratings a seller received
// @Tags        Feedback
// @Produce     json
// @Param       sellerId  path  string  true  "Seller identity"
// @Success     200  {array}  domain.Feedback
// @Router      /sellers/{sellerId}/feedback [get]
func (h *Handlers) ListSellerFeedback(c *gin.Context) {
	seller := strings.TrimSpace(c.Param("sellerId"))
	if seller == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "seller id required")
		return
	}
	rows, err := h.feedback.ListForSeller(c.Request.Context(), seller)
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, rows)
}
