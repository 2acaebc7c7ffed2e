// Message HTTP handlers.
//
// This file exposes buyer/seller messaging:
//   - POST /send_message                        (append a message)
//   - GET  /unread_count                        (navbar badge)
//   - GET  /messages                            (inbox grouped by thread, ETag support)
//   - GET  /conversation/{itemId}/{otherUserId} (thread; marks it read)
//   - POST /messages/{id}/read                  (mark one message read)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// send exists for (user, endpoint, key), the handler answers with the
// recorded message id and sets `Idempotency-Replayed: true`.
package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
	"github.com/tbourn/roomie-mart-backend/internal/repo"
	"github.com/tbourn/roomie-mart-backend/internal/services"
)

//
// DTOs
//

// SendMessageRequest is the JSON or form payload for sending a message.
type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id" form:"receiver_id" example:"u-42"`
	ItemID     uint64 `json:"item_id"     form:"item_id"     example:"7"`
	Content    string `json:"content"     form:"content"     example:"Is it still available?"`
}

// SendMessageResponse mirrors what the web client's XHR path expects.
type SendMessageResponse struct {
	Success   bool            `json:"success"`
	MessageID uint64          `json:"message_id"`
	Message   *domain.Message `json:"message,omitempty"`
}

// ConversationResponse is one thread as seen by the caller.
type ConversationResponse struct {
	ItemID   uint64           `json:"item_id"`
	OtherID  string           `json:"other_user_id"`
	Messages []domain.Message `json:"messages"`
}

//
// Helpers
//

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes user text for consistent downstream behavior:
// CRLF and CR become LF, long blank runs collapse, and the ends are trimmed.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

//
// Handlers
//

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a message about an item
// @Tags        Messages
// @Accept      json,x-www-form-urlencoded
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       body  body  handlers.SendMessageRequest  true  "Message"
// @Success     200  {object} handlers.SendMessageResponse
// @Success     303  {string} string "Form post: redirect to the conversation"
// @Failure     400  {object} handlers.ErrorResponse "Missing fields or self-addressed"
// @Failure     404  {object} handlers.ErrorResponse "Item not found"
// @Router      /send_message [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	err := c.ShouldBind(&req)
	content := sanitizeContent(req.Content)
	if err != nil || strings.TrimSpace(req.ReceiverID) == "" || req.ItemID == 0 || content == "" {
		back := c.Request.Referer()
		if back == "" {
			back = h.url("messages")
		}
		failErr(c, fmt.Errorf("all fields are required: %w", services.ErrInvalidInput), back)
		return
	}
	thread := h.url("conversation", req.ItemID, req.ReceiverID)

	if id, replay := h.replayID(c); replay {
		done(c, http.StatusOK, SendMessageResponse{Success: true, MessageID: id}, thread, "Message sent successfully")
		return
	}

	m, err := h.messages.Append(c.Request.Context(), userID(c), req.ReceiverID, req.ItemID, content)
	if err != nil {
		failErr(c, err, thread)
		return
	}
	h.remember(c, m.ID, http.StatusOK)
	done(c, http.StatusOK, SendMessageResponse{Success: true, MessageID: m.ID, Message: m}, thread, "Message sent successfully")
}

// UnreadCount godoc
// @ID          unreadCount
// @Summary     Number of unread messages addressed to me
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object} handlers.CountResponse
// @Router      /unread_count [get]
func (h *Handlers) UnreadCount(c *gin.Context) {
	n, err := h.messages.UnreadCount(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, CountResponse{Count: n})
}

// Inbox godoc
// @ID          inbox
// @Summary     My conversations
// @Description One row per (item, counterparty), most recently active first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Success     200  {array}  domain.Conversation
// @Success     304  {string} string "Not Modified"
// @Router      /messages [get]
func (h *Handlers) Inbox(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	if h.db != nil {
		if count, unread, latest, err := repo.InboxStats(ctx, h.db, uid); err == nil {
			etag := fmt.Sprintf(`W/"inbox:%s:%d:%d:%d"`, uid, count, unread, unixOrZero(latest))
			if notModified(c, etag) {
				return
			}
		}
	}

	rows, err := h.messages.Inbox(ctx, uid)
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, rows)
}

// Conversation godoc
// @ID          conversation
// @Summary     One thread
// @Description Messages between the caller and another user about one item, oldest first. Messages addressed to the caller are marked read.
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Param       itemId       path  int     true  "Item ID"
// @Param       otherUserId  path  string  true  "Counterparty identity"
// @Success     200  {object} handlers.ConversationResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad id"
// @Router      /conversation/{itemId}/{otherUserId} [get]
func (h *Handlers) Conversation(c *gin.Context) {
	itemID, valid := pathID(c, "itemId")
	if !valid {
		return
	}
	other := strings.TrimSpace(c.Param("otherUserId"))
	msgs, err := h.messages.OpenConversation(c.Request.Context(), userID(c), other, itemID)
	if err != nil {
		failErr(c, err, "")
		return
	}
	ok(c, http.StatusOK, ConversationResponse{ItemID: itemID, OtherID: other, Messages: msgs})
}

// MarkMessageRead godoc
// @ID          markMessageRead
// @Summary     Mark a message read
// @Description Idempotent; only the receiver may do it.
// @Tags        Messages
// @Security    BearerAuth
// @Param       id  path  int  true  "Message ID"
// @Success     204  {string} string "No Content"
// @Failure     403  {object} handlers.ErrorResponse "Not the receiver"
// @Failure     404  {object} handlers.ErrorResponse "Message not found"
// @Router      /messages/{id}/read [post]
func (h *Handlers) MarkMessageRead(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.messages.MarkRead(c.Request.Context(), id, userID(c)); err != nil {
		failErr(c, err, "")
		return
	}
	noContent(c)
}
