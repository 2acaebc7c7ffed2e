// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints,
// including structured error envelopes, consistent JSON serialization, and
// helpers for common HTTP patterns. The goal is to guarantee uniform responses
// for both success and failure cases, making the API predictable and
// machine-friendly.
//
// Conventions:
//   - All error responses must return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error logging and formatting, ensuring 5xx responses
//     are logged with request context for observability.
//   - `ok()` and `noContent()` simplify writing success responses in a consistent
//     shape across handlers.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "resource not found"
//	}
//
// Example success response:
//
//	HTTP/1.1 200 OK
//	{ "id": 12, "title": "Desk lamp", "status": "available" }
//
// Browser form posts are answered differently: instead of a JSON body they get
// a 303 See Other to a follow-up page plus a short-lived "flash" cookie with the
// user-facing message (see done and failErr).
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/roomie-mart-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: Optional correlation ID, echoed from X-Request-ID header, used
//     to correlate server logs with client-side errors.
//   - Code: A stable, machine-readable string (see errors.go constants).
//   - Message: A human-readable error description, safe for display to users.
//
// This struct is used in OpenAPI documentation via Swagger annotations.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
}

// fail aborts the request with a structured error and logs server-side errors.
//
// It constructs an ErrorResponse, writes it as JSON with the given HTTP status,
// and calls gin.Context.AbortWithStatusJSON to stop further processing.
//
// Server errors (>=500) are logged using the request-scoped logger from middleware.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
//
// It serializes `body` as JSON with the given HTTP status code.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
//
// Used when the operation succeeds but there is no response body.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// FlashCookie names the cookie carrying a one-shot message across a redirect.
// Its value is "<kind>:<message>" where kind is success, info or error.
const FlashCookie = "flash"

// wantsJSON reports whether the caller expects a JSON body rather than a
// redirect. Reads always get JSON; writes get JSON when they were sent as
// JSON, over XHR, or with an Accept header naming application/json.
func wantsJSON(c *gin.Context) bool {
	switch c.Request.Method {
	case http.MethodGet, http.MethodHead:
		return true
	}
	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	if c.ContentType() == gin.MIMEJSON {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), gin.MIMEJSON)
}

func setFlash(c *gin.Context, kind, msg string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(FlashCookie, kind+":"+msg, 60, "/", "", false, true)
}

// redirect ends a form post with 303 See Other and a flash message.
func redirect(c *gin.Context, to, kind, msg string) {
	setFlash(c, kind, msg)
	c.Redirect(http.StatusSeeOther, to)
	c.Abort()
}

// done writes a success result: body as JSON for API clients, or a flash
// with msg and a redirect to `to` for form posts.
func done(c *gin.Context, status int, body any, to, msg string) {
	if wantsJSON(c) {
		ok(c, status, body)
		return
	}
	redirect(c, to, "success", msg)
}

// failErr writes the result of a failed service call. API clients get the
// ErrorResponse envelope chosen by mapError; form posts are redirected to
// back with an error flash. An empty back always yields the envelope.
func failErr(c *gin.Context, err error, back string) {
	status, code, msg := mapError(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	if back == "" || wantsJSON(c) {
		fail(c, status, code, msg)
		return
	}
	redirect(c, back, "error", msg)
}
