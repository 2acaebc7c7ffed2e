// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders. The marketplace is used from browsers
// (form posts that redirect back with a flash) and from API clients, so the
// headers cover both: framing and form targets are locked to the serving
// origin, the Referer survives same-origin navigation for "go back"
// redirects, and pages holding a user's own requests, orders, bills and
// messages are never cached.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS emits Strict-Transport-Security on HTTPS requests. Only set
	// it when traffic is HTTPS end-to-end.
	EnableHSTS bool
	// HSTSMaxAge defaults to 180 days.
	HSTSMaxAge time.Duration

	// PrivatePrefixes are path prefixes answered with Cache-Control: no-store.
	PrivatePrefixes []string
	// FormOrigins are origins, besides the serving one, that forms may post to.
	FormOrigins []string
}

// DefaultHSTSMaxAge is used when SecurityOptions.HSTSMaxAge is not positive.
const DefaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityHeaders returns a middleware that sets, on every response:
//
//	X-Content-Type-Options: nosniff
//	X-Frame-Options: DENY
//	Referrer-Policy: same-origin
//	Content-Security-Policy: frame-ancestors 'none'; form-action 'self' [FormOrigins]
//	Permissions-Policy: geolocation=(self), camera=(), microphone=(), payment=()
//
// plus no-store caching under PrivatePrefixes, HSTS on HTTPS when enabled, and
// X-Request-ID in Access-Control-Expose-Headers when a request ID is set.
// Geolocation stays available to the site itself for pinning a listing.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = DefaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains; preload"

	csp := "frame-ancestors 'none'; form-action 'self'"
	for _, o := range opt.FormOrigins {
		if o = strings.TrimSpace(o); o != "" {
			csp += " " + o
		}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "same-origin")
		h.Set("Content-Security-Policy", csp)
		h.Set("Permissions-Policy", "geolocation=(self), camera=(), microphone=(), payment=()")

		if isPrivatePath(c.Request.URL.Path, opt.PrivatePrefixes) {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if rid := h.Get("X-Request-ID"); rid != "" {
			const hdr = "Access-Control-Expose-Headers"
			cur := h.Get(hdr)
			if cur == "" {
				h.Set(hdr, "X-Request-ID")
			} else if !strings.Contains(cur, "X-Request-ID") {
				h.Set(hdr, cur+", X-Request-ID")
			}
		}

		c.Next()
	}
}

// isPrivatePath reports whether p is one of prefixes or lies beneath one.
// "/orders" matches "/orders/7" but not "/orders-archive".
func isPrivatePath(p string, prefixes []string) bool {
	for _, pre := range prefixes {
		pre = strings.TrimSuffix(pre, "/")
		if pre == "" {
			continue
		}
		if p == pre || strings.HasPrefix(p, pre+"/") {
			return true
		}
	}
	return false
}

// isHTTPS reports whether the request arrived over TLS, directly or through a
// proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
