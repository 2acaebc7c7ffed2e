// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity. The marketplace does not manage
// credentials; an external identity provider issues HS256 JWTs whose `sub`
// claim is the identity id. For development and tests the X-User-ID header
// may be trusted instead (AllowHeader).
//
// The resolved id is stored under the "userID" Gin context key, which the
// logger, rate limiter and handlers read. Optional profile claims (name,
// email, hostel, ...) are handed to OnIdentity so the display profile cache
// can be refreshed.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxKeyUserID = "userID"
	// HeaderUserID carries a trusted identity id when AllowHeader is set.
	HeaderUserID = "X-User-ID"
)

// Claims are the JWT claims understood by Identity. Subject is the identity
// id; the profile fields are optional.
type Claims struct {
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Hostel string `json:"hostel,omitempty"`
	Block  string `json:"block,omitempty"`
	Room   string `json:"room,omitempty"`
	jwt.RegisteredClaims
}

// IdentityOptions configures Identity.
type IdentityOptions struct {
	// Secret verifies HS256 bearer tokens. Empty disables bearer auth.
	Secret []byte
	// AllowHeader trusts X-User-ID when no bearer token is sent.
	AllowHeader bool
	// OnIdentity, when set, is called with the verified claims of a bearer
	// token. Errors are logged and otherwise ignored.
	OnIdentity func(ctx context.Context, c *Claims) error
}

// UserID returns the identity id resolved by Identity, or "".
func UserID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Identity resolves the caller from an Authorization: Bearer token or, when
// allowed, the X-User-ID header. A request without either stays anonymous;
// a bearer token that does not verify is rejected with 401.
func Identity(opts IdentityOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, found := bearerToken(c); found && len(opts.Secret) > 0 {
			claims, err := ParseToken(raw, opts.Secret)
			if err != nil {
				unauthorized(c, "invalid or expired token")
				return
			}
			setIdentity(c, claims.Subject)
			if opts.OnIdentity != nil {
				if err := opts.OnIdentity(c.Request.Context(), claims); err != nil {
					LoggerFrom(c).Warn().Err(err).Msg("identity profile not stored")
				}
			}
			c.Next()
			return
		}

		if opts.AllowHeader {
			if id := strings.TrimSpace(c.GetHeader(HeaderUserID)); id != "" {
				setIdentity(c, id)
			}
		}
		c.Next()
	}
}

// RequireIdentity rejects anonymous requests with 401.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			unauthorized(c, "authentication required")
			return
		}
		c.Next()
	}
}

// ParseToken verifies an HS256 token and returns its claims. Tokens without
// a subject are rejected.
func ParseToken(raw string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid JWT")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("invalid JWT: missing subject")
	}
	return claims, nil
}

// SignToken issues an HS256 token for claims, expiring after ttl. It exists
// for local development and tests; production tokens come from the identity
// provider.
func SignToken(claims Claims, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	s, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return s, nil
}

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return "", false
	}
	t := strings.TrimSpace(h[7:])
	return t, t != ""
}

// setIdentity stores id in the Gin context and tags the request-scoped
// logger with it.
func setIdentity(c *gin.Context, id string) {
	c.Set(ctxKeyUserID, id)
	l := LoggerFrom(c).With().Str("user_id", id).Logger()
	attachLogger(c, &l)
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="marketplace"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}
