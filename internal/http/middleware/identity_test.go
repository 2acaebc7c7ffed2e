package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

func identityRouter(opts IdentityOptions, protect bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity(opts))
	if protect {
		r.Use(RequireIdentity())
	}
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	return r
}

func TestSignAndParseToken_RoundTrip(t *testing.T) {
	raw, err := SignToken(Claims{
		Name:             "Alice",
		Hostel:           "H1",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-alice"},
	}, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := ParseToken(raw, testSecret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "u-alice" || claims.Name != "Alice" || claims.Hostel != "H1" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.ExpiresAt == nil {
		t.Fatalf("expected exp to be set")
	}

	if _, err := ParseToken(raw, []byte("other")); err == nil {
		t.Fatalf("expected signature failure with wrong secret")
	}
}

func TestParseToken_RejectsMissingSubjectAndExpired(t *testing.T) {
	noSub, err := SignToken(Claims{Name: "x"}, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(noSub, testSecret); err == nil {
		t.Fatalf("expected error for missing subject")
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	expired, err := tok.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(expired, testSecret); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestIdentity_BearerToken(t *testing.T) {
	var seen *Claims
	r := identityRouter(IdentityOptions{
		Secret: testSecret,
		OnIdentity: func(_ context.Context, c *Claims) error {
			seen = c
			return errors.New("profile store down") // logged, not fatal
		},
	}, true)

	raw, err := SignToken(Claims{
		Name:             "Bob",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-bob"},
	}, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "bearer "+raw)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "u-bob" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
	if seen == nil || seen.Name != "Bob" {
		t.Fatalf("OnIdentity not called with claims: %+v", seen)
	}
}

func TestIdentity_InvalidBearerIs401EvenWithHeader(t *testing.T) {
	r := identityRouter(IdentityOptions{Secret: testSecret, AllowHeader: true}, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	req.Header.Set(HeaderUserID, "u-header")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Fatalf("expected WWW-Authenticate header")
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["code"] != "unauthorized" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestIdentity_HeaderFallback(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		r := identityRouter(IdentityOptions{AllowHeader: true}, true)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(HeaderUserID, "  u-dev  ")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK || w.Body.String() != "u-dev" {
			t.Fatalf("got %d %q", w.Code, w.Body.String())
		}
	})

	t.Run("not allowed", func(t *testing.T) {
		r := identityRouter(IdentityOptions{}, true)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(HeaderUserID, "u-dev")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})
}

func TestIdentity_AnonymousPassesWithoutRequire(t *testing.T) {
	r := identityRouter(IdentityOptions{Secret: testSecret}, false)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if w.Code != http.StatusOK || w.Body.String() != "" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}
