package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// memCounter is an in-memory WindowCounter.
type memCounter struct {
	mu   sync.Mutex
	n    map[string]int64
	keys []string
	err  error
}

func (m *memCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if m.n == nil {
		m.n = map[string]int64{}
	}
	m.n[key]++
	m.keys = append(m.keys, key)
	return m.n[key], nil
}

func sharedRouter(rl *SharedRateLimiter, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(pre...)
	r.Use(rl.Handler())
	r.GET("/items", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestNewSharedRateLimiter_Limit(t *testing.T) {
	cases := []struct {
		rps    float64
		burst  int
		window time.Duration
		want   int64
	}{
		{5, 10, time.Second, 10},
		{5, 1, 10 * time.Second, 50},
		{0, 0, time.Second, 1},
		{0.5, 0, 0, 1}, // window defaults to 1s
	}
	for _, tc := range cases {
		rl := NewSharedRateLimiter(&memCounter{}, tc.rps, tc.burst, tc.window, KeyByUserOrIP())
		if rl.Limit() != tc.want {
			t.Fatalf("rps=%v burst=%d window=%v: limit=%d want %d", tc.rps, tc.burst, tc.window, rl.Limit(), tc.want)
		}
	}
}

func TestSharedRateLimiter_BlocksAfterBudgetAndResetsNextWindow(t *testing.T) {
	mc := &memCounter{}
	rl := NewSharedRateLimiter(mc, 0, 2, time.Second, KeyByUserOrIP())
	now := time.Unix(1_700_000_000, 250*int64(time.Millisecond))
	rl.now = func() time.Time { return now }
	r := sharedRouter(rl, func(c *gin.Context) { c.Set("userID", "u1"); c.Next() })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))
		return w
	}

	for i := 0; i < 2; i++ {
		if w := do(); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	w := do()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After 1, got %q", w.Header().Get("Retry-After"))
	}
	if want := "ratelimit:user:u1:1700000000"; mc.keys[0] != want {
		t.Fatalf("key = %q; want %q", mc.keys[0], want)
	}

	now = now.Add(time.Second)
	if w := do(); w.Code != http.StatusOK {
		t.Fatalf("next window: expected 200, got %d", w.Code)
	}
}

func TestSharedRateLimiter_BypassAndFailOpen(t *testing.T) {
	t.Run("replay bypass", func(t *testing.T) {
		mc := &memCounter{}
		rl := NewSharedRateLimiter(mc, 0, 1, time.Second, KeyByUserOrIP())
		r := sharedRouter(rl, func(c *gin.Context) { c.Set(ctxKeyRateBypass, true); c.Next() })
		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))
			if w.Code != http.StatusOK {
				t.Fatalf("expected bypass 200, got %d", w.Code)
			}
		}
		if len(mc.keys) != 0 {
			t.Fatalf("bypassed requests must not be counted")
		}
	})

	t.Run("counter error allows request", func(t *testing.T) {
		rl := NewSharedRateLimiter(&memCounter{err: errors.New("dial tcp: refused")}, 0, 1, time.Second, KeyByUserOrIP())
		r := sharedRouter(rl)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected fail-open 200, got %d", w.Code)
		}
	})
}

// TestRedisCounter_Integration runs against a real server when REDIS_ADDR is set.
func TestRedisCounter_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	key := "ratelimit:test:" + time.Now().Format(time.RFC3339Nano)
	t.Cleanup(func() { rdb.Del(ctx, key) })

	rc := RedisCounter{Client: rdb}
	for want := int64(1); want <= 3; want++ {
		n, err := rc.Incr(ctx, key, time.Second)
		if err != nil {
			t.Fatalf("incr: %v", err)
		}
		if n != want {
			t.Fatalf("incr = %d; want %d", n, want)
		}
	}
	ttl, err := rdb.TTL(ctx, key).Result()
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl <= 0 || ttl > 2*time.Second {
		t.Fatalf("unexpected ttl %v", ttl)
	}
}
