package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/folio/pkg/config"
	"github.com/platinummonkey/folio/pkg/httputil"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func TestRateLimiter_Allow(t *testing.T) {
	config := &RateLimitConfig{
		RequestsPerWindow: 10,
		WindowDuration:    time.Second,
		BurstSize:         2,
	}
	limiter := NewRateLimiter(config).WithClock(newClock().Now)

	allowedCount := 0
	for i := 0; i < config.RequestsPerWindow+config.BurstSize+5; i++ {
		ok, err := limiter.Allow(context.Background(), "ip:1.2.3.4")
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if ok {
			allowedCount++
		}
	}

	expected := config.RequestsPerWindow + config.BurstSize
	if allowedCount != expected {
		t.Errorf("Allowed %d requests, want %d", allowedCount, expected)
	}
}

func TestRateLimiter_TokenRefill(t *testing.T) {
	clock := newClock()
	limiter := NewRateLimiter(&RateLimitConfig{
		RequestsPerWindow: 10,
		WindowDuration:    10 * time.Second,
	}).WithClock(clock.Now)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		limiter.Allow(ctx, "k")
	}
	if ok, _ := limiter.Allow(ctx, "k"); ok {
		t.Fatal("expected bucket to be empty")
	}

	clock.Advance(3 * time.Second)
	if got := limiter.Remaining("k"); got != 0 {
		t.Errorf("Remaining() before Allow = %d, want 0", got)
	}
	if ok, _ := limiter.Allow(ctx, "k"); !ok {
		t.Error("expected refill after 3s")
	}
	if got := limiter.Remaining("k"); got != 2 {
		t.Errorf("Remaining() = %d, want 2", got)
	}

	clock.Advance(time.Hour)
	limiter.Allow(ctx, "k")
	if got := limiter.Remaining("k"); got != 9 {
		t.Errorf("Remaining() after long idle = %d, want capped 9", got)
	}
}

func TestRateLimiter_KeysIndependent(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute}).
		WithClock(newClock().Now)
	ctx := context.Background()

	if ok, _ := limiter.Allow(ctx, "a"); !ok {
		t.Fatal("first request for a should pass")
	}
	if ok, _ := limiter.Allow(ctx, "a"); ok {
		t.Error("second request for a should be limited")
	}
	if ok, _ := limiter.Allow(ctx, "b"); !ok {
		t.Error("b should have its own bucket")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	clock := newClock()
	limiter := NewRateLimiter(&RateLimitConfig{RequestsPerWindow: 5, WindowDuration: time.Minute}).
		WithClock(clock.Now)
	ctx := context.Background()

	limiter.Allow(ctx, "old")
	clock.Advance(90 * time.Second)
	limiter.Allow(ctx, "fresh")
	clock.Advance(60 * time.Second)

	if removed := limiter.Cleanup(); removed != 1 {
		t.Errorf("Cleanup() removed %d, want 1", removed)
	}
	if limiter.Len() != 1 {
		t.Errorf("Len() = %d, want 1", limiter.Len())
	}
	if got := limiter.Remaining("old"); got != 5 {
		t.Errorf("Remaining() for dropped key = %d, want full 5", got)
	}
}

func TestRateLimiter_Concurrency(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{RequestsPerWindow: 50, WindowDuration: time.Hour}).
		WithClock(newClock().Now)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Allow(context.Background(), "shared"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed = %d, want 50", allowed)
	}
}

func TestNewRateLimitConfig(t *testing.T) {
	rc := NewRateLimitConfig(config.RateLimitConfig{})
	if rc.RequestsPerWindow != 10 || rc.WindowDuration != time.Minute {
		t.Errorf("defaults = %+v", rc)
	}

	rc = NewRateLimitConfig(config.RateLimitConfig{Requests: 3, Window: time.Second})
	if rc.RequestsPerWindow != 3 || rc.WindowDuration != time.Second {
		t.Errorf("configured = %+v", rc)
	}
}

type recorderFunc func(route string)

func (f recorderFunc) RecordRateLimited(route string) { f(route) }

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return true, errors.New("redis down")
}

func TestRateLimitMiddleware_Handler(t *testing.T) {
	cfg := &RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Minute}
	limiter := NewRateLimiter(cfg).WithClock(newClock().Now)

	var limitedRoutes []string
	mw := NewRateLimitMiddleware(limiter, cfg, recorderFunc(func(route string) {
		limitedRoutes = append(limitedRoutes, route)
	}), nil)

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send("10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}

	rec := send("10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("X-RateLimit-Limit") != "2" {
		t.Errorf("X-RateLimit-Limit = %q", rec.Header().Get("X-RateLimit-Limit"))
	}
	if len(limitedRoutes) != 1 || limitedRoutes[0] != "/api/auth/login" {
		t.Errorf("recorded routes = %v", limitedRoutes)
	}

	if rec := send("10.0.0.2"); rec.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", rec.Code)
	}
}

func TestRateLimitMiddleware_SpoofedForwardingHeaders(t *testing.T) {
	cfg := &RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Minute}
	resolver, err := httputil.NewClientIPResolver([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		mw   *RateLimitMiddleware
	}{
		{"no trusted proxies", NewRateLimitMiddleware(NewRateLimiter(cfg).WithClock(newClock().Now), cfg, nil, nil)},
		{"peer not a trusted proxy", NewRateLimitMiddleware(NewRateLimiter(cfg).WithClock(newClock().Now), cfg, nil, nil).
			WithClientIPResolver(resolver)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := tt.mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			allowed := 0
			for i := 0; i < 50; i++ {
				req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
				req.RemoteAddr = "198.51.100.20:4000"
				req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
				req.Header.Set("X-Real-IP", fmt.Sprintf("192.0.2.%d", i))
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)
				if rec.Code == http.StatusOK {
					allowed++
				}
			}
			if allowed != 2 {
				t.Errorf("allowed = %d, want 2", allowed)
			}
		})
	}
}

func TestRateLimitMiddleware_TrustedProxy(t *testing.T) {
	cfg := &RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute}
	resolver, err := httputil.NewClientIPResolver([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatal(err)
	}
	mw := NewRateLimitMiddleware(NewRateLimiter(cfg).WithClock(newClock().Now), cfg, nil, nil).
		WithClientIPResolver(resolver)
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.3:4000"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("203.0.113.1"); code != http.StatusOK {
		t.Fatalf("first client status = %d, want 200", code)
	}
	if code := send("203.0.113.2"); code != http.StatusOK {
		t.Errorf("second client behind the proxy status = %d, want 200", code)
	}
	// a spoofed left-most hop does not change the right-most untrusted one
	if code := send("1.2.3.4, 203.0.113.1"); code != http.StatusTooManyRequests {
		t.Errorf("repeat client status = %d, want 429", code)
	}
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	mw := NewRateLimitMiddleware(failingLimiter{}, nil, nil, nil)
	called := false
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	if !called {
		t.Error("expected request to pass when limiter errors")
	}
}

func newRedisLimiter(t *testing.T, cfg *RateLimitConfig) (*DistributedRateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewDistributedRateLimiter(client, cfg, ""), mr
}

func TestDistributedRateLimiter_Allow(t *testing.T) {
	limiter, mr := newRedisLimiter(t, &RateLimitConfig{RequestsPerWindow: 3, WindowDuration: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "ip:1.1.1.1")
		if err != nil || !ok {
			t.Fatalf("request %d: ok=%v err=%v", i, ok, err)
		}
	}
	ok, err := limiter.Allow(ctx, "ip:1.1.1.1")
	if err != nil || ok {
		t.Fatalf("4th request: ok=%v err=%v, want limited", ok, err)
	}

	ttl := mr.TTL("folio:ratelimit:ip:1.1.1.1")
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want within the window", ttl)
	}

	remaining, err := limiter.Remaining(ctx, "ip:1.1.1.1")
	if err != nil || remaining != 0 {
		t.Errorf("Remaining() = %d, %v", remaining, err)
	}

	mr.FastForward(time.Minute + time.Second)
	ok, err = limiter.Allow(ctx, "ip:1.1.1.1")
	if err != nil || !ok {
		t.Errorf("after window: ok=%v err=%v", ok, err)
	}
}

func TestDistributedRateLimiter_RestoresMissingExpiry(t *testing.T) {
	limiter, mr := newRedisLimiter(t, &RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Minute})
	ctx := context.Background()
	key := "folio:ratelimit:ip:2.2.2.2"

	// counter left over capacity without a TTL
	if err := mr.Set(key, "9"); err != nil {
		t.Fatal(err)
	}

	ok, err := limiter.Allow(ctx, "ip:2.2.2.2")
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v, want limited", ok, err)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("TTL = %v, want expiry restored", ttl)
	}

	mr.FastForward(time.Minute + time.Second)
	ok, err = limiter.Allow(ctx, "ip:2.2.2.2")
	if err != nil || !ok {
		t.Errorf("after window: ok=%v err=%v", ok, err)
	}
}

func TestDistributedRateLimiter_WindowNotExtended(t *testing.T) {
	limiter, mr := newRedisLimiter(t, &RateLimitConfig{RequestsPerWindow: 5, WindowDuration: time.Minute})
	ctx := context.Background()

	limiter.Allow(ctx, "k")
	mr.FastForward(30 * time.Second)
	limiter.Allow(ctx, "k")

	if ttl := mr.TTL("folio:ratelimit:k"); ttl <= 0 || ttl > 30*time.Second {
		t.Errorf("TTL = %v, want the remainder of the first window", ttl)
	}
}

func TestDistributedRateLimiter_ResetAndRemaining(t *testing.T) {
	limiter, _ := newRedisLimiter(t, &RateLimitConfig{RequestsPerWindow: 5, WindowDuration: time.Minute})
	ctx := context.Background()

	remaining, err := limiter.Remaining(ctx, "fresh")
	if err != nil || remaining != 5 {
		t.Errorf("Remaining() for unknown key = %d, %v", remaining, err)
	}

	limiter.Allow(ctx, "k")
	limiter.Allow(ctx, "k")
	if remaining, _ := limiter.Remaining(ctx, "k"); remaining != 3 {
		t.Errorf("Remaining() = %d, want 3", remaining)
	}

	if err := limiter.Reset(ctx, "k"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if remaining, _ := limiter.Remaining(ctx, "k"); remaining != 5 {
		t.Errorf("Remaining() after reset = %d, want 5", remaining)
	}
	if err := limiter.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestDistributedRateLimiter_RedisDown(t *testing.T) {
	limiter, mr := newRedisLimiter(t, nil)
	mr.Close()

	ok, err := limiter.Allow(context.Background(), "k")
	if err == nil {
		t.Fatal("expected error with redis down")
	}
	if !ok {
		t.Error("expected fail-open result")
	}
}
