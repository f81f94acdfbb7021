package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/platinummonkey/folio/pkg/config"
	"github.com/platinummonkey/folio/pkg/httputil"
	"github.com/platinummonkey/folio/pkg/observability"
)

// Limiter decides whether another request for key fits in the current window
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerWindow is the max requests allowed in the time window
	RequestsPerWindow int
	// WindowDuration is the time window for rate limiting
	WindowDuration time.Duration
	// BurstSize allows temporary bursts above the rate
	BurstSize int
}

// DefaultRateLimitConfig returns the login throttle defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 10,
		WindowDuration:    time.Minute,
	}
}

// NewRateLimitConfig converts the loaded configuration, falling back to
// defaults for unset values
func NewRateLimitConfig(cfg config.RateLimitConfig) *RateLimitConfig {
	rc := DefaultRateLimitConfig()
	if cfg.Requests > 0 {
		rc.RequestsPerWindow = cfg.Requests
	}
	if cfg.Window > 0 {
		rc.WindowDuration = cfg.Window
	}
	return rc
}

func (c *RateLimitConfig) capacity() int {
	return c.RequestsPerWindow + c.BurstSize
}

// RateLimiter implements rate limiting using token bucket algorithm. State
// is per process; use DistributedRateLimiter when running several replicas.
type RateLimiter struct {
	config  *RateLimitConfig
	buckets map[string]*bucket
	mu      sync.RWMutex
	now     func() time.Time
}

type bucket struct {
	tokens     int
	lastUpdate time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	return &RateLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// WithClock replaces the limiter's time source
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	rl.now = now
	return rl
}

// Allow checks if a request is allowed for the given key. It never fails.
func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, error) {
	rl.mu.Lock()
	b, exists := rl.buckets[key]
	if !exists {
		b = &bucket{
			tokens:     rl.config.capacity(),
			lastUpdate: rl.now(),
		}
		rl.buckets[key] = b
	}
	rl.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	now := rl.now()
	elapsed := now.Sub(b.lastUpdate)

	// Refill tokens based on elapsed time
	tokensToAdd := int(elapsed.Seconds() * float64(rl.config.RequestsPerWindow) / rl.config.WindowDuration.Seconds())
	if tokensToAdd > 0 {
		b.tokens += tokensToAdd
		if b.tokens > rl.config.capacity() {
			b.tokens = rl.config.capacity()
		}
		b.lastUpdate = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true, nil
	}

	return false, nil
}

// Remaining returns the number of remaining tokens for a key
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.RLock()
	b, exists := rl.buckets[key]
	rl.mu.RUnlock()

	if !exists {
		return rl.config.capacity()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.tokens
}

// Cleanup removes buckets idle for two windows and returns how many it
// dropped. Scheduled periodically by the job runner.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, b := range rl.buckets {
		b.mu.Lock()
		if now.Sub(b.lastUpdate) > rl.config.WindowDuration*2 {
			delete(rl.buckets, key)
			removed++
		}
		b.mu.Unlock()
	}
	return removed
}

// Len returns the number of tracked keys
func (rl *RateLimiter) Len() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.buckets)
}

// RateLimitRecorder counts rejected requests; *observability.Metrics
// implements it
type RateLimitRecorder interface {
	RecordRateLimited(route string)
}

// RateLimitMiddleware throttles requests per client IP
type RateLimitMiddleware struct {
	limiter  Limiter
	config   *RateLimitConfig
	recorder RateLimitRecorder
	logger   *observability.Logger
	clientIP func(*http.Request) string
}

// NewRateLimitMiddleware creates a rate limit middleware over limiter.
// recorder and logger may be nil.
func NewRateLimitMiddleware(limiter Limiter, config *RateLimitConfig, recorder RateLimitRecorder, logger *observability.Logger) *RateLimitMiddleware {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	return &RateLimitMiddleware{
		limiter:  limiter,
		config:   config,
		recorder: recorder,
		logger:   logger,
		clientIP: httputil.ClientIP,
	}
}

// WithClientIPResolver keys buckets on the address resolved through the
// trusted proxies instead of the connecting peer
func (m *RateLimitMiddleware) WithClientIPResolver(resolver *httputil.ClientIPResolver) *RateLimitMiddleware {
	if resolver != nil {
		m.clientIP = resolver.ClientIP
	}
	return m
}

// Handler wraps an HTTP handler with rate limiting. Limiter failures fail
// open so a Redis outage does not lock everyone out of login.
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + m.clientIP(r)

		allowed, err := m.limiter.Allow(r.Context(), key)
		if err != nil {
			observability.FromContextOr(r.Context(), m.logger).
				WithError(err).
				WithField("key", key).
				Warn("Rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", m.config.RequestsPerWindow))
		if !allowed {
			if m.recorder != nil {
				m.recorder.RecordRateLimited(r.URL.Path)
			}
			m.rateLimitExceeded(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) rateLimitExceeded(w http.ResponseWriter) {
	w.Header().Set("Retry-After", fmt.Sprintf("%.0f", m.config.WindowDuration.Seconds()))
	w.Header().Set("X-RateLimit-Remaining", "0")
	httputil.WriteTooManyRequests(w, "Too many attempts, please try again later")
}
