package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// IdleTTL is how long an untouched bucket is kept. Zero means ten minutes.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig mirrors the RATE_LIMIT_RPS and RATE_LIMIT_BURST defaults.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 50,
		BurstSize:         100,
	}
}

// AuthRateLimitConfig is the tighter budget for the public login, register
// and refresh endpoints, keyed by client IP.
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         10,
	}
}

const defaultIdleTTL = 10 * time.Minute

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// limiter keeps one token bucket per key and forgets keys that have been
// idle for longer than the configured TTL.
type limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rate      float64
	burst     float64
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newLimiter(cfg RateLimitConfig, now func() time.Time) *limiter {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = defaultIdleTTL
	}
	return &limiter{
		buckets:   make(map[string]*bucket),
		rate:      cfg.RequestsPerSecond,
		burst:     float64(cfg.BurstSize),
		idleTTL:   ttl,
		lastSweep: now(),
		now:       now,
	}
}

// take spends one token for key. It returns the whole tokens left and, when
// the request is refused, how many seconds until a token is available.
func (l *limiter) take(key string) (ok bool, remaining int, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	b, found := l.buckets[key]
	if !found {
		b = &bucket{tokens: l.burst, lastSeen: now}
		l.buckets[key] = b
	} else {
		b.tokens = math.Min(l.burst, b.tokens+now.Sub(b.lastSeen).Seconds()*l.rate)
		b.lastSeen = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true, int(b.tokens), 0
	}
	if l.rate <= 0 {
		return false, 0, 1
	}
	return false, 0, int(math.Ceil((1 - b.tokens) / l.rate))
}

func (l *limiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.idleTTL {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

func (l *limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RateLimit refuses requests over budget with 429 and a Retry-After header.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	return rateLimit(newLimiter(cfg, time.Now), cfg)
}

func rateLimit(l *limiter, cfg RateLimitConfig) echo.MiddlewareFunc {
	limit := strconv.Itoa(cfg.BurstSize)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, remaining, retryAfter := l.take(rateLimitKey(c))
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests")
			}
			return next(c)
		}
	}
}

// rateLimitKey buckets authenticated callers by user id and everyone else by
// client IP.
func rateLimitKey(c echo.Context) string {
	if uid, ok := c.Get("user_id").(string); ok && uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.RealIP()
}
