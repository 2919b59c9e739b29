package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestLimiter(cfg RateLimitConfig) (*limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return newLimiter(cfg, clock.now), clock
}

func serve(h echo.HandlerFunc, remoteAddr string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestRateLimit_BurstThenRefuse(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerSecond: 1, BurstSize: 3}
	l, _ := newTestLimiter(cfg)
	h := rateLimit(l, cfg)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for i, wantRemaining := range []string{"2", "1", "0"} {
		rec, err := serve(h, "10.0.0.1:1000")
		if err != nil {
			t.Fatalf("request %d: unexpected error %v", i+1, err)
		}
		if got := rec.Header().Get("X-RateLimit-Remaining"); got != wantRemaining {
			t.Errorf("request %d: remaining %s, want %s", i+1, got, wantRemaining)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "3" {
			t.Errorf("request %d: limit %s, want 3", i+1, got)
		}
	}

	rec, err := serve(h, "10.0.0.1:1000")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("expected Retry-After 1, got %q", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimit_Refills(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerSecond: 2, BurstSize: 1}
	l, clock := newTestLimiter(cfg)

	if ok, _, _ := l.take("ip:a"); !ok {
		t.Fatal("first request should pass")
	}
	if ok, _, _ := l.take("ip:a"); ok {
		t.Fatal("second immediate request should be refused")
	}
	clock.advance(500 * time.Millisecond)
	if ok, _, _ := l.take("ip:a"); !ok {
		t.Error("expected a token after half a second at 2 rps")
	}
}

func TestRateLimit_KeysAreIsolated(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1}
	l, _ := newTestLimiter(cfg)
	h := rateLimit(l, cfg)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	if _, err := serve(h, "10.0.0.1:1000"); err != nil {
		t.Fatalf("first client: %v", err)
	}
	if _, err := serve(h, "10.0.0.2:1000"); err != nil {
		t.Errorf("second client should have its own bucket, got %v", err)
	}
	if _, err := serve(h, "10.0.0.1:1000"); err == nil {
		t.Error("first client should now be limited")
	}
}

func TestRateLimit_ZeroRateRetryAfter(t *testing.T) {
	l, _ := newTestLimiter(RateLimitConfig{RequestsPerSecond: 0, BurstSize: 1})
	l.take("k")
	ok, _, retry := l.take("k")
	if ok || retry != 1 {
		t.Errorf("expected refusal with retry 1, got ok=%v retry=%d", ok, retry)
	}
}

func TestRateLimit_EvictsIdleBuckets(t *testing.T) {
	l, clock := newTestLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	l.take("ip:a")
	l.take("ip:b")
	if l.size() != 2 {
		t.Fatalf("expected 2 buckets, got %d", l.size())
	}

	clock.advance(2 * time.Minute)
	l.take("ip:c")
	if l.size() != 1 {
		t.Errorf("expected idle buckets to be evicted, got %d", l.size())
	}
}

func TestRateLimitConfigs(t *testing.T) {
	def := DefaultRateLimitConfig()
	if def.RequestsPerSecond != 50 || def.BurstSize != 100 {
		t.Errorf("unexpected default: %+v", def)
	}
	auth := AuthRateLimitConfig()
	if auth.BurstSize >= def.BurstSize || auth.RequestsPerSecond >= def.RequestsPerSecond {
		t.Errorf("auth budget should be tighter than the default: %+v", auth)
	}
}

func TestRateLimitKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	c := e.NewContext(req, httptest.NewRecorder())

	if got := rateLimitKey(c); got != "ip:10.0.0.7" {
		t.Errorf("expected ip key, got %s", got)
	}
	c.Set("user_id", "u-1")
	if got := rateLimitKey(c); got != "user:u-1" {
		t.Errorf("expected user key, got %s", got)
	}
}
