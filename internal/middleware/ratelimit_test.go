package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestClientIPForRateLimit(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{name: "forwarded wins", forwarded: "203.0.113.9", remoteAddr: "10.0.0.1:4000", want: "203.0.113.9"},
		{name: "first valid hop", forwarded: "unknown, , 198.51.100.4, 203.0.113.1", remoteAddr: "10.0.0.1:4000", want: "198.51.100.4"},
		{name: "no valid hop", forwarded: "unknown", remoteAddr: "10.0.0.1:4000", want: "10.0.0.1"},
		{name: "ipv6 connection", remoteAddr: "[2001:db8::7]:443", want: "2001:db8::7"},
		{name: "bare remote", remoteAddr: "192.0.2.5", want: "192.0.2.5"},
		{name: "unparseable remote kept", remoteAddr: "pipe", want: "pipe"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/auth/login", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if got := clientIPForRateLimit(req); got != tc.want {
				t.Fatalf("clientIPForRateLimit() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLimiterWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := newLimiter(2, time.Minute, clock.now)

	for i := 0; i < 2; i++ {
		if ok, _ := l.take("a"); !ok {
			t.Fatalf("request %d rejected", i+1)
		}
	}
	clock.advance(20 * time.Second)
	ok, retry := l.take("a")
	if ok {
		t.Fatal("third request in the window allowed")
	}
	if retry != 41 {
		t.Fatalf("retry = %d, want 41", retry)
	}
	if ok, _ := l.take("b"); !ok {
		t.Fatal("other client limited")
	}

	clock.advance(41 * time.Second)
	if ok, _ := l.take("a"); !ok {
		t.Fatal("request after the window rejected")
	}
}

func TestLimiterSweepsExpiredBuckets(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := newLimiter(5, time.Minute, clock.now)
	for _, ip := range []string{"a", "b", "c"} {
		l.take(ip)
	}
	clock.advance(30 * time.Second)
	l.take("d")
	if len(l.buckets) != 4 {
		t.Fatalf("buckets = %d before expiry, want 4", len(l.buckets))
	}

	clock.advance(31 * time.Second)
	l.take("d")
	if len(l.buckets) != 1 {
		t.Fatalf("buckets = %d after sweep, want 1", len(l.buckets))
	}
	if _, ok := l.buckets["d"]; !ok {
		t.Fatal("live bucket swept")
	}
}

func TestRateLimitResponse(t *testing.T) {
	h := RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		req.RemoteAddr = "198.51.100.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	if rec := send(); rec.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" && got != "59" {
		t.Fatalf("Retry-After = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("Content-Type = %q", got)
	}
}
