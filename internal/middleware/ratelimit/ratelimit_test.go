package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, Methods: []string{http.MethodPost}})
	t.Cleanup(rl.Stop)
	now := time.Date(2024, 9, 2, 11, 30, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestAllow(t *testing.T) {
	rl, now := newTestLimiter(t, 2)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "clients are limited separately")

	*now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1"), "a new window starts after a minute")

	assert.Equal(t, Metrics{TotalHits: 1, ClientCount: 2}, rl.GetMetrics())
}

func TestWindowDoesNotSlide(t *testing.T) {
	rl, now := newTestLimiter(t, 1)

	assert.True(t, rl.Allow("10.0.0.1"))
	*now = now.Add(50 * time.Second)
	assert.False(t, rl.Allow("10.0.0.1"))
	*now = now.Add(20 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, now := newTestLimiter(t, 5)
	rl.Allow("10.0.0.1")
	*now = now.Add(11 * time.Minute)
	rl.Allow("10.0.0.2")

	rl.cleanupStaleEntries()
	assert.Equal(t, 1, rl.ActiveClients())
}

func TestMiddleware_OnlyLimitsConfiguredMethods(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	h := rl.Middleware(func(*http.Request) string { return "10.0.0.1" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	codes := func(method string) int {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/orders", nil))
		return rr.Code
	}

	assert.Equal(t, http.StatusNoContent, codes(http.MethodPost))
	assert.Equal(t, http.StatusTooManyRequests, codes(http.MethodPost))
	assert.Equal(t, http.StatusNoContent, codes(http.MethodGet))
}
