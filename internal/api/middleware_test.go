package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gwi.com/chat-core/internal/auth"
)

func TestRateLimitKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/", nil)
	req.RemoteAddr = "203.0.113.7:51000"
	assert.Equal(t, "ip:203.0.113.7", rateLimitKey(req))

	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "ip:2001:db8::1", rateLimitKey(req))

	req.RemoteAddr = "unix-socket"
	assert.Equal(t, "ip:unix-socket", rateLimitKey(req))

	req = req.WithContext(auth.WithCaller(req.Context(), auth.NewCaller("user_alice")))
	assert.Equal(t, "caller:user_alice", rateLimitKey(req))
}

func TestAnonymousRateLimitSharedAcrossSourcePorts(t *testing.T) {
	srv := newTestServer(t, RateLimitConfig{RPS: 0.001, Burst: 1})

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPut, "/api/conversations/c1/typing", bytes.NewBufferString(`{"typing":true}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send("198.51.100.4:40001"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.4:40002"))
	assert.Equal(t, http.StatusNoContent, send("198.51.100.5:40001"))
}

func TestLimiterPoolEvictsIdleEntries(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	p := newLimiterPool(1, 1)
	p.now = func() time.Time { return now }

	require.True(t, p.Allow("ip:a"))
	require.False(t, p.Allow("ip:a"))
	require.True(t, p.Allow("ip:b"))

	now = now.Add(limiterIdleTTL / 2)
	p.Allow("ip:b")

	now = now.Add(limiterIdleTTL/2 + limiterSweepPeriod)
	p.Allow("ip:c")

	p.mu.Lock()
	_, hasA := p.m["ip:a"]
	_, hasB := p.m["ip:b"]
	n := len(p.m)
	p.mu.Unlock()
	assert.False(t, hasA)
	assert.True(t, hasB)
	assert.Equal(t, 2, n)

	// An evicted key starts over with a full bucket.
	assert.True(t, p.Allow("ip:a"))
}
