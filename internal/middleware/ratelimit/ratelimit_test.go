package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(handler http.Handler, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestRateLimiter_AllowsRequestsWithinBurst(t *testing.T) {
	rl := New(Config{Enabled: true, RequestsPerMin: 60, BurstSize: 5, CleanupMinutes: 1})
	defer rl.Stop()

	handler := rl.Middleware()(okHandler())

	for i := 0; i < 5; i++ {
		rr := hit(handler, "/contract", "192.168.1.100:12345")
		assert.Equal(t, http.StatusOK, rr.Code, "request %d should succeed", i+1)
	}
}

func TestRateLimiter_BlocksExcessRequests(t *testing.T) {
	rl := New(Config{Enabled: true, RequestsPerMin: 60, BurstSize: 2, CleanupMinutes: 1})
	defer rl.Stop()

	handler := rl.Middleware()(okHandler())

	for i := 0; i < 3; i++ {
		hit(handler, "/contract", "192.168.1.100:12345")
	}

	rr := hit(handler, "/contract", "192.168.1.100:12345")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", resp["code"])
}

func TestRateLimiter_SeparateLimitsPerIP(t *testing.T) {
	rl := New(Config{Enabled: true, RequestsPerMin: 60, BurstSize: 2, CleanupMinutes: 1})
	defer rl.Stop()

	handler := rl.Middleware()(okHandler())

	for i := 0; i < 3; i++ {
		hit(handler, "/contract", "192.168.1.100:12345")
	}

	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "/contract", "192.168.1.100:12345").Code)
	assert.Equal(t, http.StatusOK, hit(handler, "/contract", "192.168.1.101:12345").Code)
}

func TestRateLimiter_BypassesHealthChecks(t *testing.T) {
	rl := New(Config{Enabled: true, RequestsPerMin: 60, BurstSize: 1, CleanupMinutes: 1})
	defer rl.Stop()

	handler := rl.Middleware()(okHandler())

	for _, path := range []string{"/health", "/healthz", "/readyz"} {
		for i := 0; i < 10; i++ {
			rr := hit(handler, path, "192.168.1.100:12345")
			assert.Equal(t, http.StatusOK, rr.Code, "%s request %d should not be limited", path, i+1)
		}
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	mw, rl := Middleware(Config{Enabled: false, RequestsPerMin: 1, BurstSize: 1})
	assert.Nil(t, rl)

	handler := mw(okHandler())
	for i := 0; i < 100; i++ {
		assert.Equal(t, http.StatusOK, hit(handler, "/contract", "192.168.1.100:12345").Code)
	}
}

func TestMiddleware_LimiterStoppable(t *testing.T) {
	mw, rl := Middleware(Config{Enabled: true, RequestsPerMin: 60, BurstSize: 5, CleanupMinutes: 1})
	require.NotNil(t, rl)

	handler := mw(okHandler())
	assert.Equal(t, http.StatusOK, hit(handler, "/contract", "192.168.1.100:12345").Code)

	rl.Stop()

	// Stopped limiters still serve; only the cleanup loop exits.
	assert.Equal(t, http.StatusOK, hit(handler, "/contract", "192.168.1.100:12345").Code)

	select {
	case <-rl.stopCh:
	default:
		t.Fatal("stop channel should be closed")
	}
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	rl := New(Config{Enabled: true, RequestsPerMin: 6000, BurstSize: 100, CleanupMinutes: 1})
	defer rl.Stop()

	handler := rl.Middleware()(okHandler())

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				hit(handler, "/contract", "192.168.1.100:12345")
			}
		}()
	}
	wg.Wait()
}

func TestRateLimiter_PurgeStale(t *testing.T) {
	rl := New(Config{Enabled: true, RequestsPerMin: 60, BurstSize: 5, CleanupMinutes: 1})
	defer rl.Stop()

	rl.getLimiter("test-ip")

	rl.mu.Lock()
	rl.limiters["test-ip"].lastSeen = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	rl.purgeStale()

	rl.mu.Lock()
	_, exists := rl.limiters["test-ip"]
	rl.mu.Unlock()
	assert.False(t, exists)
}
