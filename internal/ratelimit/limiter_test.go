package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

func frozenLimiter(config Config, metrics Metrics) (*RateLimiter, *time.Time) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(config, metrics)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_BurstThenBlock(t *testing.T) {
	metrics := monitoring.NewMetrics()
	rl, _ := frozenLimiter(Config{RequestsPerSecond: 2, Burst: 3, IdleTTL: time.Minute}, metrics)

	for i := 0; i < 3; i++ {
		result := rl.Allow("10.0.0.1")
		assert.True(t, result.Allowed, "request %d within burst", i+1)
		assert.Equal(t, 3, result.Limit)
		assert.Equal(t, 2-i, result.Remaining)
	}

	result := rl.Allow("10.0.0.1")
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Equal(t, 500*time.Millisecond, result.RetryAfter)
	assert.Equal(t, int64(1), metrics.RateLimitBlocks)
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	rl, now := frozenLimiter(Config{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute}, nil)

	assert.True(t, rl.Allow("ip").Allowed)
	assert.False(t, rl.Allow("ip").Allowed)

	*now = now.Add(time.Second)
	assert.True(t, rl.Allow("ip").Allowed)
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl, _ := frozenLimiter(Config{RequestsPerSecond: 1, Burst: 2, IdleTTL: time.Minute}, nil)

	for _, key := range []string{"a", "b", "c"} {
		assert.True(t, rl.Allow(key).Allowed)
		assert.True(t, rl.Allow(key).Allowed)
		assert.False(t, rl.Allow(key).Allowed, "key %s exhausted", key)
	}
	assert.Equal(t, 3, rl.GetStats()["tracked_clients"])
}

func TestRateLimiter_SweepDropsIdleClients(t *testing.T) {
	rl, now := frozenLimiter(Config{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute}, nil)

	rl.Allow("old")
	*now = now.Add(45 * time.Second)
	rl.Allow("recent")
	*now = now.Add(30 * time.Second)

	assert.Equal(t, 1, rl.Sweep())
	assert.Equal(t, 1, rl.GetStats()["tracked_clients"])
}

func TestRateLimiter_RunStopsWithContext(t *testing.T) {
	rl := NewRateLimiter(DefaultConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Run(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	<-done
}

func TestIPRateLimitMiddleware(t *testing.T) {
	metrics := monitoring.NewMetrics()
	rl, _ := frozenLimiter(Config{RequestsPerSecond: 0.5, Burst: 2, IdleTTL: time.Minute}, metrics)

	r := gin.New()
	r.Use(rl.IPRateLimitMiddleware())
	r.GET("/api/forecast", func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/forecast", nil)
		req.RemoteAddr = "192.0.2.7:4000"
		r.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusOK, call().Code)
	second := call()
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "2", second.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	blocked := call()
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "2", blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), `"category":"rate_limit"`)
	assert.Contains(t, blocked.Body.String(), `"retry_after":2`)
	assert.Equal(t, int64(1), metrics.RateLimitBlocks)
}
