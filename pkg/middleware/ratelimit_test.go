package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pjecz/hercules-api/pkg/observability"
)

func TestMemoryLimiterBurstThenRefuse(t *testing.T) {
	limiter := NewMemoryLoginLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(ctx, "10.0.0.1"), "attempt %d", i)
	}
	assert.False(t, limiter.Allow(ctx, "10.0.0.1"))

	// other clients are unaffected
	assert.True(t, limiter.Allow(ctx, "10.0.0.2"))
}

func TestMemoryLimiterRefills(t *testing.T) {
	limiter := NewMemoryLoginLimiter(2, time.Minute)
	now := time.Unix(1700000000, 0)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "ip"))
	assert.True(t, limiter.Allow(ctx, "ip"))
	assert.False(t, limiter.Allow(ctx, "ip"))

	// half a window refills one token
	now = now.Add(30 * time.Second)
	assert.True(t, limiter.Allow(ctx, "ip"))
	assert.False(t, limiter.Allow(ctx, "ip"))
}

func TestMemoryLimiterCleanup(t *testing.T) {
	limiter := NewMemoryLoginLimiter(2, time.Minute)
	now := time.Unix(1700000000, 0)
	limiter.now = func() time.Time { return now }

	limiter.Allow(context.Background(), "stale")
	now = now.Add(3 * time.Minute)
	limiter.Cleanup()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Empty(t, limiter.buckets)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	limiter := NewRedisLoginLimiter(client, 2, time.Minute, logger)
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "10.0.0.1"))
	assert.True(t, limiter.Allow(ctx, "10.0.0.1"))
	assert.False(t, limiter.Allow(ctx, "10.0.0.1"))
	assert.True(t, limiter.Allow(ctx, "10.0.0.9"))

	// window expiry resets the count
	mr.FastForward(2 * time.Minute)
	assert.True(t, limiter.Allow(ctx, "10.0.0.1"))
}

func TestRedisLimiterFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	limiter := NewRedisLoginLimiter(client, 1, time.Minute, logger)

	mr.Close()

	assert.True(t, limiter.Allow(context.Background(), "10.0.0.1"))
}

func TestLoginRateLimitMiddleware(t *testing.T) {
	limiter := NewMemoryLoginLimiter(1, time.Minute)
	wrapped := LoginRateLimit(limiter, nil)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodPost, "/token", nil)
	r.RemoteAddr = "10.0.0.1:51234"

	w := httptest.NewRecorder()
	wrapped(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	wrapped(w, r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:51234"
	assert.Equal(t, "10.0.0.1", ClientIP(r))

	r.Header.Set("X-Real-IP", "10.1.1.1")
	assert.Equal(t, "10.1.1.1", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.2.2.2")
	assert.Equal(t, "203.0.113.9", ClientIP(r))
}
