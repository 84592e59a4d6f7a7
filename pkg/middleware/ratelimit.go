package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/pjecz/hercules-api/pkg/httputil"
	"github.com/pjecz/hercules-api/pkg/observability"
)

// LoginLimiter bounds login attempts per client. Implementations must
// fail open on backend errors so a limiter outage never blocks logins.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// MemoryLoginLimiter is a token bucket limiter for a single replica
type MemoryLoginLimiter struct {
	requests int
	window   time.Duration
	buckets  map[string]*tokenBucket
	mu       sync.Mutex
	now      func() time.Time
}

type tokenBucket struct {
	tokens     float64
	lastUpdate time.Time
}

// NewMemoryLoginLimiter creates an in-memory limiter allowing requests
// per window for each key
func NewMemoryLoginLimiter(requests int, window time.Duration) *MemoryLoginLimiter {
	return &MemoryLoginLimiter{
		requests: requests,
		window:   window,
		buckets:  make(map[string]*tokenBucket),
		now:      time.Now,
	}
}

// Allow implements LoginLimiter
func (l *MemoryLoginLimiter) Allow(ctx context.Context, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: float64(l.requests), lastUpdate: now}
		l.buckets[key] = b
	}

	// refill proportionally to elapsed time
	elapsed := now.Sub(b.lastUpdate)
	b.tokens += elapsed.Seconds() * float64(l.requests) / l.window.Seconds()
	if b.tokens > float64(l.requests) {
		b.tokens = float64(l.requests)
	}
	b.lastUpdate = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Cleanup drops buckets idle for more than two windows
func (l *MemoryLoginLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-2 * l.window)
	for key, b := range l.buckets {
		if b.lastUpdate.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// StartCleanup runs Cleanup periodically until the context is cancelled
func (l *MemoryLoginLimiter) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(l.window)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// RedisLoginLimiter is a fixed-window limiter shared across replicas
type RedisLoginLimiter struct {
	client   *redis.Client
	requests int
	window   time.Duration
	prefix   string
	logger   *observability.Logger
}

// NewRedisLoginLimiter creates a Redis-backed limiter
func NewRedisLoginLimiter(client *redis.Client, requests int, window time.Duration, logger *observability.Logger) *RedisLoginLimiter {
	return &RedisLoginLimiter{
		client:   client,
		requests: requests,
		window:   window,
		prefix:   "hercules:login",
		logger:   logger,
	}
}

// Allow implements LoginLimiter. Redis errors fail open.
func (l *RedisLoginLimiter) Allow(ctx context.Context, key string) bool {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.WithError(err).Warn("Login limiter redis error, failing open")
		return true
	}

	return incr.Val() <= int64(l.requests)
}

// LoginRateLimit wraps the token endpoint with per-client-IP limiting
func LoginRateLimit(limiter LoginLimiter, metrics *observability.Metrics) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.Context(), ClientIP(r)) {
				if metrics != nil {
					metrics.LoginAttemptsTotal.WithLabelValues("throttled").Inc()
				}
				httputil.WriteTooManyRequests(w, "Demasiados intentos, espere un momento")
				return
			}
			next(w, r)
		}
	}
}

// ClientIP extracts the client address, honoring proxy headers
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// first hop is the client
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
