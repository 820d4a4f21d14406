package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wellnesshub/internal/cache"
	"wellnesshub/internal/contextutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLimiter(t *testing.T, limit int) *RateLimiter {
	t.Helper()
	cfg := cache.DefaultConfig()
	cfg.CleanupInterval = 0
	c := cache.NewMemoryCache(cfg, zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })

	rl := NewRateLimiter(c, &RateLimiterConfig{Limit: limit, Window: time.Hour, HeadersEnabled: true}, zap.NewNop())
	now := time.Now()
	rl.now = func() time.Time { return now }
	return rl
}

func TestRateLimiterCheck(t *testing.T) {
	rl := newTestLimiter(t, 2)
	ctx := context.Background()

	first := rl.Check(ctx, "user-1")
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)

	assert.True(t, rl.Check(ctx, "user-1").Allowed)

	third := rl.Check(ctx, "user-1")
	assert.False(t, third.Allowed)
	assert.Zero(t, third.Remaining)
	assert.Positive(t, third.RetryAfter)

	assert.True(t, rl.Check(ctx, "user-2").Allowed, "callers are counted separately")
}

func TestRateLimiterPerUserMiddleware(t *testing.T) {
	rl := newTestLimiter(t, 1)
	calls := 0
	h := rl.PerUser()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	send := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/badges/evaluate", nil)
		req = req.WithContext(contextutils.WithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	ok := send("user-1")
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "1", ok.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", ok.Header().Get("X-RateLimit-Remaining"))

	limited := send("user-1")
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), "RATE_LIMIT_EXCEEDED")

	assert.Equal(t, http.StatusOK, send("user-2").Code)
	assert.Equal(t, 2, calls)
}

func TestRateLimiterDisabled(t *testing.T) {
	var nilLimiter *RateLimiter
	assert.False(t, nilLimiter.Enabled())
	assert.False(t, NewRateLimiter(nil, &RateLimiterConfig{Limit: 5, Window: time.Minute}, nil).Enabled())

	rl := newTestLimiter(t, 0)
	assert.False(t, rl.Enabled())

	h := rl.PerUser()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiterConcurrentBurstHonorsLimit(t *testing.T) {
	rl := newTestLimiter(t, 5)
	ctx := context.Background()

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Check(ctx, "user-1").Allowed {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), allowed)
}

type failingCounterCache struct {
	cache.Cache
}

func (failingCounterCache) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	return 0, errors.New("redis: connection refused")
}

func TestRateLimiterAllowsWhenCacheFails(t *testing.T) {
	rl := NewRateLimiter(failingCounterCache{}, &RateLimiterConfig{Limit: 1, Window: time.Minute}, zap.NewNop())

	for i := 0; i < 3; i++ {
		result := rl.Check(context.Background(), "user-1")
		assert.True(t, result.Allowed)
		assert.Equal(t, 1, result.Remaining)
	}
}
