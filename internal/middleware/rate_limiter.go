package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"wellnesshub/internal/cache"

	"go.uber.org/zap"
)

// RateLimiterConfig configures a fixed-window limiter
type RateLimiterConfig struct {
	// Limit is the number of requests allowed per Window. Zero disables limiting.
	Limit  int
	Window time.Duration
	// KeyPrefix namespaces the counters in the shared cache
	KeyPrefix string
	// HeadersEnabled adds X-RateLimit-* headers to every limited response
	HeadersEnabled bool
}

// RateLimitResult describes one limit check
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// RateLimiter counts requests per caller in fixed windows stored in the cache.
// Each request increments its window counter atomically, so a burst from one
// caller cannot exceed the limit. A cache failure lets the request through.
type RateLimiter struct {
	cache  cache.Cache
	config *RateLimiterConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewRateLimiter creates a limiter backed by c
func NewRateLimiter(c cache.Cache, config *RateLimiterConfig, logger *zap.Logger) *RateLimiter {
	if config == nil {
		config = &RateLimiterConfig{}
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "ratelimit"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{cache: c, config: config, logger: logger, now: time.Now}
}

// Enabled reports whether requests are limited at all
func (rl *RateLimiter) Enabled() bool {
	return rl != nil && rl.cache != nil && rl.config.Limit > 0 && rl.config.Window > 0
}

// PerUser limits authenticated callers by user ID and anonymous ones by client IP.
// It must run after the auth middleware.
func (rl *RateLimiter) PerUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			subject := GetUserID(r.Context())
			if subject == "" {
				subject = "ip:" + getClientIP(r)
			}

			result := rl.Check(r.Context(), subject)
			rl.writeRateLimitHeaders(w, result)

			if !result.Allowed {
				GetRequestLogger(r.Context()).Warn("Rate limit exceeded",
					zap.String("subject", subject),
					zap.Int("limit", result.Limit),
					zap.Duration("retry_after", result.RetryAfter),
				)
				writeJSONError(w, r, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Check counts one request for subject in the current window
func (rl *RateLimiter) Check(ctx context.Context, subject string) *RateLimitResult {
	limit, window := rl.config.Limit, rl.config.Window
	now := rl.now()
	windowStart := now.Truncate(window)
	resetTime := windowStart.Add(window)
	key := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, subject, windowStart.Unix())

	count, err := rl.cache.Increment(ctx, key, 1, resetTime.Sub(now))
	if err != nil {
		rl.logger.Warn("Failed to increment rate limit counter", zap.String("key", key), zap.Error(err))
		return &RateLimitResult{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetTime: resetTime,
		}
	}

	remaining := int64(limit) - count
	if remaining < 0 {
		remaining = 0
	}

	return &RateLimitResult{
		Allowed:    count <= int64(limit),
		Limit:      limit,
		Remaining:  int(remaining),
		ResetTime:  resetTime,
		RetryAfter: resetTime.Sub(now),
	}
}

func (rl *RateLimiter) writeRateLimitHeaders(w http.ResponseWriter, result *RateLimitResult) {
	if !rl.config.HeadersEnabled {
		return
	}

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime.Unix(), 10))

	if !result.Allowed {
		retry := int(result.RetryAfter.Seconds())
		if retry < 1 {
			retry = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retry))
	}
}
