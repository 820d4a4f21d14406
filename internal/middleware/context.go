// file: internal/middleware/context.go
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wellnesshub/internal/contextutils"

	"go.uber.org/zap"
)

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	return contextutils.GetRequestID(ctx)
}

// GetUserID extracts the authenticated user ID from context
func GetUserID(ctx context.Context) string {
	return contextutils.GetUserID(ctx)
}

// GetRequestLogger extracts the request-scoped logger from context
func GetRequestLogger(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// GetRequestStart extracts the request start time from context
func GetRequestStart(ctx context.Context) time.Time {
	if start, ok := ctx.Value(RequestStartKey).(time.Time); ok {
		return start
	}
	return time.Now()
}

// generateFallbackID creates a fallback ID when UUID generation fails
func generateFallbackID(start time.Time) string {
	return "req_" + start.UTC().Format("20060102150405") + "_" + strconv.FormatInt(int64(start.Nanosecond()), 36)
}

// getClientIP extracts the real client IP address
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can be "client, proxy1, proxy2"
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}
