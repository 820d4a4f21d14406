package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthStatus represents the current health status of the database
type HealthStatus struct {
	Status          string                 `json:"status"`
	Timestamp       time.Time              `json:"timestamp"`
	ResponseTime    time.Duration          `json:"response_time"`
	ConnectionCount int                    `json:"connection_count"`
	Errors          []string               `json:"errors,omitempty"`
	Details         map[string]interface{} `json:"details"`
}

// Health check statuses
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// criticalTables must be readable for the badge engine to work
var criticalTables = []string{"badges", "user_badges", "meditation_sessions", "sleep_sessions", "exercise_sessions"}

// HealthChecker pings the pool and reads the badge tables
type HealthChecker struct {
	manager *Manager
	logger  *zap.Logger

	timeout          time.Duration
	slowPingWarning  time.Duration
	poolWarningRatio float64

	mu         sync.RWMutex
	lastStatus *HealthStatus
}

func NewHealthChecker(manager *Manager, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		manager:          manager,
		logger:           logger,
		timeout:          5 * time.Second,
		slowPingWarning:  500 * time.Millisecond,
		poolWarningRatio: 0.9,
	}
}

// Check runs connectivity, pool and table checks
func (hc *HealthChecker) Check(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{
		Timestamp: start,
		Details:   make(map[string]interface{}),
		Errors:    make([]string, 0),
	}

	ctx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	warnings := 0
	db := hc.manager.DB()
	if db == nil {
		status.Status = StatusUnhealthy
		status.Errors = append(status.Errors, "database connection is closed")
		hc.remember(status)
		return status
	}

	pingStart := time.Now()
	if err := db.PingContext(ctx); err != nil {
		status.Errors = append(status.Errors, fmt.Sprintf("ping: %v", err))
		status.Status = StatusUnhealthy
		status.ResponseTime = time.Since(start)
		hc.logger.Error("Database ping failed", zap.Error(err))
		hc.remember(status)
		return status
	}
	pingDuration := time.Since(pingStart)
	status.Details["ping_duration"] = pingDuration.String()
	if pingDuration > hc.slowPingWarning {
		status.Details["ping_warning"] = "slow ping response"
		warnings++
	}

	stats := db.Stats()
	status.ConnectionCount = stats.OpenConnections
	status.Details["pool"] = map[string]interface{}{
		"max_open":   stats.MaxOpenConnections,
		"open":       stats.OpenConnections,
		"in_use":     stats.InUse,
		"idle":       stats.Idle,
		"wait_count": stats.WaitCount,
	}
	if stats.MaxOpenConnections > 0 &&
		float64(stats.InUse)/float64(stats.MaxOpenConnections) >= hc.poolWarningRatio {
		status.Details["pool_warning"] = "connection pool nearly exhausted"
		warnings++
	}

	for _, table := range criticalTables {
		var exists bool
		err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", "public."+table).Scan(&exists)
		switch {
		case err != nil:
			status.Errors = append(status.Errors, fmt.Sprintf("table %s: %v", table, err))
		case !exists:
			status.Errors = append(status.Errors, fmt.Sprintf("table %s is missing", table))
		}
	}

	status.ResponseTime = time.Since(start)
	status.Status = determineStatus(len(status.Errors), warnings)
	hc.remember(status)
	return status
}

// LastStatus returns the most recent result, or nil before the first check
func (hc *HealthChecker) LastStatus() *HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.lastStatus
}

func (hc *HealthChecker) remember(status *HealthStatus) {
	hc.mu.Lock()
	hc.lastStatus = status
	hc.mu.Unlock()
}

func determineStatus(errorCount, warningCount int) string {
	switch {
	case errorCount > 0:
		return StatusUnhealthy
	case warningCount > 0:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}
