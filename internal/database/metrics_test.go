package database

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordQuery(t *testing.T) {
	m := NewMetrics(50 * time.Millisecond)

	m.RecordQuery("query", 10*time.Millisecond, nil)
	m.RecordQuery("exec", 100*time.Millisecond, errors.New("boom"))
	m.RecordQuery("query_row", 30*time.Millisecond, nil)

	snap := m.Snapshot(sql.DBStats{OpenConnections: 2})

	assert.Equal(t, int64(3), snap.QueryCount)
	assert.Equal(t, int64(1), snap.ErrorCount)
	assert.Equal(t, int64(1), snap.SlowQueryCount)
	assert.Equal(t, int64(1), snap.ExecCount)
	assert.Equal(t, int64(1), snap.SelectCount)
	assert.Equal(t, int64(1), snap.QueryRowCount)
	assert.Equal(t, 2, snap.DBStats.OpenConnections)
	assert.Equal(t, time.Duration(140*time.Millisecond/3), snap.AvgQueryDuration)
}

func TestMetricsSnapshotEmpty(t *testing.T) {
	snap := NewMetrics(time.Second).Snapshot(sql.DBStats{})
	assert.Zero(t, snap.QueryCount)
	assert.Zero(t, snap.AvgQueryDuration)
}

func TestDetermineStatus(t *testing.T) {
	assert.Equal(t, StatusHealthy, determineStatus(0, 0))
	assert.Equal(t, StatusDegraded, determineStatus(0, 1))
	assert.Equal(t, StatusUnhealthy, determineStatus(1, 0))
}

func TestTruncateQuery(t *testing.T) {
	short := "SELECT 1"
	assert.Equal(t, short, truncateQuery(short))

	long := strings.Repeat("x", 250)
	out := truncateQuery(long)
	assert.Len(t, out, 203)
	assert.True(t, strings.HasSuffix(out, "..."))
}
