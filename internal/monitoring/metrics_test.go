package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestMetrics() *Metrics {
	return NewMetricsWith(prometheus.NewRegistry())
}

func TestRecordFlush(t *testing.T) {
	m := newTestMetrics()

	m.RecordFlush(1024, 3)
	m.RecordFlush(2048, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FlushesTotal))
	assert.Equal(t, 3072.0, testutil.ToFloat64(m.FlushedBytes))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.QueueDepth))
}

func TestRecordDrop(t *testing.T) {
	m := newTestMetrics()

	m.RecordDrop(50, 6400)

	assert.Equal(t, 50.0, testutil.ToFloat64(m.DroppedChunks))
	assert.Equal(t, 6400.0, testutil.ToFloat64(m.DroppedBytes))
}

func TestSessionLifecycleCounters(t *testing.T) {
	m := newTestMetrics()

	m.SessionStarted()
	m.SessionStarted()
	m.SessionEnded()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsTotal))
}

func TestUpdateUptime(t *testing.T) {
	m := newTestMetrics()
	m.startTime = time.Now().Add(-time.Minute)

	m.UpdateUptime()

	assert.InDelta(t, 60.0, testutil.ToFloat64(m.Uptime), 5.0)
}
