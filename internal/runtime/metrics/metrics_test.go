package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDispatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NoError(t, m.Register())

	m.RecordDispatch("QM1", "APP.IN", "default", 10*time.Millisecond, false)
	m.RecordDispatch("QM1", "APP.IN", "default", 30*time.Millisecond, true)

	tm := m.GetTargetMetrics("QM1", "APP.IN")
	require.NotNil(t, tm)
	assert.Equal(t, uint64(2), tm.Dispatched)
	assert.Equal(t, uint64(1), tm.Failed)
	assert.Equal(t, 20.0, tm.AvgDurationMS)
	assert.False(t, tm.LastErrorAt.IsZero())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dispatchedTotal.WithLabelValues("QM1", "APP.IN", "default")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatchErrorsTotal.WithLabelValues("QM1", "APP.IN", "default")))
}

func TestRecordCycleAndTransport(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NoError(t, m.Register())

	m.RecordConnect("QM1")
	m.RecordCycle("QM1")
	m.RecordCycle("QM1")
	m.RecordTransportError("QM1")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.connectsTotal.WithLabelValues("QM1")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cyclesTotal.WithLabelValues("QM1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transportErrors.WithLabelValues("QM1")))
	assert.Positive(t, testutil.ToFloat64(m.lastCycleTimestamp.WithLabelValues("QM1")))
}

func TestSnapshot(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordDispatch("QM1", "A", "default", time.Millisecond, false)
	m.RecordDispatch("QM1", "B", "default", time.Millisecond, true)

	snapshot := m.GetSnapshot()
	assert.Equal(t, uint64(2), snapshot.TotalDispatched)
	assert.Equal(t, uint64(1), snapshot.TotalFailed)
	assert.Len(t, snapshot.Targets, 2)
	assert.Contains(t, snapshot.Targets, "QM1/A")

	snapshot.Targets["QM1/A"].Dispatched = 99
	assert.Equal(t, uint64(1), m.GetTargetMetrics("QM1", "A").Dispatched)
}

func TestUnknownTarget(t *testing.T) {
	assert.Nil(t, New(prometheus.NewRegistry()).GetTargetMetrics("QM1", "nope"))
}

func TestReset(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordDispatch("QM1", "A", "default", time.Millisecond, false)
	m.Reset()
	assert.Empty(t, m.GetSnapshot().Targets)
}

func TestRegisterIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, New(reg).Register())
	// A second collector set on the same registry is tolerated.
	require.NoError(t, New(reg).Register())

	m := New(reg)
	require.NoError(t, m.Register())
	require.NoError(t, m.Register())
}
