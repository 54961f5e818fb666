package poller

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/mqflow/internal/runtime/logging/loggingtest"
	"github.com/drblury/mqflow/internal/runtime/metrics"
)

func TestDispatchHooksMerge(t *testing.T) {
	var calls []string
	a := DispatchHooks{
		OnDispatchStart: func(DispatchContext) { calls = append(calls, "a-start") },
		OnDispatchError: func(DispatchContext, error) { calls = append(calls, "a-error") },
	}
	b := DispatchHooks{
		OnDispatchStart: func(DispatchContext) { calls = append(calls, "b-start") },
		OnDispatchDone:  func(DispatchContext) { calls = append(calls, "b-done") },
	}

	merged := a.Merge(b)
	merged.start(DispatchContext{})
	merged.done(DispatchContext{}, nil)
	merged.done(DispatchContext{}, errors.New("x"))

	assert.Equal(t, []string{"a-start", "b-start", "b-done", "a-error"}, calls)
}

func TestDispatchHooksNil(t *testing.T) {
	var h DispatchHooks
	assert.NotPanics(t, func() {
		h.start(DispatchContext{})
		h.done(DispatchContext{}, nil)
		h.done(DispatchContext{}, errors.New("x"))
	})
}

func TestLoggingHooks(t *testing.T) {
	log := loggingtest.New()
	h := LoggingHooks(log)

	ctx := DispatchContext{Handler: "default", Manager: "QM1", Target: "A", MessageID: "m1", Duration: 5 * time.Millisecond}
	h.start(ctx)
	h.done(ctx, nil)

	require.Len(t, log.Level("trace"), 1)
	done := log.Level("debug")
	require.Len(t, done, 1)
	assert.Equal(t, int64(5), done[0].Fields["duration_ms"])
	assert.Equal(t, "A", done[0].Fields["target"])
}

func TestMetricsHooks(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	h := MetricsHooks(m)

	ctx := DispatchContext{Handler: "default", Manager: "QM1", Target: "A"}
	h.done(ctx, nil)
	h.done(ctx, errors.New("x"))

	tm := m.GetTargetMetrics("QM1", "A")
	require.NotNil(t, tm)
	assert.Equal(t, uint64(2), tm.Dispatched)
	assert.Equal(t, uint64(1), tm.Failed)

	assert.Equal(t, DispatchHooks{}, MetricsHooks(nil))
}
