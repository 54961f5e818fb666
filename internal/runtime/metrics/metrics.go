// Package metrics tracks poller activity: dispatches per target, handler
// failures, transport errors and poll cycles.
package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "mqflow"
	subsystem = "poller"
)

// Metrics collects poller statistics both as Prometheus series and as an
// in-memory per-target view.
type Metrics struct {
	mu sync.RWMutex

	targets map[string]*TargetMetrics

	dispatchedTotal     *prometheus.CounterVec
	dispatchErrorsTotal *prometheus.CounterVec
	dispatchDuration    *prometheus.HistogramVec
	transportErrors     *prometheus.CounterVec
	cyclesTotal         *prometheus.CounterVec
	connectsTotal       *prometheus.CounterVec
	lastCycleTimestamp  *prometheus.GaugeVec

	registerer prometheus.Registerer
	registered bool
}

// TargetMetrics holds the counts of one manager/target pair.
type TargetMetrics struct {
	Dispatched     uint64    `json:"dispatched"`
	Failed         uint64    `json:"failed"`
	LastDispatchAt time.Time `json:"last_dispatch_at,omitempty"`
	LastErrorAt    time.Time `json:"last_error_at,omitempty"`
	AvgDurationMS  float64   `json:"avg_duration_ms"`
}

// Snapshot is a point-in-time view of every target.
type Snapshot struct {
	TotalDispatched uint64                    `json:"total_dispatched"`
	TotalFailed     uint64                    `json:"total_failed"`
	Targets         map[string]*TargetMetrics `json:"targets"`
	CollectedAt     time.Time                 `json:"collected_at"`
}

func newCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func newGaugeVec(name, help string, labels []string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func newHistogramVec(name, help string, buckets []float64, labels []string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}

// New creates a collector. A nil registerer uses the Prometheus default.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		targets:             make(map[string]*TargetMetrics),
		registerer:          registerer,
		dispatchedTotal:     newCounterVec("dispatched_total", "Items handed to a record handler", []string{"manager", "target", "handler"}),
		dispatchErrorsTotal: newCounterVec("dispatch_errors_total", "Record handler invocations that failed or panicked", []string{"manager", "target", "handler"}),
		dispatchDuration:    newHistogramVec("dispatch_duration_seconds", "Record handler invocation time", prometheus.DefBuckets, []string{"handler"}),
		transportErrors:     newCounterVec("transport_errors_total", "Connection level failures that forced a disconnect", []string{"manager"}),
		cyclesTotal:         newCounterVec("cycles_total", "Completed poll cycles", []string{"manager"}),
		connectsTotal:       newCounterVec("connects_total", "Connections opened to the queue manager", []string{"manager"}),
		lastCycleTimestamp:  newGaugeVec("last_cycle_timestamp_seconds", "Unix time of the last completed poll cycle", []string{"manager"}),
	}
}

// Register registers the Prometheus collectors. Safe to call multiple times.
func (m *Metrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.dispatchedTotal,
		m.dispatchErrorsTotal,
		m.dispatchDuration,
		m.transportErrors,
		m.cyclesTotal,
		m.connectsTotal,
		m.lastCycleTimestamp,
	}

	for _, c := range collectors {
		if err := m.registerer.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
		}
	}

	m.registered = true
	return nil
}

func key(manager, target string) string {
	return manager + "/" + target
}

// RecordDispatch records one handler invocation and its outcome.
func (m *Metrics) RecordDispatch(manager, target, handler string, d time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	tm := m.getOrCreate(manager, target)
	tm.Dispatched++
	tm.LastDispatchAt = now
	tm.AvgDurationMS = ((tm.AvgDurationMS * float64(tm.Dispatched-1)) + float64(d.Milliseconds())) / float64(tm.Dispatched)

	m.dispatchedTotal.WithLabelValues(manager, target, handler).Inc()
	m.dispatchDuration.WithLabelValues(handler).Observe(d.Seconds())
	if failed {
		tm.Failed++
		tm.LastErrorAt = now
		m.dispatchErrorsTotal.WithLabelValues(manager, target, handler).Inc()
	}
}

// RecordTransportError counts a connection level failure.
func (m *Metrics) RecordTransportError(manager string) {
	m.transportErrors.WithLabelValues(manager).Inc()
}

// RecordConnect counts a new connection.
func (m *Metrics) RecordConnect(manager string) {
	m.connectsTotal.WithLabelValues(manager).Inc()
}

// RecordCycle counts a completed poll cycle.
func (m *Metrics) RecordCycle(manager string) {
	m.cyclesTotal.WithLabelValues(manager).Inc()
	m.lastCycleTimestamp.WithLabelValues(manager).Set(float64(time.Now().Unix()))
}

// GetSnapshot returns a copy of every target's counts.
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := Snapshot{
		Targets:     make(map[string]*TargetMetrics, len(m.targets)),
		CollectedAt: time.Now(),
	}
	for k, tm := range m.targets {
		c := *tm
		snapshot.Targets[k] = &c
		snapshot.TotalDispatched += tm.Dispatched
		snapshot.TotalFailed += tm.Failed
	}
	return snapshot
}

// GetTargetMetrics returns the counts of one target, or nil.
func (m *Metrics) GetTargetMetrics(manager, target string) *TargetMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if tm, ok := m.targets[key(manager, target)]; ok {
		c := *tm
		return &c
	}
	return nil
}

func (m *Metrics) getOrCreate(manager, target string) *TargetMetrics {
	k := key(manager, target)
	if tm, ok := m.targets[k]; ok {
		return tm
	}
	tm := &TargetMetrics{}
	m.targets[k] = tm
	return tm
}

// Reset drops every count (useful for testing).
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.targets = make(map[string]*TargetMetrics)
	m.dispatchedTotal.Reset()
	m.dispatchErrorsTotal.Reset()
	m.dispatchDuration.Reset()
	m.transportErrors.Reset()
	m.cyclesTotal.Reset()
	m.connectsTotal.Reset()
	m.lastCycleTimestamp.Reset()
}
