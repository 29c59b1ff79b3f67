// Package metrics exposes Prometheus counters and gauges for allow-list
// reconciliation activity.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics implements allowlist.Recorder against real Prometheus
// collectors.
type Metrics struct {
	ApplyTotal        prometheus.Counter
	RetractTotal      prometheus.Counter
	NoopTotal         prometheus.Counter
	EngineErrorTotal  prometheus.Counter
	SeqExhaustedTotal prometheus.Counter
	EntriesGauge      prometheus.Gauge
}

// New constructs Metrics and registers its collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ApplyTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bgp_allowlistd_reconcile_apply_total",
			Help: "Total number of allow-list apply reconciliations attempted.",
		}),
		RetractTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bgp_allowlistd_reconcile_retract_total",
			Help: "Total number of allow-list retract reconciliations attempted.",
		}),
		NoopTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bgp_allowlistd_reconcile_noop_total",
			Help: "Total number of reconciliations that produced an empty command batch.",
		}),
		EngineErrorTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bgp_allowlistd_reconcile_engine_errors_total",
			Help: "Total number of reconciliations that failed due to a routing engine error.",
		}),
		SeqExhaustedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bgp_allowlistd_sequence_space_exhausted_total",
			Help: "Total number of route-map sequence allocation failures.",
		}),
		EntriesGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bgp_allowlistd_allow_list_entries",
			Help: "Current number of live (deployment_id, community) allow-list entries tracked.",
		}),
	}
	reg.MustRegister(
		m.ApplyTotal,
		m.RetractTotal,
		m.NoopTotal,
		m.EngineErrorTotal,
		m.SeqExhaustedTotal,
		m.EntriesGauge,
	)
	return m
}

// ApplyAttempted implements allowlist.Recorder.
func (m *Metrics) ApplyAttempted() { m.ApplyTotal.Inc() }

// RetractAttempted implements allowlist.Recorder.
func (m *Metrics) RetractAttempted() { m.RetractTotal.Inc() }

// Noop implements allowlist.Recorder.
func (m *Metrics) Noop() { m.NoopTotal.Inc() }

// EngineError implements allowlist.Recorder.
func (m *Metrics) EngineError() { m.EngineErrorTotal.Inc() }

// SequenceExhausted implements allowlist.Recorder.
func (m *Metrics) SequenceExhausted() { m.SeqExhaustedTotal.Inc() }

// EntriesTracked implements allowlist.Recorder.
func (m *Metrics) EntriesTracked(n int) { m.EntriesGauge.Set(float64(n)) }
