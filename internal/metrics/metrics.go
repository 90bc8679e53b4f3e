// Package metrics exposes Prometheus metrics for profile synchronization.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks validation, sync, remote and audit outcomes.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ValidationFailures *prometheus.CounterVec
	DiscoverySyncs     *prometheus.CounterVec
	SyncFallbacks      *prometheus.CounterVec
	RemoteErrors       *prometheus.CounterVec
	ConsistencyDiffs   *prometheus.CounterVec
	OnboardingSteps    *prometheus.CounterVec
	SearchIndexErrors  prometheus.Counter
	AccountOpDuration  *prometheus.HistogramVec
}

// New registers all metrics with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roomies_validation_failures_total",
			Help: "Mutations rejected by validation",
		}, []string{"kind"}),
		DiscoverySyncs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roomies_discovery_syncs_total",
			Help: "Discovery record writes by mode (build, patch, reset)",
		}, []string{"mode"}),
		SyncFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roomies_sync_fallbacks_total",
			Help: "Derived discovery fields that fell back to their default",
		}, []string{"field"}),
		RemoteErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roomies_remote_errors_total",
			Help: "Failed remote persistence calls by operation",
		}, []string{"op"}),
		ConsistencyDiffs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roomies_consistency_differences_total",
			Help: "Account/discovery differences found by audits",
		}, []string{"severity"}),
		OnboardingSteps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roomies_onboarding_steps_completed_total",
			Help: "Onboarding steps completed",
		}, []string{"step"}),
		SearchIndexErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "roomies_search_index_errors_total",
			Help: "Discovery records that failed to reach the search index",
		}),
		AccountOpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roomies_account_operation_duration_seconds",
			Help:    "Duration of account service operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"op"}),
	}
}

func (m *Metrics) IncValidationFailure(kind string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncDiscoverySync(mode string) {
	if m == nil {
		return
	}
	m.DiscoverySyncs.WithLabelValues(mode).Inc()
}

// SyncFallback implements profilesync.FallbackRecorder.
func (m *Metrics) SyncFallback(field string) {
	if m == nil {
		return
	}
	m.SyncFallbacks.WithLabelValues(field).Inc()
}

func (m *Metrics) IncRemoteError(op string) {
	if m == nil {
		return
	}
	m.RemoteErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) AddConsistencyDiffs(severity string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ConsistencyDiffs.WithLabelValues(severity).Add(float64(n))
}

func (m *Metrics) IncOnboardingStep(step string) {
	if m == nil {
		return
	}
	m.OnboardingSteps.WithLabelValues(step).Inc()
}

func (m *Metrics) IncSearchIndexError() {
	if m == nil {
		return
	}
	m.SearchIndexErrors.Inc()
}

// ObserveAccountOp records the duration of op.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveAccountOp(op string, start time.Time) {
	if m == nil {
		return
	}
	m.AccountOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
